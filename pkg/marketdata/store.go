package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// BarStore queries previously downloaded parquet artifacts through an
// in-memory duckdb view, so offline tooling can re-run the pipeline
// without touching the network.
type BarStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// OpenStore opens an in-memory duckdb instance.
func OpenStore(log *logger.Logger) (*BarStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "opening duckdb", err)
	}

	return &BarStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// LoadParquet points the market_data view at a parquet file.
func (s *BarStore) LoadParquet(path string) error {
	s.logger.Debug("loading parquet into bar store", zap.String("path", path))

	if _, err := s.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "dropping existing view", err)
	}

	// Squirrel has no CREATE VIEW support, so this stays raw SQL. The
	// path is quoted for duckdb's string literal syntax.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, strings.ReplaceAll(path, "'", "''"))

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "creating view over %s", path)
	}

	return nil
}

// Count returns the number of loaded bars.
func (s *BarStore) Count() (int, error) {
	query, args, err := s.sq.Select("COUNT(*)").From("market_data").ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "building count query", err)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "counting bars", err)
	}

	return count, nil
}

// Bars returns the bars for one symbol ordered by time, optionally
// restricted to a time range.
func (s *BarStore) Bars(symbol string, start, end optional.Option[time.Time]) ([]types.MarketData, error) {
	builder := s.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time ASC")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "building bars query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "querying bars for %s", symbol)
	}
	defer rows.Close()

	var bars []types.MarketData

	for rows.Next() {
		var bar types.MarketData
		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedTable, "scanning bar row", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "iterating bar rows", err)
	}

	if len(bars) == 0 {
		return nil, errors.NewNoDataErrorf(symbol, "no stored bars for %s", symbol)
	}

	return bars, nil
}

// FetchHistory replays the loaded artifact as a pipeline data source.
// The artifact already embeds the lookback window it was downloaded
// with, so the period and interval arguments select nothing further.
func (s *BarStore) FetchHistory(ctx context.Context, symbol string, period types.Period, interval optional.Option[string]) ([]types.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.Bars(symbol, optional.None[time.Time](), optional.None[time.Time]())
}

// Close releases the duckdb connection.
func (s *BarStore) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "closing duckdb", err)
	}

	return nil
}
