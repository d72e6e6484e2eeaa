package writer

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// parquetBar is the on-disk row layout of the plain parquet writer.
type parquetBar struct {
	Time   time.Time `parquet:"time"`
	Symbol string    `parquet:"symbol"`
	Open   float64   `parquet:"open"`
	High   float64   `parquet:"high"`
	Low    float64   `parquet:"low"`
	Close  float64   `parquet:"close"`
	Volume float64   `parquet:"volume"`
}

// ParquetWriter buffers bars in memory and writes a single parquet
// file on Finalize. Unlike DuckDBWriter it needs no cgo, which keeps
// it usable in constrained build environments.
type ParquetWriter struct {
	outputPath string
	bars       []parquetBar
}

// NewParquetWriter creates a new ParquetWriter writing to outputPath.
func NewParquetWriter(outputPath string) *ParquetWriter {
	return &ParquetWriter{outputPath: outputPath}
}

// Initialize resets the buffer.
func (w *ParquetWriter) Initialize() error {
	w.bars = w.bars[:0]

	return nil
}

// Write buffers one bar.
func (w *ParquetWriter) Write(data types.MarketData) error {
	w.bars = append(w.bars, parquetBar{
		Time:   data.Time.UTC(),
		Symbol: data.Symbol,
		Open:   data.Open,
		High:   data.High,
		Low:    data.Low,
		Close:  data.Close,
		Volume: data.Volume,
	})

	return nil
}

// Finalize writes the buffered bars to the parquet file.
func (w *ParquetWriter) Finalize() (string, error) {
	if len(w.bars) == 0 {
		return "", errors.New(errors.ErrCodeWriteFailed, "no bars to write")
	}

	if err := parquet.WriteFile(w.outputPath, w.bars); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "writing parquet file %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close drops the buffer.
func (w *ParquetWriter) Close() error {
	w.bars = nil

	return nil
}

// GetOutputPath returns the configured parquet output path.
func (w *ParquetWriter) GetOutputPath() string {
	return w.outputPath
}
