// Package dashboard serves the operator-facing http dashboard: json
// metrics, rendered indicator charts and a websocket stream that
// pushes every refreshed snapshot. Refreshes run on a cron schedule
// and rebuild one immutable snapshot per pass.
package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/greenquant-lab/greenquant/internal/aggregator"
	"github.com/greenquant-lab/greenquant/internal/catalog"
	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
)

// Runner executes one aggregation pass. Satisfied by the aggregator.
type Runner interface {
	Run(ctx context.Context, symbols []string) (*aggregator.Result, error)
}

// SymbolView is the per-symbol slice of a snapshot.
type SymbolView struct {
	Symbol     string         `json:"symbol"`
	Name       string         `json:"name"`
	Price      float64        `json:"price"`
	RSI        float64        `json:"rsi"`
	MACD       float64        `json:"macd"`
	Volatility float64        `json:"volatility"`
	Action     types.Action   `json:"action"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
	Condition  string         `json:"condition"`
	AsOf       time.Time      `json:"as_of"`
	Rebased    []float64      `json:"rebased,omitempty"`
	Outlook    *types.Outlook `json:"outlook,omitempty"`
	Error      string         `json:"error,omitempty"`

	frame types.IndicatorFrame
}

// Snapshot is one completed refresh.
type Snapshot struct {
	TraceID   string       `json:"trace_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Period    string       `json:"period"`
	Strategy  string       `json:"strategy"`
	Symbols   []SymbolView `json:"symbols"`
}

// Options holds the server settings.
type Options struct {
	Address     string
	RefreshCron string
	Symbols     []string
}

// Server is the dashboard http server.
type Server struct {
	runner     Runner
	catalog    *catalog.Catalog
	hub        *Hub
	cron       *cron.Cron
	logger     *logger.Logger
	router     *mux.Router
	httpServer *http.Server
	opts       Options

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewServer creates a dashboard server. Symbols default to the whole
// catalog.
func NewServer(runner Runner, cat *catalog.Catalog, opts Options, log *logger.Logger) *Server {
	if len(opts.Symbols) == 0 {
		opts.Symbols = cat.Symbols()
	}

	s := &Server{
		runner:  runner,
		catalog: cat,
		hub:     NewHub(log),
		cron:    cron.New(),
		logger:  log,
		opts:    opts,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/api/symbols", s.handleSymbols).Methods(http.MethodGet)
	router.HandleFunc("/api/analysis", s.handleAnalysis).Methods(http.MethodGet)
	router.HandleFunc("/charts/comparison", s.handleComparisonChart).Methods(http.MethodGet)
	router.HandleFunc("/charts/{kind:price|rsi|macd}/{symbol}", s.handleChart).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	s.router = router

	return s
}

// Router exposes the handler for tests and custom servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs an initial refresh, schedules periodic ones and serves
// http until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.opts.RefreshCron, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.logger.Error("scheduled refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()

	s.httpServer = &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("dashboard listening",
		zap.String("address", s.opts.Address),
		zap.String("refresh_cron", s.opts.RefreshCron),
		zap.Strings("symbols", s.opts.Symbols))

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}

		return err
	}
}

// Shutdown stops the cron scheduler and the http server.
func (s *Server) Shutdown() error {
	s.cron.Stop()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Refresh runs one aggregation pass, swaps in the new snapshot and
// pushes it to websocket clients.
func (s *Server) Refresh(ctx context.Context) error {
	result, err := s.runner.Run(ctx, s.opts.Symbols)
	if err != nil {
		return err
	}

	snapshot := s.buildSnapshot(result)

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	if payload, err := json.Marshal(snapshot); err == nil {
		s.hub.Broadcast(payload)
	}

	s.logger.Info("snapshot refreshed",
		zap.String("trace_id", snapshot.TraceID),
		zap.Int("symbols", len(snapshot.Symbols)),
		zap.Int("ws_clients", s.hub.ClientCount()))

	return nil
}

func (s *Server) buildSnapshot(result *aggregator.Result) *Snapshot {
	snapshot := &Snapshot{
		TraceID:   result.TraceID,
		UpdatedAt: time.Now().UTC(),
		Period:    result.Period.String(),
		Strategy:  string(result.Strategy),
		Symbols:   make([]SymbolView, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		view := SymbolView{
			Symbol: r.Symbol,
			Name:   s.catalog.DisplayName(r.Symbol),
			frame:  r.Frame,
		}

		if r.Err != nil {
			view.Error = r.Err.Error()
			view.Condition = "data unavailable"
			snapshot.Symbols = append(snapshot.Symbols, view)

			continue
		}

		if last, ok := r.Frame.Last(); ok {
			view.Price = last.Price
			view.RSI = last.RSI
			view.MACD = last.MACD
			view.Volatility = last.Volatility
			view.AsOf = last.Time
			view.Condition = condition(last.RSI)
			view.Action = r.Signal.Action
			view.Confidence = r.Signal.Confidence
			view.Rationale = r.Signal.Rationale
			view.Rebased = r.Rebased
			view.Outlook = r.Outlook
		} else {
			view.Condition = "insufficient history"
		}

		snapshot.Symbols = append(snapshot.Symbols, view)
	}

	return snapshot
}

// condition is the headline banner for the symbol.
func condition(rsi float64) string {
	switch {
	case rsi > 70:
		return "overbought market conditions"
	case rsi < 30:
		return "oversold market conditions"
	default:
		return "stable market conditions"
	}
}

func (s *Server) currentSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>greenquant dashboard</title></head>
<body>
<h1>greenquant</h1>
<p>Updated {{.UpdatedAt}} (period {{.Period}}, strategy {{.Strategy}})</p>
<p><a href="/charts/comparison">relative performance</a></p>
<table border="1" cellpadding="4">
<tr><th>Symbol</th><th>Price</th><th>RSI</th><th>MACD</th><th>Signal</th><th>Confidence</th><th>Condition</th><th>Charts</th></tr>
{{range .Symbols}}
<tr>
<td>{{.Name}}</td>
<td>{{printf "%.2f" .Price}}</td>
<td>{{printf "%.2f" .RSI}}</td>
<td>{{printf "%.4f" .MACD}}</td>
<td>{{.Action}}</td>
<td>{{printf "%.0f" .Confidence}}</td>
<td>{{.Condition}}{{if .Error}} ({{.Error}}){{end}}</td>
<td><a href="/charts/price/{{.Symbol}}">price</a> <a href="/charts/rsi/{{.Symbol}}">rsi</a> <a href="/charts/macd/{{.Symbol}}">macd</a></td>
</tr>
{{end}}
</table>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := indexTemplate.Execute(w, snapshot); err != nil {
		s.logger.Error("rendering index", zap.Error(err))
	}
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.catalog.Entries())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)

		return
	}

	writeJSON(w, snapshot)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	view, ok := s.findView(vars["symbol"])
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)

		return
	}

	if view.frame.Empty() {
		http.Error(w, "no chart data for symbol", http.StatusNotFound)

		return
	}

	var err error

	switch vars["kind"] {
	case "price":
		err = renderChart(w, priceChart(view.frame))
	case "rsi":
		err = renderChart(w, rsiChart(view.frame))
	case "macd":
		err = renderChart(w, macdChart(view.frame))
	}

	if err != nil {
		s.logger.Error("rendering chart", zap.String("kind", vars["kind"]), zap.Error(err))
	}
}

func (s *Server) handleComparisonChart(w http.ResponseWriter, r *http.Request) {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)

		return
	}

	if err := renderChart(w, comparisonChart(snapshot.Symbols)); err != nil {
		s.logger.Error("rendering comparison chart", zap.Error(err))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.Upgrade(w, r); err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

func (s *Server) findView(symbol string) (SymbolView, bool) {
	snapshot := s.currentSnapshot()
	if snapshot == nil {
		return SymbolView{}, false
	}

	for _, view := range snapshot.Symbols {
		if view.Symbol == symbol {
			return view, true
		}
	}

	return SymbolView{}, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(v)
}
