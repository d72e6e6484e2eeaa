package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/greenquant-lab/greenquant/internal/aggregator"
	"github.com/greenquant-lab/greenquant/internal/catalog"
	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

type fakeRunner struct {
	result *aggregator.Result
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, symbols []string) (*aggregator.Result, error) {
	return f.result, f.err
}

func testFrame(symbol string, n int) types.IndicatorFrame {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	frame := types.IndicatorFrame{Symbol: symbol}
	for i := 0; i < n; i++ {
		price := 100 + float64(i)
		frame.Rows = append(frame.Rows, types.IndicatorRow{
			Time:           start.AddDate(0, 0, i),
			Price:          price,
			RSI:            55,
			MACD:           0.4,
			MACDSignal:     0.3,
			MACDHistogram:  0.1,
			MovingAverages: map[int]float64{20: price - 1},
			Return:         0.01,
			Volatility:     0.02,
		})
	}

	return frame
}

func testResult() *aggregator.Result {
	frame := testFrame("AAPL", 10)

	rebased := make([]float64, len(frame.Rows))
	for i, row := range frame.Rows {
		rebased[i] = row.Price / frame.Rows[0].Price * 100
	}

	return &aggregator.Result{
		TraceID:  "trace-1",
		Period:   types.Period1Year,
		Strategy: "scorecard",
		Results: []aggregator.SymbolResult{
			{
				Symbol:  "AAPL",
				Frame:   frame,
				Rebased: rebased,
				Signal: types.Signal{
					Symbol:     "AAPL",
					Action:     types.ActionBuy,
					Confidence: 75,
					Rationale:  "MACD bullish (value=0.4000)",
				},
			},
			{
				Symbol: "MSFT",
				Err:    errors.NewNoDataError("MSFT", "fetch returned nothing"),
			},
		},
	}
}

type ServerTestSuite struct {
	suite.Suite

	server *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.server = NewServer(&fakeRunner{result: testResult()}, catalog.Default(), Options{
		Address:     ":0",
		RefreshCron: "*/15 * * * *",
		Symbols:     []string{"AAPL", "MSFT"},
	}, logger.NewNopLogger())
}

func (suite *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	suite.server.Router().ServeHTTP(rec, req)

	return rec
}

func (suite *ServerTestSuite) TestAnalysisBeforeFirstRefresh() {
	rec := suite.get("/api/analysis")
	suite.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (suite *ServerTestSuite) TestAnalysisAfterRefresh() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	rec := suite.get("/api/analysis")
	suite.Equal(http.StatusOK, rec.Code)

	var snapshot Snapshot
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &snapshot))
	suite.Equal("trace-1", snapshot.TraceID)
	suite.Require().Len(snapshot.Symbols, 2)

	apple := snapshot.Symbols[0]
	suite.Equal("AAPL", apple.Symbol)
	suite.Equal("Apple (AAPL)", apple.Name)
	suite.Equal(109.0, apple.Price)
	suite.Equal(types.ActionBuy, apple.Action)
	suite.Equal("stable market conditions", apple.Condition)
	suite.Equal(100.0, apple.Rebased[0])

	msft := snapshot.Symbols[1]
	suite.Equal("data unavailable", msft.Condition)
	suite.NotEmpty(msft.Error)
}

func (suite *ServerTestSuite) TestRefreshFailurePropagates() {
	server := NewServer(&fakeRunner{err: errors.New(errors.ErrCodeFetchFailed, "down")}, catalog.Default(), Options{
		RefreshCron: "*/15 * * * *",
	}, logger.NewNopLogger())

	err := server.Refresh(context.Background())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func (suite *ServerTestSuite) TestSymbolsEndpoint() {
	rec := suite.get("/api/symbols")
	suite.Equal(http.StatusOK, rec.Code)

	var entries []catalog.Entry
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &entries))
	suite.Len(entries, 10)
	suite.Equal("AAPL", entries[0].Symbol)
}

func (suite *ServerTestSuite) TestIndexRendersTable() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	rec := suite.get("/")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "Apple (AAPL)")
	suite.Contains(rec.Body.String(), "BUY")
}

func (suite *ServerTestSuite) TestChartEndpoints() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	for _, kind := range []string{"price", "rsi", "macd"} {
		rec := suite.get("/charts/" + kind + "/AAPL")
		suite.Equal(http.StatusOK, rec.Code, kind)
		suite.Contains(rec.Body.String(), "echarts", kind)
	}
}

func (suite *ServerTestSuite) TestChartUnknownSymbol() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	rec := suite.get("/charts/price/TSLA")
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *ServerTestSuite) TestChartSymbolWithoutData() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	rec := suite.get("/charts/rsi/MSFT")
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *ServerTestSuite) TestComparisonChart() {
	suite.Require().NoError(suite.server.Refresh(context.Background()))

	rec := suite.get("/charts/comparison")
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "Relative performance")
}

func (suite *ServerTestSuite) TestWebsocketReceivesRefresh() {
	httpServer := httptest.NewServer(suite.server.Router())
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	suite.Require().NoError(err)

	defer conn.Close()

	// Wait for the read pump registration before broadcasting.
	suite.Require().Eventually(func() bool {
		return suite.server.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	suite.Require().NoError(suite.server.Refresh(context.Background()))

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	_, payload, err := conn.ReadMessage()
	suite.Require().NoError(err)

	var snapshot Snapshot
	suite.Require().NoError(json.Unmarshal(payload, &snapshot))
	suite.Equal("trace-1", snapshot.TraceID)
}

func (suite *ServerTestSuite) TestConcurrentBroadcastsAreSerializedPerClient() {
	httpServer := httptest.NewServer(suite.server.Router())
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	suite.Require().NoError(err)

	defer conn.Close()

	suite.Require().Eventually(func() bool {
		return suite.server.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Scheduled refreshes may overlap a slow manual one, so broadcasts
	// to the same connection can race. Each must hold the client's
	// write lock; without it gorilla/websocket panics on the second
	// concurrent writer.
	const messages = 50

	payload := []byte(`{"trace_id":"concurrent"}`)

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < messages; j++ {
				suite.server.hub.Broadcast(payload)
			}
		}()
	}

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	for i := 0; i < 2*messages; i++ {
		_, received, err := conn.ReadMessage()
		suite.Require().NoError(err)
		suite.Equal(payload, received)
	}

	wg.Wait()
	suite.Equal(1, suite.server.hub.ClientCount())
}
