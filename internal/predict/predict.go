// Package predict implements the optional model collaborator: the
// most recent window of min-max scaled prices goes to an external
// inference endpoint, and the returned probability is interpreted as a
// directional outlook. The model being unavailable is a supported
// state, never an error surfaced to callers of the pipeline.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/greenquant-lab/greenquant/internal/logger"
	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

const (
	// DefaultWindow is the sequence length the model was trained on.
	DefaultWindow = 60

	upThreshold   = 0.52
	downThreshold = 0.48

	requestTimeout = 10 * time.Second
)

// Interpret maps a raw model probability onto a directional outlook.
// Probabilities inside the (0.48, 0.52) band are neutral; confidence
// grows linearly with distance from 0.5, capped at 100.
func Interpret(p float64) types.Outlook {
	direction := types.DirectionNeutral

	switch {
	case p > upThreshold:
		direction = types.DirectionUp
	case p < downThreshold:
		direction = types.DirectionDown
	}

	return types.Outlook{
		Direction:   direction,
		Probability: p,
		Confidence:  math.Min(math.Abs(p-0.5)*300, 100),
	}
}

// LatestWindow scales the whole series into [0, 1] and returns the most
// recent window of scaled observations, oldest first.
func LatestWindow(series types.PriceSeries, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "window must be positive, got %d", window)
	}

	prices := series.Prices()
	if len(prices) < window {
		return nil, errors.Newf(errors.ErrCodeInsufficientData, "need %d observations for the model window, have %d", window, len(prices))
	}

	var scaler MinMaxScaler
	if err := scaler.Fit(prices); err != nil {
		return nil, err
	}

	return scaler.TransformAll(prices[len(prices)-window:]), nil
}

// Client calls an external inference endpoint over http.
type Client struct {
	endpoint   string
	window     int
	httpClient *http.Client
	logger     *logger.Logger
}

// Resolve decides whether the model collaborator is available. It is
// available only when an endpoint is configured and the weights file
// exists on disk; otherwise Resolve returns nil and the caller keeps
// the rule-based signal alone.
func Resolve(endpoint, weightsPath string, window int, log *logger.Logger) *Client {
	if endpoint == "" || weightsPath == "" {
		return nil
	}

	if _, err := os.Stat(weightsPath); err != nil {
		log.Warn("model weights unavailable, predictions disabled",
			zap.String("weights_path", weightsPath),
			zap.Error(err))

		return nil
	}

	if window <= 0 {
		window = DefaultWindow
	}

	return &Client{
		endpoint:   endpoint,
		window:     window,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log,
	}
}

// Window returns the configured sequence length.
func (c *Client) Window() int {
	return c.window
}

type predictRequest struct {
	Symbol string    `json:"symbol"`
	Window []float64 `json:"window"`
}

type predictResponse struct {
	Probability float64 `json:"probability"`
}

// Predict sends the latest scaled window to the inference endpoint and
// interprets the returned probability.
func (c *Client) Predict(ctx context.Context, symbol string, series types.PriceSeries) (types.Outlook, error) {
	window, err := LatestWindow(series, c.window)
	if err != nil {
		return types.Outlook{}, err
	}

	body, err := json.Marshal(predictRequest{Symbol: symbol, Window: window})
	if err != nil {
		return types.Outlook{}, errors.Wrap(errors.ErrCodePredictorUnavailable, "encoding predict request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Outlook{}, errors.Wrap(errors.ErrCodePredictorUnavailable, "building predict request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Outlook{}, errors.Wrapf(errors.ErrCodePredictorUnavailable, err, "calling inference endpoint for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Outlook{}, errors.Newf(errors.ErrCodePredictorResponse, "inference endpoint returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return types.Outlook{}, errors.Wrap(errors.ErrCodePredictorResponse, "decoding predict response", err)
	}

	if decoded.Probability < 0 || decoded.Probability > 1 || math.IsNaN(decoded.Probability) {
		return types.Outlook{}, errors.Newf(errors.ErrCodePredictorResponse, "probability %v outside [0, 1]", decoded.Probability)
	}

	return Interpret(decoded.Probability), nil
}
