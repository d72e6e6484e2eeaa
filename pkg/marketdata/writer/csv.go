package writer

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/greenquant-lab/greenquant/internal/types"
	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// CSVWriter streams bars into a csv file with a fixed OHLCV header,
// matching the layout of the offline training scripts.
type CSVWriter struct {
	outputPath string
	file       *os.File
	cw         *csv.Writer
}

// NewCSVWriter creates a new CSVWriter writing to outputPath.
func NewCSVWriter(outputPath string) *CSVWriter {
	return &CSVWriter{outputPath: outputPath}
}

// Initialize creates the output file and writes the header row.
func (w *CSVWriter) Initialize() error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "creating csv file %s", w.outputPath)
	}

	w.file = file
	w.cw = csv.NewWriter(file)

	if err := w.cw.Write([]string{"time", "symbol", "open", "high", "low", "close", "volume"}); err != nil {
		file.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "writing csv header", err)
	}

	return nil
}

// Write appends one bar.
func (w *CSVWriter) Write(data types.MarketData) error {
	if w.cw == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	row := []string{
		data.Time.UTC().Format(time.RFC3339),
		data.Symbol,
		strconv.FormatFloat(data.Open, 'f', -1, 64),
		strconv.FormatFloat(data.High, 'f', -1, 64),
		strconv.FormatFloat(data.Low, 'f', -1, 64),
		strconv.FormatFloat(data.Close, 'f', -1, 64),
		strconv.FormatFloat(data.Volume, 'f', -1, 64),
	}

	if err := w.cw.Write(row); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "writing csv row", err)
	}

	return nil
}

// Finalize flushes buffered rows.
func (w *CSVWriter) Finalize() (string, error) {
	if w.cw == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	w.cw.Flush()

	if err := w.cw.Error(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "flushing csv", err)
	}

	return w.outputPath, nil
}

// Close closes the underlying file.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.cw = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "closing csv file", err)
	}

	return nil
}

// GetOutputPath returns the configured csv output path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
