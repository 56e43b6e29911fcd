package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"eventviewer/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrSeriesUnavailable indicates that the OHLC source is missing or contains
// no usable bars. Nothing can be charted without a series, so callers must
// surface this instead of rendering an empty chart.
var ErrSeriesUnavailable = errors.New("ohlc series unavailable")

// LoadSeriesCSV reads the OHLC series from a CSV file.
//
// The header row names the columns; recognized names are instant/time/ts_event
// for the bar instant, open/high/low/close for prices, and an optional volume.
// Rows with an unparseable instant or price are skipped with a warning rather
// than aborting the load, mirroring how sparse upstream data is handled
// everywhere else. A missing file, a missing required column, or zero usable
// rows all return ErrSeriesUnavailable.
func LoadSeriesCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeriesUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrSeriesUnavailable, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeriesUnavailable, err)
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %v", ErrSeriesUnavailable, line, err)
		}

		bar, ok := parseBar(row, cols)
		if !ok {
			log.Warn().Int("line", line).Msg("skipping unparseable ohlc row")
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no usable rows in %s", ErrSeriesUnavailable, path)
	}
	return bars, nil
}

// columnIndices holds the positions of the recognized CSV columns.
// volume is -1 when the source has no volume column.
type columnIndices struct {
	instant, open, high, low, closing, volume int
}

func mapColumns(header []string) (columnIndices, error) {
	cols := columnIndices{instant: -1, open: -1, high: -1, low: -1, closing: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "instant", "time", "ts_event":
			cols.instant = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.closing = i
		case "volume":
			cols.volume = i
		}
	}
	if cols.instant < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.closing < 0 {
		return cols, fmt.Errorf("header %v missing a required column", header)
	}
	return cols, nil
}

func parseBar(row []string, cols columnIndices) (model.Bar, bool) {
	need := cols.closing
	for _, idx := range []int{cols.instant, cols.open, cols.high, cols.low} {
		if idx > need {
			need = idx
		}
	}
	if len(row) <= need {
		return model.Bar{}, false
	}

	ts := model.ParseTimestamp(row[cols.instant])
	if !ts.Present() {
		return model.Bar{}, false
	}

	prices := make([]decimal.Decimal, 4)
	for i, idx := range []int{cols.open, cols.high, cols.low, cols.closing} {
		d, err := decimal.NewFromString(strings.TrimSpace(row[idx]))
		if err != nil {
			return model.Bar{}, false
		}
		prices[i] = d
	}

	bar := model.Bar{
		Time:  ts.UTC(),
		Open:  prices[0],
		High:  prices[1],
		Low:   prices[2],
		Close: prices[3],
	}
	if cols.volume >= 0 && cols.volume < len(row) {
		if v, err := decimal.NewFromString(strings.TrimSpace(row[cols.volume])); err == nil {
			bar.Volume = v
		}
	}
	return bar, true
}
