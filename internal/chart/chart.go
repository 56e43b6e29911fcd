// Package chart composes annotated candlestick charts from event records.
//
// The Builder resolves the visible window, slices the OHLC series to it, and
// assembles the annotation layers into a Chart value. Rendering is out of
// scope: a Chart is a plain data document handed to whatever Sink consumes it
// (HTTP payload, WebSocket push, test capture).
package chart

import (
	"errors"
	"time"

	"eventviewer/internal/model"

	"github.com/shopspring/decimal"
)

// Errors that make a chart build impossible. They are surfaced explicitly
// rather than producing a silently empty chart.
var (
	// ErrEmptySeries indicates that no OHLC bars were supplied.
	ErrEmptySeries = errors.New("empty OHLC series")

	// ErrNilEvent indicates that no event record was supplied.
	ErrNilEvent = errors.New("nil event record")
)

// Marker shape hints, in the vocabulary the original charting front end uses.
// A Sink is free to map them onto whatever its toolkit supports.
const (
	ShapeX            = "x"
	ShapeTriangleUp   = "triangle-up"
	ShapeTriangleDown = "triangle-down"
	ShapeSquare       = "square"
)

// Point is one marker coordinate with an optional label.
type Point struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
	Label string          `json:"label,omitempty"`
}

// MarkerLayer is a named set of point markers sharing one shape hint.
type MarkerLayer struct {
	Name   string  `json:"name"`
	Shape  string  `json:"shape"`
	Points []Point `json:"points"`
}

// Region is a shaded rectangle spanning a time interval and a price interval.
type Region struct {
	Name  string          `json:"name"`
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
	Low   decimal.Decimal `json:"low"`
	High  decimal.Decimal `json:"high"`
	Style string          `json:"style,omitempty"`
}

// Chart is the fully composed, render-ready document for one event.
//
// Layer order is draw order: shaded regions first, then vertical guides, then
// point markers, so markers stay visually on top of structural context.
// Absent source data simply omits the corresponding layer; no layer ever
// contains placeholder points.
type Chart struct {
	EventID string        `json:"event_id"`
	Title   string        `json:"title"`
	Candles []model.Bar   `json:"candles"`
	Regions []Region      `json:"regions,omitempty"`
	Guides  []time.Time   `json:"guides,omitempty"`
	Markers []MarkerLayer `json:"markers,omitempty"`
	Window  []time.Time   `json:"window,omitempty"` // Resolved [start, end], empty when unresolved
}

// Sink consumes a composed chart. Implementations must not mutate it.
type Sink interface {
	Render(chart *Chart) error
}
