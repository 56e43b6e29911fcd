// Package server exposes the event viewer over HTTP and WebSocket.
//
// The REST API serves the event list, per-event summaries, and composed chart
// payloads; the WebSocket endpoint rebuilds and pushes a chart for every
// selection message a client sends. Both delivery paths consume the same
// Service and therefore the same chart-building core.
package server

import (
	"context"

	"eventviewer/internal/chart"
	"eventviewer/internal/model"
	"eventviewer/internal/store"

	"github.com/shopspring/decimal"
)

// Service is the application surface the transport layer consumes.
type Service interface {
	// ListEvents returns the addressable event records.
	ListEvents(ctx context.Context) ([]store.EventInfo, error)

	// EventSummary returns the sidebar-style summary for one event.
	EventSummary(ctx context.Context, id string) (*Summary, error)

	// BuildChart composes the annotated chart payload for one event.
	BuildChart(ctx context.Context, id string) (*chart.Chart, error)
}

// Summary is the human-oriented digest of one event record: its identifier,
// the reference-imbalance context, and the recorded trade attempts.
type Summary struct {
	EventID   string            `json:"event_id"`
	Reference *ReferenceSummary `json:"reference_imbalance,omitempty"`
	Trades    []TradeSummary    `json:"trades"`
}

// ReferenceSummary digests the reference imbalance.
type ReferenceSummary struct {
	ID        string           `json:"imbalance_id"`
	Start     model.Timestamp  `json:"start_time"`
	Direction string           `json:"direction"`
	EndBound  *decimal.Decimal `json:"end_bound,omitempty"`
}

// TradeSummary digests one trade signal.
type TradeSummary struct {
	Kind       string           `json:"signal"`
	EntryTime  model.Timestamp  `json:"entry_ts"`
	EntryPrice *decimal.Decimal `json:"entry_price,omitempty"`
	StopLoss   *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit *decimal.Decimal `json:"take_profit,omitempty"`
	ExitKind   string           `json:"exit_signal,omitempty"`
	ExitTime   model.Timestamp  `json:"exit_ts"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
}

// Viewer implements Service against file-backed sources and a shared,
// read-only OHLC series. The series is loaded once at startup and never
// mutated, so one Viewer safely serves concurrent requests.
type Viewer struct {
	events  *store.EventSource
	series  []model.Bar
	builder *chart.Builder
}

// NewViewer wires the application service from its collaborators.
func NewViewer(events *store.EventSource, series []model.Bar, builder *chart.Builder) *Viewer {
	return &Viewer{events: events, series: series, builder: builder}
}

// ListEvents returns the addressable event records.
func (v *Viewer) ListEvents(_ context.Context) ([]store.EventInfo, error) {
	return v.events.List()
}

// EventSummary loads one record and digests it.
func (v *Viewer) EventSummary(_ context.Context, id string) (*Summary, error) {
	ev, err := v.events.Load(id)
	if err != nil {
		return nil, err
	}
	return summarize(ev), nil
}

// BuildChart loads one record and composes its chart against the shared
// series.
func (v *Viewer) BuildChart(_ context.Context, id string) (*chart.Chart, error) {
	ev, err := v.events.Load(id)
	if err != nil {
		return nil, err
	}
	return v.builder.Build(ev, v.series)
}

func summarize(ev *model.Event) *Summary {
	s := &Summary{
		EventID: ev.ID,
		Trades:  make([]TradeSummary, 0, len(ev.Signals)),
	}

	if ev.Reference != nil {
		s.Reference = &ReferenceSummary{
			ID:        ev.Reference.ID,
			Start:     ev.Reference.Start,
			Direction: ev.Reference.Direction,
			EndBound:  ev.Reference.EndBound,
		}
	}

	for _, sig := range ev.Signals {
		s.Trades = append(s.Trades, TradeSummary{
			Kind:       sig.Kind,
			EntryTime:  sig.EntryTime,
			EntryPrice: sig.EntryPrice,
			StopLoss:   sig.StopLoss,
			TakeProfit: sig.TakeProfit,
			ExitKind:   sig.ExitKind,
			ExitTime:   sig.ExitTime,
			ExitPrice:  sig.ExitPrice,
		})
	}
	return s
}
