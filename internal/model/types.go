// Package model defines core data types for the market-structure event viewer.
//
// This package contains the fundamental structures used throughout the system:
// OHLC bars, event records with their nested sub-structures, and the permissive
// Timestamp type used for all optional instants. All price fields use
// decimal.Decimal for precise financial values, and optional prices are modelled
// as *decimal.Decimal so that "absent" is distinguishable from zero.
//
// Event records arrive sparsely populated by design: every nested field may be
// missing, null, or malformed, and decoding never fails because of it. Code that
// consumes these types must treat absence as "this value contributes nothing"
// rather than as an error.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents a single OHLC candlestick at one sampling instant.
//
// The series a Bar belongs to is strictly time-ordered at a fixed sampling
// interval with no duplicate instants. That invariant is assumed, not
// re-validated here.
type Bar struct {
	Time   time.Time       `json:"time"`             // Bar instant (UTC)
	Open   decimal.Decimal `json:"open"`             // Opening price
	High   decimal.Decimal `json:"high"`             // Highest price
	Low    decimal.Decimal `json:"low"`              // Lowest price
	Close  decimal.Decimal `json:"close"`            // Closing price
	Volume decimal.Decimal `json:"volume,omitempty"` // Traded volume, zero when the source omits it
}

// Event represents one detected market-structure pattern with all of its
// nested sub-structures and derived trade attempts.
//
// The record is a tree keyed by semantic role. Every branch is optional;
// readers degrade gracefully when a branch is absent.
type Event struct {
	ID         string              `json:"event_id"`
	Window     *BreakWindow        `json:"window"`
	Touch      *Touch              `json:"touch"`
	Imbalances []Imbalance         `json:"imbalance_in_window"`
	Breaks     []StructureBreak    `json:"structure_breaks_in_window"`
	Reference  *ReferenceImbalance `json:"reference_imbalance"`
	Signals    []TradeSignal       `json:"trade_signals"`
}

// BreakWindow bounds the structure-break window of an event.
type BreakWindow struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// Touch records the instant and price at which a prior structure was revisited,
// together with the touch's own search window.
type Touch struct {
	Time        Timestamp        `json:"ts_event"`
	Price       *decimal.Decimal `json:"price_touched"`
	WindowStart Timestamp        `json:"window_start"`
	WindowEnd   Timestamp        `json:"window_end"`
}

// Imbalance is a price interval representing an unfilled gap, anchored at a
// start instant. FirstTouch and Confirm are optional bar indices recorded by
// the upstream detector relative to the imbalance's own anchor.
type Imbalance struct {
	ID         string           `json:"imbalance_id"`
	Start      Timestamp        `json:"start_time"`
	BeginBound *decimal.Decimal `json:"begin_bound"`
	EndBound   *decimal.Decimal `json:"end_bound"`
	Direction  string           `json:"direction"`
	FirstTouch *int             `json:"index_first_touch"`
	Confirm    *int             `json:"index_confirm"`
}

// PriceBounds returns the imbalance's price interval ordered low to high.
// ok is false when either bound is missing.
func (im Imbalance) PriceBounds() (low, high decimal.Decimal, ok bool) {
	return orderedBounds(im.BeginBound, im.EndBound)
}

// Midpoint returns the vertical midpoint of the imbalance's price interval.
// ok is false when either bound is missing.
func (im Imbalance) Midpoint() (decimal.Decimal, bool) {
	low, high, ok := im.PriceBounds()
	if !ok {
		return decimal.Decimal{}, false
	}
	return low.Add(high).Div(decimal.NewFromInt(2)), true
}

// StructureBreak is a detected directional break in price structure at a
// specific instant and trigger price.
type StructureBreak struct {
	Time         Timestamp        `json:"ts_event"`
	TriggerPrice *decimal.Decimal `json:"trigger_price"`
	Direction    string           `json:"direction"`
}

// ReferenceImbalance is a single larger-timeframe imbalance used as broader
// context, distinct from the in-window imbalance sequence.
type ReferenceImbalance struct {
	ID         string           `json:"imbalance_id"`
	Start      Timestamp        `json:"start_time"`
	Direction  string           `json:"direction"`
	BeginBound *decimal.Decimal `json:"begin_bound"`
	EndBound   *decimal.Decimal `json:"end_bound"`
}

// PriceBounds returns the reference imbalance's price interval ordered low to
// high. ok is false when either bound is missing.
func (r ReferenceImbalance) PriceBounds() (low, high decimal.Decimal, ok bool) {
	return orderedBounds(r.BeginBound, r.EndBound)
}

// orderedBounds normalizes an optional pair of interval bounds into a low/high
// pair. ok is false when either bound is missing.
func orderedBounds(begin, end *decimal.Decimal) (low, high decimal.Decimal, ok bool) {
	if begin == nil || end == nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	low, high = *begin, *end
	if low.GreaterThan(high) {
		low, high = high, low
	}
	return low, high, true
}

// Trade signal kinds as recorded by the upstream detector. Only entry kinds
// participate in offset-based position reconstruction.
const (
	SignalBuyLong  = "buy_long"
	SignalBuyShort = "buy_short"
)

// TradeSignal is a recorded hypothetical trade attached to an event.
//
// The entry position may be given only as a relative offset into the OHLC
// series filtered from the anchor imbalance's start instant onward; see the
// signal package for the reconstruction procedure. Exit fields, when present,
// are absolute and used directly.
type TradeSignal struct {
	Kind       string           `json:"signal"`
	EntryTime  Timestamp        `json:"entry_ts"`
	EntryPrice *decimal.Decimal `json:"entry_price"`
	StopLoss   *decimal.Decimal `json:"stop_loss"`
	TakeProfit *decimal.Decimal `json:"take_profit"`
	AnchorID   string           `json:"imbalance_id"`
	Offset     int              `json:"entry_offset"`
	ExitKind   string           `json:"exit_signal"`
	ExitTime   Timestamp        `json:"exit_ts"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
}

// IsEntry reports whether the signal's kind is one of the entry kinds.
func (s TradeSignal) IsEntry() bool {
	return s.Kind == SignalBuyLong || s.Kind == SignalBuyShort
}
