// Package signal re-derives absolute entry positions for trade signals that
// are recorded only as relative bar offsets.
//
// The upstream detector records "the Nth bar at or after this imbalance
// appeared" rather than an absolute instant. To recover the position, the
// viewer must replay the same slicing the detector used: filter the full,
// unwindowed OHLC series to instants at or after the anchor imbalance's start,
// order it ascending, and index into the result. BarAt makes that procedure an
// explicit function so its correctness does not depend on matching an external
// filtering order by coincidence.
package signal

import (
	"sort"
	"time"

	"eventviewer/internal/model"

	"github.com/shopspring/decimal"
)

// AnchorIndex maps an imbalance identifier to its start instant.
type AnchorIndex map[string]time.Time

// NewAnchorIndex builds the anchor lookup from every imbalance in the event's
// in-window sequence. Imbalances without an identifier or start instant
// contribute nothing.
func NewAnchorIndex(ev *model.Event) AnchorIndex {
	idx := make(AnchorIndex)
	if ev == nil {
		return idx
	}
	for _, im := range ev.Imbalances {
		if im.ID == "" || !im.Start.Present() {
			continue
		}
		idx[im.ID] = im.Start.UTC()
	}
	return idx
}

// Position is a reconstructed absolute (instant, price) pair for a signal.
type Position struct {
	Time  time.Time
	Price decimal.Decimal
	Label string
}

// BarAt filters bars to instants at or after anchor, orders the result
// ascending, and returns the bar at the zero-based offset. ok is false when
// the offset exceeds the filtered length. The input slice is never mutated.
func BarAt(bars []model.Bar, anchor time.Time, offset int) (model.Bar, bool) {
	if offset < 0 {
		return model.Bar{}, false
	}

	filtered := make([]model.Bar, 0, len(bars))
	for _, bar := range bars {
		if !bar.Time.Before(anchor) {
			filtered = append(filtered, bar)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Time.Before(filtered[j].Time)
	})

	if offset >= len(filtered) {
		return model.Bar{}, false
	}
	return filtered[offset], true
}

// ReconstructEntry recovers the absolute entry position for one trade signal
// against the full, unwindowed OHLC series.
//
// Only entry signals with a positive declared offset are eligible; anything
// else means "no marker to draw" and returns ok=false without being an error.
// A missing anchor or an out-of-range offset likewise drops the signal. The
// reconstructed price is the indexed bar's closing price; the label
// abbreviates the entry side.
func ReconstructEntry(bars []model.Bar, sig model.TradeSignal, anchors AnchorIndex) (Position, bool) {
	if !sig.IsEntry() || sig.Offset <= 0 {
		return Position{}, false
	}

	anchor, found := anchors[sig.AnchorID]
	if !found {
		return Position{}, false
	}

	bar, ok := BarAt(bars, anchor, sig.Offset)
	if !ok {
		return Position{}, false
	}

	return Position{
		Time:  bar.Time,
		Price: bar.Close,
		Label: entryLabel(sig.Kind),
	}, true
}

func entryLabel(kind string) string {
	switch kind {
	case model.SignalBuyLong:
		return "buy_l"
	case model.SignalBuyShort:
		return "buy_s"
	default:
		return kind
	}
}
