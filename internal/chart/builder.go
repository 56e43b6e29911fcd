package chart

import (
	"fmt"
	"time"

	"eventviewer/internal/model"
	"eventviewer/internal/signal"
	"eventviewer/internal/window"

	"github.com/rs/zerolog/log"
)

// Layer names. Each layer is independently skippable: when its source data is
// absent the layer is omitted from the chart entirely.
const (
	LayerReferenceBand  = "reference_band"
	LayerImbalanceZones = "imbalance_zones"
	LayerTouch          = "touch"
	LayerBreaks         = "structure_breaks"
	LayerImbalances     = "imbalances"
	LayerEntries        = "entries"
	LayerExits          = "exits"
)

// Builder composes annotated charts for event records against a shared OHLC
// series. It holds no per-build state; Build is a pure function of its inputs
// and the window policy, so a Builder is safe to share across builds.
type Builder struct {
	cfg window.Config
}

// NewBuilder returns a Builder using the given window-resolution policy.
func NewBuilder(cfg window.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build composes the chart for one event record.
//
// The full series is required for entry reconstruction even though only the
// windowed slice is displayed: the detector indexed into the unwindowed
// series, so the replay must too. A nil event returns ErrNilEvent and an
// empty input series returns ErrEmptySeries; every other per-layer failure
// is isolated to that layer.
func (b *Builder) Build(ev *model.Event, series []model.Bar) (*Chart, error) {
	if ev == nil {
		return nil, ErrNilEvent
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	span := window.Resolve(ev, b.cfg)
	visible := window.SliceSeries(series, span)

	ch := &Chart{
		EventID: ev.ID,
		Title:   fmt.Sprintf("Event %s - 5m Chart", ev.ID),
		Candles: visible,
	}
	if span.Resolved() {
		ch.Window = []time.Time{span.Start, span.End}
	}

	// Structural context first, discrete markers last.
	b.addReferenceBand(ch, ev, visible)
	b.addImbalanceZones(ch, ev, visible)
	b.addWindowGuides(ch, ev)
	b.addTouchMarker(ch, ev)
	b.addBreakMarkers(ch, ev)
	b.addImbalanceMarkers(ch, ev)
	b.addEntryMarkers(ch, ev, series)
	b.addExitMarkers(ch, ev)

	return ch, nil
}

// addReferenceBand shades the reference imbalance's price interval across the
// full visible time range.
func (b *Builder) addReferenceBand(ch *Chart, ev *model.Event, visible []model.Bar) {
	if ev.Reference == nil || len(visible) == 0 {
		return
	}
	low, high, ok := ev.Reference.PriceBounds()
	if !ok {
		return
	}
	ch.Regions = append(ch.Regions, Region{
		Name:  LayerReferenceBand,
		From:  visible[0].Time,
		To:    visible[len(visible)-1].Time,
		Low:   low,
		High:  high,
		Style: "band",
	})
}

// addImbalanceZones shades each imbalance's price interval from its start
// instant to the right edge of the visible window. The zones are open-ended
// because an imbalance stays structurally relevant until invalidated, which
// this view does not track.
func (b *Builder) addImbalanceZones(ch *Chart, ev *model.Event, visible []model.Bar) {
	if len(visible) == 0 {
		return
	}
	rightEdge := visible[len(visible)-1].Time

	for _, im := range ev.Imbalances {
		if !im.Start.Present() {
			continue
		}
		low, high, ok := im.PriceBounds()
		if !ok {
			log.Debug().Str("imbalance", im.ID).Msg("imbalance missing price bound, zone skipped")
			continue
		}
		ch.Regions = append(ch.Regions, Region{
			Name:  LayerImbalanceZones,
			From:  im.Start.UTC(),
			To:    rightEdge,
			Low:   low,
			High:  high,
			Style: "zone",
		})
	}
}

// addWindowGuides draws vertical guides at the structure-break window bounds.
func (b *Builder) addWindowGuides(ch *Chart, ev *model.Event) {
	if ev.Window == nil {
		return
	}
	for _, t := range []model.Timestamp{ev.Window.Start, ev.Window.End} {
		if t.Present() {
			ch.Guides = append(ch.Guides, t.UTC())
		}
	}
}

// addTouchMarker draws the single touch point, when both its instant and
// price are known.
func (b *Builder) addTouchMarker(ch *Chart, ev *model.Event) {
	if ev.Touch == nil || !ev.Touch.Time.Present() || ev.Touch.Price == nil {
		return
	}
	ch.Markers = append(ch.Markers, MarkerLayer{
		Name:  LayerTouch,
		Shape: ShapeX,
		Points: []Point{{
			Time:  ev.Touch.Time.UTC(),
			Price: *ev.Touch.Price,
			Label: "Touch",
		}},
	})
}

// addBreakMarkers draws one point per structure break at its trigger price,
// labeled by direction.
func (b *Builder) addBreakMarkers(ch *Chart, ev *model.Event) {
	points := make([]Point, 0, len(ev.Breaks))
	for _, br := range ev.Breaks {
		if !br.Time.Present() || br.TriggerPrice == nil {
			continue
		}
		points = append(points, Point{
			Time:  br.Time.UTC(),
			Price: *br.TriggerPrice,
			Label: br.Direction,
		})
	}
	if len(points) > 0 {
		ch.Markers = append(ch.Markers, MarkerLayer{
			Name:   LayerBreaks,
			Shape:  ShapeTriangleUp,
			Points: points,
		})
	}
}

// addImbalanceMarkers draws one point per imbalance at the vertical midpoint
// of its price interval, labeled with its identifier and any recorded
// first-touch/confirm indices.
func (b *Builder) addImbalanceMarkers(ch *Chart, ev *model.Event) {
	points := make([]Point, 0, len(ev.Imbalances))
	for _, im := range ev.Imbalances {
		if !im.Start.Present() {
			continue
		}
		mid, ok := im.Midpoint()
		if !ok {
			continue
		}
		points = append(points, Point{
			Time:  im.Start.UTC(),
			Price: mid,
			Label: imbalanceLabel(im),
		})
	}
	if len(points) > 0 {
		ch.Markers = append(ch.Markers, MarkerLayer{
			Name:   LayerImbalances,
			Shape:  ShapeSquare,
			Points: points,
		})
	}
}

// imbalanceLabel formats "ID (FTn/CTm)" with whichever indices are recorded.
func imbalanceLabel(im model.Imbalance) string {
	switch {
	case im.FirstTouch != nil && im.Confirm != nil:
		return fmt.Sprintf("%s (FT%d/CT%d)", im.ID, *im.FirstTouch, *im.Confirm)
	case im.FirstTouch != nil:
		return fmt.Sprintf("%s (FT%d)", im.ID, *im.FirstTouch)
	case im.Confirm != nil:
		return fmt.Sprintf("%s (CT%d)", im.ID, *im.Confirm)
	default:
		return im.ID
	}
}

// addEntryMarkers draws one point per trade entry. A signal that declares a
// positive offset is positioned only by reconstruction against the full,
// unwindowed series; an unknown anchor or out-of-range offset drops it from
// this layer, never substituting the recorded entry fields. Signals without
// an offset use their explicit entry instant and price when both are present.
func (b *Builder) addEntryMarkers(ch *Chart, ev *model.Event, series []model.Bar) {
	anchors := signal.NewAnchorIndex(ev)

	points := make([]Point, 0, len(ev.Signals))
	for _, sig := range ev.Signals {
		if !sig.IsEntry() {
			continue
		}
		if sig.Offset > 0 {
			if pos, ok := signal.ReconstructEntry(series, sig, anchors); ok {
				points = append(points, Point{Time: pos.Time, Price: pos.Price, Label: pos.Label})
			} else {
				log.Debug().Str("event_id", ev.ID).Str("anchor", sig.AnchorID).
					Int("offset", sig.Offset).Msg("entry not reconstructable, marker dropped")
			}
			continue
		}
		if sig.EntryTime.Present() && sig.EntryPrice != nil {
			points = append(points, Point{
				Time:  sig.EntryTime.UTC(),
				Price: *sig.EntryPrice,
				Label: sig.Kind,
			})
		}
	}
	if len(points) > 0 {
		ch.Markers = append(ch.Markers, MarkerLayer{
			Name:   LayerEntries,
			Shape:  ShapeTriangleUp,
			Points: points,
		})
	}
}

// addExitMarkers draws one point per signal with an explicit exit. Exits are
// never reconstructed from offsets; the recorded instant and price are used
// directly.
func (b *Builder) addExitMarkers(ch *Chart, ev *model.Event) {
	points := make([]Point, 0, len(ev.Signals))
	for _, sig := range ev.Signals {
		if sig.ExitKind == "" || !sig.ExitTime.Present() || sig.ExitPrice == nil {
			continue
		}
		points = append(points, Point{
			Time:  sig.ExitTime.UTC(),
			Price: *sig.ExitPrice,
			Label: sig.ExitKind,
		})
	}
	if len(points) > 0 {
		ch.Markers = append(ch.Markers, MarkerLayer{
			Name:   LayerExits,
			Shape:  ShapeTriangleDown,
			Points: points,
		})
	}
}
