// Package window resolves the visible time range for one event record and
// filters the OHLC series down to it.
//
// Resolution scans the record's nested sub-structures for candidate instants,
// takes their [min, max] envelope, pads it, and then extends the upper bound so
// that every trade signal's exit stays visible. A record with no resolvable
// instant anywhere yields an unresolved span, which downstream code treats as
// "show the unfiltered full series".
package window

import (
	"time"

	"eventviewer/internal/model"
)

const (
	// DefaultPadding is the fixed buffer added to both ends of the raw
	// candidate range. It is a display policy constant, not derived from data.
	DefaultPadding = time.Hour

	// Granularity is the sampling interval of the OHLC series.
	Granularity = 5 * time.Minute
)

// Config holds the window-resolution policy.
type Config struct {
	// Padding is the buffer added to both ends of the candidate range and to
	// exit-driven extensions. Zero or negative means DefaultPadding.
	Padding time.Duration

	// ExtendBackward, when set, also lowers the span start so that trade
	// entries recorded with an explicit entry instant stay visible even when
	// they precede the padded structural window. Off by default, matching the
	// forward-only extension the upstream detector's output assumes.
	ExtendBackward bool
}

func (c Config) padding() time.Duration {
	if c.Padding <= 0 {
		return DefaultPadding
	}
	return c.Padding
}

// Span is a resolved [Start, End] display range. The zero value means
// resolution found no candidate instants.
type Span struct {
	Start time.Time
	End   time.Time
}

// Resolved reports whether both bounds were determined.
func (s Span) Resolved() bool {
	return !s.Start.IsZero() && !s.End.IsZero()
}

// Contains reports whether the instant falls inside the span, inclusive.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// Resolve computes the visible time range for an event record.
//
// Start candidates: structure-break-window start, touch-window start, the
// touch's own instant, each imbalance's start instant, each structure break's
// instant. End candidates: the same set with the break-window end and
// touch-window end in place of their starts. Imbalances and breaks contribute
// to both bounds; they are point-like anchors for windowing purposes.
//
// The envelope is padded on both sides, then the end is raised to cover every
// trade signal's exit instant plus padding so a trade's full resolution is
// always visible. When no candidate exists at all, the zero Span is returned.
func Resolve(ev *model.Event, cfg Config) Span {
	if ev == nil {
		return Span{}
	}

	var starts, ends []time.Time

	if ev.Window != nil {
		starts = appendPresent(starts, ev.Window.Start)
		ends = appendPresent(ends, ev.Window.End)
	}
	if ev.Touch != nil {
		starts = appendPresent(starts, ev.Touch.WindowStart)
		ends = appendPresent(ends, ev.Touch.WindowEnd)
		starts = appendPresent(starts, ev.Touch.Time)
		ends = appendPresent(ends, ev.Touch.Time)
	}
	for _, im := range ev.Imbalances {
		starts = appendPresent(starts, im.Start)
		ends = appendPresent(ends, im.Start)
	}
	for _, br := range ev.Breaks {
		starts = appendPresent(starts, br.Time)
		ends = appendPresent(ends, br.Time)
	}

	if len(starts) == 0 || len(ends) == 0 {
		return Span{}
	}

	pad := cfg.padding()
	span := Span{
		Start: minTime(starts).Add(-pad),
		End:   maxTime(ends).Add(pad),
	}

	// Exits always extend the window forward.
	for _, sig := range ev.Signals {
		if !sig.ExitTime.Present() {
			continue
		}
		if extended := sig.ExitTime.Add(pad); extended.After(span.End) {
			span.End = extended
		}
	}

	// Entries extend backward only when the policy asks for it.
	if cfg.ExtendBackward {
		for _, sig := range ev.Signals {
			if !sig.EntryTime.Present() {
				continue
			}
			if extended := sig.EntryTime.Add(-pad); extended.Before(span.Start) {
				span.Start = extended
			}
		}
	}

	return span
}

// SliceSeries returns the contiguous sub-sequence of bars whose instants fall
// inside the span, inclusive on both ends and order-preserving. An unresolved
// span returns the full series unmodified, so the chart is never empty just
// because no instants could be resolved.
func SliceSeries(bars []model.Bar, span Span) []model.Bar {
	if !span.Resolved() {
		return bars
	}

	out := make([]model.Bar, 0, len(bars))
	for _, bar := range bars {
		if span.Contains(bar.Time) {
			out = append(out, bar)
		}
	}
	return out
}

func appendPresent(dst []time.Time, t model.Timestamp) []time.Time {
	if t.Present() {
		dst = append(dst, t.UTC())
	}
	return dst
}

func minTime(ts []time.Time) time.Time {
	m := ts[0]
	for _, t := range ts[1:] {
		if t.Before(m) {
			m = t
		}
	}
	return m
}

func maxTime(ts []time.Time) time.Time {
	m := ts[0]
	for _, t := range ts[1:] {
		if t.After(m) {
			m = t
		}
	}
	return m
}
