package model

import (
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// unixMilliThreshold separates unix-second from unix-millisecond encodings.
// Values at or above it are far beyond any plausible second-resolution
// instant (year 33658), so they are read as milliseconds.
const unixMilliThreshold = 1e12

// textLayouts are the accepted textual timestamp encodings, tried in order.
// The date/time separator is normalized to 'T' before matching, so the
// space-separated variants of these layouts parse identically.
var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is an optional timezone-aware instant.
//
// The zero value means "absent". Decoding is deliberately permissive: null,
// missing, malformed, or unrecognized input yields the zero value rather than
// an error, because upstream event records are sparse by design and a bad
// timestamp must never abort processing of the rest of the record.
//
// Two textual encodings of the same UTC instant that differ only in the
// date/time separator ('T' versus ' ') normalize to the same Timestamp.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps a time.Time as a present Timestamp, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

// Present reports whether the Timestamp carries an instant.
func (t Timestamp) Present() bool {
	return !t.IsZero()
}

// ParseTimestamp normalizes a textual timestamp into a canonical UTC Timestamp.
//
// Accepted forms: RFC 3339 (with or without fractional seconds), the same with
// a space instead of 'T' between date and time, zone-less date-times (read as
// UTC), bare dates, and unix epoch numbers in seconds or milliseconds.
// Anything else yields the absent Timestamp.
func ParseTimestamp(value string) Timestamp {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}
	}

	// Unix epoch numbers, seconds or milliseconds.
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return fromUnix(n)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * float64(time.Second))
		return Timestamp{time.Unix(sec, nsec).UTC()}
	}

	// Normalize the date/time separator so 'T' and ' ' encodings are
	// equivalent, then try the known layouts.
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}
	for _, layout := range textLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return Timestamp{parsed.UTC()}
		}
	}
	return Timestamp{}
}

// fromUnix interprets an integer epoch value as seconds or milliseconds.
func fromUnix(n int64) Timestamp {
	if n >= unixMilliThreshold || n <= -unixMilliThreshold {
		return Timestamp{time.UnixMilli(n).UTC()}
	}
	return Timestamp{time.Unix(n, 0).UTC()}
}

// UnmarshalJSON decodes a timestamp from a JSON string, number, or null.
// It never returns an error; unusable input leaves the Timestamp absent.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		*t = ParseTimestamp(v)
	case float64:
		if v == float64(int64(v)) {
			*t = fromUnix(int64(v))
		} else {
			sec := int64(v)
			nsec := int64((v - float64(sec)) * float64(time.Second))
			*t = Timestamp{time.Unix(sec, nsec).UTC()}
		}
	}
	return nil
}

// MarshalJSON encodes a present Timestamp as an RFC 3339 string and an absent
// one as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
