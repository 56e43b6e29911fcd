package model

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ParseTimestamp tests normalization of textual timestamp encodings
func Test_ParseTimestamp(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        time.Time
		wantAbsent  bool
		description string
	}{
		{
			name:        "RFC3339 with zone",
			input:       "2024-01-02T01:10:00Z",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should parse canonical RFC3339",
		},
		{
			name:        "Space separator",
			input:       "2024-01-02 01:10:00Z",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should treat space-separated encoding identically to the T form",
		},
		{
			name:        "No zone reads as UTC",
			input:       "2024-01-02T01:10:00",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should assume UTC when no zone is given",
		},
		{
			name:        "Space separator without zone",
			input:       "2024-01-02 01:10:00",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should handle the raw CSV export format",
		},
		{
			name:        "Fractional seconds",
			input:       "2024-01-02T01:10:00.250000Z",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 250000000, time.UTC),
			description: "Should keep sub-second precision",
		},
		{
			name:        "Offset zone normalized to UTC",
			input:       "2024-01-02T03:10:00+02:00",
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should convert zoned instants to UTC",
		},
		{
			name:        "Bare date",
			input:       "2024-01-02",
			want:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			description: "Should accept a date-only encoding",
		},
		{
			name:        "Unix seconds",
			input:       "1704158400",
			want:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			description: "Should read small integers as epoch seconds",
		},
		{
			name:        "Unix milliseconds",
			input:       "1704158400000",
			want:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			description: "Should read large integers as epoch milliseconds",
		},
		{
			name:        "Empty string",
			input:       "",
			wantAbsent:  true,
			description: "Should yield absent for empty input",
		},
		{
			name:        "Whitespace only",
			input:       "   ",
			wantAbsent:  true,
			description: "Should yield absent for whitespace",
		},
		{
			name:        "Garbage",
			input:       "not-a-timestamp",
			wantAbsent:  true,
			description: "Should yield absent rather than an error for malformed input",
		},
		{
			name:        "Partial date",
			input:       "2024-13-40T99:00:00Z",
			wantAbsent:  true,
			description: "Should yield absent for out-of-range components",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)

			if tt.wantAbsent {
				assert.False(t, got.Present(), tt.description)
				return
			}
			require.True(t, got.Present(), tt.description)
			assert.True(t, got.Equal(tt.want), "got %s, want %s: %s", got, tt.want, tt.description)
			assert.Equal(t, time.UTC, got.Location(), "Should always be UTC")
		})
	}
}

// Test_ParseTimestamp_SeparatorEquivalence tests that the two separator styles
// of the same instant normalize identically
func Test_ParseTimestamp_SeparatorEquivalence(t *testing.T) {
	pairs := [][2]string{
		{"2024-01-02T01:10:00Z", "2024-01-02 01:10:00Z"},
		{"2024-01-02T01:10:00", "2024-01-02 01:10:00"},
		{"2024-01-02T01:10:00.5Z", "2024-01-02 01:10:00.5Z"},
	}

	for _, pair := range pairs {
		a, b := ParseTimestamp(pair[0]), ParseTimestamp(pair[1])
		require.True(t, a.Present(), "parse %q", pair[0])
		require.True(t, b.Present(), "parse %q", pair[1])
		assert.True(t, a.Equal(b.Time), "%q and %q should normalize identically", pair[0], pair[1])
	}
}

// Test_Timestamp_UnmarshalJSON tests permissive JSON decoding of timestamps
func Test_Timestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        time.Time
		wantAbsent  bool
		description string
	}{
		{
			name:        "String instant",
			input:       `"2024-01-02T01:10:00Z"`,
			want:        time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC),
			description: "Should decode a JSON string",
		},
		{
			name:        "Number seconds",
			input:       `1704158400`,
			want:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			description: "Should decode an epoch-second number",
		},
		{
			name:        "Number milliseconds",
			input:       `1704158400000`,
			want:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			description: "Should decode an epoch-millisecond number",
		},
		{
			name:        "Null",
			input:       `null`,
			wantAbsent:  true,
			description: "Should decode null as absent",
		},
		{
			name:        "Malformed string",
			input:       `"never"`,
			wantAbsent:  true,
			description: "Should decode garbage as absent without error",
		},
		{
			name:        "Wrong type",
			input:       `{"nested": true}`,
			wantAbsent:  true,
			description: "Should decode an unexpected shape as absent without error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)

			require.NoError(t, err, "decoding must never fail")
			if tt.wantAbsent {
				assert.False(t, ts.Present(), tt.description)
				return
			}
			require.True(t, ts.Present(), tt.description)
			assert.True(t, ts.Equal(tt.want), "got %s, want %s", ts, tt.want)
		})
	}
}

// Test_Timestamp_MarshalJSON tests encoding of present and absent timestamps
func Test_Timestamp_MarshalJSON(t *testing.T) {
	present := NewTimestamp(time.Date(2024, 1, 2, 1, 10, 0, 0, time.UTC))
	data, err := json.Marshal(present)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02T01:10:00Z"`, string(data), "Should encode as RFC3339")

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data), "Absent should encode as null")
}
