// Package store provides the file-backed sources the viewer core consumes:
// a directory of event-record JSON files and a CSV-backed OHLC series.
//
// Both sources are read-only collaborators. Event records are decoded
// permissively (sparse or malformed optional fields are tolerated), while a
// missing or empty OHLC source is fatal for a build and surfaces as
// ErrSeriesUnavailable rather than a silently empty chart.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eventviewer/internal/model"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Errors returned by the file-backed sources.
var (
	// ErrEventNotFound indicates that no record with the requested event
	// identifier exists in the source directory.
	ErrEventNotFound = errors.New("event record not found")

	// ErrInvalidEventID indicates an identifier that could never name a
	// record, such as one containing path separators.
	ErrInvalidEventID = errors.New("invalid event identifier")
)

// eventFilePattern matches the record files the source recognizes.
const eventFilePattern = "event*.json"

// EventInfo identifies one addressable event record.
type EventInfo struct {
	ID   string `json:"event_id"`
	File string `json:"file"`
}

// EventSource lists and loads event records from a directory of JSON files.
type EventSource struct {
	dir string
}

// NewEventSource returns a source reading records from the given directory.
func NewEventSource(dir string) *EventSource {
	return &EventSource{dir: dir}
}

// List returns the available event records sorted by file name. The record
// identifier is taken from the record's event_id field, falling back to the
// file stem when the field is absent or the file cannot be decoded. A missing
// directory yields an empty list, not an error.
func (s *EventSource) List() ([]EventInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, eventFilePattern))
	if err != nil {
		return nil, fmt.Errorf("list event records: %w", err)
	}
	sort.Strings(matches)

	infos := make([]EventInfo, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		id := strings.TrimSuffix(name, filepath.Ext(name))

		if ev, err := decodeEventFile(path); err == nil && ev.ID != "" {
			id = ev.ID
		} else if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("unreadable event record, using file stem as id")
		}

		infos = append(infos, EventInfo{ID: id, File: name})
	}
	return infos, nil
}

// Load returns the event record with the given identifier.
func (s *EventSource) Load(id string) (*model.Event, error) {
	if err := ValidateEventID(id); err != nil {
		return nil, err
	}

	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID != id {
			continue
		}
		ev, err := decodeEventFile(filepath.Join(s.dir, info.File))
		if err != nil {
			return nil, fmt.Errorf("load event %s: %w", id, err)
		}
		if ev.ID == "" {
			ev.ID = info.ID
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
}

// ValidateEventID rejects identifiers that could never name a record.
func ValidateEventID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEventID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidEventID, id)
	}
	return nil
}

// decodeEventFile reads and permissively decodes one record file. Optional
// fields that are malformed decode to their absent values; only an unreadable
// file or JSON that is not an object at the top level is an error.
func decodeEventFile(path string) (*model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event record: %w", err)
	}

	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event record: %w", err)
	}
	return &ev, nil
}
