/*
Package main implements a CLI client for the event viewer server.

With no event selected, the client lists the available event records. Given an
event identifier it fetches the composed chart payload, either over plain HTTP
or over the WebSocket push endpoint, and logs a digest of the result.

Usage:

	go run main.go -addr=localhost:8080
	go run main.go -addr=localhost:8080 -event=EV00001
	go run main.go -addr=localhost:8080 -event=EV00001 -ws
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"eventviewer/internal/chart"
	"eventviewer/internal/store"
)

// Command-line flags for configuring the client connection and selection
var (
	// serverAddr specifies the server address in host:port form
	serverAddr = flag.String("addr", "localhost:8080", "The server address in the format host:port")
	// eventID selects the event record to chart; empty lists available records
	eventID = flag.String("event", "", "Event identifier to chart; empty lists available events")
	// useWS switches the chart fetch to the WebSocket push endpoint
	useWS = flag.Bool("ws", false, "Fetch the chart over the WebSocket endpoint")
	// password is sent as a bearer token when the server is gated
	password = flag.String("password", "", "Access password, if the server requires one")
)

func main() {
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()

	if *serverAddr == "" {
		log.Fatal().Msg("addr cannot be empty")
	}

	if *eventID == "" {
		events, err := listEvents()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list events")
		}
		for _, ev := range events {
			log.Info().Str("event_id", ev.ID).Str("file", ev.File).Msg("event")
		}
		log.Info().Int("count", len(events)).Msg("event records available")
		return
	}

	var (
		ch  *chart.Chart
		err error
	)
	if *useWS {
		ch, err = fetchChartWS(*eventID)
	} else {
		ch, err = fetchChartHTTP(*eventID)
	}
	if err != nil {
		log.Fatal().Err(err).Str("event_id", *eventID).Msg("failed to fetch chart")
	}

	var sink chart.Sink = digestSink{log: log}
	if err := sink.Render(ch); err != nil {
		log.Fatal().Err(err).Msg("failed to render chart digest")
	}
}

// digestSink logs a summary of a composed chart instead of drawing it.
type digestSink struct {
	log zerolog.Logger
}

func (s digestSink) Render(ch *chart.Chart) error {
	digest := s.log.Info().
		Str("event_id", ch.EventID).
		Str("title", ch.Title).
		Int("candles", len(ch.Candles)).
		Int("regions", len(ch.Regions)).
		Int("guides", len(ch.Guides))
	if len(ch.Window) == 2 {
		digest = digest.
			Time("window_start", ch.Window[0]).
			Time("window_end", ch.Window[1])
	}
	digest.Msg("chart composed")

	for _, layer := range ch.Markers {
		s.log.Info().Str("layer", layer.Name).Str("shape", layer.Shape).Int("points", len(layer.Points)).Msg("marker layer")
	}
	return nil
}

func listEvents() ([]store.EventInfo, error) {
	var payload struct {
		Events []store.EventInfo `json:"events"`
	}
	if err := getJSON(fmt.Sprintf("http://%s/api/v1/events", *serverAddr), &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

func fetchChartHTTP(id string) (*chart.Chart, error) {
	var ch chart.Chart
	if err := getJSON(fmt.Sprintf("http://%s/api/v1/events/%s/chart", *serverAddr, url.PathEscape(id)), &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func getJSON(rawURL string, dst any) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if *password != "" {
		req.Header.Set("Authorization", "Bearer "+*password)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}
	return json.Unmarshal(body, dst)
}

func fetchChartWS(id string) (*chart.Chart, error) {
	header := http.Header{}
	if *password != "" {
		header.Set("Authorization", "Bearer "+*password)
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", *serverAddr), header)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	defer conn.Close()

	request, err := json.Marshal(map[string]string{"event_id": id})
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, request); err != nil {
		return nil, fmt.Errorf("send selection: %w", err)
	}

	var reply struct {
		Chart *chart.Chart `json:"chart"`
		Error string       `json:"error"`
	}
	if err := conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("read chart payload: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("server error: %s", reply.Error)
	}
	if reply.Chart == nil {
		return nil, fmt.Errorf("empty reply")
	}
	return reply.Chart, nil
}
