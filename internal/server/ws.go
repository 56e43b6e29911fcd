package server

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"eventviewer/internal/chart"
)

const (
	// wsPingPeriod is the interval between keepalive pings.
	wsPingPeriod = 15 * time.Second

	// wsWriteTimeout bounds every write to a client.
	wsWriteTimeout = 5 * time.Second

	// wsReadLimit caps incoming selection messages; they are tiny.
	wsReadLimit = 1 << 12
)

// selectMessage is what a client sends to pick an event. Every selection
// triggers a fresh chart build, mirroring rebuild-on-selection-change in the
// interactive viewer.
type selectMessage struct {
	EventID string `json:"event_id"`
}

// chartMessage is the server's reply to one selection: either the composed
// chart or an error, never both.
type chartMessage struct {
	Chart *chart.Chart `json:"chart,omitempty"`
	Error string       `json:"error,omitempty"`
}

// chartSocket serves the WebSocket chart-push endpoint.
type chartSocket struct {
	svc      Service
	upgrader websocket.Upgrader
}

func newChartSocket(svc Service) *chartSocket {
	return &chartSocket{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 10,
			WriteBufferSize: 1 << 16,
		},
	}
}

// handle upgrades the connection and serves selection requests until the
// client disconnects.
func (cs *chartSocket) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := cs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	logger := log.With().Str("remote", r.RemoteAddr).Str("component", "ws").Logger()
	logger.Info().Msg("websocket client connected")

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPingPeriod * 2))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPingPeriod * 2))
	})

	// Writes come from both the read loop and the ping loop.
	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteMessage(messageType, data)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := write(websocket.PingMessage, nil); err != nil {
					logger.Debug().Err(err).Msg("ping failed")
					return
				}
			}
		}
	}()

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug().Err(err).Msg("error closing websocket connection")
		}
		logger.Info().Msg("websocket client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Msg("websocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err) {
				logger.Warn().Err(err).Msg("unexpected websocket closure")
			} else {
				logger.Error().Err(err).Msg("websocket read error")
			}
			return
		}

		var sel selectMessage
		if err := json.Unmarshal(data, &sel); err != nil || sel.EventID == "" {
			if err := cs.reply(write, chartMessage{Error: "expected {\"event_id\": \"...\"}"}); err != nil {
				return
			}
			continue
		}

		msg := chartMessage{}
		if ch, err := cs.svc.BuildChart(r.Context(), sel.EventID); err != nil {
			logger.Warn().Err(err).Str("event_id", sel.EventID).Msg("chart build failed")
			msg.Error = err.Error()
		} else {
			msg.Chart = ch
		}
		if err := cs.reply(write, msg); err != nil {
			logger.Error().Err(err).Msg("failed to send chart payload")
			return
		}
	}
}

func (cs *chartSocket) reply(write func(int, []byte) error, msg chartMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return write(websocket.TextMessage, data)
}
