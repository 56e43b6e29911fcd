package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventviewer/internal/chart"
	"eventviewer/internal/model"
	"eventviewer/internal/store"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService implements Service with pluggable responses.
type stubService struct {
	listFn    func(ctx context.Context) ([]store.EventInfo, error)
	summaryFn func(ctx context.Context, id string) (*Summary, error)
	chartFn   func(ctx context.Context, id string) (*chart.Chart, error)
}

func (s *stubService) ListEvents(ctx context.Context) ([]store.EventInfo, error) {
	return s.listFn(ctx)
}

func (s *stubService) EventSummary(ctx context.Context, id string) (*Summary, error) {
	return s.summaryFn(ctx, id)
}

func (s *stubService) BuildChart(ctx context.Context, id string) (*chart.Chart, error) {
	return s.chartFn(ctx, id)
}

// knownEventsService serves one known event and maps everything else onto the
// core error values.
func knownEventsService() *stubService {
	return &stubService{
		listFn: func(context.Context) ([]store.EventInfo, error) {
			return []store.EventInfo{{ID: "evt-a", File: "event001.json"}}, nil
		},
		summaryFn: func(_ context.Context, id string) (*Summary, error) {
			if id != "evt-a" {
				return nil, fmt.Errorf("%w: %s", store.ErrEventNotFound, id)
			}
			return &Summary{EventID: "evt-a", Trades: []TradeSummary{}}, nil
		},
		chartFn: func(_ context.Context, id string) (*chart.Chart, error) {
			if id != "evt-a" {
				return nil, fmt.Errorf("%w: %s", store.ErrEventNotFound, id)
			}
			return &chart.Chart{
				EventID: "evt-a",
				Title:   "Event evt-a - 5m Chart",
				Candles: []model.Bar{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}},
			}, nil
		},
	}
}

func Test_Server_Health(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{Password: "secret"}))
	defer srv.Close()

	// The health endpoint stays open even behind the access gate.
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func Test_Server_ListEvents(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Events []store.EventInfo `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, "evt-a", body.Events[0].ID)
}

func Test_Server_EventSummary(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{}))
	defer srv.Close()

	t.Run("known event", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/events/evt-a")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body Summary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "evt-a", body.EventID)
	})

	t.Run("unknown event", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/events/evt-z")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func Test_Server_Chart(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/events/evt-a/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body chart.Chart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "evt-a", body.EventID)
	assert.Equal(t, "Event evt-a - 5m Chart", body.Title)
	assert.Len(t, body.Candles, 1)
}

func Test_Server_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid id", err: store.ErrInvalidEventID, wantStatus: http.StatusBadRequest},
		{name: "not found", err: store.ErrEventNotFound, wantStatus: http.StatusNotFound},
		{name: "series unavailable", err: store.ErrSeriesUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "empty series", err: chart.ErrEmptySeries, wantStatus: http.StatusServiceUnavailable},
		{name: "anything else", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := knownEventsService()
			svc.chartFn = func(context.Context, string) (*chart.Chart, error) {
				return nil, tt.err
			}
			srv := httptest.NewServer(NewServer(svc, Options{}))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/api/v1/events/evt-a/chart")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func Test_Server_AccessGate(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{Password: "secret"}))
	defer srv.Close()

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/events")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/events", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer wrong")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("correct token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/events", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func Test_ChartSocket(t *testing.T) {
	srv := httptest.NewServer(NewServer(knownEventsService(), Options{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readReply := func(t *testing.T) chartMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg chartMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	t.Run("selection pushes a chart", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(selectMessage{EventID: "evt-a"}))

		msg := readReply(t)
		assert.Empty(t, msg.Error)
		require.NotNil(t, msg.Chart)
		assert.Equal(t, "evt-a", msg.Chart.EventID)
	})

	t.Run("unknown event reports the error", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(selectMessage{EventID: "evt-z"}))

		msg := readReply(t)
		assert.Nil(t, msg.Chart)
		assert.Contains(t, msg.Error, "not found")
	})

	t.Run("malformed selection reports the expected shape", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{}")))

		msg := readReply(t)
		assert.Nil(t, msg.Chart)
		assert.Contains(t, msg.Error, "event_id")
	})
}
