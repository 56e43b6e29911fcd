package server

import (
	"context"
	"errors"
	"net/http"

	"eventviewer/internal/chart"
	"eventviewer/internal/store"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the HTTP handler.
type Options struct {
	// Password, when non-empty, enables the access gate: every request must
	// carry it as a bearer token.
	Password string
}

// NewServer builds the HTTP handler: REST API, health check, and the
// WebSocket chart-push endpoint, all behind the optional access gate.
func NewServer(svc Service, opts Options) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	if opts.Password != "" {
		router.Use(accessGate(opts.Password))
	}

	cfg := huma.DefaultConfig("Event Viewer API", "1.0.0")
	api := humachi.New(router, cfg)

	registerEventHandlers(api, svc)

	router.Get("/ws", newChartSocket(svc).handle)

	return router
}

type eventIDInput struct {
	EventID string `path:"event_id" doc:"Stable event identifier, e.g. EV00001"`
}

func registerEventHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type listEventsOutput struct {
		Body struct {
			Events []store.EventInfo `json:"events"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-events", Method: http.MethodGet, Path: "/api/v1/events", Summary: "List available event records", Tags: []string{"Events"}},
		func(ctx context.Context, input *struct{}) (*listEventsOutput, error) {
			events, err := svc.ListEvents(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listEventsOutput{}
			out.Body.Events = events
			return out, nil
		})

	type summaryOutput struct {
		Body Summary
	}
	huma.Register(api, huma.Operation{OperationID: "get-event", Method: http.MethodGet, Path: "/api/v1/events/{event_id}", Summary: "Get one event's summary", Tags: []string{"Events"}},
		func(ctx context.Context, input *eventIDInput) (*summaryOutput, error) {
			summary, err := svc.EventSummary(ctx, input.EventID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &summaryOutput{Body: *summary}, nil
		})

	type chartOutput struct {
		Body chart.Chart
	}
	huma.Register(api, huma.Operation{OperationID: "get-event-chart", Method: http.MethodGet, Path: "/api/v1/events/{event_id}/chart", Summary: "Build the annotated chart payload for one event", Tags: []string{"Charts"}},
		func(ctx context.Context, input *eventIDInput) (*chartOutput, error) {
			ch, err := svc.BuildChart(ctx, input.EventID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartOutput{Body: *ch}, nil
		})
}

// mapErr translates core errors into HTTP responses.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrInvalidEventID):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, store.ErrEventNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, store.ErrSeriesUnavailable), errors.Is(err, chart.ErrEmptySeries):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
