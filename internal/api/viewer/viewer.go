// Package viewer contains Datastar SSE handlers for the map viewer page.
package viewer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/humastar"
	"github.com/joeblew999/lithium-map/internal/service"
	"github.com/joeblew999/lithium-map/internal/templates"
)

// Tag groups the viewer operations in the OpenAPI document.
const Tag = "viewer"

// Handler serves popup and legend fragments to the viewer.
type Handler struct {
	humastar.Handler
	maps *service.MapService
}

// NewHandler creates a viewer handler.
func NewHandler(maps *service.MapService, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		maps:    maps,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/viewer/click", h.Click, huma.OperationTags(Tag))
	huma.Delete(api, "/api/v1/viewer/popups", h.Dismiss, huma.OperationTags(Tag))
	huma.Get(api, "/api/v1/viewer/legend", h.Legend, huma.OperationTags(Tag))
	huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags(Tag))
}

type EventsInput struct {
	Session string `query:"session" required:"true" minLength:"1" doc:"Viewer session id"`
}

// Click hit-tests the clicked coordinate and patches #popups with one
// fragment per concession under it. Clicks on empty map send nothing.
// Missing signals come back as an error signal.
func (h *Handler) Click(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	session := signals.String("session")

	return h.Stream(func(sse humastar.SSE) {
		switch {
		case session == "":
			sse.Error("session is required")
			return
		case !signals.Has("lng") || !signals.Has("lat"):
			sse.Error("click position is required")
			return
		}

		at := concession.LngLat{Lng: signals.Float("lng"), Lat: signals.Float("lat")}
		popups, changed := h.maps.Click(session, at)
		if !changed {
			return
		}
		html, err := h.renderPopups(popups)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(html, "#popups")
		sse.Signals(map[string]any{"clicked": true, "popupCount": len(popups), "error": ""})
	}), nil
}

// Dismiss closes every popup of the session.
func (h *Handler) Dismiss(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	session := signals.String("session")

	return h.Stream(func(sse humastar.SSE) {
		if session == "" {
			sse.Error("session is required")
			return
		}
		h.maps.Dismiss(session)
		sse.Patch("", "#popups")
		sse.Signals(map[string]any{"clicked": false, "popupCount": 0, "error": ""})
	}), nil
}

// Legend patches #legend with one row per status.
func (h *Handler) Legend(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		legend := h.maps.Legend()
		items := make([]any, len(legend))
		for i, item := range legend {
			items[i] = item
		}
		sse.Patch(h.RenderList("legend-item", items, "No legend", "The dataset has no status metadata."), "#legend")
	}), nil
}

// Events streams popup changes of one session until the client goes away.
// The session's view state is dropped when the stream ends.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	session := input.Session
	return h.Stream(func(sse humastar.SSE) {
		defer h.maps.Forget(session)

		bus := h.maps.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Resource != "views" || ev.Session != session {
					continue
				}
				popups := h.maps.Popups(session)
				html, err := h.renderPopups(popups)
				if err != nil {
					sse.Error(err.Error())
					continue
				}
				sse.Patch(html, "#popups")
				sse.DispatchCustomEvent("view-changed", map[string]any{
					"action": ev.Action,
					"popups": len(popups),
				})
			}
		}
	}), nil
}

func (h *Handler) renderPopups(popups []concession.Popup) (string, error) {
	var buf bytes.Buffer
	for _, p := range popups {
		if err := h.Renderer.RenderToBuffer(&buf, "popup", p); err != nil {
			return "", fmt.Errorf("render popup %s: %w", p.Record.ID, err)
		}
	}
	return buf.String(), nil
}
