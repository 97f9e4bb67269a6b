// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/humastar"
	"github.com/joeblew999/lithium-map/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Map     *service.MapService
	Tile    *service.TileService
	Catalog *service.Catalog
}

// Config holds values the map config endpoint hands to the browser.
type Config struct {
	MapTilerKey string
	DataURL     string // where the raw GeoJSON is served
	TilesURL    string // prefix the PMTiles archives are served under
}

// RegisterRoutes registers every REST handler on the API.
func RegisterRoutes(api huma.API, svc *Services, cfg Config) {
	huma.AutoRegister(api, NewAPIHandler(svc, cfg))
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Concession id" example:"MN/PP/001/18"`
}

type PageInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

type SessionInput struct {
	Session string `query:"session" required:"true" minLength:"1" doc:"Viewer session id"`
}

type ClickBody struct {
	Session string  `json:"session" required:"true" minLength:"1" doc:"Viewer session id"`
	Lng     float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Click longitude" example:"-7.85"`
	Lat     float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Click latitude" example:"40.15"`
}

type PopupsBody struct {
	Changed bool               `json:"changed" doc:"Whether the click replaced the popups"`
	Popups  []concession.Popup `json:"popups" doc:"Popups to display, one per concession"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
	cfg Config
}

func NewAPIHandler(svc *Services, cfg Config) *APIHandler {
	return &APIHandler{svc: svc, cfg: cfg}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers map config, legend and click routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map/config", h.GetMapConfig, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/click", h.Click, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/popups", h.GetPopups, huma.OperationTags("map"))
	huma.Delete(api, "/api/v1/map/popups", h.DismissPopups, huma.OperationTags("map"))
}

// RegisterConcessions registers concession listing routes.
func (h *APIHandler) RegisterConcessions(api huma.API) {
	huma.Get(api, "/api/v1/concessions", h.ListConcessions, huma.OperationTags("concessions"))
	huma.Get(api, "/api/v1/concessions/summary", h.GetSummary, huma.OperationTags("concessions"))
	huma.Get(api, "/api/v1/concessions/{id}", h.GetConcession, huma.OperationTags("concessions"))
}

// RegisterTiles registers tile listing routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body []concession.LegendItem }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not loaded")
	}
	return &struct{ Body []concession.LegendItem }{Body: h.svc.Map.Legend()}, nil
}

func (h *APIHandler) Click(ctx context.Context, input *struct{ Body ClickBody }) (*struct{ Body PopupsBody }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not loaded")
	}
	popups, changed := h.svc.Map.Click(input.Body.Session, concession.LngLat{Lng: input.Body.Lng, Lat: input.Body.Lat})
	return &struct{ Body PopupsBody }{Body: PopupsBody{Changed: changed, Popups: popups}}, nil
}

func (h *APIHandler) GetPopups(ctx context.Context, input *SessionInput) (*struct{ Body PopupsBody }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not loaded")
	}
	return &struct{ Body PopupsBody }{Body: PopupsBody{Popups: h.svc.Map.Popups(input.Session)}}, nil
}

func (h *APIHandler) DismissPopups(ctx context.Context, input *SessionInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not loaded")
	}
	h.svc.Map.Dismiss(input.Session)
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Popups dismissed"}}, nil
}

func (h *APIHandler) ListConcessions(ctx context.Context, input *PageInput) (*struct {
	Body humastar.PageBody[service.ConcessionSummary]
}, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not loaded")
	}
	page := humastar.Page(h.svc.Map.Concessions(), input.Offset, input.Limit)
	return &struct {
		Body humastar.PageBody[service.ConcessionSummary]
	}{Body: page}, nil
}

func (h *APIHandler) GetConcession(ctx context.Context, input *IDInput) (*struct{ Body service.ConcessionSummary }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error404NotFound("dataset not loaded")
	}
	c, ok := h.svc.Map.Concession(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("concession not found")
	}
	return &struct{ Body service.ConcessionSummary }{Body: c}, nil
}

func (h *APIHandler) GetSummary(ctx context.Context, input *struct{}) (*struct{ Body []service.Summary }, error) {
	if h.svc == nil || !h.svc.Catalog.Available() {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	summary, err := h.svc.Catalog.Summary(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to summarise concessions", err)
	}
	return &struct{ Body []service.Summary }{Body: summary}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc == nil || h.svc.Tile == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tile.List()
	if err != nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}
