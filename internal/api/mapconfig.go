package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/service"
	"github.com/joeblew999/lithium-map/internal/tiler"
)

const (
	// styleURL is the MapTiler basemap; the key is appended per request.
	styleURL = "https://api.maptiler.com/maps/basic-v2/style.json"

	initialZoom = 7
	minZoom     = 5
	maxZoom     = 16
)

// SourceSpec is a MapLibre source definition.
type SourceSpec struct {
	Type string `json:"type" enum:"geojson,vector" doc:"Source type"`
	Data string `json:"data,omitempty" doc:"GeoJSON URL for geojson sources"`
	URL  string `json:"url,omitempty" doc:"PMTiles URL for vector sources"`
}

// MapConfigBody is everything the viewer needs to set up the map.
type MapConfigBody struct {
	Center      [2]float64           `json:"center" doc:"Initial centre as [lng, lat]"`
	Zoom        float64              `json:"zoom" doc:"Initial zoom"`
	MinZoom     float64              `json:"minZoom" doc:"Minimum zoom"`
	MaxZoom     float64              `json:"maxZoom" doc:"Maximum zoom"`
	MaxBounds   [2][2]float64        `json:"maxBounds" doc:"Bounds the map is restricted to, [[w, s], [e, n]]"`
	Style       string               `json:"style" doc:"Basemap style URL"`
	Source      SourceSpec           `json:"source" doc:"Concession source"`
	Layer       concession.FillLayer `json:"layer" doc:"Concession fill layer"`
	Interactive []string             `json:"interactive" doc:"Layer ids that respond to clicks"`
}

func (h *APIHandler) GetMapConfig(ctx context.Context, input *struct{}) (*struct{ Body MapConfigBody }, error) {
	body := MapConfigBody{
		Center:  [2]float64{concession.InitialCenter[0], concession.InitialCenter[1]},
		Zoom:    initialZoom,
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		MaxBounds: [2][2]float64{
			{concession.MaxBounds.Min[0], concession.MaxBounds.Min[1]},
			{concession.MaxBounds.Max[0], concession.MaxBounds.Max[1]},
		},
		Style:       h.style(),
		Interactive: []string{concession.LayerID},
	}

	if h.svc != nil && h.svc.Tile != nil && h.svc.Tile.HasConcessionTiles() {
		body.Source = SourceSpec{
			Type: "vector",
			URL:  "pmtiles://" + strings.TrimRight(h.cfg.TilesURL, "/") + "/" + service.ConcessionTiles,
		}
		body.Layer = concession.NewFillLayer(tiler.DefaultConfig.Layer)
	} else {
		body.Source = SourceSpec{Type: "geojson", Data: h.cfg.DataURL}
		body.Layer = concession.NewFillLayer("")
	}

	return &struct{ Body MapConfigBody }{Body: body}, nil
}

func (h *APIHandler) style() string {
	if h.cfg.MapTilerKey == "" {
		return styleURL
	}
	return styleURL + "?key=" + url.QueryEscape(h.cfg.MapTilerKey)
}
