package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// InfoHandler reports what the running server has loaded.
type InfoHandler struct {
	dataDir  string
	dataset  string
	features int
	dbOK     bool
	tilesOK  bool
}

func NewInfoHandler(dataDir, dataset string, features int, dbOK, tilesOK bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dataset: dataset, features: features, dbOK: dbOK, tilesOK: tilesOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name        string   `json:"name" doc:"Service name"`
	Version     string   `json:"version" doc:"Service version"`
	DataDir     string   `json:"data_dir" doc:"Data directory path"`
	Dataset     string   `json:"dataset" doc:"Loaded GeoJSON dataset"`
	Concessions int      `json:"concessions" doc:"Number of concessions loaded"`
	DB          bool     `json:"db" doc:"Whether database is available"`
	Features    []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"geojson", "viewer"}
	if h.tilesOK {
		features = append(features, "pmtiles")
	}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:        "lithium-map",
		Version:     Version,
		DataDir:     h.dataDir,
		Dataset:     h.dataset,
		Concessions: h.features,
		DB:          h.dbOK,
		Features:    features,
	}}, nil
}
