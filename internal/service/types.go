// Package service contains the business logic behind the concession map.
package service

import "github.com/joeblew999/lithium-map/internal/concession"

// Summary is the number of concessions per status.
type Summary struct {
	Tag   concession.Tag `json:"tag" doc:"Layer tag" example:"EXMD-contract"`
	Label string         `json:"label" doc:"Status label"`
	Color string         `json:"color" doc:"Legend color (CSS)"`
	Count int            `json:"count" doc:"Number of concessions"`
}

// ConcessionSummary is the list view of a concession.
type ConcessionSummary struct {
	ID        string     `json:"id" doc:"Concession id" example:"MN/PP/001/18"`
	Name      string     `json:"name" doc:"Concession name" example:"Mina X"`
	Proponent string     `json:"proponent" doc:"Proponent company"`
	Layer     string     `json:"layer" doc:"Layer tag" example:"EXMD-contract"`
	Status    string     `json:"status" doc:"Classified status label"`
	Minerals  []string   `json:"minerals" doc:"Minerals covered"`
	Bounds    [4]float64 `json:"bounds" doc:"Bounding box: minLng, minLat, maxLng, maxLat"`
}

// TileFile represents a PMTiles file.
type TileFile struct {
	Name string `json:"name" doc:"PMTiles file name" example:"concessions.pmtiles"`
	Size string `json:"size" doc:"Human-readable file size" example:"5.4 MB"`
}
