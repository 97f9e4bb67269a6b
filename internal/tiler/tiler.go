// Package tiler turns the concession GeoJSON into vector tile archives.
package tiler

import "github.com/paulmach/orb/geojson"

// TileConfig controls tile generation.
type TileConfig struct {
	Layer   string // layer name inside each tile
	MinZoom int
	MaxZoom int
}

// DefaultConfig is used by `geo tiles`.
var DefaultConfig = TileConfig{Layer: "concessions", MinZoom: 4, MaxZoom: 12}

// Tiler is a tile generation engine.
type Tiler interface {
	Name() string
	Available() bool
	Tile(inputPath, outputPath string, config TileConfig) error
	TileCollection(fc *geojson.FeatureCollection, outputPath string, config TileConfig) error
}
