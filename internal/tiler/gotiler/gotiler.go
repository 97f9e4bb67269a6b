// Package gotiler generates PMTiles archives of concession polygons in pure Go.
//
// Features are bucketed per tile, clipped, simplified and encoded as MVT with
// paulmach/orb, then written as a single-directory PMTiles v3 archive.
package gotiler

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
	"github.com/protomaps/go-pmtiles/pmtiles"

	"github.com/joeblew999/lithium-map/internal/tiler"
)

// maxZoom caps generation; concession polygons are sharp enough at 14.
const maxZoom = 14

// GoTiler implements tiler.Tiler using pure Go libraries.
type GoTiler struct{}

// New creates a new GoTiler.
func New() *GoTiler {
	return &GoTiler{}
}

// Name returns the engine name.
func (g *GoTiler) Name() string {
	return "go"
}

// Available always returns true.
func (g *GoTiler) Available() bool {
	return true
}

// Tile converts a GeoJSON file to PMTiles.
func (g *GoTiler) Tile(inputPath, outputPath string, config tiler.TileConfig) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("parsing geojson: %w", err)
	}
	return g.TileCollection(fc, outputPath, config)
}

// TileCollection converts an in-memory feature collection to PMTiles.
func (g *GoTiler) TileCollection(fc *geojson.FeatureCollection, outputPath string, config tiler.TileConfig) error {
	config = normalize(config)

	tiles := make(map[maptile.Tile][]byte)
	for z := config.MinZoom; z <= config.MaxZoom; z++ {
		for tile, data := range generateZoomLevel(fc, maptile.Zoom(z), config.Layer) {
			tiles[tile] = data
		}
	}

	return writePMTiles(outputPath, tiles, collectionBound(fc), config)
}

func normalize(config tiler.TileConfig) tiler.TileConfig {
	if config.Layer == "" {
		config.Layer = tiler.DefaultConfig.Layer
	}
	if config.MinZoom < 0 {
		config.MinZoom = 0
	}
	if config.MaxZoom <= 0 || config.MaxZoom > maxZoom {
		config.MaxZoom = maxZoom
	}
	if config.MinZoom > config.MaxZoom {
		config.MinZoom = config.MaxZoom
	}
	return config
}

// generateZoomLevel creates MVT tiles for one zoom level.
func generateZoomLevel(fc *geojson.FeatureCollection, zoom maptile.Zoom, layerName string) map[maptile.Tile][]byte {
	byTile := make(map[maptile.Tile][]*geojson.Feature)
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		for _, tile := range tilesInBounds(f.Geometry.Bound(), zoom) {
			byTile[tile] = append(byTile[tile], f)
		}
	}

	result := make(map[maptile.Tile][]byte)
	for tile, features := range byTile {
		if data := encodeTile(tile, features, layerName); len(data) > 0 {
			result[tile] = data
		}
	}
	return result
}

// encodeTile clips, simplifies and encodes the features touching a tile.
func encodeTile(tile maptile.Tile, features []*geojson.Feature, layerName string) []byte {
	bound := tile.Bound()
	fc := geojson.NewFeatureCollection()

	for _, f := range features {
		if !intersectsTile(f.Geometry, bound) {
			continue
		}
		// mvt clips and projects in place, so each tile gets its own copy.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}
	if len(fc.Features) == 0 {
		return nil
	}

	layer := mvt.NewLayer(layerName, fc)
	if epsilon := simplifyEpsilon(tile.Z); epsilon > 0 {
		layer.Simplify(simplify.DouglasPeucker(epsilon))
	}
	layer.Clip(bound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil
	}
	return data
}

// intersectsTile checks polygon geometry against a tile bound. Other
// geometry types are accepted on bounding box overlap alone.
func intersectsTile(geom orb.Geometry, tileBound orb.Bound) bool {
	if !geom.Bound().Intersects(tileBound) {
		return false
	}

	switch g := geom.(type) {
	case orb.Polygon:
		for _, p := range g[0] {
			if tileBound.Contains(p) {
				return true
			}
		}
		corners := []orb.Point{
			tileBound.Min,
			{tileBound.Max[0], tileBound.Min[1]},
			tileBound.Max,
			{tileBound.Min[0], tileBound.Max[1]},
			tileBound.Center(),
		}
		for _, c := range corners {
			if planar.PolygonContains(g, c) {
				return true
			}
		}
		// Edges can cross the tile without any vertex or corner inside.
		return crossesBound(g[0], tileBound)

	case orb.MultiPolygon:
		for _, poly := range g {
			if intersectsTile(poly, tileBound) {
				return true
			}
		}
		return false

	default:
		return true
	}
}

// crossesBound reports whether any ring edge's bounding box overlaps b.
// It may accept edges that pass near a tile corner; clipping drops those.
func crossesBound(ring orb.Ring, b orb.Bound) bool {
	for i := 1; i < len(ring); i++ {
		seg := orb.Bound{Min: ring[i-1], Max: ring[i-1]}.Extend(ring[i])
		if seg.Intersects(b) {
			return true
		}
	}
	return false
}

// tilesInBounds returns all tiles at a zoom level that intersect a bounding box.
func tilesInBounds(bounds orb.Bound, zoom maptile.Zoom) []maptile.Tile {
	minTile := maptile.At(bounds.Min, zoom)
	maxTile := maptile.At(bounds.Max, zoom)

	minX, maxX := minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	// Tile Y grows southwards, so the bound's max latitude has the smaller Y.
	minY, maxY := minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	var tiles []maptile.Tile
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, maptile.New(x, y, zoom))
		}
	}
	return tiles
}

// simplifyEpsilon returns the simplification tolerance in degrees for a zoom.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 12:
		return 0
	case zoom >= 9:
		return 0.00005
	case zoom >= 6:
		return 0.0005
	default:
		return 0.002
	}
}

func collectionBound(fc *geojson.FeatureCollection) orb.Bound {
	var b orb.Bound
	first := true
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			b = f.Geometry.Bound()
			first = false
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b
}

func e7(v float64) int32 {
	return int32(math.Round(v * 10_000_000))
}

// writePMTiles writes a clustered, single-directory PMTiles v3 archive.
func writePMTiles(path string, tiles map[maptile.Tile][]byte, bound orb.Bound, config tiler.TileConfig) error {
	if len(tiles) == 0 {
		return fmt.Errorf("no tiles to write")
	}

	type tileEntry struct {
		id   uint64
		data []byte
	}
	sorted := make([]tileEntry, 0, len(tiles))
	for t, data := range tiles {
		sorted = append(sorted, tileEntry{id: pmtiles.ZxyToID(uint8(t.Z), t.X, t.Y), data: data})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })

	entries := make([]pmtiles.EntryV3, 0, len(sorted))
	var tileData bytes.Buffer
	for _, te := range sorted {
		entries = append(entries, pmtiles.EntryV3{
			TileID:    te.id,
			Offset:    uint64(tileData.Len()),
			Length:    uint32(len(te.data)),
			RunLength: 1,
		})
		tileData.Write(te.data)
	}

	metadata := map[string]interface{}{
		"name":        config.Layer,
		"format":      "pbf",
		"compression": "gzip",
		"minzoom":     config.MinZoom,
		"maxzoom":     config.MaxZoom,
		"vector_layers": []map[string]interface{}{
			{"id": config.Layer, "minzoom": config.MinZoom, "maxzoom": config.MaxZoom},
		},
	}
	metadataBytes, err := pmtiles.SerializeMetadata(metadata, pmtiles.Gzip)
	if err != nil {
		return fmt.Errorf("serializing metadata: %w", err)
	}
	rootDir := pmtiles.SerializeEntries(entries, pmtiles.Gzip)

	rootOffset := uint64(pmtiles.HeaderV3LenBytes)
	metadataOffset := rootOffset + uint64(len(rootDir))
	tileDataOffset := metadataOffset + uint64(len(metadataBytes))
	center := bound.Center()

	header := pmtiles.HeaderV3{
		SpecVersion:         3,
		RootOffset:          rootOffset,
		RootLength:          uint64(len(rootDir)),
		MetadataOffset:      metadataOffset,
		MetadataLength:      uint64(len(metadataBytes)),
		TileDataOffset:      tileDataOffset,
		TileDataLength:      uint64(tileData.Len()),
		AddressedTilesCount: uint64(len(entries)),
		TileEntriesCount:    uint64(len(entries)),
		TileContentsCount:   uint64(len(entries)),
		Clustered:           true,
		InternalCompression: pmtiles.Gzip,
		TileCompression:     pmtiles.Gzip,
		TileType:            pmtiles.Mvt,
		MinZoom:             uint8(config.MinZoom),
		MaxZoom:             uint8(config.MaxZoom),
		MinLonE7:            e7(bound.Min[0]),
		MinLatE7:            e7(bound.Min[1]),
		MaxLonE7:            e7(bound.Max[0]),
		MaxLatE7:            e7(bound.Max[1]),
		CenterZoom:          uint8(config.MinZoom),
		CenterLonE7:         e7(center[0]),
		CenterLatE7:         e7(center[1]),
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, chunk := range [][]byte{pmtiles.SerializeHeader(header), rootDir, metadataBytes, tileData.Bytes()} {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return f.Close()
}

var _ tiler.Tiler = (*GoTiler)(nil)
