package gotiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/protomaps/go-pmtiles/pmtiles"

	"github.com/joeblew999/lithium-map/internal/tiler"
)

const fixture = "../../concession/testdata/concessions.geojson"

func TestTileWritesArchive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "concessions.pmtiles")

	if err := New().Tile(fixture, out, tiler.TileConfig{Layer: "concessions", MinZoom: 4, MaxZoom: 8}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	h, err := pmtiles.DeserializeHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.TileType != pmtiles.Mvt {
		t.Errorf("tile type=%v, want mvt", h.TileType)
	}
	if h.MinZoom != 4 || h.MaxZoom != 8 {
		t.Errorf("zoom=%d-%d, want 4-8", h.MinZoom, h.MaxZoom)
	}
	if h.TileEntriesCount == 0 {
		t.Error("no tile entries written")
	}
	if h.MinLonE7 != -85000000 || h.MaxLatE7 != 412000000 {
		t.Errorf("bounds lon=%d lat=%d", h.MinLonE7, h.MaxLatE7)
	}
	if uint64(len(data)) != h.TileDataOffset+h.TileDataLength {
		t.Errorf("file size %d, header says %d", len(data), h.TileDataOffset+h.TileDataLength)
	}
}

func TestTileMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.pmtiles")
	if err := New().Tile("nope.geojson", out, tiler.DefaultConfig); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestNormalize(t *testing.T) {
	c := normalize(tiler.TileConfig{MinZoom: 20, MaxZoom: 30})
	if c.MaxZoom != maxZoom || c.MinZoom != maxZoom || c.Layer != "concessions" {
		t.Fatalf("normalize=%+v", c)
	}
}

func TestTilesInBounds(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-8.0, 40.0}, Max: orb.Point{-7.8, 40.2}}
	tiles := tilesInBounds(b, 0)
	if len(tiles) != 1 || tiles[0] != maptile.New(0, 0, 0) {
		t.Fatalf("zoom 0 tiles=%v", tiles)
	}
	if len(tilesInBounds(b, 10)) < 1 {
		t.Fatal("expected tiles at zoom 10")
	}
}

func TestIntersectsTile(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}

	inside := orb.Bound{Min: orb.Point{2, 2}, Max: orb.Point{3, 3}}
	if !intersectsTile(square, inside) {
		t.Error("tile inside polygon should intersect")
	}
	away := orb.Bound{Min: orb.Point{20, 20}, Max: orb.Point{30, 30}}
	if intersectsTile(square, away) {
		t.Error("distant tile should not intersect")
	}
}
