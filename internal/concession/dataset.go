package concession

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// MaxBounds is the area the map is restricted to (mainland Portugal).
var MaxBounds = orb.Bound{Min: orb.Point{-12, 36}, Max: orb.Point{-4, 43}}

// InitialCenter is the map's starting view centre.
var InitialCenter = orb.Point{-8.042, 40.175}

// LayerMeta describes one tag in the dataset's metadata.layers object.
type LayerMeta struct {
	Lang map[string]string `json:"lang"`
}

// Metadata is the dataset's top-level "metadata" member.
type Metadata struct {
	Layers map[Tag]LayerMeta `json:"layers"`
}

// Label returns the label for tag in lang, falling back to Portuguese and
// then to the built-in label. It never returns "".
func (m Metadata) Label(tag Tag, lang string) string {
	if lm, ok := m.Layers[tag]; ok {
		if l := lm.Lang[lang]; l != "" {
			return l
		}
		if l := lm.Lang[DefaultLang]; l != "" {
			return l
		}
	}
	if l, ok := builtinLabels[tag]; ok {
		return l
	}
	return builtinLabels[TagOther]
}

// Properties is the typed view of a concession feature's properties.
type Properties struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Proponent     string   `json:"proponent"`
	Act           string   `json:"act"`
	Data          string   `json:"data"`
	Minerals      []string `json:"minerals"`
	MineralGroups []string `json:"mineralGroups"`
	Layer         string   `json:"layer"`
}

// DecodeProperties reads the known keys from raw GeoJSON properties.
// Missing, null or oddly typed values become zero values.
func DecodeProperties(p geojson.Properties) Properties {
	return Properties{
		ID:            scalarString(p["id"]),
		Name:          scalarString(p["name"]),
		Proponent:     scalarString(p["proponent"]),
		Act:           scalarString(p["act"]),
		Data:          scalarString(p["data"]),
		Minerals:      stringList(p["minerals"]),
		MineralGroups: stringList(p["mineralGroups"]),
		Layer:         scalarString(p["layer"]),
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalarString(t); s != "" {
			return []string{s}
		}
		return nil
	}
}

// Feature is one concession polygon.
type Feature struct {
	Geometry   orb.Geometry
	Bound      orb.Bound
	Properties Properties
}

// Contains reports whether the feature's area contains p.
func (f Feature) Contains(p orb.Point) bool {
	if f.Geometry == nil || !f.Bound.Contains(p) {
		return false
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	default:
		return false
	}
}

// Dataset is the immutable concession feature set.
type Dataset struct {
	Path       string
	Metadata   Metadata
	Features   []Feature
	Collection *geojson.FeatureCollection
}

// LoadDataset reads a concession GeoJSON file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, err
	}
	ds.Path = path
	return ds, nil
}

// ParseDataset parses a GeoJSON feature collection with a metadata.layers member.
func ParseDataset(data []byte) (*Dataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}

	var envelope struct {
		Metadata Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}

	ds := &Dataset{
		Metadata:   envelope.Metadata,
		Features:   make([]Feature, 0, len(fc.Features)),
		Collection: fc,
	}
	for _, f := range fc.Features {
		feat := Feature{Properties: DecodeProperties(f.Properties)}
		if f.Geometry != nil {
			feat.Geometry = f.Geometry
			feat.Bound = f.Geometry.Bound()
		}
		ds.Features = append(ds.Features, feat)
	}
	return ds, nil
}

// FeaturesAt returns every feature containing p, topmost first. Later
// features are drawn over earlier ones, so hits come back in reverse dataset
// order, the way the renderer reports them. Points outside MaxBounds hit
// nothing.
func (d *Dataset) FeaturesAt(p orb.Point) []Feature {
	if !MaxBounds.Contains(p) {
		return nil
	}
	var hits []Feature
	for i := len(d.Features) - 1; i >= 0; i-- {
		if d.Features[i].Contains(p) {
			hits = append(hits, d.Features[i])
		}
	}
	return hits
}

// Find returns the first feature whose id property equals id.
func (d *Dataset) Find(id string) (Feature, bool) {
	for _, f := range d.Features {
		if f.Properties.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
