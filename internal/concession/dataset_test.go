package concession

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func loadTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := LoadDataset("testdata/concessions.geojson")
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestLoadDataset(t *testing.T) {
	ds := loadTestDataset(t)
	if len(ds.Features) != 4 {
		t.Fatalf("features=%d, want 4", len(ds.Features))
	}
	if len(ds.Metadata.Layers) != 5 {
		t.Fatalf("metadata layers=%d, want 5", len(ds.Metadata.Layers))
	}
	if ds.Path != "testdata/concessions.geojson" {
		t.Fatalf("path=%q", ds.Path)
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	if _, err := LoadDataset("testdata/nope.geojson"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseDatasetInvalid(t *testing.T) {
	if _, err := ParseDataset([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestDecodeProperties(t *testing.T) {
	ds := loadTestDataset(t)

	numeric := ds.Features[1].Properties
	if numeric.ID != "42" {
		t.Errorf("numeric id=%q, want 42", numeric.ID)
	}
	if len(numeric.Minerals) != 1 || numeric.Minerals[0] != "Li" {
		t.Errorf("scalar minerals=%v, want [Li]", numeric.Minerals)
	}

	sparse := ds.Features[3].Properties
	if sparse.Name != "" || sparse.Proponent != "" || sparse.Act != "" {
		t.Errorf("missing fields should be empty: %+v", sparse)
	}
	if sparse.Minerals != nil {
		t.Errorf("minerals=%v, want nil", sparse.Minerals)
	}
}

func TestDecodePropertiesEmpty(t *testing.T) {
	p := DecodeProperties(geojson.Properties{})
	if p.ID != "" || p.Name != "" || p.Layer != "" || p.Minerals != nil || p.MineralGroups != nil {
		t.Fatalf("expected zero Properties, got %+v", p)
	}
}

func TestFeaturesAt(t *testing.T) {
	ds := loadTestDataset(t)

	cases := []struct {
		name  string
		point orb.Point
		want  []string
	}{
		{"overlap topmost first", orb.Point{-7.85, 40.15}, []string{"42", "MN/PP/001/18"}},
		{"single", orb.Point{-7.95, 40.05}, []string{"MN/PP/001/18"}},
		{"multipolygon second part", orb.Point{-7.25, 39.55}, []string{"MN/XX/999/99"}},
		{"between multipolygon parts", orb.Point{-7.35, 39.55}, nil},
		{"empty space", orb.Point{-6.0, 38.0}, nil},
		{"outside bounds", orb.Point{2.35, 48.85}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hits := ds.FeaturesAt(tc.point)
			if len(hits) != len(tc.want) {
				t.Fatalf("hits=%d, want %d", len(hits), len(tc.want))
			}
			for i, h := range hits {
				if h.Properties.ID != tc.want[i] {
					t.Errorf("hit %d id=%q, want %q", i, h.Properties.ID, tc.want[i])
				}
			}
		})
	}
}

func TestFind(t *testing.T) {
	ds := loadTestDataset(t)
	f, ok := ds.Find("MN/PT/007/21")
	if !ok || f.Properties.Name != "Barroso Norte" {
		t.Fatalf("Find returned %+v, %v", f.Properties, ok)
	}
	if _, ok := ds.Find("missing"); ok {
		t.Fatal("expected missing id not to be found")
	}
}
