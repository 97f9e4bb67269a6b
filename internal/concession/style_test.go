package concession

import (
	"encoding/json"
	"testing"
)

func TestFillColor(t *testing.T) {
	cases := map[string]string{
		"PPMD-contract": "#00008B",
		"PPMD-req":      "blue",
		"EXMD-req":      "red",
		"EXMD-contract": "#8B0000",
		"PT":            "purple",
		"":              "gray",
		"other":         "gray",
	}
	for tag, want := range cases {
		if got := FillColor(tag); got != want {
			t.Errorf("FillColor(%q)=%q, want %q", tag, got, want)
		}
	}
}

func TestFillLayerJSON(t *testing.T) {
	data, err := json.Marshal(NewFillLayer(""))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"lithium","type":"fill","source":"lithium","paint":{"fill-color":["match",["get","layer"],"PPMD-contract","#00008B","PPMD-req","blue","EXMD-req","red","EXMD-contract","#8B0000","PT","purple","gray"],"fill-opacity":0.7}}`
	if string(data) != want {
		t.Fatalf("fill layer\n got: %s\nwant: %s", data, want)
	}
}

func TestFillLayerVectorSource(t *testing.T) {
	l := NewFillLayer("concessions")
	if l.SourceLayer != "concessions" {
		t.Fatalf("source-layer=%q", l.SourceLayer)
	}
}
