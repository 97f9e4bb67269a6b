package concession

import "testing"

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	ds, err := LoadDataset("testdata/concessions.geojson")
	if err != nil {
		t.Fatal(err)
	}
	return NewClassifier(ds.Metadata, DefaultLang)
}

func TestClassifySpecificTags(t *testing.T) {
	c := testClassifier(t)
	want := map[string]string{
		"PPMD-req":      "Pedido de prospeção e pesquisa",
		"PPMD-contract": "Contrato de prospeção e pesquisa",
		"EXMD-req":      "Pedido de concessão de exploração",
		"EXMD-contract": "Contrato de concessão de exploração",
	}
	for tag, label := range want {
		if got := c.Classify(tag); got != label {
			t.Errorf("Classify(%q)=%q, want %q", tag, got, label)
		}
	}
}

func TestClassifyFallsBackToPT(t *testing.T) {
	c := testClassifier(t)
	for _, tag := range []string{"PT", "", "exmd-contract", "EXMD-contract ", "unknown"} {
		if got := c.Classify(tag); got != "Procedimento concursal" {
			t.Errorf("Classify(%q)=%q, want PT label", tag, got)
		}
	}
}

func TestClassifyWithoutMetadata(t *testing.T) {
	c := NewClassifier(Metadata{}, DefaultLang)
	for _, tag := range append([]string{"", "nope"}, tagStrings()...) {
		if c.Classify(tag) == "" {
			t.Errorf("Classify(%q) returned empty label", tag)
		}
	}
	if got := c.Classify("nope"); got != builtinLabels[TagOther] {
		t.Fatalf("fallback=%q, want %q", got, builtinLabels[TagOther])
	}
}

func TestClassifierLanguage(t *testing.T) {
	ds, err := LoadDataset("testdata/concessions.geojson")
	if err != nil {
		t.Fatal(err)
	}

	en := NewClassifier(ds.Metadata, "en")
	if got := en.Classify("EXMD-req"); got != "Mining request" {
		t.Fatalf("en label=%q", got)
	}

	// Unknown language falls back to Portuguese.
	fr := NewClassifier(ds.Metadata, "fr")
	if got := fr.Classify("EXMD-req"); got != "Pedido de concessão de exploração" {
		t.Fatalf("fr label=%q", got)
	}
}

func TestLegend(t *testing.T) {
	c := testClassifier(t)
	legend := c.Legend()
	if len(legend) != len(Tags) {
		t.Fatalf("legend has %d items, want %d", len(legend), len(Tags))
	}
	last := legend[len(legend)-1]
	if last.Tag != TagOther || last.Label != "Procedimento concursal" || last.Color != "purple" {
		t.Fatalf("unexpected PT legend row: %+v", last)
	}
}

func tagStrings() []string {
	out := make([]string, len(Tags))
	for i, tag := range Tags {
		out[i] = string(tag)
	}
	return out
}
