package concession

// LayerID is the renderer layer and source id for the concession polygons.
const LayerID = "lithium"

// DefaultFillColor is used for features whose tag has no colour.
const DefaultFillColor = "gray"

// FillOpacity applies to every concession polygon.
const FillOpacity = 0.7

// fillColors is ordered as the renderer's match expression.
var fillColors = []struct {
	Tag   Tag
	Color string
}{
	{TagProspectingContract, "#00008B"},
	{TagProspectingRequest, "blue"},
	{TagMiningRequest, "red"},
	{TagMiningContract, "#8B0000"},
	{TagOther, "purple"},
}

// FillColor returns the fill colour for a layer tag.
func FillColor(layer string) string {
	for _, fc := range fillColors {
		if string(fc.Tag) == layer {
			return fc.Color
		}
	}
	return DefaultFillColor
}

// FillLayer is a MapLibre fill layer definition.
type FillLayer struct {
	ID          string         `json:"id" doc:"Layer id" example:"lithium"`
	Type        string         `json:"type" doc:"Layer type" example:"fill"`
	Source      string         `json:"source" doc:"Source id" example:"lithium"`
	SourceLayer string         `json:"source-layer,omitempty" doc:"Layer name inside a vector source"`
	Paint       map[string]any `json:"paint" doc:"Paint properties"`
}

// NewFillLayer builds the concession fill layer. sourceLayer is only set for
// vector tile sources.
func NewFillLayer(sourceLayer string) FillLayer {
	match := []any{"match", []any{"get", "layer"}}
	for _, fc := range fillColors {
		match = append(match, string(fc.Tag), fc.Color)
	}
	match = append(match, DefaultFillColor)

	return FillLayer{
		ID:          LayerID,
		Type:        "fill",
		Source:      LayerID,
		SourceLayer: sourceLayer,
		Paint: map[string]any{
			"fill-color":   match,
			"fill-opacity": FillOpacity,
		},
	}
}
