// Package concession holds the lithium concession domain: the dataset, status
// classification, legend colours, click selection and per-session view state.
package concession

// Tag is the administrative status code carried in a feature's "layer" property.
type Tag string

const (
	TagProspectingRequest  Tag = "PPMD-req"
	TagProspectingContract Tag = "PPMD-contract"
	TagMiningRequest       Tag = "EXMD-req"
	TagMiningContract      Tag = "EXMD-contract"
	TagOther               Tag = "PT"
)

// Tags lists every known tag in legend order.
var Tags = []Tag{
	TagProspectingRequest,
	TagProspectingContract,
	TagMiningRequest,
	TagMiningContract,
	TagOther,
}

// DefaultLang is the label language used when none is configured.
const DefaultLang = "pt"

// builtinLabels are used for any tag the dataset metadata does not describe.
var builtinLabels = map[Tag]string{
	TagProspectingRequest:  "Pedido de prospeção e pesquisa",
	TagProspectingContract: "Contrato de prospeção e pesquisa",
	TagMiningRequest:       "Pedido de concessão de exploração",
	TagMiningContract:      "Contrato de concessão de exploração",
	TagOther:               "Outros procedimentos",
}

// Classifier maps layer tags to human-readable status labels.
//
// Only the four specific tags have their own entry; every other input,
// including "PT" itself, resolves to the fallback entry.
type Classifier struct {
	labels   map[Tag]string
	fallback string
}

// NewClassifier builds the label table from dataset metadata in the given
// language. Labels missing from metadata use the built-in Portuguese ones.
func NewClassifier(meta Metadata, lang string) *Classifier {
	c := &Classifier{labels: make(map[Tag]string, 4)}
	for _, tag := range Tags[:4] {
		c.labels[tag] = meta.Label(tag, lang)
	}
	c.fallback = meta.Label(TagOther, lang)
	return c
}

// Classify returns the status label for a layer tag. It is total.
func (c *Classifier) Classify(layer string) string {
	if label, ok := c.labels[Tag(layer)]; ok {
		return label
	}
	return c.fallback
}

// Label returns the label for a known tag, as shown in the legend.
func (c *Classifier) Label(tag Tag) string {
	if tag == TagOther {
		return c.fallback
	}
	return c.Classify(string(tag))
}

// LegendItem is one legend row.
type LegendItem struct {
	Tag   Tag    `json:"tag" doc:"Layer tag" example:"EXMD-contract"`
	Label string `json:"label" doc:"Status label" example:"Contrato de concessão de exploração"`
	Color string `json:"color" doc:"Fill color (CSS)" example:"#8B0000"`
}

// Legend lists every tag with its label and fill colour.
func (c *Classifier) Legend() []LegendItem {
	items := make([]LegendItem, 0, len(Tags))
	for _, tag := range Tags {
		items = append(items, LegendItem{Tag: tag, Label: c.Label(tag), Color: FillColor(string(tag))})
	}
	return items
}
