package concession

import "slices"

// Anchor is the side of a popup attached to the click point.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

// AnchorFor alternates anchors so overlapping popups do not stack.
func AnchorFor(index int) Anchor {
	if index%2 == 0 {
		return AnchorTop
	}
	return AnchorBottom
}

// Popup is one popup placement for the renderer.
type Popup struct {
	Record DetailRecord `json:"record" doc:"Concession details"`
	LngLat LngLat       `json:"lngLat" doc:"Anchor coordinate"`
	Anchor Anchor       `json:"anchor" enum:"top,bottom" doc:"Popup anchor"`
}

// ViewState is the last click point and the records currently shown.
// It is not safe for concurrent use.
type ViewState struct {
	Point   *LngLat
	Records []DetailRecord
}

// Apply updates the state from a click. A click with no features leaves the
// state untouched, so existing popups stay open. It reports whether anything
// changed.
func (v *ViewState) Apply(ev ClickEvent, newID IDFunc, c *Classifier) bool {
	if len(ev.Features) == 0 {
		return false
	}
	pt := ev.LngLat
	v.Point = &pt
	v.Records = Select(ev, newID, c)
	return true
}

// Dismiss closes all popups. The click point is kept.
func (v *ViewState) Dismiss() {
	v.Records = nil
}

// Popups returns the placements for the current records.
func (v *ViewState) Popups() []Popup {
	if v.Point == nil || len(v.Records) == 0 {
		return []Popup{}
	}
	popups := make([]Popup, len(v.Records))
	for i, r := range v.Records {
		popups[i] = Popup{Record: r, LngLat: *v.Point, Anchor: AnchorFor(i)}
	}
	return popups
}

// Clone returns a deep copy. Record slices are copied too, so the clone
// shares nothing with the dataset's properties.
func (v *ViewState) Clone() ViewState {
	out := ViewState{}
	if v.Point != nil {
		pt := *v.Point
		out.Point = &pt
	}
	if v.Records != nil {
		out.Records = make([]DetailRecord, len(v.Records))
		for i, r := range v.Records {
			r.Minerals = slices.Clone(r.Minerals)
			r.MineralGroups = slices.Clone(r.MineralGroups)
			out.Records[i] = r
		}
	}
	return out
}
