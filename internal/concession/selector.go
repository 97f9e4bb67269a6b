package concession

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// LngLat is a geographic coordinate.
type LngLat struct {
	Lng float64 `json:"lng" doc:"Longitude" example:"-7.85"`
	Lat float64 `json:"lat" doc:"Latitude" example:"40.15"`
}

// Point converts to an orb point.
func (ll LngLat) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// ClickEvent is a map click: where it happened and what was under it.
type ClickEvent struct {
	LngLat   LngLat
	Features []Feature
}

// DetailRecord is the per-feature popup model produced by a click.
type DetailRecord struct {
	ID            string   `json:"id" doc:"Generated record id, unique per click"`
	Code          string   `json:"code" doc:"Concession id" example:"MN/PP/003/20"`
	Name          string   `json:"name" doc:"Concession name" example:"Mina X"`
	Proponent     string   `json:"proponent" doc:"Proponent company"`
	Minerals      []string `json:"minerals" doc:"Minerals covered"`
	Decree        string   `json:"decree" doc:"Legal act"`
	MineralGroups []string `json:"mineralGroups" doc:"Mineral groups"`
	Type          string   `json:"type" doc:"Classified status label"`
	Data          string   `json:"data" doc:"Contract date"`
}

// IDFunc generates record ids.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Select projects every feature of the event into a DetailRecord, keeping order.
func Select(ev ClickEvent, newID IDFunc, c *Classifier) []DetailRecord {
	if newID == nil {
		newID = NewID
	}
	records := make([]DetailRecord, 0, len(ev.Features))
	for _, f := range ev.Features {
		p := f.Properties
		records = append(records, DetailRecord{
			ID:            newID(),
			Code:          p.ID,
			Name:          p.Name,
			Proponent:     p.Proponent,
			Minerals:      p.Minerals,
			Decree:        p.Act,
			MineralGroups: p.MineralGroups,
			Type:          c.Classify(p.Layer),
			Data:          p.Data,
		})
	}
	return records
}
