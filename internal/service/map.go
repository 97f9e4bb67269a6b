package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/metrics"
)

// MapService answers map clicks against the concession dataset and keeps
// per-session view state.
type MapService struct {
	dataset    *concession.Dataset
	classifier *concession.Classifier
	sessions   *SessionStore
	bus        *EventBus
	newID      concession.IDFunc
}

// NewMapService creates a map service over a loaded dataset.
func NewMapService(dataset *concession.Dataset, lang string, bus *EventBus) *MapService {
	if bus == nil {
		bus = NewEventBus()
	}
	return &MapService{
		dataset:    dataset,
		classifier: concession.NewClassifier(dataset.Metadata, lang),
		sessions:   NewSessionStore(),
		bus:        bus,
		newID:      concession.NewID,
	}
}

// Dataset returns the underlying dataset.
func (s *MapService) Dataset() *concession.Dataset { return s.dataset }

// Classifier returns the status classifier.
func (s *MapService) Classifier() *concession.Classifier { return s.classifier }

// Bus returns the event bus view changes are published on.
func (s *MapService) Bus() *EventBus { return s.bus }

// Legend returns the legend rows.
func (s *MapService) Legend() []concession.LegendItem {
	return s.classifier.Legend()
}

// Click handles a map click for a session. It returns the session's popups
// after the click and whether the click changed them.
func (s *MapService) Click(session string, at concession.LngLat) ([]concession.Popup, bool) {
	ev := concession.ClickEvent{
		LngLat:   at,
		Features: s.dataset.FeaturesAt(at.Point()),
	}

	metrics.ClicksTotal.Inc()
	if len(ev.Features) == 0 {
		metrics.EmptyClicksTotal.Inc()
	} else {
		metrics.FeaturesPerClick.Observe(float64(len(ev.Features)))
	}

	view, changed := s.sessions.Update(session, func(v *concession.ViewState) bool {
		return v.Apply(ev, s.newID, s.classifier)
	})
	if changed {
		s.bus.Publish(Event{Resource: "views", Action: "clicked", Session: session})
	}
	return view.Popups(), changed
}

// Popups returns the session's current popups.
func (s *MapService) Popups(session string) []concession.Popup {
	view := s.sessions.Get(session)
	return view.Popups()
}

// Dismiss closes the session's popups. It reports whether any were open.
func (s *MapService) Dismiss(session string) bool {
	_, changed := s.sessions.Update(session, func(v *concession.ViewState) bool {
		open := len(v.Records) > 0
		v.Dismiss()
		return open
	})
	metrics.DismissalsTotal.Inc()
	if changed {
		s.bus.Publish(Event{Resource: "views", Action: "dismissed", Session: session})
	}
	return changed
}

// Forget drops a session's view state.
func (s *MapService) Forget(session string) {
	s.sessions.Delete(session)
}

// Sessions returns the number of sessions holding view state.
func (s *MapService) Sessions() int {
	return s.sessions.Len()
}

// EvictIdle drops sessions untouched for longer than maxIdle.
func (s *MapService) EvictIdle(maxIdle time.Duration) int {
	return s.sessions.Evict(maxIdle)
}

// RunEviction evicts idle sessions every interval until ctx is done.
func (s *MapService) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				slog.Debug("evicted idle sessions", "count", n, "remaining", s.Sessions())
			}
		}
	}
}

// Concessions lists every concession in dataset order.
func (s *MapService) Concessions() []ConcessionSummary {
	out := make([]ConcessionSummary, 0, len(s.dataset.Features))
	for _, f := range s.dataset.Features {
		out = append(out, s.summarize(f))
	}
	return out
}

// Concession returns one concession by id.
func (s *MapService) Concession(id string) (ConcessionSummary, bool) {
	f, ok := s.dataset.Find(id)
	if !ok {
		return ConcessionSummary{}, false
	}
	return s.summarize(f), true
}

func (s *MapService) summarize(f concession.Feature) ConcessionSummary {
	p := f.Properties
	return ConcessionSummary{
		ID:        p.ID,
		Name:      p.Name,
		Proponent: p.Proponent,
		Layer:     p.Layer,
		Status:    s.classifier.Classify(p.Layer),
		Minerals:  p.Minerals,
		Bounds:    [4]float64{f.Bound.Min[0], f.Bound.Min[1], f.Bound.Max[0], f.Bound.Max[1]},
	}
}
