package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lithium_map_clicks_total",
		Help: "Total map clicks handled",
	})
	EmptyClicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lithium_map_empty_clicks_total",
		Help: "Total map clicks that hit no concession",
	})
	FeaturesPerClick = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lithium_map_features_per_click",
		Help:    "Concessions under the cursor per non-empty click",
		Buckets: []float64{1, 2, 3, 4, 6, 8},
	})
	DismissalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lithium_map_popup_dismissals_total",
		Help: "Total popup dismissals",
	})
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lithium_map_sessions",
		Help: "Sessions with view state",
	})
)

func init() {
	prometheus.MustRegister(ClicksTotal, EmptyClicksTotal, FeaturesPerClick, DismissalsTotal, Sessions)
}

func Handler() http.Handler { return promhttp.Handler() }
