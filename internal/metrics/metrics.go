// Package metrics exposes the Prometheus collectors shared by veotube components.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CatalogAppends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veotube_catalog_appends_total",
		Help: "Videos added to the catalog.",
	})

	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veotube_persistence_errors_total",
		Help: "Snapshot writes or reads that failed and were swallowed.",
	}, []string{"key", "op"})

	SeedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veotube_catalog_seed_fallbacks_total",
		Help: "Catalog initializations that fell back to the seed set.",
	})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veotube_logins_total",
		Help: "Login attempts by method and result.",
	}, []string{"method", "result"})

	FilterQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veotube_filter_queries_total",
		Help: "Filter evaluations over the catalog.",
	})

	NavigationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veotube_navigation_transitions_total",
		Help: "Committed navigation transitions by resulting view.",
	}, []string{"view"})

	TasksCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veotube_tasks_cancelled_total",
		Help: "Delayed tasks dropped because their modal was dismissed.",
	}, []string{"scope"})

	Pairings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veotube_tv_pairings_total",
		Help: "TV devices paired.",
	})

	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veotube_generations_total",
		Help: "Generation requests by result.",
	}, []string{"result"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "veotube_generation_duration_seconds",
		Help:    "Time from submitting a prompt to receiving the video URI.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
