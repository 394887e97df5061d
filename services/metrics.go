package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRunsTotal           *prometheus.CounterVec
	scholarshipsSyncedTotal prometheus.Counter
	regionsClassifiedTotal  *prometheus.CounterVec
	recommendationsTotal    *prometheus.CounterVec
)

func init() {
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarmate_sync_runs_total",
			Help: "Catalog synchronization runs by outcome.",
		},
		[]string{"status"},
	)
	scholarshipsSyncedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholarmate_scholarships_synced_total",
			Help: "Raw scholarship rows upserted from the public data API.",
		},
	)
	regionsClassifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarmate_regions_classified_total",
			Help: "Region classification attempts by outcome.",
		},
		[]string{"status"},
	)
	recommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarmate_recommendations_total",
			Help: "Recommendation requests by how the answer was produced.",
		},
		[]string{"source"},
	)
	prometheus.MustRegister(
		syncRunsTotal,
		scholarshipsSyncedTotal,
		regionsClassifiedTotal,
		recommendationsTotal,
	)
}
