package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursework", Name: "status_transitions_total", Help: "Applied personal assignment status transitions",
	}, []string{"status"})
	StaleStatusSaves = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "stale_status_saves_total", Help: "Status saves skipped because the caller's view was stale",
	})
	AutoAssigned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "auto_assigned_total", Help: "Personal assignments pinned to a grader automatically",
	})
	AutoAssignDeferred = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "auto_assign_deferred_total", Help: "Auto-assign attempts deferred because resolution was not unique",
	})
	ActivityWriteConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "activity_write_conflicts_total", Help: "Activity writes retried after a concurrent personal assignment update",
	})
	TransfersRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "transfers_rejected_total", Help: "Group transfers rejected as unsafe",
	})
	GradebookConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursework", Name: "gradebook_conflicts_total", Help: "Gradebook cells that hit a concurrent edit",
	})
)

func init() {
	prometheus.MustRegister(
		StatusTransitions,
		StaleStatusSaves,
		AutoAssigned,
		AutoAssignDeferred,
		ActivityWriteConflicts,
		TransfersRejected,
		GradebookConflicts,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
