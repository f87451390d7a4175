// Package metrics exposes prometheus instrumentation for the CIM Provider Kit
// and a collector bridging provider observations into prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	NameSpace = "clustermon"
	Subsystem = "cim_provider"

	// PollTime is a summary of the time taken to refresh cluster state
	PollTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "poll_duration_seconds"),
		Help: "Time taken to refresh cluster state from the status source",
	}, []string{"provider"})

	// PollFailureCount counts failed cluster state refreshes
	PollFailureCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "poll_error_count"),
		Help: "How many cluster state refreshes failed",
	}, []string{"provider"})

	// SnapshotAge tracks the age of the most recently served snapshot
	SnapshotAge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "snapshot_age_seconds"),
		Help: "Age of the most recently served cluster snapshot",
	}, []string{"provider"})

	// OperationTime is a summary of the time taken to serve a broker operation
	OperationTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "operation_duration_seconds"),
		Help: "Time taken to serve a broker operation",
	}, []string{"provider", "operation"})

	// OperationErrorCount counts broker operations that returned errors
	OperationErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "operation_error_count"),
		Help: "How many broker operations returned errors",
	}, []string{"provider", "operation"})

	// IndicationCount counts lifecycle indications by type
	IndicationCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "indication_count"),
		Help: "How many lifecycle indications were generated",
	}, []string{"provider", "type"})

	// FactGatherTime is a summary of the time taken to gather local node facts
	FactGatherTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "facts_gather_duration_seconds"),
		Help: "Time taken to gather local node facts",
	}, []string{})
)

func RegisterMetrics() {
	prometheus.MustRegister(PollTime)
	prometheus.MustRegister(PollFailureCount)
	prometheus.MustRegister(SnapshotAge)
	prometheus.MustRegister(OperationTime)
	prometheus.MustRegister(OperationErrorCount)
	prometheus.MustRegister(IndicationCount)
	prometheus.MustRegister(FactGatherTime)
}

func ListenAndServe(port int, log logrus.FieldLogger) {
	if port <= 0 {
		return
	}

	go func() {
		log.WithField("port", port).Info("Starting monitoring server")
		http.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
		if err != nil {
			log.WithError(err).Error("HTTP Listener failed")
		}
	}()
}
