package convert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "qbridge"
	subsystem        = "convert"
)

const (
	directionToNative   = "to_native"
	directionToExternal = "to_external"
)

var (
	// Translation metrics
	circuitsTranslatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "circuits_translated_total",
			Help:      "Total number of circuits translated",
		},
		[]string{"direction", "status"}, // status: "success", "error"
	)

	instructionsTranslatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "instructions_translated_total",
			Help:      "Total number of instructions translated, nested circuits included",
		},
		[]string{"direction"},
	)

	translationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "translation_errors_total",
			Help:      "Total number of failed translations by error kind",
		},
		[]string{"direction", "kind"},
	)

	translationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "translation_duration_seconds",
			Help:      "Time taken to translate a top-level circuit",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

func observe(direction string, start time.Time, err error) {
	translationDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	if err != nil {
		circuitsTranslatedTotal.WithLabelValues(direction, "error").Inc()
		translationErrorsTotal.WithLabelValues(direction, kindOf(err)).Inc()
		return
	}
	circuitsTranslatedTotal.WithLabelValues(direction, "success").Inc()
}
