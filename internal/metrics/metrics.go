package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names.
const (
	StageDecode  = "decode"
	StageDetect  = "detect"
	StagePublish = "publish"
)

// stageNone labels successful invocations, which have no failing stage.
const stageNone = "none"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics records pipeline outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	invocations   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "romo",
			Subsystem: "face",
			Name:      "invocations_total",
			Help:      "Face pipeline invocations by outcome and failing stage.",
		}, []string{"outcome", "stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "romo",
			Subsystem: "face",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "outcome"}),
	}
	reg.MustRegister(m.invocations, m.stageDuration)
	return m
}

// ObserveStage records how long a stage took and whether it succeeded.
func (m *Metrics) ObserveStage(stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, outcome(err)).Observe(time.Since(start).Seconds())
}

// Invocation counts one finished invocation. failedStage is empty on success.
func (m *Metrics) Invocation(failedStage string) {
	if m == nil {
		return
	}
	if failedStage == "" {
		m.invocations.WithLabelValues(OutcomeSuccess, stageNone).Inc()
		return
	}
	m.invocations.WithLabelValues(OutcomeFailure, failedStage).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
