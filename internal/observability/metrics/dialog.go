package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogMetrics exposes counters/histograms for conversational turns.
type DialogMetrics struct {
	turnsTotal        *prometheus.CounterVec
	intentTotal       *prometheus.CounterVec
	classifierErrors  prometheus.Counter
	turnLatency       prometheus.Histogram
	idleResetsTotal   prometheus.Counter
	cancellationTotal prometheus.Counter
}

func NewDialogMetrics(reg prometheus.Registerer) *DialogMetrics {
	m := &DialogMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Total conversational turns by entry phase",
		}, []string{"phase"}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "intent_total",
			Help:      "Detected intents by source (classifier or backstop)",
		}, []string{"intent", "source"}),
		classifierErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "classifier_errors_total",
			Help:      "Classifier calls that failed or timed out",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one conversational turn",
			Buckets:   prometheus.DefBuckets,
		}),
		idleResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "idle_resets_total",
			Help:      "Dialogues force-reset by the idle timeout",
		}),
		cancellationTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "decsa",
			Subsystem: "dialog",
			Name:      "cancellations_total",
			Help:      "Dialogues cancelled explicitly by the user",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentTotal, m.classifierErrors,
		m.turnLatency, m.idleResetsTotal, m.cancellationTotal)
	return m
}

func (m *DialogMetrics) ObserveTurn(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(phase).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *DialogMetrics) ObserveIntent(intent, source string) {
	if m == nil {
		return
	}
	m.intentTotal.WithLabelValues(intent, source).Inc()
}

func (m *DialogMetrics) ObserveClassifierError() {
	if m == nil {
		return
	}
	m.classifierErrors.Inc()
}

func (m *DialogMetrics) ObserveIdleReset() {
	if m == nil {
		return
	}
	m.idleResetsTotal.Inc()
}

func (m *DialogMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationTotal.Inc()
}
