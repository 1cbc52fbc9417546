package metrics

import "github.com/prometheus/client_golang/prometheus"

// Extraction exposes counters/histograms for transcript extraction.
type Extraction struct {
	attemptsTotal *prometheus.CounterVec
	resultsTotal  *prometheus.CounterVec
	duration      prometheus.Histogram
}

func NewExtraction(reg prometheus.Registerer) *Extraction {
	m := &Extraction{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "extraction",
			Name:      "attempts_total",
			Help:      "Model calls made per candidate, by outcome",
		}, []string{"candidate", "outcome"}),
		resultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Subsystem: "extraction",
			Name:      "results_total",
			Help:      "Completed extractions by result kind",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intake",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "End-to-end extraction latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.resultsTotal, m.duration)
	return m
}

func (m *Extraction) ObserveAttempt(candidate string, ok bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.attemptsTotal.WithLabelValues(candidate, outcome).Inc()
}

// ObserveResult records one finished extraction; kind is "ok" on success.
func (m *Extraction) ObserveResult(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.resultsTotal.WithLabelValues(kind).Inc()
	m.duration.Observe(seconds)
}
