package metrics

import (
	"time"

	"github.com/NeuralTrust/checkimage/pkg/domain/classification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latency buckets in milliseconds; generation calls take seconds
var latencyBuckets = []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

//go:generate mockery --name=Recorder --dir=. --output=../../../mocks --filename=recorder_mock.go --case=underscore --with-expecter

type Recorder interface {
	Classified(verdict classification.Verdict, elapsed time.Duration)
	Failed(kind classification.ErrorKind, elapsed time.Duration)
}

type PromRecorder struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	failures        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

func NewRecorder() *PromRecorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &PromRecorder{
		registry: registry,
		classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkimage_classifications_total",
				Help: "Completed classifications by verdict",
			},
			[]string{"verdict"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkimage_failures_total",
				Help: "Failed classifications by error kind",
			},
			[]string{"kind"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkimage_latency_ms",
				Help:    "End to end classification latency in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"outcome"},
		),
	}
}

func (r *PromRecorder) Classified(verdict classification.Verdict, elapsed time.Duration) {
	r.classifications.WithLabelValues(string(verdict)).Inc()
	r.latency.WithLabelValues("done").Observe(float64(elapsed.Milliseconds()))
}

func (r *PromRecorder) Failed(kind classification.ErrorKind, elapsed time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	r.failures.WithLabelValues(string(kind)).Inc()
	r.latency.WithLabelValues("failed").Observe(float64(elapsed.Milliseconds()))
}

func (r *PromRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps every metric in the node exporter textfile format.
func (r *PromRecorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

type noopRecorder struct{}

func Noop() Recorder {
	return noopRecorder{}
}

func (noopRecorder) Classified(classification.Verdict, time.Duration) {}
func (noopRecorder) Failed(classification.ErrorKind, time.Duration)   {}
