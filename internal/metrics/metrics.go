// Package metrics holds the bridge's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gps_bridge"

// Metrics is a private registry so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	BytesRead          prometheus.Counter
	Sentences          *prometheus.CounterVec // by kind
	ChecksumMismatches prometheus.Counter
	Malformed          prometheus.Counter
	ParseFailures      *prometheus.CounterVec // by kind
	FramerOverflows    prometheus.Counter
	FramerNoise        prometheus.Counter
	ReadErrors         prometheus.Counter

	CyclesCompleted prometheus.Counter
	CyclesDiscarded prometheus.Counter

	Published       prometheus.Counter
	PublishSkipped  prometheus.Counter
	PublishDropped  prometheus.Counter
	PublishFailures prometheus.Counter
}

func counter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// New creates and registers every counter, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		BytesRead: counter("serial", "bytes_read_total", "Bytes read from the GPS stream."),
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nmea",
			Name:      "sentences_total",
			Help:      "Validated sentences by kind.",
		}, []string{"kind"}),
		ChecksumMismatches: counter("nmea", "checksum_mismatches_total", "Sentences dropped for a bad checksum."),
		Malformed:          counter("nmea", "malformed_total", "Candidates that were not NMEA sentences."),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nmea",
			Name:      "parse_failures_total",
			Help:      "Sentences dropped because a field could not be parsed.",
		}, []string{"kind"}),
		FramerOverflows: counter("nmea", "framer_overflows_total", "Fragments discarded for exceeding the sentence size bound."),
		FramerNoise:     counter("nmea", "framer_noise_total", "Lines without a sentence start."),
		ReadErrors:      counter("serial", "read_errors_total", "Failed reads from the GPS stream."),

		CyclesCompleted: counter("gsv", "cycles_completed_total", "Satellites-in-view cycles completed."),
		CyclesDiscarded: counter("gsv", "cycles_discarded_total", "Partial satellites-in-view cycles abandoned."),

		Published:       counter("mqtt", "published_total", "Messages delivered to the broker."),
		PublishSkipped:  counter("mqtt", "skipped_total", "Messages skipped because the value did not change."),
		PublishDropped:  counter("mqtt", "dropped_total", "Messages dropped because the publish queue was full."),
		PublishFailures: counter("mqtt", "failures_total", "Messages the broker client failed to publish."),
	}

	m.Registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.BytesRead,
		m.Sentences,
		m.ChecksumMismatches,
		m.Malformed,
		m.ParseFailures,
		m.FramerOverflows,
		m.FramerNoise,
		m.ReadErrors,
		m.CyclesCompleted,
		m.CyclesDiscarded,
		m.Published,
		m.PublishSkipped,
		m.PublishDropped,
		m.PublishFailures,
	)
	return m
}
