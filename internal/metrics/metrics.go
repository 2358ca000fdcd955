package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"

	"github.com/itsjashshah/flowtag/internal/models"
)

const (
	NAMESPACE = "flowtag"
	JobName   = "flowtag"
)

// Run holds the metrics of one pipeline run on its own registry.
type Run struct {
	registry *prometheus.Registry

	Records        prometheus.Counter
	Tagged         *prometheus.CounterVec
	Untagged       prometheus.Counter
	Anomalies      *prometheus.CounterVec
	LookupEntries  prometheus.Gauge
	DistinctTags   prometheus.Gauge
	Duration       prometheus.Gauge
	LastSuccessful prometheus.Gauge
}

func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "flow_records_total",
			Help:      "Flow log records aggregated.",
			Namespace: NAMESPACE,
		}),
		Tagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "flow_tagged_total",
			Help:      "Flow log records per tag.",
			Namespace: NAMESPACE,
		}, []string{"tag"}),
		Untagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "flow_untagged_total",
			Help:      "Flow log records without a lookup entry.",
			Namespace: NAMESPACE,
		}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "input_anomalies_total",
			Help:      "Skipped input rows by input and reason.",
			Namespace: NAMESPACE,
		}, []string{"input", "reason"}),
		LookupEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "lookup_entries",
			Help:      "Entries in the loaded lookup table.",
			Namespace: NAMESPACE,
		}),
		DistinctTags: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "distinct_tags",
			Help:      "Distinct tags seen in the run, including Untagged.",
			Namespace: NAMESPACE,
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "run_duration_seconds",
			Help:      "Wall time of the run.",
			Namespace: NAMESPACE,
		}),
		LastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
			Namespace: NAMESPACE,
		}),
	}

	r.registry.MustRegister(
		r.Records, r.Tagged, r.Untagged, r.Anomalies,
		r.LookupEntries, r.DistinctTags, r.Duration, r.LastSuccessful,
	)
	return r
}

func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStats adds the anomaly counters of one input.
func (r *Run) ObserveStats(input string, stats models.Stats) {
	for reason, n := range stats.Anomalies {
		r.Anomalies.With(prometheus.Labels{"input": input, "reason": string(reason)}).Add(float64(n))
	}
}

// ObserveCounts records the aggregated counters of a finished run.
func (r *Run) ObserveCounts(tags models.TagCounts) {
	for tag, n := range tags {
		r.Records.Add(float64(n))
		if tag == models.UntaggedTag {
			r.Untagged.Add(float64(n))
			continue
		}
		r.Tagged.With(prometheus.Labels{"tag": tag}).Add(float64(n))
	}
	r.DistinctTags.Set(float64(len(tags)))
}

func (r *Run) Finish(start, end time.Time) {
	r.Duration.Set(end.Sub(start).Seconds())
	r.LastSuccessful.Set(float64(end.Unix()))
}

// WriteTextfile writes the metrics for the node_exporter textfile collector.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("could not write metrics textfile, %w", err)
	}
	return nil
}

func (r *Run) Push(uri string) error {
	err := push.New(uri, JobName).
		Gatherer(r.registry).
		Format(expfmt.NewFormat(expfmt.TypeTextPlain)).
		Push()
	if err != nil {
		return fmt.Errorf("could not push metrics, %w", err)
	}
	return nil
}
