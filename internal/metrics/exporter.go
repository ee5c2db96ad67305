// Package metrics exports evaluation results as Prometheus metrics.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ricesearch/rice-eval/internal/evaluation"
)

const namespace = "rice_eval"

// Exporter holds the gauges of one evaluation run on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	precision    *prometheus.GaugeVec
	recall       *prometheus.GaugeVec
	fMeasure     *prometheus.GaugeVec
	meanAP       *prometheus.GaugeVec
	rPrecision   *prometheus.GaugeVec
	interpolated *prometheus.GaugeVec
	documents    *prometheus.GaugeVec
	queries      *prometheus.GaugeVec
	duration     *prometheus.GaugeVec
	failures     *prometheus.CounterVec
	busPublish   *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

// NewExporter creates an exporter with every collector registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),

		precision: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_precision",
			Help:      "Mean precision over all queries",
		}, []string{"analyzer"}),

		recall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_recall",
			Help:      "Mean recall over all queries",
		}, []string{"analyzer"}),

		fMeasure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "f_measure",
			Help:      "F-measure of mean precision and mean recall",
		}, []string{"analyzer"}),

		meanAP: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "map",
			Help:      "Mean average precision",
		}, []string{"analyzer"}),

		rPrecision: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_r_precision",
			Help:      "Mean R-Precision",
		}, []string{"analyzer"}),

		interpolated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interpolated_precision",
			Help:      "Mean interpolated precision at each recall level (0 to 10 tenths)",
		}, []string{"analyzer", "recall_level"}),

		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Document counts summed over all queries",
		}, []string{"analyzer", "kind"}),

		queries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queries",
			Help:      "Number of evaluated queries",
		}, []string{"analyzer"}),

		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time to build the index and evaluate all queries",
		}, []string{"analyzer"}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configuration_failures_total",
			Help:      "Analyzer configurations that did not complete",
		}, []string{"analyzer", "status"}),

		busPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publish_total",
			Help:      "Events published on the bus",
		}, []string{"topic", "result"}),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed configuration",
		}),
	}

	e.registry.MustRegister(
		e.precision, e.recall, e.fMeasure, e.meanAP, e.rPrecision,
		e.interpolated, e.documents, e.queries, e.duration,
		e.failures, e.busPublish, e.lastRun,
	)

	return e
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe records the summary of a completed configuration.
func (e *Exporter) Observe(analyzer string, s evaluation.Summary, d time.Duration) {
	e.precision.WithLabelValues(analyzer).Set(s.MeanPrecision)
	e.recall.WithLabelValues(analyzer).Set(s.MeanRecall)
	e.fMeasure.WithLabelValues(analyzer).Set(s.FMeasure)
	e.meanAP.WithLabelValues(analyzer).Set(s.MAP)
	e.rPrecision.WithLabelValues(analyzer).Set(s.MeanRPrecision)

	for level, p := range s.Interpolated {
		e.interpolated.WithLabelValues(analyzer, strconv.Itoa(level)).Set(p)
	}

	e.documents.WithLabelValues(analyzer, "retrieved").Set(float64(s.TotalRetrieved))
	e.documents.WithLabelValues(analyzer, "relevant").Set(float64(s.TotalRelevant))
	e.documents.WithLabelValues(analyzer, "relevant_retrieved").Set(float64(s.TotalRelevantRetrieved))
	e.queries.WithLabelValues(analyzer).Set(float64(s.QueryCount))
	e.duration.WithLabelValues(analyzer).Set(d.Seconds())
	e.lastRun.SetToCurrentTime()
}

// ObserveFailure counts a configuration that ended with status.
func (e *Exporter) ObserveFailure(analyzer, status string) {
	e.failures.WithLabelValues(analyzer, status).Inc()
}

// RecordBusPublish counts a bus publication. It satisfies bus.MetricsRecorder.
func (e *Exporter) RecordBusPublish(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.busPublish.WithLabelValues(topic, result).Inc()
}

// WriteFile writes every metric in the Prometheus text format to path,
// atomically, for the node exporter textfile collector.
func (e *Exporter) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
