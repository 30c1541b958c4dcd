// Package metrics counts fix engine and validator outcomes with Prometheus
// collectors on a private registry, exported as a node_exporter textfile.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/claimsiqhq/claimfix/internal/model"
)

const namespace = "claimfix"

// Recorder implements the fix engine's recorder and counts validations
type Recorder struct {
	registry    *prometheus.Registry
	strategies  *prometheus.CounterVec
	items       *prometheus.CounterVec
	validations *prometheus.CounterVec
	documents   *prometheus.CounterVec
}

// NewRecorder registers the claimfix collectors on a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_attempts_total",
			Help:      "Correction strategy attempts by strategy and result.",
		}, []string{"strategy", "success"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Corrections and annotations processed by outcome.",
		}, []string{"kind", "outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Cross-document inconsistencies by field, severity and recommended action.",
		}, []string{"field", "severity", "action"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Documents run through field extraction by cache and error state.",
		}, []string{"cached", "failed"}),
	}
	r.registry.MustRegister(r.strategies, r.items, r.validations, r.documents)
	return r
}

// Registry exposes the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStrategy counts one strategy attempt
func (r *Recorder) ObserveStrategy(strategy string, success bool) {
	r.strategies.WithLabelValues(strategy, strconv.FormatBool(success)).Inc()
}

// ObserveItem counts one processed correction or annotation
func (r *Recorder) ObserveItem(kind, outcome string) {
	r.items.WithLabelValues(kind, outcome).Inc()
}

// ObserveValidations counts the inconsistencies of one claim
func (r *Recorder) ObserveValidations(validations []model.CrossDocumentValidation) {
	for _, v := range validations {
		r.validations.WithLabelValues(string(v.Field), string(v.Severity), string(v.RecommendedAction)).Inc()
	}
}

// ObserveDocuments counts extracted documents
func (r *Recorder) ObserveDocuments(docs []model.DocumentSummary) {
	for _, d := range docs {
		r.documents.WithLabelValues(strconv.FormatBool(d.Cached), strconv.FormatBool(d.Error != "")).Inc()
	}
}

// WriteTextfile writes every collected metric in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
