// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics aggregates the pipeline counters. All methods are safe on a nil
// receiver so components can run without metrics wired in.
type Metrics struct {
	documentsProcessed *prometheus.CounterVec
	ocrFallbacks       prometheus.Counter
	inferenceRetries   *prometheus.CounterVec
	poorQuality        *prometheus.CounterVec
}

// New registers the pipeline counters on reg (the default registerer when
// reg is nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		documentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docintake_documents_processed_total",
			Help: "Documents run through the ingestion pipeline, by outcome.",
		}, []string{"outcome"}),
		ocrFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docintake_ocr_fallbacks_total",
			Help: "Documents that required the OCR fallback path.",
		}),
		inferenceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docintake_inference_retries_total",
			Help: "Retried field-extraction inference calls, by operation.",
		}, []string{"operation"}),
		poorQuality: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docintake_poor_quality_extractions_total",
			Help: "Extractions flagged for manual review, by document type.",
		}, []string{"doc_type"}),
	}
	reg.MustRegister(m.documentsProcessed, m.ocrFallbacks, m.inferenceRetries, m.poorQuality)
	return m
}

func (m *Metrics) DocumentProcessed(outcome string) {
	if m == nil {
		return
	}
	m.documentsProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OCRFallback() {
	if m == nil {
		return
	}
	m.ocrFallbacks.Inc()
}

func (m *Metrics) InferenceRetry(operation string) {
	if m == nil {
		return
	}
	m.inferenceRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) PoorQuality(docType string) {
	if m == nil {
		return
	}
	m.poorQuality.WithLabelValues(docType).Inc()
}
