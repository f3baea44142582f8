package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics mengumpulkan metrik Prometheus untuk proses billing.
type Metrics struct {
	registry          *prometheus.Registry
	invoicesGenerated prometheus.Counter
	invoiceFailures   *prometheus.CounterVec
	invoiceGross      prometheus.Histogram
	catalogMutations  *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	generated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoices_generated_total",
		Help: "Jumlah invoice yang berhasil dibuat.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoice_failures_total",
		Help: "Jumlah kegagalan pembuatan invoice berdasarkan alasan.",
	}, []string{"reason"})
	gross := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "billing_invoice_gross_total",
		Help:    "Distribusi gross total per invoice.",
		Buckets: prometheus.ExponentialBuckets(100, 2.5, 8),
	})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_catalog_mutations_total",
		Help: "Jumlah perubahan katalog berdasarkan operasi.",
	}, []string{"op"})
	registry.MustRegister(generated, failures, gross, mutations)
	return &Metrics{
		registry:          registry,
		invoicesGenerated: generated,
		invoiceFailures:   failures,
		invoiceGross:      gross,
		catalogMutations:  mutations,
	}
}

// InvoiceGenerated mencatat invoice baru beserta gross total-nya.
func (m *Metrics) InvoiceGenerated(gross decimal.Decimal) {
	if m == nil {
		return
	}
	m.invoicesGenerated.Inc()
	m.invoiceGross.Observe(gross.InexactFloat64())
}

// InvoiceFailed mencatat kegagalan pembuatan invoice.
func (m *Metrics) InvoiceFailed(reason string) {
	if m == nil {
		return
	}
	m.invoiceFailures.WithLabelValues(reason).Inc()
}

// CatalogMutation mencatat operasi add/update/delete pada katalog.
func (m *Metrics) CatalogMutation(op string) {
	if m == nil {
		return
	}
	m.catalogMutations.WithLabelValues(op).Inc()
}

// Gatherer mengekspos registry untuk dibaca.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// WriteTextfile menulis snapshot metrik ke path untuk textfile collector
// node-exporter. Path kosong diabaikan.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("observability: write textfile: %w", err)
	}
	return nil
}
