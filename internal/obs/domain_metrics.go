package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts price quote computations by outcome.
	QuoteTotal *prometheus.CounterVec
	// ConversionTotal counts currency conversions by resolution source.
	ConversionTotal *prometheus.CounterVec
	// TaxTableLoadTotal counts tax table load attempts by source and result.
	TaxTableLoadTotal *prometheus.CounterVec
	// TaxLookupTotal counts jurisdiction rate lookups by classification.
	TaxLookupTotal *prometheus.CounterVec
	// TransactionSubmitTotal counts transaction submissions by result.
	TransactionSubmitTotal *prometheus.CounterVec
	// GeoLookupTotal counts buyer country detections by result.
	GeoLookupTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of price quote computations by outcome.",
		}, []string{"result"})
		ConversionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_total",
			Help:      "Count of currency conversions by resolution source.",
		}, []string{"source"})
		TaxTableLoadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_table_load_total",
			Help:      "Count of tax table load attempts by source and result.",
		}, []string{"source", "result"})
		TaxLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_lookup_total",
			Help:      "Count of jurisdiction tax rate lookups by classification.",
		}, []string{"type"})
		TransactionSubmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_submit_total",
			Help:      "Count of transaction submissions by result.",
		}, []string{"result"})
		GeoLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_lookup_total",
			Help:      "Count of buyer country detections by result.",
		}, []string{"result"})

		mustRegister(reg,
			&QuoteTotal,
			&ConversionTotal,
			&TaxTableLoadTotal,
			&TaxLookupTotal,
			&TransactionSubmitTotal,
			&GeoLookupTotal,
		)
	})
}
