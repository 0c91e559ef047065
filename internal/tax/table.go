package tax

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
)

// RateType classifies a jurisdiction's consumption tax regime. Region types
// determine whether the regional rate replaces or adds to the federal rate.
type RateType string

const (
	TypeSalesTax RateType = "sales_tax"
	TypeVAT      RateType = "vat"
	TypeGST      RateType = "gst"
	TypeHST      RateType = "hst"
	TypeGSTPST   RateType = "gst_pst"
	TypeGSTQST   RateType = "gst_qst"
	TypeGSTOnly  RateType = "gst_only"
	TypeNone     RateType = "none"
)

// RegionEntry is a sub-national override within a country entry.
type RegionEntry struct {
	Rate decimal.Decimal `json:"rate"`
	Type RateType        `json:"type"`
}

// HistoricalRate is a superseded rate kept in the table for reference. It is
// never consulted during resolution.
type HistoricalRate struct {
	Rate  decimal.Decimal `json:"rate"`
	Until string          `json:"until"`
}

// CountryEntry is one country's row in the jurisdiction table.
type CountryEntry struct {
	Type     RateType               `json:"type"`
	Currency string                 `json:"currency"`
	Rate     decimal.Decimal        `json:"rate"`
	States   map[string]RegionEntry `json:"states,omitempty"`
	History  []HistoricalRate       `json:"history,omitempty"`
}

// Table maps ISO country codes to their tax entries.
type Table map[string]CountryEntry

//go:embed defaults.json
var embeddedDefaults []byte

var (
	embeddedOnce  sync.Once
	embeddedTable Table
)

// EmbeddedTable returns the built-in minimal table covering major
// jurisdictions, used when every remote source fails.
func EmbeddedTable() Table {
	embeddedOnce.Do(func() {
		if err := json.Unmarshal(embeddedDefaults, &embeddedTable); err != nil {
			// The embedded payload ships with the binary; failing to parse it
			// is a build defect, not a runtime condition.
			panic("tax: invalid embedded defaults: " + err.Error())
		}
	})
	return embeddedTable
}
