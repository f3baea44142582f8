package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one issued invoice in the journal.
type Entry struct {
	At         time.Time       `json:"at"`
	OrderID    string          `json:"order_id"`
	BilledTo   string          `json:"billed_to"`
	Lines      int             `json:"lines"`
	NetTotal   decimal.Decimal `json:"net_total"`
	Tax        decimal.Decimal `json:"tax"`
	GrossTotal decimal.Decimal `json:"gross_total"`
	Path       string          `json:"path"`
}

// TimelineFilters menampung filter dasar untuk riwayat invoice.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	BilledTo string
	Page     int
	PageSize int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}

func (f TimelineFilters) match(e Entry) bool {
	if !f.From.IsZero() && e.At.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.At.After(f.To) {
		return false
	}
	if f.BilledTo != "" && !containsFold(e.BilledTo, f.BilledTo) {
		return false
	}
	return true
}
