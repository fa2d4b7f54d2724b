package models

import "time"

// NotAvailable is the sentinel stored in optional price fields when the
// page has no matching element.
const NotAvailable = "N/A"

// CollectedAtLayout is the timestamp layout used in the export.
const CollectedAtLayout = "2006-01-02 15:04:05"

// ExtractedRecord is the structured data collected for one Target.
// Prices are kept as the site formats them.
type ExtractedRecord struct {
	URL             string
	SequenceID      string
	ProductName     string
	OriginalPrice   string
	DiscountedPrice string
	Availability    string
	CollectedAt     time.Time
}

// Columns is the fixed header row of the tabular export.
var Columns = []string{
	"URL",
	"sequenceId",
	"productName",
	"originalPrice",
	"discountedPrice",
	"availability",
	"collectedAt",
}

// Row returns the record's cells in Columns order.
func (r ExtractedRecord) Row() []string {
	return []string{
		r.URL,
		r.SequenceID,
		r.ProductName,
		r.OriginalPrice,
		r.DiscountedPrice,
		r.Availability,
		r.CollectedAt.Format(CollectedAtLayout),
	}
}
