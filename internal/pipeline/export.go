package pipeline

import (
	"github.com/theirongolddev/stakeledger/internal/model"
)

// ExportHeaders are the column labels for ExportRows, in order.
var ExportHeaders = []string{"Date", "Venue", "Spent", "Won", "Net", "Currency", "Notes"}

// ExportRows joins every entry with its venue name for tabular export.
// Dates are UTC calendar days.
func ExportRows(st model.State) []model.ExportRow {
	names := make(map[string]string, len(st.Venues))
	for _, v := range st.Venues {
		names[v.ID] = v.Name
	}

	rows := make([]model.ExportRow, 0, len(st.Entries))
	for _, e := range st.Entries {
		rows = append(rows, model.ExportRow{
			Date:     e.Timestamp.UTC().Format("2006-01-02"),
			Venue:    names[e.VenueID],
			Spent:    e.Spent,
			Won:      e.Won,
			Net:      e.Net(),
			Currency: st.Settings.Currency,
			Notes:    e.Notes,
		})
	}
	return rows
}

// Record flattens a row into strings matching ExportHeaders.
func Record(r model.ExportRow) []string {
	return []string{
		r.Date,
		r.Venue,
		r.Spent.String(),
		r.Won.String(),
		r.Net.StringFixed(2),
		r.Currency,
		r.Notes,
	}
}
