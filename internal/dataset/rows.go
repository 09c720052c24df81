package dataset

import (
	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/store"
)

// ToRows converts records to store rows, numbering them in order.
func ToRows(records []Record) []store.RecordRow {
	rows := make([]store.RecordRow, len(records))
	for i, r := range records {
		rows[i] = store.RecordRow{
			Position:           i,
			Prompt:             r.Prompt,
			Response:           r.Response,
			HallucinationScore: r.HallucinationScore,
			Measured:           r.Measured,
		}
		if r.Error != nil {
			rows[i].ErrorMessage = r.Error.Message
			rows[i].RawOutput = r.Error.RawOutput
		}
	}
	return rows
}

// FromRows converts stored rows back to records.
func FromRows(rows []store.RecordRow) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{
			Prompt:             row.Prompt,
			Response:           row.Response,
			HallucinationScore: row.HallucinationScore,
			Measured:           row.Measured,
		}
		if row.Failed() {
			records[i].Error = &llm.ErrorEnvelope{Message: row.ErrorMessage, RawOutput: row.RawOutput}
		}
	}
	return records
}
