// Package dataset holds generation records and writes them as JSON or CSV.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/hallugen/internal/llm"
)

// Record is one prompt/response pair with the hallucination target that
// was requested for it.
type Record struct {
	Prompt             string `json:"prompt"`
	Response           string `json:"response"`
	HallucinationScore int    `json:"hallucination_score"`

	// Measured is the scorer's percentage of unsupported statements, when
	// scoring ran and succeeded.
	Measured *float64 `json:"measured_hallucination,omitempty"`

	// Error is set when the response could not be produced.
	Error *llm.ErrorEnvelope `json:"error,omitempty"`
}

// Failed reports whether the record carries an error instead of a response.
func (r Record) Failed() bool { return r.Error != nil }

// ResponseText is what exports show in the response column. Failed records
// show the raw reply, or the error message when there was none.
func (r Record) ResponseText() string {
	if r.Error == nil {
		return r.Response
	}
	if r.Error.RawOutput != "" {
		return r.Error.RawOutput
	}
	return r.Error.Message
}

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps "json" or "csv" (any case) to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json or csv)", s)
}

// ContentType returns the MIME type for f.
func ContentType(f Format) string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// FileName returns the conventional download name for f.
func FileName(f Format) string {
	return "generated_responses." + string(f)
}

// ToJSON renders records as a JSON array with 4-space indentation, in input
// order, followed by a newline.
func ToJSON(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return buf.Bytes(), nil
}

// FromJSON parses the output of ToJSON.
func FromJSON(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// csvHeader is the first line of every CSV export.
const csvHeader = "Prompt,Response,Hallucination Score\n"

// ToCSV renders records as CSV. Text fields are always quoted with embedded
// quotes doubled; the score is a bare integer. Lines end in "\n".
func ToCSV(records []Record) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, r := range records {
		b.WriteString(quote(r.Prompt))
		b.WriteByte(',')
		b.WriteString(quote(r.ResponseText()))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(r.HallucinationScore))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Write renders records in format f to w.
func Write(w io.Writer, records []Record, f Format) error {
	var data []byte
	switch f {
	case FormatJSON:
		var err error
		if data, err = ToJSON(records); err != nil {
			return err
		}
	case FormatCSV:
		data = ToCSV(records)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s export: %w", f, err)
	}
	return nil
}
