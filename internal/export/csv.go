// Package export renders ledger documents into the formats users take away:
// CSV registers, printable HTML, xlsx workbooks and JSON backups.
package export

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData is returned when asked to export an empty record set.
	ErrNoData = errors.New("export: no data to export")
	// ErrMalformedCSV is returned when an import has no header or no data rows.
	ErrMalformedCSV = errors.New("export: CSV must contain a header and at least one data row")
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered set of named values, one CSV row.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// CSV renders records with a header row taken from the first record's field order.
// Rows are separated by "\n" with no trailing newline. Values containing a
// comma, double quote or newline are quoted with inner quotes doubled; nothing
// else is escaped. Fields missing from later records are written empty.
func CSV(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))

	for _, rec := range records {
		b.WriteByte('\n')
		for i, h := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			v, _ := rec.Get(h)
			b.WriteString(quote(v))
		}
	}

	return []byte(b.String()), nil
}

func quote(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// ParseCSV reads a file produced by CSV or a spreadsheet.
// Blank lines are skipped, values are split on commas, trimmed and stripped
// of double quotes. Missing trailing values read as empty strings.
func ParseCSV(data []byte) ([]Record, error) {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, ErrMalformedCSV
	}

	headers := splitCSVLine(lines[0])
	for i, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("%w: column %d has no header", ErrMalformedCSV, i+1)
		}
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitCSVLine(line)
		rec := make(Record, len(headers))
		for i, h := range headers {
			rec[i].Name = h
			if i < len(values) {
				rec[i].Value = values[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func splitCSVLine(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(p), `"`, "")
	}
	return parts
}
