package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

// RegisterFields are the columns an imported register must carry.
var RegisterFields = []string{"id", "type", "client", "total", "status"}

// RowState classifies an imported register row against the ledger.
type RowState string

const (
	RowMatches RowState = "matches"
	RowDiffers RowState = "differs"
	RowUnknown RowState = "unknown"
)

// RowPreview is the outcome of one imported row.
type RowPreview struct {
	Row         int      `json:"row"`
	ID          string   `json:"id"`
	State       RowState `json:"state"`
	Differences []string `json:"differences,omitempty"`
}

// ImportPreview summarizes how an imported register lines up with the ledger.
type ImportPreview struct {
	Rows      []RowPreview `json:"rows"`
	Matching  int          `json:"matching"`
	Differing int          `json:"differing"`
	Unknown   int          `json:"unknown"`
}

// RequireFields checks that the header of records names every field.
func RequireFields(records []Record, fields ...string) error {
	if len(records) == 0 {
		return ErrMalformedCSV
	}
	var missing []string
	for _, f := range fields {
		if _, ok := records[0].Get(f); !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &ledger.ValidationError{Field: "header", Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

// PreviewRegister compares register rows with docs by id. Nothing is written.
func PreviewRegister(records []Record, docs []entity.Document) (ImportPreview, error) {
	if err := RequireFields(records, RegisterFields...); err != nil {
		return ImportPreview{}, err
	}

	byID := make(map[string]entity.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	preview := ImportPreview{Rows: make([]RowPreview, 0, len(records))}
	for i, rec := range records {
		id, _ := rec.Get("id")
		row := RowPreview{Row: i + 1, ID: id}

		doc, ok := byID[id]
		if ok {
			row.Differences = compareRow(rec, doc)
		}
		switch {
		case !ok:
			row.State = RowUnknown
			preview.Unknown++
		case len(row.Differences) > 0:
			row.State = RowDiffers
			preview.Differing++
		default:
			row.State = RowMatches
			preview.Matching++
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

func compareRow(rec Record, doc entity.Document) []string {
	var diffs []string
	differs := func(field, got, want string) {
		if got != want {
			diffs = append(diffs, fmt.Sprintf("%s: register has %q, ledger has %q", field, got, want))
		}
	}

	kind, _ := rec.Get("type")
	differs("type", kind, doc.Kind.String())
	client, _ := rec.Get("client")
	differs("client", client, doc.ClientName)
	status, _ := rec.Get("status")
	differs("status", status, doc.Status.String())

	total, _ := rec.Get("total")
	amount, err := registerAmount(total)
	switch {
	case err != nil:
		diffs = append(diffs, fmt.Sprintf("total: %q is not an amount", total))
	case amount != doc.Total:
		differs("total", total, plainAmount(doc.Total))
	}
	return diffs
}

// registerAmount reads a register amount such as "17632.00" or "17,632".
func registerAmount(v string) (entity.Money, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return 0, err
	}
	return entity.FromMajor(d)
}
