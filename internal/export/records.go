package export

import (
	"strconv"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// DocumentRecords flattens documents into register rows, preserving order.
func DocumentRecords(docs []entity.Document) []Record {
	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		due := ""
		if d.DueDate != nil {
			due = d.DueDate.Format(dateLayout)
		}
		records = append(records, Record{
			{"id", d.ID},
			{"type", d.Kind.String()},
			{"client", d.ClientName},
			{"email", d.ClientEmail},
			{"date", d.IssueDate.Format(dateLayout)},
			{"dueDate", due},
			{"items", strconv.Itoa(len(d.Items))},
			{"subtotal", plainAmount(d.Subtotal)},
			{"tax", plainAmount(d.TaxAmount)},
			{"total", plainAmount(d.Total)},
			{"status", d.Status.String()},
			{"notes", d.Notes},
		})
	}
	return records
}

// plainAmount renders money as a bare decimal ("17632.00") that spreadsheets read as a number.
func plainAmount(m entity.Money) string {
	return m.Decimal().StringFixed(2)
}
