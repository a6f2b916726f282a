package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

const (
	documentsSheet = "Documents"
	itemsSheet     = "Items"
)

var (
	documentHeaders = []interface{}{"ID", "Type", "Client", "Email", "Date", "Due Date", "Subtotal", "VAT", "Total", "Status", "Notes"}
	itemHeaders     = []interface{}{"Document", "Line", "Description", "Quantity", "Rate", "Amount"}
)

// Workbook builds an xlsx register of docs: a Documents sheet with one row per
// document and an Items sheet with one row per line item. Amounts are written
// in major units with a two-decimal number format.
func Workbook(docs []entity.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("export: create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F5F5F5"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("export: amount style: %w", err)
	}

	if err := writeRow(f, documentsSheet, 1, documentHeaders); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, itemHeaders); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, d := range docs {
		due := ""
		if d.DueDate != nil {
			due = d.DueDate.Format(dateLayout)
		}
		row := []interface{}{
			d.ID, d.Kind.String(), d.ClientName, d.ClientEmail,
			d.IssueDate.Format(dateLayout), due,
			d.Subtotal.Major(), d.TaxAmount.Major(), d.Total.Major(),
			d.Status.String(), d.Notes,
		}
		if err := writeRow(f, documentsSheet, i+2, row); err != nil {
			return nil, err
		}

		for n, item := range d.Items {
			row := []interface{}{d.ID, n + 1, item.Description, item.Quantity, item.UnitRate.Major(), item.Amount.Major()}
			if err := writeRow(f, itemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	styles := []struct {
		sheet    string
		lastCol  string
		amounts  [2]string
		lastRow  int
		colWidth float64
	}{
		{documentsSheet, "K", [2]string{"G", "I"}, len(docs) + 1, 18},
		{itemsSheet, "F", [2]string{"E", "F"}, itemRow - 1, 16},
	}
	for _, s := range styles {
		if err := f.SetCellStyle(s.sheet, "A1", s.lastCol+"1", headerStyle); err != nil {
			return nil, fmt.Errorf("export: style %s header: %w", s.sheet, err)
		}
		if s.lastRow > 1 {
			from := fmt.Sprintf("%s2", s.amounts[0])
			to := fmt.Sprintf("%s%d", s.amounts[1], s.lastRow)
			if err := f.SetCellStyle(s.sheet, from, to, amountStyle); err != nil {
				return nil, fmt.Errorf("export: style %s amounts: %w", s.sheet, err)
			}
		}
		if err := f.SetColWidth(s.sheet, "A", s.lastCol, s.colWidth); err != nil {
			return nil, fmt.Errorf("export: column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: write %s row %d: %w", sheet, row, err)
	}
	return nil
}
