package entity

import (
	"fmt"
	"time"
)

// LineItem is a single priced line on a document.
// Amount is derived from Quantity × UnitRate and never set independently.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitRate    Money  `json:"unitRate"`
	Amount      Money  `json:"amount"`
}

// Recompute sets Amount from Quantity and UnitRate.
func (li *LineItem) Recompute() error {
	amount, err := li.UnitRate.Times(li.Quantity)
	if err != nil {
		return err
	}
	li.Amount = amount
	return nil
}

// Document is a quotation, invoice or receipt held in the ledger.
type Document struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	ClientName  string     `json:"clientName"`
	ClientEmail string     `json:"clientEmail"`
	IssueDate   time.Time  `json:"issueDate"`
	DueDate     *time.Time `json:"dueDate,omitempty"` // invoices only
	Items       []LineItem `json:"items"`
	Subtotal    Money      `json:"subtotal"`
	TaxAmount   Money      `json:"taxAmount"`
	Total       Money      `json:"total"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
}

// RecomputeTotals re-derives every item amount, the subtotal, the VAT and the total.
// It fails with ErrAmountOutOfRange, leaving d unchanged, when any of them exceeds MaxAmount.
func (d *Document) RecomputeTotals() error {
	items := make([]LineItem, len(d.Items))
	copy(items, d.Items)

	var subtotal Money
	for i := range items {
		if err := items[i].Recompute(); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
		sum, err := subtotal.Plus(items[i].Amount)
		if err != nil {
			return fmt.Errorf("subtotal: %w", err)
		}
		subtotal = sum
	}
	tax := subtotal.Percent(VATPercent)
	total, err := subtotal.Plus(tax)
	if err != nil {
		return fmt.Errorf("total: %w", err)
	}

	d.Items = items
	d.Subtotal = subtotal
	d.TaxAmount = tax
	d.Total = total
	return nil
}

// ApplyDueDate sets DueDate to IssueDate + InvoiceDueDays for invoices and clears it otherwise.
func (d *Document) ApplyDueDate() {
	if d.Kind != KindInvoice {
		d.DueDate = nil
		return
	}
	due := d.IssueDate.AddDate(0, 0, InvoiceDueDays)
	d.DueDate = &due
}

// PastDue reports whether a sent invoice has passed its due date at asOf.
func (d Document) PastDue(asOf time.Time) bool {
	return d.Kind == KindInvoice && d.Status == StatusSent && d.DueDate != nil && asOf.After(*d.DueDate)
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := d
	if d.Items != nil {
		c.Items = make([]LineItem, len(d.Items))
		copy(c.Items, d.Items)
	}
	if d.DueDate != nil {
		due := *d.DueDate
		c.DueDate = &due
	}
	return c
}
