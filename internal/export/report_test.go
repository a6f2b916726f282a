package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

var testIssuer = Issuer{
	Name:          "KB Digital Agency LTD",
	Address:       "Nairobi, Kenya",
	Phone:         "+254722123456",
	Email:         "kbdigiagency@gmail.com",
	BankName:      "Equity Bank",
	AccountNumber: "1234567890",
}

func reportDoc(t *testing.T, kind entity.Kind) entity.Document {
	t.Helper()
	issued := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	doc := entity.Document{
		ID:          "INV001",
		Kind:        kind,
		ClientName:  "Acme <Holdings>",
		ClientEmail: "ap@acme.co",
		IssueDate:   issued,
		Items: []entity.LineItem{
			{Description: "Roll-up banner", Quantity: 2, UnitRate: 760000},
		},
		Status: entity.StatusOverdue,
		Notes:  "Deliver to reception",
	}
	require.NoError(t, doc.RecomputeTotals())
	doc.ApplyDueDate()
	return doc
}

func TestReport_Invoice(t *testing.T) {
	out, err := Report(reportDoc(t, entity.KindInvoice), testIssuer)
	require.NoError(t, err)
	html := string(out)

	for _, want := range []string{
		"INVOICE #INV001",
		"KB Digital Agency LTD",
		"Nairobi, Kenya | &#43;254722123456 | kbdigiagency@gmail.com",
		"Acme &lt;Holdings&gt;",
		"15 Jan 2024",
		"<strong>Due Date:</strong> 29 Jan 2024",
		"status-overdue",
		"Roll-up banner",
		"KES 7,600.00",
		"KES 15,200.00",
		"VAT (16%):",
		"KES 2,432.00",
		"KES 17,632.00",
		"Deliver to reception",
		"Payment is due within 14 days of invoice date.",
		"KB Digital Agency LTD - Equity Bank - Account: 1234567890",
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, "<Holdings>")
}

func TestReport_QuotationOmitsInvoiceOnlyParts(t *testing.T) {
	doc := reportDoc(t, entity.KindQuotation)
	doc.Notes = ""

	out, err := Report(doc, Issuer{Name: "KB Digital Agency LTD"})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "QUOTATION #INV001")
	assert.NotContains(t, html, "Due Date")
	assert.NotContains(t, html, "Payment Terms")
	assert.NotContains(t, html, "Bank Details")
	assert.NotContains(t, html, "Notes:")
}

func TestIssuer_BankDetails(t *testing.T) {
	assert.Equal(t, "", Issuer{Name: "KB"}.BankDetails())
	assert.Equal(t, "Trading Acc - Account: 42", Issuer{Name: "KB", AccountName: "Trading Acc", AccountNumber: "42"}.BankDetails())
}
