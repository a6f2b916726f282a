package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("document.html").
		Funcs(template.FuncMap{
			"date":        func(t time.Time) string { return t.Format("02 Jan 2006") },
			"statusClass": statusClass,
		}).
		ParseFS(templateFS, "templates/document.html"),
)

// Issuer identifies the business printed at the top of every document.
type Issuer struct {
	Name          string
	Address       string
	Phone         string
	Email         string
	BankName      string
	AccountName   string
	AccountNumber string
}

// Contact joins the issuer's address, phone and email for the letterhead.
func (i Issuer) Contact() string {
	return joinNonEmpty(" | ", i.Address, i.Phone, i.Email)
}

// BankDetails renders "Account name - Bank - Account: 123", or "" if no account is configured.
func (i Issuer) BankDetails() string {
	if i.AccountNumber == "" {
		return ""
	}
	account := "Account: " + i.AccountNumber
	holder := i.AccountName
	if holder == "" {
		holder = i.Name
	}
	return joinNonEmpty(" - ", holder, i.BankName, account)
}

type reportView struct {
	Title        string
	Doc          entity.Document
	Issuer       Issuer
	VATPercent   int
	PaymentTerms string
}

// Report renders a self-contained printable HTML page for doc.
// All figures come from the document's derived values.
func Report(doc entity.Document, issuer Issuer) ([]byte, error) {
	view := reportView{
		Title:      fmt.Sprintf("%s #%s", strings.ToUpper(doc.Kind.String()), doc.ID),
		Doc:        doc,
		Issuer:     issuer,
		VATPercent: entity.VATPercent,
	}
	if doc.Kind == entity.KindInvoice {
		view.PaymentTerms = fmt.Sprintf("Payment is due within %d days of invoice date.", entity.InvoiceDueDays)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("export: render %s: %w", doc.ID, err)
	}
	return buf.Bytes(), nil
}

func statusClass(s entity.Status) string {
	switch s {
	case entity.StatusPaid:
		return "status-paid"
	case entity.StatusOverdue:
		return "status-overdue"
	default:
		return "status-other"
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
