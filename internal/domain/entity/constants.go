package entity

// Kind identifies the type of a business document.
type Kind string

const (
	KindQuotation Kind = "quotation"
	KindInvoice   Kind = "invoice"
	KindReceipt   Kind = "receipt"
)

// Kinds lists every document kind in display order.
var Kinds = []Kind{KindQuotation, KindInvoice, KindReceipt}

// idPrefixes maps each kind to the prefix of its document IDs.
var idPrefixes = map[Kind]string{
	KindQuotation: "Q",
	KindInvoice:   "INV",
	KindReceipt:   "REC",
}

var kindLabels = map[Kind]string{
	KindQuotation: "Quotation",
	KindInvoice:   "Invoice",
	KindReceipt:   "Receipt",
}

// Label returns the capitalised display name of the kind
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// IsValid returns true if the kind is a known document kind
func (k Kind) IsValid() bool {
	_, ok := idPrefixes[k]
	return ok
}

// IDPrefix returns the prefix used for IDs of this kind ("Q", "INV", "REC")
func (k Kind) IDPrefix() string {
	return idPrefixes[k]
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Status is the lifecycle status of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusSent:      true,
	StatusPaid:      true,
	StatusOverdue:   true,
	StatusCancelled: true,
}

// IsValid returns true if the status is a known document status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// VAT and payment terms applied to every document.
const (
	// VATPercent is the fixed value-added tax rate, in percent.
	VATPercent = 16

	// InvoiceDueDays is the number of days between an invoice's issue date and due date.
	InvoiceDueDays = 14

	// Currency is the ISO 4217 code all amounts are denominated in.
	Currency = "KES"
)
