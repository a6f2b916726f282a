// Package ledger owns the collection of quotations, invoices and receipts.
// It assigns per-kind ids, derives line-item and VAT totals, converts
// documents forward (quotation -> invoice -> receipt) and tracks status.
// Every operation either fully succeeds or leaves the ledger unchanged.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/workflow"
)

// forwardConversions lists the only permitted kind conversions.
var forwardConversions = map[entity.Kind]entity.Kind{
	entity.KindQuotation: entity.KindInvoice,
	entity.KindInvoice:   entity.KindReceipt,
}

// ItemInput is a line item as submitted by a caller; the amount is always derived.
type ItemInput struct {
	Description string       `json:"description"`
	Quantity    int          `json:"quantity"`
	UnitRate    entity.Money `json:"unitRate"`
}

// CreateRequest is the command accepted by Create.
type CreateRequest struct {
	Kind        entity.Kind `json:"kind"`
	ClientName  string      `json:"clientName"`
	ClientEmail string      `json:"clientEmail"`
	Items       []ItemInput `json:"items"`
	Notes       string      `json:"notes,omitempty"`
}

// Order selects the ordering of List results.
type Order int

const (
	// NewestFirst lists the most recently added document first.
	NewestFirst Order = iota
	// CreatedOrder lists documents in the order they were added.
	CreatedOrder
)

// Filter narrows List results. The zero value lists everything, newest first.
type Filter struct {
	Kind   entity.Kind
	Search string
	Order  Order
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for issue dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithStrictStatus makes SetStatus enforce draft -> sent -> {paid | overdue | cancelled}.
func WithStrictStatus(enabled bool) Option {
	return func(l *Ledger) { l.strict = enabled }
}

// Ledger is the authoritative, ordered collection of documents.
type Ledger struct {
	mu     sync.RWMutex
	docs   []entity.Document // insertion order
	index  map[string]int
	seq    sequences
	now    func() time.Time
	strict bool
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		index: make(map[string]int),
		seq:   make(sequences),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StrictStatus reports whether status transitions are enforced.
func (l *Ledger) StrictStatus() bool {
	return l.strict
}

func (l *Ledger) today() time.Time {
	return l.now().UTC().Truncate(time.Second)
}

// Create validates req and records a new draft document.
func (l *Ledger) Create(req CreateRequest) (entity.Document, error) {
	doc, err := buildDocument(req)
	if err != nil {
		return entity.Document{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc.ID = l.seq.peek(doc.Kind)
	doc.IssueDate = l.today()
	doc.ApplyDueDate()
	doc.Status = entity.StatusDraft

	l.append(doc)
	return doc.Clone(), nil
}

func buildDocument(req CreateRequest) (entity.Document, error) {
	if !req.Kind.IsValid() {
		return entity.Document{}, invalid("kind", fmt.Sprintf("unknown document kind %q", req.Kind))
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return entity.Document{}, invalid("clientName", "is required")
	}
	email := strings.TrimSpace(req.ClientEmail)
	if email == "" {
		return entity.Document{}, invalid("clientEmail", "is required")
	}
	if len(req.Items) == 0 {
		return entity.Document{}, invalid("items", "at least one line item is required")
	}

	items := make([]entity.LineItem, 0, len(req.Items))
	for i, in := range req.Items {
		item := entity.LineItem{
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitRate:    in.UnitRate,
		}
		if err := validateItem(i, item); err != nil {
			return entity.Document{}, err
		}
		items = append(items, item)
	}

	doc := entity.Document{
		Kind:        req.Kind,
		ClientName:  name,
		ClientEmail: email,
		Items:       items,
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := doc.RecomputeTotals(); err != nil {
		return entity.Document{}, invalid("items", err.Error())
	}
	return doc, nil
}

func validateItem(i int, item entity.LineItem) error {
	switch {
	case item.Description == "":
		return invalid(fmt.Sprintf("items[%d].description", i), "is required")
	case item.Quantity <= 0:
		return invalid(fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
	case item.UnitRate <= 0:
		return invalid(fmt.Sprintf("items[%d].unitRate", i), "must be greater than zero")
	}
	if _, err := item.UnitRate.Times(item.Quantity); err != nil {
		return invalid(fmt.Sprintf("items[%d].amount", i), fmt.Sprintf("quantity × unitRate %s", err))
	}
	return nil
}

// Convert creates a new document of targetKind from the document sourceID.
// The source document is left untouched.
func (l *Ledger) Convert(sourceID string, targetKind entity.Kind) (entity.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[sourceID]
	if !ok {
		return entity.Document{}, &NotFoundError{ID: sourceID}
	}
	src := l.docs[i]

	if next, ok := forwardConversions[src.Kind]; !ok || next != targetKind {
		return entity.Document{}, &InvalidTransitionError{
			ID:   sourceID,
			From: src.Kind.String(),
			To:   targetKind.String(),
		}
	}

	doc := src.Clone()
	doc.Kind = targetKind
	doc.ID = l.seq.peek(targetKind)
	doc.IssueDate = l.today()
	doc.ApplyDueDate()
	doc.Status = entity.StatusDraft
	if targetKind == entity.KindReceipt {
		doc.Status = entity.StatusPaid
	}

	l.append(doc)
	return doc.Clone(), nil
}

// append stores doc and advances its kind's sequence. Callers hold l.mu.
func (l *Ledger) append(doc entity.Document) {
	l.seq.advance(doc.Kind)
	l.index[doc.ID] = len(l.docs)
	l.docs = append(l.docs, doc)
}

// Get returns a copy of the document with the given id.
func (l *Ledger) Get(id string) (entity.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[id]
	if !ok {
		return entity.Document{}, &NotFoundError{ID: id}
	}
	return l.docs[i].Clone(), nil
}

// List returns copies of the documents matching f.
// Search matches id, client name or client email, case-insensitively.
func (l *Ledger) List(f Filter) []entity.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]entity.Document, 0, len(l.docs))

	for n := range l.docs {
		i := n
		if f.Order == NewestFirst {
			i = len(l.docs) - 1 - n
		}
		doc := l.docs[i]

		if f.Kind != "" && doc.Kind != f.Kind {
			continue
		}
		if needle != "" && !matches(doc, needle) {
			continue
		}
		out = append(out, doc.Clone())
	}

	return out
}

func matches(doc entity.Document, needle string) bool {
	return strings.Contains(strings.ToLower(doc.ID), needle) ||
		strings.Contains(strings.ToLower(doc.ClientName), needle) ||
		strings.Contains(strings.ToLower(doc.ClientEmail), needle)
}

// Len returns the number of documents in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

// Totals aggregates document counts per kind and the sum of all totals.
func (l *Ledger) Totals() entity.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var t entity.Totals
	for _, doc := range l.docs {
		switch doc.Kind {
		case entity.KindQuotation:
			t.QuotationCount++
		case entity.KindInvoice:
			t.InvoiceCount++
		case entity.KindReceipt:
			t.ReceiptCount++
		}
		t.SumOfAllTotals += doc.Total
	}
	return t
}

// SetStatus changes a document's status.
// Unless strict status mode is on, any known status may be set on any document.
func (l *Ledger) SetStatus(id string, status entity.Status) (entity.Document, error) {
	if !status.IsValid() {
		return entity.Document{}, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return entity.Document{}, &NotFoundError{ID: id}
	}
	doc := &l.docs[i]

	if l.strict && doc.Status != status {
		ctx := workflow.WithDueDate(context.Background(), doc.DueDate != nil)
		if _, err := workflow.Transition(ctx, workflow.State(doc.Status), workflow.State(status)); err != nil {
			return entity.Document{}, &InvalidTransitionError{
				ID:    id,
				From:  doc.Status.String(),
				To:    status.String(),
				Cause: err,
			}
		}
	}

	doc.Status = status
	return doc.Clone(), nil
}

// NextStatuses lists the statuses the document may move to under strict mode.
func (l *Ledger) NextStatuses(id string) ([]entity.Status, error) {
	doc, err := l.Get(id)
	if err != nil {
		return nil, err
	}

	states := workflow.NextStates(workflow.State(doc.Status))
	out := make([]entity.Status, 0, len(states))
	for _, s := range states {
		if s == workflow.StateOverdue && doc.DueDate == nil {
			continue
		}
		out = append(out, s.Status())
	}
	return out, nil
}

// MarkOverdue moves every sent invoice whose due date is before asOf to overdue
// and returns the changed documents, oldest first.
func (l *Ledger) MarkOverdue(asOf time.Time) []entity.Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	var changed []entity.Document
	for i := range l.docs {
		doc := &l.docs[i]
		if !doc.PastDue(asOf) {
			continue
		}
		doc.Status = entity.StatusOverdue
		changed = append(changed, doc.Clone())
	}
	return changed
}

// Snapshot returns a deep copy of the ledger, newest document first.
func (l *Ledger) Snapshot() entity.Snapshot {
	return entity.Snapshot{
		GeneratedAt: l.now().UTC(),
		Version:     entity.SnapshotVersion,
		Data: entity.SnapshotData{
			Documents: l.List(Filter{}),
		},
	}
}

// Restore replaces the ledger contents with snap.
// Totals and due dates are re-derived and sequences resume after the highest id per kind.
// On error the ledger is unchanged.
func (l *Ledger) Restore(snap entity.Snapshot) error {
	switch snap.Version {
	case entity.SnapshotVersion:
	case "":
		return invalid("version", "is required")
	default:
		return invalid("version", fmt.Sprintf("unsupported snapshot version %q", snap.Version))
	}

	src := snap.Data.Documents
	docs := make([]entity.Document, 0, len(src))
	index := make(map[string]int, len(src))
	seq := make(sequences)

	// snapshots are newest first; the ledger stores insertion order
	for n := len(src) - 1; n >= 0; n-- {
		doc := src[n].Clone()
		if err := validateRestored(n, doc); err != nil {
			return err
		}
		if _, dup := index[doc.ID]; dup {
			return invalid(fmt.Sprintf("documents[%d].id", n), fmt.Sprintf("duplicate id %q", doc.ID))
		}

		if err := doc.RecomputeTotals(); err != nil {
			return invalid(fmt.Sprintf("documents[%d].items", n), err.Error())
		}
		doc.ApplyDueDate()

		index[doc.ID] = len(docs)
		docs = append(docs, doc)

		kind, num, _ := ParseID(doc.ID)
		seq.observe(kind, num)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.docs = docs
	l.index = index
	l.seq = seq
	return nil
}

func validateRestored(n int, doc entity.Document) error {
	field := func(name string) string { return fmt.Sprintf("documents[%d].%s", n, name) }

	if !doc.Kind.IsValid() {
		return invalid(field("kind"), fmt.Sprintf("unknown document kind %q", doc.Kind))
	}
	kind, _, ok := ParseID(doc.ID)
	if !ok || kind != doc.Kind {
		return invalid(field("id"), fmt.Sprintf("%q is not a %s id", doc.ID, doc.Kind))
	}
	if !doc.Status.IsValid() {
		return invalid(field("status"), fmt.Sprintf("unknown status %q", doc.Status))
	}
	if doc.ClientName == "" {
		return invalid(field("clientName"), "is required")
	}
	if doc.ClientEmail == "" {
		return invalid(field("clientEmail"), "is required")
	}
	if len(doc.Items) == 0 {
		return invalid(field("items"), "at least one line item is required")
	}
	for i, item := range doc.Items {
		if err := validateItem(i, item); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("documents[%d].%s", n, ve.Field)
			}
			return err
		}
	}
	return nil
}
