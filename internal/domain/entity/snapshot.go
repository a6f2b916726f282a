package entity

import "time"

// SnapshotVersion is the format version written into every snapshot.
const SnapshotVersion = "1.0"

// Snapshot is a point-in-time export of the ledger used for persistence and backups.
type Snapshot struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Version     string       `json:"version"`
	Data        SnapshotData `json:"data"`
}

// SnapshotData holds the entity collections of a snapshot, keyed by collection name.
type SnapshotData struct {
	// Documents are ordered most-recent-first, as the ledger lists them.
	Documents []Document `json:"documents"`
}

// Totals is an aggregation over the whole ledger.
type Totals struct {
	QuotationCount int   `json:"quotationCount"`
	InvoiceCount   int   `json:"invoiceCount"`
	ReceiptCount   int   `json:"receiptCount"`
	SumOfAllTotals Money `json:"sumOfAllTotals"`
}
