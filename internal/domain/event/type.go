package event

// Type identifies the type of domain event
type Type string

const (
	TypeDocumentCreated   Type = "document.created"
	TypeDocumentConverted Type = "document.converted"
	TypeStatusChanged     Type = "document.status_changed"
	TypeLedgerRestored    Type = "ledger.restored"
	TypeArchiveWritten    Type = "export.archived"
)

// Types lists every event type the ledger emits.
var Types = []Type{
	TypeDocumentCreated,
	TypeDocumentConverted,
	TypeStatusChanged,
	TypeLedgerRestored,
	TypeArchiveWritten,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}
