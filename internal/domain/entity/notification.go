package entity

import "time"

// NotificationLevel controls how a notification is highlighted.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a feed entry describing a ledger change.
type Notification struct {
	ID         string            `json:"id"`
	Level      NotificationLevel `json:"level"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DocumentID string            `json:"documentId,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Read       bool              `json:"read"`
}
