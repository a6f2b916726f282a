package workflow

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	TriggerSend        Trigger = "SEND"
	TriggerPay         Trigger = "PAY"
	TriggerMarkOverdue Trigger = "MARK_OVERDUE"
	TriggerCancel      Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
