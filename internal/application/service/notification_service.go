package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
)

// ErrNotificationNotFound is returned for an unknown notification id
var ErrNotificationNotFound = errors.New("notification not found")

// DefaultNotificationCapacity is the number of notifications kept before the oldest are discarded
const DefaultNotificationCapacity = 50

// EventPublisher delivers ledger events to subscribers without blocking the caller
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// NotificationService turns ledger events into a bounded, newest-first notification feed
type NotificationService interface {
	// HandleEvent is subscribed to the dispatcher for every ledger event type
	HandleEvent(ctx context.Context, evt *event.Event) error

	List(ctx context.Context) []entity.Notification
	UnreadCount(ctx context.Context) int
	MarkRead(ctx context.Context, id string) error
	// MarkAllRead returns the number of notifications that were unread
	MarkAllRead(ctx context.Context) int
	Remove(ctx context.Context, id string) error
}

type notificationServiceImpl struct {
	mu       sync.RWMutex
	feed     []entity.Notification // newest first
	capacity int
	logger   Logger
}

// NewNotificationService creates a NotificationService keeping at most capacity entries
func NewNotificationService(capacity int, logger Logger) NotificationService {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	return &notificationServiceImpl{
		capacity: capacity,
		logger:   logger,
	}
}

func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	n, err := notificationFor(evt)
	if err != nil {
		s.logger.Error("Unhandled event type",
			"event_type", evt.Type,
			"event_id", evt.ID)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.feed = append([]entity.Notification{n}, s.feed...)
	if len(s.feed) > s.capacity {
		s.feed = s.feed[:s.capacity]
	}
	return nil
}

func (s *notificationServiceImpl) List(ctx context.Context) []entity.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Notification, len(s.feed))
	copy(out, s.feed)
	return out
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unread := 0
	for _, n := range s.feed {
		if !n.Read {
			unread++
		}
	}
	return unread
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}
	s.feed[i].Read = true
	return nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.feed {
		if !s.feed[i].Read {
			s.feed[i].Read = true
			marked++
		}
	}
	return marked
}

func (s *notificationServiceImpl) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}
	s.feed = append(s.feed[:i], s.feed[i+1:]...)
	return nil
}

func (s *notificationServiceImpl) indexOf(id string) int {
	for i, n := range s.feed {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// notificationFor renders the feed entry for an event
func notificationFor(evt *event.Event) (entity.Notification, error) {
	n := entity.Notification{
		ID:         evt.ID,
		Level:      entity.NotificationInfo,
		DocumentID: evt.DocumentID,
		Timestamp:  evt.Timestamp,
	}

	kind := entity.Kind(evt.GetPayloadString(event.KeyKind))
	client := evt.GetPayloadString(event.KeyClient)
	total := entity.Money(evt.GetPayloadInt(event.KeyTotal))

	switch evt.Type {
	case event.TypeDocumentCreated:
		n.Level = entity.NotificationSuccess
		n.Title = kind.Label() + " created"
		n.Message = fmt.Sprintf("%s for %s, %s", evt.DocumentID, client, total)

	case event.TypeDocumentConverted:
		n.Level = entity.NotificationSuccess
		n.Title = fmt.Sprintf("%s created from %s", kind.Label(), evt.GetPayloadString(event.KeySourceID))
		n.Message = fmt.Sprintf("%s for %s, %s", evt.DocumentID, client, total)

	case event.TypeStatusChanged:
		from := evt.GetPayloadString(event.KeyFrom)
		switch to := entity.Status(evt.GetPayloadString(event.KeyTo)); to {
		case entity.StatusOverdue:
			n.Level = entity.NotificationWarning
			n.Title = "Payment overdue"
			n.Message = fmt.Sprintf("%s for %s is overdue, %s outstanding", evt.DocumentID, client, total)
		case entity.StatusPaid:
			n.Level = entity.NotificationSuccess
			n.Title = "Payment received"
			n.Message = fmt.Sprintf("%s for %s marked paid, %s", evt.DocumentID, client, total)
		case entity.StatusCancelled:
			n.Level = entity.NotificationError
			n.Title = kind.Label() + " cancelled"
			n.Message = fmt.Sprintf("%s for %s was cancelled", evt.DocumentID, client)
		default:
			n.Title = "Status updated"
			n.Message = fmt.Sprintf("%s moved from %s to %s", evt.DocumentID, from, to)
		}

	case event.TypeLedgerRestored:
		n.Title = "Ledger restored"
		n.Message = fmt.Sprintf("%d documents loaded from backup", evt.GetPayloadInt(event.KeyDocuments))

	case event.TypeArchiveWritten:
		n.Title = "Backup completed"
		n.Message = fmt.Sprintf("%d files written to %s", evt.GetPayloadInt(event.KeyFiles), evt.GetPayloadString(event.KeyDir))

	default:
		return entity.Notification{}, fmt.Errorf("no notification for event type %q", evt.Type)
	}

	return n, nil
}

// documentEvent builds an event carrying the document fields notifications display
func documentEvent(eventType event.Type, doc entity.Document, correlationID string) *event.Event {
	payload := map[string]interface{}{
		event.KeyKind:   doc.Kind.String(),
		event.KeyClient: doc.ClientName,
		event.KeyTotal:  int64(doc.Total),
	}
	if correlationID == "" {
		return event.NewEvent(eventType, doc.ID, payload)
	}
	return event.NewEventWithCorrelation(eventType, doc.ID, payload, correlationID)
}
