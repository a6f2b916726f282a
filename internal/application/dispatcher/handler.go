package dispatcher

import (
	"context"

	"github.com/kbdigital/doc-ledger/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// subscription is a handler registered under a name for logging
type subscription struct {
	name    string
	handler Handler
}
