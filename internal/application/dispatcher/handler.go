package dispatcher

import (
	"context"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
)

// Handler reacts to one domain event. Handlers registered for async delivery
// run after the request that produced the event has returned.
type Handler func(ctx context.Context, evt *event.Event) error

type subscription struct {
	name    string
	handler Handler
}
