package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	NewsletterQueue = "newsletter_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type NewsletterDispatchPayload struct {
	NewsletterId uuid.UUID

	// Target language for the outgoing copy, empty means send as authored.
	Language string
}

type Publisher interface {
	PublishNewsletterDispatch(ctx context.Context, payload NewsletterDispatchPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
