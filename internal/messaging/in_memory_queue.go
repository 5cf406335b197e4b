package messaging

import (
	"context"
	"encoding/json"
	"sync"
)

type inMemoryTask struct {
	queue   string
	payload []byte
}

func (t *inMemoryTask) Type() string {
	return t.queue
}

func (t *inMemoryTask) Payload() []byte {
	return t.payload
}

func (t *inMemoryTask) Ack() error {
	return nil
}

func (t *inMemoryTask) Nack() error {
	return nil
}

func (t *inMemoryTask) Reject() error {
	return nil
}

type InMemoryQueue struct {
	tasks     chan Task
	closeOnce sync.Once
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make(chan Task, 100),
	}
}

func (q *InMemoryQueue) publishTaskInternal(queue string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.tasks <- &inMemoryTask{queue: queue, payload: data}

	return nil
}

func (q *InMemoryQueue) PublishNewsletterDispatch(ctx context.Context, payload NewsletterDispatchPayload) error {
	return q.publishTaskInternal(NewsletterQueue, payload)
}

func (q *InMemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

// Close stops the queue. Consumers keep draining buffered tasks and then
// observe the closed channel.
func (q *InMemoryQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.tasks)
	})
}
