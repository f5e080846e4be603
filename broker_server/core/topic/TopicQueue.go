package topic

import "context"

type ITopicQueue interface {
	Enqueue(ctx context.Context, item []byte) error
	Dequeue(ctx context.Context) ([]byte, error)
	Len() int
	Capacity() int
}

// TopicQueue is a bounded FIFO of opaque payloads. Both operations block
// until they can proceed or ctx is done; a cancelled wait leaves the queue
// unchanged.
type TopicQueue struct {
	items chan []byte
}

func NewTopicQueue(capacity int) (*TopicQueue, error) {
	if capacity < 1 {
		return nil, NewInvalidCapacityError("", capacity)
	}
	return &TopicQueue{items: make(chan []byte, capacity)}, nil
}

func (q *TopicQueue) Enqueue(ctx context.Context, item []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *TopicQueue) Dequeue(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *TopicQueue) Len() int {
	return len(q.items)
}

func (q *TopicQueue) Capacity() int {
	return cap(q.items)
}
