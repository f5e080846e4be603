package broker_client

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type MessageHandler[T any] func(msg T)

type ISubscriber[T any] interface {
	Topic() string
	Port() int
	Subscribe() error
	SubscribeN(ctx context.Context, n int) error
}

// Subscriber takes json-encoded messages of one type from one topic and
// hands each to its handler.
type Subscriber[T any] struct {
	host    string
	topic   string
	port    int
	handler MessageHandler[T]
}

func NewSubscriber[T any](host string, controlPort int, topic string, capacity int, handler MessageHandler[T]) (*Subscriber[T], error) {
	if topic == "" {
		return nil, errors.New("subscriber requires a topic")
	}
	if handler == nil {
		return nil, errors.New("subscriber requires a message handler")
	}
	port, err := ResolveTopic(host, controlPort, topic, capacity)
	if err != nil {
		return nil, err
	}
	return &Subscriber[T]{host, topic, port, handler}, nil
}

func (s *Subscriber[T]) Topic() string {
	return s.topic
}

func (s *Subscriber[T]) Port() int {
	return s.port
}

// Subscribe blocks until one message is taken from the topic, then runs
// the handler on it.
func (s *Subscriber[T]) Subscribe() error {
	payload, err := Consume(s.host, s.port)
	if err != nil {
		return errors.Wrapf(err, "consume from topic %s", s.topic)
	}
	var msg T
	if err = json.Unmarshal(payload, &msg); err != nil {
		return errors.Wrapf(err, "decode message from topic %s", s.topic)
	}
	s.handler(msg)
	return nil
}

// SubscribeN takes n messages, or runs until an error when n < 0. ctx is
// checked between messages only; a blocked take is not interrupted.
func (s *Subscriber[T]) SubscribeN(ctx context.Context, n int) error {
	for i := 0; n < 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Subscribe(); err != nil {
			return err
		}
	}
	return nil
}
