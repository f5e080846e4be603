package broker_client

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type IPublisher[T any] interface {
	Topic() string
	Port() int
	Publish(msg T) error
}

// Publisher sends json-encoded messages of one type to one topic. Messages
// published by a single goroutine arrive in order since each Publish waits
// for the broker's ack.
type Publisher[T any] struct {
	host  string
	topic string
	port  int
}

func NewPublisher[T any](host string, controlPort int, topic string, capacity int) (*Publisher[T], error) {
	if topic == "" {
		return nil, errors.New("publisher requires a topic")
	}
	port, err := ResolveTopic(host, controlPort, topic, capacity)
	if err != nil {
		return nil, err
	}
	return &Publisher[T]{host, topic, port}, nil
}

func (p *Publisher[T]) Topic() string {
	return p.topic
}

func (p *Publisher[T]) Port() int {
	return p.port
}

func (p *Publisher[T]) Publish(msg T) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "encode message for topic %s", p.topic)
	}
	return errors.Wrapf(Publish(p.host, p.port, payload), "publish to topic %s", p.topic)
}
