package protocol

import (
	"io"

	"github.com/pkg/errors"
)

const (
	// StopSentinel wakes a blocked accept loop during shutdown. It is valid as
	// the first frame of both protocols.
	StopSentinel = "stop"
	ProceedToken = "ok"
)

type ControlRequest struct {
	Topic    string
	Capacity int
	Stop     bool
}

// ReadControlRequest reads the topic name and, unless it is the stop
// sentinel, the requested capacity.
func ReadControlRequest(r io.Reader) (*ControlRequest, error) {
	topic, err := ReadText(r)
	if err != nil {
		return nil, errors.Wrap(err, "read topic name")
	}
	if topic == StopSentinel {
		return &ControlRequest{Stop: true}, nil
	}
	capacity, err := ReadNumber(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read capacity of topic %s", topic)
	}
	return &ControlRequest{Topic: topic, Capacity: int(capacity)}, nil
}

func ReplyPort(w io.Writer, port int) error {
	return WriteNumber(w, int64(port))
}

// RequestTopicPort runs the client side of the control exchange.
func RequestTopicPort(rw io.ReadWriter, topic string, capacity int) (int, error) {
	if err := WriteText(rw, topic); err != nil {
		return -1, err
	}
	if err := WriteNumber(rw, int64(capacity)); err != nil {
		return -1, err
	}
	port, err := ReadNumber(rw)
	if err != nil {
		return -1, errors.Wrapf(err, "read port of topic %s", topic)
	}
	if port < 0 {
		return -1, NewNegativeNumberError("port", port)
	}
	return int(port), nil
}

func SendStop(w io.Writer) error {
	return WriteText(w, StopSentinel)
}
