package protocol

import (
	"io"

	"github.com/pkg/errors"
)

type Intent uint8

const (
	IntentStop Intent = iota
	IntentPublish
	IntentSubscribe
)

var intentNames = map[Intent]string{
	IntentStop:      "STOP",
	IntentPublish:   "PUBLISH",
	IntentSubscribe: "SUBSCRIBE",
}

func (i Intent) String() string {
	return intentNames[i]
}

// ReadIntent reads the intent token and, unless it is the stop sentinel, the
// publisher flag.
func ReadIntent(r io.Reader) (Intent, error) {
	token, err := ReadText(r)
	if err != nil {
		return IntentStop, errors.Wrap(err, "read intent token")
	}
	if token == StopSentinel {
		return IntentStop, nil
	}
	isPublisher, err := ReadFlag(r)
	if err != nil {
		return IntentStop, errors.Wrap(err, "read publisher flag")
	}
	if isPublisher {
		return IntentPublish, nil
	}
	return IntentSubscribe, nil
}

func ReadPublication(r io.Reader) ([]byte, error) {
	payload, err := ReadPayload(r)
	return payload, errors.Wrap(err, "read published payload")
}

func ReplyAck(w io.Writer) error {
	return WriteFlag(w, true)
}

// ReadReadyToRead returns false when the subscriber withdrew before a
// message was taken.
func ReadReadyToRead(r io.Reader) (bool, error) {
	ready, err := ReadFlag(r)
	return ready, errors.Wrap(err, "read ready signal")
}

func ReplyDelivery(w io.Writer, payload []byte) error {
	return WritePayload(w, payload)
}

// Publish runs the client side of a publish exchange. It returns once the
// broker has acknowledged the enqueue.
func Publish(rw io.ReadWriter, payload []byte) error {
	if err := WriteText(rw, ProceedToken); err != nil {
		return err
	}
	if err := WriteFlag(rw, true); err != nil {
		return err
	}
	if err := WritePayload(rw, payload); err != nil {
		return err
	}
	ack, err := ReadFlag(rw)
	if err != nil {
		return errors.Wrap(err, "read ack")
	}
	if !ack {
		return errors.New("publish was not acknowledged")
	}
	return nil
}

// Consume runs the client side of a subscribe exchange and blocks until the
// broker delivers a payload.
func Consume(rw io.ReadWriter) ([]byte, error) {
	if err := WriteText(rw, ProceedToken); err != nil {
		return nil, err
	}
	if err := WriteFlag(rw, false); err != nil {
		return nil, err
	}
	if err := WriteFlag(rw, true); err != nil {
		return nil, err
	}
	payload, err := ReadPayload(rw)
	if err != nil {
		return nil, errors.Wrap(err, "read delivery")
	}
	return payload, nil
}
