package broker_client

import (
	"github.com/pkg/errors"

	"portq/broker_common/protocol"
	"portq/tcp"
)

// ResolveTopic asks the broker for the port of a topic, creating the topic
// with the given capacity when it does not exist.
func ResolveTopic(host string, controlPort int, name string, capacity int) (port int, err error) {
	err = tcp.Exchange(host, controlPort, tcp.DefaultDialRetryCount, func(conn *tcp.TCPConnection) error {
		port, err = protocol.RequestTopicPort(conn, name, capacity)
		return err
	})
	if err != nil {
		return -1, errors.Wrapf(err, "resolve topic %s", name)
	}
	return port, nil
}

// Publish returns once the broker holds the payload. It blocks while the
// topic queue is full.
func Publish(host string, port int, payload []byte) error {
	return tcp.Exchange(host, port, tcp.DefaultDialRetryCount, func(conn *tcp.TCPConnection) error {
		return protocol.Publish(conn, payload)
	})
}

// Consume blocks until the topic has a message and returns it.
func Consume(host string, port int) (payload []byte, err error) {
	err = tcp.Exchange(host, port, tcp.DefaultDialRetryCount, func(conn *tcp.TCPConnection) error {
		payload, err = protocol.Consume(conn)
		return err
	})
	return
}
