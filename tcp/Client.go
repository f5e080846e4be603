package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultDialRetryCount = 1
	dialRetryBackoff      = 20 * time.Millisecond
)

func Address(host string, port int) string {
	return net.JoinHostPort(host, fmt.Sprint(port))
}

// Dial connects to host:port, trying up to retryCount times.
func Dial(host string, port int, retryCount int) (*TCPConnection, error) {
	if retryCount < 1 {
		retryCount = 1
	}
	return dialWithRetry(Address(host, port), retryCount, nil)
}

func dialWithRetry(addr string, retry int, lastErr error) (*TCPConnection, error) {
	if retry == 0 {
		return nil, errors.Wrapf(lastErr, "dial %s", addr)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		if retry > 1 {
			time.Sleep(dialRetryBackoff)
		}
		return dialWithRetry(addr, retry-1, err)
	}
	return NewTCPConnection(conn), nil
}

// Exchange dials, runs one request/response exchange and closes the
// connection.
func Exchange(host string, port int, retryCount int, exchange func(conn *TCPConnection) error) error {
	conn, err := Dial(host, port, retryCount)
	if err != nil {
		return err
	}
	defer conn.Close()
	return exchange(conn)
}
