package tcp

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"portq/common/async"
	"portq/common/data_structures"
	"portq/common/logger"
)

const maxAcceptBackoff = time.Second

type ConnectionHandler func(ctx context.Context, conn *TCPConnection)

type ITCPServer interface {
	Listen() error
	Serve()
	Port() int
	Done() <-chan bool
	Wait()
	NumLiveConnections() int
}

// TCPServer accepts loopback connections on one port and hands each to a
// pooled worker. The accept loop only exits after Accept returns and the
// stop condition holds, so shutdown needs a connection to wake it.
type TCPServer struct {
	id         string
	host       string
	port       int
	listener   net.Listener
	pool       *async.AsyncPool
	shouldStop func() bool
	handler    ConnectionHandler
	conns      data_structures.ISet[*TCPConnection]
	stopped    *async.Barrier
	logger     *logger.SimpleLogger
}

func NewTCPServer(id string, host string, port int, pool *async.AsyncPool, shouldStop func() bool, handler ConnectionHandler, logger *logger.SimpleLogger) *TCPServer {
	return &TCPServer{
		id:         id,
		host:       host,
		port:       port,
		pool:       pool,
		shouldStop: shouldStop,
		handler:    handler,
		conns:      data_structures.NewSafeSet[*TCPConnection](),
		stopped:    async.NewBarrier(),
		logger:     logger,
	}
}

// Listen binds the listening socket. A port of 0 binds an ephemeral port.
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", Address(s.host, s.port))
	if err != nil {
		return errors.Wrapf(err, "server %s unable to listen on %s", s.id, Address(s.host, s.port))
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	return nil
}

func (s *TCPServer) Port() int {
	return s.port
}

func (s *TCPServer) Serve() {
	defer s.shutdown()
	s.pool.Start()
	s.logger.Printf("accepting connections on %s", s.listener.Addr())
	var backoff time.Duration
	for !s.shouldStop() {
		rawConn, err := s.listener.Accept()
		if err != nil {
			if s.shouldStop() || errors.Is(err, net.ErrClosed) {
				break
			}
			backoff = nextBackoff(backoff)
			s.logger.Errorf("accept failed: %s, retrying in %s", err.Error(), backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		conn := NewTCPConnection(rawConn)
		if s.shouldStop() {
			conn.Close()
			break
		}
		s.dispatch(conn)
	}
}

func (s *TCPServer) dispatch(conn *TCPConnection) {
	s.conns.Add(conn)
	conn.OnClose(func(c *TCPConnection) {
		s.conns.Delete(c)
	})
	_, err := s.pool.Schedule(func() {
		defer conn.Close()
		s.handler(s.pool.Context(), conn)
	})
	if err != nil {
		s.logger.Errorf("unable to schedule %s: %s", conn, err.Error())
		conn.Close()
	}
}

func (s *TCPServer) shutdown() {
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Errorf("unable to close listener: %s", err.Error())
	}
	s.pool.Stop()
	live := s.conns.GetAll()
	for _, c := range live {
		c.Close()
	}
	s.logger.Printf("server stopped, %d in-flight connections cancelled", len(live))
	s.stopped.Open()
}

func (s *TCPServer) Done() <-chan bool {
	return s.stopped.Done()
}

func (s *TCPServer) Wait() {
	s.stopped.Wait()
}

func (s *TCPServer) NumLiveConnections() int {
	return s.conns.Size()
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	if current *= 2; current > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return current
}
