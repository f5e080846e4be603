package topic

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"portq/broker_common/protocol"
	"portq/common/async"
	"portq/common/logger"
	"portq/tcp"
)

type ITopicServer interface {
	Name() string
	Port() int
	Capacity() int
	Len() int
	Listen() error
	Serve()
	Done() <-chan bool
	Wait()
	Descriptor() TopicDescriptor
}

// TopicServer serves one topic queue on a dedicated port. Each accepted
// connection carries exactly one exchange: stop, publish or subscribe.
type TopicServer struct {
	name      string
	queue     ITopicQueue
	server    *tcp.TCPServer
	createdAt time.Time
	logger    *logger.SimpleLogger
}

type TopicServerOptions struct {
	Host         string
	Port         int
	PoolSize     int
	WorkerSize   int
	ParentLogger *logger.SimpleLogger
}

// NewTopicServer builds the server without binding. Its worker pool and
// stop condition both derive from ctx, so cancelling ctx shuts it down
// once the accept loop is woken.
func NewTopicServer(ctx context.Context, name string, capacity int, opts TopicServerOptions) (*TopicServer, error) {
	queue, err := NewTopicQueue(capacity)
	if err != nil {
		return nil, NewInvalidCapacityError(name, capacity)
	}
	l := opts.ParentLogger.WithPrefix(fmt.Sprintf("[TopicServer-%s]", name))
	pool := async.NewAsyncPoolWithContext(ctx, "topic-"+name, opts.PoolSize, opts.WorkerSize, l)
	s := &TopicServer{
		name:      name,
		queue:     queue,
		createdAt: time.Now(),
		logger:    l,
	}
	s.server = tcp.NewTCPServer(name, opts.Host, opts.Port, pool, func() bool {
		return ctx.Err() != nil
	}, s.handleConnection, l)
	return s, nil
}

func (s *TopicServer) Name() string {
	return s.name
}

func (s *TopicServer) Port() int {
	return s.server.Port()
}

func (s *TopicServer) Capacity() int {
	return s.queue.Capacity()
}

func (s *TopicServer) Len() int {
	return s.queue.Len()
}

func (s *TopicServer) Listen() error {
	port := s.server.Port()
	if err := s.server.Listen(); err != nil {
		return NewBindFailedError(s.name, port, errors.Cause(err))
	}
	return nil
}

// Serve runs the accept loop until shutdown.
func (s *TopicServer) Serve() {
	s.server.Serve()
}

func (s *TopicServer) Done() <-chan bool {
	return s.server.Done()
}

func (s *TopicServer) Wait() {
	s.server.Wait()
}

func (s *TopicServer) Descriptor() TopicDescriptor {
	return TopicDescriptor{
		Name:      s.name,
		Capacity:  s.queue.Capacity(),
		Port:      s.Port(),
		CreatedAt: s.createdAt,
		Depth:     s.queue.Len(),
	}
}

func (s *TopicServer) handleConnection(ctx context.Context, conn *tcp.TCPConnection) {
	intent, err := protocol.ReadIntent(conn)
	if err != nil {
		s.logger.Errorf("%s dropped before stating intent: %s", conn, err.Error())
		return
	}
	s.logger.Debugf("%s intent %s", conn, intent)
	switch intent {
	case protocol.IntentStop:
	case protocol.IntentPublish:
		logger.LogError(s.logger, "handlePublish", s.handlePublish(ctx, conn))
	case protocol.IntentSubscribe:
		logger.LogError(s.logger, "handleSubscribe", s.handleSubscribe(ctx, conn))
	}
}

// handlePublish acks only after the payload is in the queue, so a publisher
// waiting for the ack blocks while the queue is full.
func (s *TopicServer) handlePublish(ctx context.Context, conn *tcp.TCPConnection) error {
	payload, err := protocol.ReadPublication(conn)
	if err != nil {
		return errors.Wrapf(err, "%s", conn)
	}
	waitCtx, stopWatching := watchHangup(ctx, conn)
	err = s.queue.Enqueue(waitCtx, payload)
	stopWatching()
	if err != nil {
		return errors.Wrapf(err, "%s publish abandoned", conn)
	}
	return errors.Wrapf(protocol.ReplyAck(conn), "%s ack", conn)
}

func (s *TopicServer) handleSubscribe(ctx context.Context, conn *tcp.TCPConnection) error {
	ready, err := protocol.ReadReadyToRead(conn)
	if err != nil {
		return errors.Wrapf(err, "%s", conn)
	}
	if !ready {
		s.logger.Debugf("%s withdrew before reading", conn)
		return nil
	}
	waitCtx, stopWatching := watchHangup(ctx, conn)
	payload, err := s.queue.Dequeue(waitCtx)
	stopWatching()
	if err != nil {
		return errors.Wrapf(err, "%s subscribe abandoned", conn)
	}
	if err = protocol.ReplyDelivery(conn, payload); err != nil {
		s.logger.Warnf("%s lost a %d byte message taken from the queue", conn, len(payload))
		return errors.Wrapf(err, "%s delivery", conn)
	}
	return nil
}

// watchHangup returns a context that is cancelled when the peer closes the
// connection (or sends anything) while the worker waits on the queue. The
// returned func must be called before the connection is used again.
func watchHangup(parent context.Context, conn *tcp.TCPConnection) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		var b [1]byte
		if _, err := conn.Read(b[:]); !errors.Is(err, os.ErrDeadlineExceeded) {
			cancel()
		}
	}()
	return ctx, func() {
		conn.SetReadDeadline(time.Now())
		<-exited
		conn.SetReadDeadline(time.Time{})
		cancel()
	}
}
