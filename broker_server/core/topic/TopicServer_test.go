package topic

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portq/broker_common/protocol"
	"portq/common/logger"
	"portq/common/test_utils"
	"portq/tcp"
)

const testHost = "127.0.0.1"

func startTopicServer(t *testing.T, name string, capacity int) (*TopicServer, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewTopicServer(ctx, name, capacity, TopicServerOptions{
		Host:         testHost,
		PoolSize:     16,
		WorkerSize:   8,
		ParentLogger: logger.NewConsole("[test]", false),
	})
	require.NoError(t, err)
	require.NoError(t, s.Listen())
	go s.Serve()
	return s, cancel
}

func stopTopicServer(t *testing.T, s *TopicServer, cancel context.CancelFunc) {
	cancel()
	_ = tcp.Exchange(testHost, s.Port(), 3, func(conn *tcp.TCPConnection) error {
		return protocol.SendStop(conn)
	})
	require.True(t, test_utils.CompletesWithin(2*time.Second, s.Wait))
}

func publish(port int, payload string) error {
	return tcp.Exchange(testHost, port, 3, func(conn *tcp.TCPConnection) error {
		return protocol.Publish(conn, []byte(payload))
	})
}

func consume(port int) (string, error) {
	var payload []byte
	err := tcp.Exchange(testHost, port, 3, func(conn *tcp.TCPConnection) (err error) {
		payload, err = protocol.Consume(conn)
		return
	})
	return string(payload), err
}

func TestTopicServerScenario(t *testing.T) {
	s, cancel := startTopicServer(t, "t", 2)
	defer stopTopicServer(t, s, cancel)
	port := s.Port()
	var third chan string

	test_utils.NewTestGroup("TopicServer", "publish and consume over the topic port").Cases([]*test_utils.Assertion{
		test_utils.NewTestCase("publish A and B", "", func() bool {
			return publish(port, "A") == nil && publish(port, "B") == nil && s.Len() == 2
		}),
		test_utils.NewTestCase("consume A", "", func() bool {
			m, err := consume(port)
			return err == nil && m == "A"
		}),
		test_utils.NewTestCase("consume B", "", func() bool {
			m, err := consume(port)
			return err == nil && m == "B"
		}),
		test_utils.NewTestCase("third consume blocks", "", func() bool {
			third = make(chan string, 1)
			go func() {
				m, _ := consume(port)
				third <- m
			}()
			return test_utils.StillBlockedAfter(third, 150*time.Millisecond)
		}),
		test_utils.NewTestCase("publish C unblocks it", "", func() bool {
			if publish(port, "C") != nil {
				return false
			}
			select {
			case m := <-third:
				return m == "C"
			case <-time.After(2 * time.Second):
				return false
			}
		}),
	}).Run(t)
}

func TestTopicServerPublishBlocksWhenFull(t *testing.T) {
	s, cancel := startTopicServer(t, "full", 1)
	defer stopTopicServer(t, s, cancel)
	require.NoError(t, publish(s.Port(), "first"))

	acked := make(chan error, 1)
	go func() {
		acked <- publish(s.Port(), "second")
	}()
	assert.True(t, test_utils.StillBlockedAfter(acked, 150*time.Millisecond), "publish over capacity waits for its ack")

	m, err := consume(s.Port())
	require.NoError(t, err)
	assert.Equal(t, "first", m)
	select {
	case err := <-acked:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked publish was never acked")
	}
}

func TestTopicServerSurvivesBadClients(t *testing.T) {
	s, cancel := startTopicServer(t, "robust", 2)
	defer stopTopicServer(t, s, cancel)

	// garbage instead of a frame
	raw, err := net.Dial("tcp", tcp.Address(testHost, s.Port()))
	require.NoError(t, err)
	_, _ = raw.Write([]byte{3, 0, 0, 0, 1, 2, 3})
	raw.Close()

	// publisher that hangs up before sending its payload
	require.NoError(t, tcp.Exchange(testHost, s.Port(), 3, func(conn *tcp.TCPConnection) error {
		if err := protocol.WriteText(conn, protocol.ProceedToken); err != nil {
			return err
		}
		return protocol.WriteFlag(conn, true)
	}))

	// stop token leaves the queue alone
	require.NoError(t, tcp.Exchange(testHost, s.Port(), 3, func(conn *tcp.TCPConnection) error {
		return protocol.SendStop(conn)
	}))

	// subscriber that withdraws
	require.NoError(t, tcp.Exchange(testHost, s.Port(), 3, func(conn *tcp.TCPConnection) error {
		if err := protocol.WriteText(conn, protocol.ProceedToken); err != nil {
			return err
		}
		if err := protocol.WriteFlag(conn, false); err != nil {
			return err
		}
		return protocol.WriteFlag(conn, false)
	}))

	require.NoError(t, publish(s.Port(), "intact"))
	m, err := consume(s.Port())
	require.NoError(t, err)
	assert.Equal(t, "intact", m)
	assert.Equal(t, 0, s.Len())
}

func TestTopicServerHungUpSubscriberDoesNotTakeMessage(t *testing.T) {
	s, cancel := startTopicServer(t, "hangup", 1)
	defer stopTopicServer(t, s, cancel)

	conn, err := tcp.Dial(testHost, s.Port(), 3)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteText(conn, protocol.ProceedToken))
	require.NoError(t, protocol.WriteFlag(conn, false))
	require.NoError(t, protocol.WriteFlag(conn, true))
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, publish(s.Port(), "survivor"))
	m, err := consume(s.Port())
	require.NoError(t, err)
	assert.Equal(t, "survivor", m)
}

func TestTopicServerShutdownReleasesBlockedSubscriber(t *testing.T) {
	s, cancel := startTopicServer(t, "shutdown", 1)
	port := s.Port()
	result := make(chan error, 1)
	go func() {
		_, err := consume(port)
		result <- err
	}()
	time.Sleep(50 * time.Millisecond)
	stopTopicServer(t, s, cancel)

	select {
	case err := <-result:
		assert.Error(t, err, "in-flight consume is cancelled, not answered")
	case <-time.After(2 * time.Second):
		t.Fatal("blocked subscriber was not released by shutdown")
	}
	_, err := tcp.Dial(testHost, port, 1)
	assert.Error(t, err, "port no longer accepts after shutdown")
}

func TestTopicServerDescriptor(t *testing.T) {
	s, cancel := startTopicServer(t, "described", 3)
	defer stopTopicServer(t, s, cancel)
	require.NoError(t, publish(s.Port(), "x"))
	d := s.Descriptor()
	assert.Equal(t, "described", d.Name)
	assert.Equal(t, 3, d.Capacity)
	assert.Equal(t, s.Port(), d.Port)
	assert.Equal(t, 1, d.Depth)
}

func TestTopicServerBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", tcp.Address(testHost, 0))
	require.NoError(t, err)
	defer taken.Close()

	s, err := NewTopicServer(context.Background(), "clash", 1, TopicServerOptions{
		Host:         testHost,
		Port:         taken.Addr().(*net.TCPAddr).Port,
		ParentLogger: logger.NewConsole("", false),
	})
	require.NoError(t, err)
	err = s.Listen()
	require.Error(t, err)
	assert.True(t, IsTopicError(err, TopicErrBindFailed))
}
