package protocol

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portq/broker_common/protocol/flatbuffers/PortQ"
	"portq/common/test_utils"
)

func TestFBFrameParser(t *testing.T) {
	p := NewFBFrameParser()
	roundTrip := func(f *Frame) *Frame {
		serialized, err := p.Serialize(f)
		if err != nil {
			t.Log("serialization failed due to ", err)
			return nil
		}
		out, err := p.Deserialize(serialized)
		if err != nil {
			t.Log("deserialization failed due to ", err)
			return nil
		}
		return out
	}
	test_utils.NewTestGroup("FBFrameParser", "").Cases([]*test_utils.Assertion{
		test_utils.NewTestCase("text", "", func() bool {
			out := roundTrip(TextFrame("orders"))
			return out != nil && out.Kind == PortQ.FrameKindText && out.Text == "orders"
		}),
		test_utils.NewTestCase("empty text", "empty topic names are legal", func() bool {
			out := roundTrip(TextFrame(""))
			return out != nil && out.Kind == PortQ.FrameKindText && out.Text == ""
		}),
		test_utils.NewTestCase("number", "", func() bool {
			out := roundTrip(NumberFrame(19999))
			return out != nil && out.Kind == PortQ.FrameKindNumber && out.Number == 19999
		}),
		test_utils.NewTestCase("flag", "", func() bool {
			on, off := roundTrip(FlagFrame(true)), roundTrip(FlagFrame(false))
			return on != nil && off != nil && on.Flag && !off.Flag
		}),
		test_utils.NewTestCase("payload", "", func() bool {
			out := roundTrip(PayloadFrame([]byte{0, 1, 2, 255}))
			return out != nil && bytes.Equal(out.Payload, []byte{0, 1, 2, 255})
		}),
		test_utils.NewTestCase("garbage", "random bytes are rejected, not panicked on", func() bool {
			_, err := p.Deserialize([]byte{0xff, 0xff, 0xff, 0x7f, 1, 2})
			return err != nil
		}),
		test_utils.NewTestCase("short buffer", "", func() bool {
			_, err := p.Deserialize([]byte{1})
			return err != nil
		}),
		test_utils.NewTestCase("nil frame", "", func() bool {
			_, err := p.Serialize(nil)
			return err != nil && err.Error() == "nil frame"
		}),
	}).Run(t)
}

func TestCodec(t *testing.T) {
	t.Run("values stream back in order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, "t"))
		require.NoError(t, WriteNumber(&buf, 2))
		require.NoError(t, WriteFlag(&buf, true))
		require.NoError(t, WritePayload(&buf, []byte("A")))

		s, err := ReadText(&buf)
		require.NoError(t, err)
		n, err := ReadNumber(&buf)
		require.NoError(t, err)
		b, err := ReadFlag(&buf)
		require.NoError(t, err)
		payload, err := ReadPayload(&buf)
		require.NoError(t, err)

		assert.Equal(t, "t", s)
		assert.EqualValues(t, 2, n)
		assert.True(t, b)
		assert.Equal(t, []byte("A"), payload)
		assert.Zero(t, buf.Len())
	})

	t.Run("unexpected kind", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFlag(&buf, true))
		_, err := ReadText(&buf)
		require.Error(t, err)
		perr, ok := errors.Cause(err).(IProtocolError)
		require.True(t, ok)
		assert.Equal(t, ErrUnexpectedKind, perr.Code())
	})

	t.Run("oversized frame header", func(t *testing.T) {
		var header [4]byte
		binary.LittleEndian.PutUint32(header[:], MaxFrameSize+1)
		_, err := ReadFrame(bytes.NewReader(header[:]))
		perr, ok := errors.Cause(err).(IProtocolError)
		require.True(t, ok)
		assert.Equal(t, ErrFrameTooLarge, perr.Code())
	})

	t.Run("truncated body", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WritePayload(&buf, []byte("hello")))
		truncated := buf.Bytes()[:buf.Len()-2]
		_, err := ReadPayload(bytes.NewReader(truncated))
		assert.Error(t, err)
	})
}

func TestControlExchange(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	received := make(chan *ControlRequest, 1)
	go func() {
		req, err := ReadControlRequest(server)
		if err != nil {
			close(received)
			return
		}
		received <- req
		_ = ReplyPort(server, 12345)
	}()

	port, err := RequestTopicPort(client, "orders", 8)
	require.NoError(t, err)
	assert.Equal(t, 12345, port)
	req := <-received
	require.NotNil(t, req)
	assert.Equal(t, &ControlRequest{Topic: "orders", Capacity: 8}, req)
}

func TestControlStop(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendStop(&buf))
	req, err := ReadControlRequest(&buf)
	require.NoError(t, err)
	assert.True(t, req.Stop)
}

func TestTopicExchanges(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()
		got := make(chan []byte, 1)
		go func() {
			intent, err := ReadIntent(server)
			if err != nil || intent != IntentPublish {
				close(got)
				return
			}
			payload, err := ReadPublication(server)
			if err != nil {
				close(got)
				return
			}
			got <- payload
			_ = ReplyAck(server)
		}()
		require.NoError(t, Publish(client, []byte("A")))
		assert.Equal(t, []byte("A"), <-got)
	})

	t.Run("subscribe", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()
		go func() {
			intent, err := ReadIntent(server)
			if err != nil || intent != IntentSubscribe {
				return
			}
			if ready, err := ReadReadyToRead(server); err != nil || !ready {
				return
			}
			_ = ReplyDelivery(server, []byte("B"))
		}()
		payload, err := Consume(client)
		require.NoError(t, err)
		assert.Equal(t, []byte("B"), payload)
	})

	t.Run("stop intent", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, SendStop(&buf))
		intent, err := ReadIntent(&buf)
		require.NoError(t, err)
		assert.Equal(t, IntentStop, intent)
		assert.Equal(t, "STOP", intent.String())
	})
}
