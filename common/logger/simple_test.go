package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleLogger(t *testing.T) {
	t.Run("verbose logger writes prefix and message", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "[Registry]", true)
		l.Printf("topic %s created on port %d", "t", 10001)
		out := buf.String()
		assert.Contains(t, out, "[Registry]")
		assert.Contains(t, out, "topic t created on port 10001")
		assert.Contains(t, out, "INF")
	})

	t.Run("quiet logger drops debug until verbose", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "[Quiet]", false)
		l.Debugf("dropped")
		assert.Zero(t, buf.Len())
		l.Verbose(true)
		l.Debugf("kept")
		assert.Contains(t, buf.String(), "kept")
		assert.Contains(t, buf.String(), "DBG")
		assert.NotContains(t, buf.String(), "dropped")
	})

	t.Run("quiet logger still reports faults", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "[Quiet]", false)
		l.Errorf("bind failed on port %d", 10001)
		l.Warnf("catalog unavailable")
		l.Printf("topic created")
		out := buf.String()
		assert.Contains(t, out, "bind failed on port 10001")
		assert.Contains(t, out, "catalog unavailable")
		assert.Contains(t, out, "topic created")
	})

	t.Run("WithPrefix appends to the parent prefix", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "[Broker]", true).WithPrefix("[TopicServer-t]")
		assert.Equal(t, "[Broker][TopicServer-t]", l.Prefix())
		l.Println("up")
		assert.True(t, strings.Contains(buf.String(), "[Broker][TopicServer-t]"))
	})

	t.Run("LogError only logs non-nil errors", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "[X]", true)
		LogError(l, "ResolveTopic", nil)
		assert.Zero(t, buf.Len())
		LogError(l, "ResolveTopic", errors.New("bind failed"))
		assert.Contains(t, buf.String(), "error happened at ResolveTopic due to bind failed")
		assert.Contains(t, buf.String(), "ERR")
	})
}
