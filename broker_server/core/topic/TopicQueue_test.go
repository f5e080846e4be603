package topic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portq/common/test_utils"
)

func TestTopicQueueRejectsInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewTopicQueue(capacity)
		require.Error(t, err)
		assert.True(t, IsTopicError(err, TopicErrInvalidCapacity))
	}
}

func TestTopicQueue(t *testing.T) {
	ctx := context.Background()
	q, err := NewTopicQueue(2)
	require.NoError(t, err)
	var taken []string
	take := func() {
		item, err := q.Dequeue(ctx)
		if err == nil {
			taken = append(taken, string(item))
		}
	}
	var blockedPut, blockedTake chan struct{}

	test_utils.NewTestGroup("TopicQueue", "bounded FIFO").Cases([]*test_utils.Assertion{
		test_utils.NewTestCase("capacity", "", func() bool {
			return q.Capacity() == 2 && q.Len() == 0
		}),
		test_utils.NewTestCase("fill", "enqueue up to capacity does not block", func() bool {
			return test_utils.CompletesWithin(time.Second, func() {
				q.Enqueue(ctx, []byte("A"))
				q.Enqueue(ctx, []byte("B"))
			}) && q.Len() == 2
		}),
		test_utils.NewTestCase("backpressure", "enqueue on a full queue blocks", func() bool {
			blockedPut = make(chan struct{})
			go func() {
				q.Enqueue(ctx, []byte("C"))
				close(blockedPut)
			}()
			return test_utils.StillBlockedAfter(blockedPut, 100*time.Millisecond)
		}),
		test_utils.NewTestCase("release", "a dequeue unblocks the producer", func() bool {
			take()
			return test_utils.CompletesWithin(time.Second, func() { <-blockedPut }) && q.Len() == 2
		}),
		test_utils.NewTestCase("fifo", "items come out in insertion order", func() bool {
			take()
			take()
			return test_utils.AssertSlicesEqual(taken, []string{"A", "B", "C"}) && q.Len() == 0
		}),
		test_utils.NewTestCase("empty", "dequeue on an empty queue blocks", func() bool {
			blockedTake = make(chan struct{})
			go func() {
				take()
				close(blockedTake)
			}()
			return test_utils.StillBlockedAfter(blockedTake, 100*time.Millisecond)
		}),
		test_utils.NewTestCase("wake", "an enqueue wakes the consumer", func() bool {
			q.Enqueue(ctx, []byte("D"))
			return test_utils.CompletesWithin(time.Second, func() { <-blockedTake }) &&
				test_utils.AssertSlicesEqual(taken, []string{"A", "B", "C", "D"})
		}),
	}).Run(t)
}

func TestTopicQueueCancelledWaitLeavesQueueUntouched(t *testing.T) {
	q, err := NewTopicQueue(1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, q.Enqueue(context.Background(), []byte("kept")))
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	assert.ErrorIs(t, q.Enqueue(ctx2, []byte("dropped")), context.DeadlineExceeded)

	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kept", string(item))
	assert.Equal(t, 0, q.Len())
}
