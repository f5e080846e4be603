package async

import (
	"testing"
	"time"

	"portq/common/test_utils"
)

func TestBarrier(t *testing.T) {
	b := NewBarrier()
	waited := make(chan bool)
	test_utils.NewTestGroup("Barrier", "").
		Then("closed on creation", "", func() bool {
			return !b.IsOpen()
		}).
		Do("start waiter", "", func() {
			go func() {
				b.Wait()
				waited <- true
			}()
		}).
		Then("waiter blocks until open", "", func() bool {
			return test_utils.StillBlockedAfter(waited, 20*time.Millisecond)
		}).
		Do("open twice", "second open is a no-op", func() {
			b.Open()
			b.Open()
		}).
		Then("waiter released", "", func() bool {
			select {
			case <-waited:
				return b.IsOpen()
			case <-time.After(time.Second):
				return false
			}
		}).
		Then("done channel is closed", "", func() bool {
			_, ok := <-b.Done()
			return !ok
		}).Run(t)
}
