package test_utils

import "time"

func AssertSlicesEqual[T comparable](l []T, r []T) bool {
	if len(l) != len(r) {
		return false
	}
	for i := range l {
		if l[i] != r[i] {
			return false
		}
	}
	return true
}

func AssertDistinct[T comparable](values []T) bool {
	seen := make(map[T]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// CompletesWithin reports whether action returns before timeout. The action
// keeps running in the background when it does not.
func CompletesWithin(timeout time.Duration, action func()) bool {
	done := make(chan struct{})
	go func() {
		action()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// StillBlockedAfter reports whether the channel stays silent for d.
func StillBlockedAfter[T any](c <-chan T, d time.Duration) bool {
	select {
	case <-c:
		return false
	case <-time.After(d):
		return true
	}
}
