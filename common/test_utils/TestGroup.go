package test_utils

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// Assertion is one link in a test group chain. Links without an assertion
// open a nested group; links with shouldAssert=false are operations whose
// result is ignored.
type Assertion struct {
	head         *Assertion
	id           string
	description  string
	assertion    func() bool
	shouldAssert bool
	next         *Assertion
}

type IAssertable interface {
	With(id string, description string) IAssertable
	Do(id string, description string, action func()) IAssertable
	Concurrently(id string, desc string, actions ...func()) IAssertable
	Then(id string, description string, assertion func() bool) IAssertable
	Cases(cases []*Assertion) IAssertable
	Run(t *testing.T)
}

func NewTestCase(id string, description string, assertion func() bool) *Assertion {
	a := &Assertion{
		id:           id,
		description:  description,
		assertion:    assertion,
		shouldAssert: true,
	}
	a.head = a
	return a
}

func NewTestGroup(id string, description string) IAssertable {
	a := &Assertion{
		id:          id,
		description: description,
	}
	a.head = a
	return a
}

func (a *Assertion) link(next *Assertion) *Assertion {
	next.head = a.head
	a.next = next
	return next
}

func (a *Assertion) With(id string, description string) IAssertable {
	return a.link(&Assertion{id: id, description: description})
}

func (a *Assertion) Do(id string, description string, action func()) IAssertable {
	return a.link(&Assertion{
		id:          id,
		description: description,
		assertion: func() bool {
			action()
			return true
		},
	})
}

func (a *Assertion) Concurrently(id string, desc string, actions ...func()) IAssertable {
	return a.Do(id, desc, func() {
		var wg sync.WaitGroup
		wg.Add(len(actions))
		for _, act := range actions {
			go func(action func()) {
				defer wg.Done()
				action()
			}(act)
		}
		wg.Wait()
	})
}

func (a *Assertion) Then(id string, description string, assertion func() bool) IAssertable {
	return a.link(&Assertion{
		id:           id,
		description:  description,
		assertion:    assertion,
		shouldAssert: true,
	})
}

func (a *Assertion) Cases(cases []*Assertion) IAssertable {
	curr := a
	for _, c := range cases {
		if c != nil {
			curr = curr.link(c)
		}
	}
	return curr
}

// Run walks the chain from its head in order; every asserting link is a
// subtest so failures are reported by case id.
func (a *Assertion) Run(t *testing.T) {
	t.Helper()
	startTime := time.Now()
	indent := 0
	for curr := a.head; curr != nil; curr = curr.next {
		switch {
		case curr.assertion == nil:
			t.Logf("%sgroup %s[%s]", indents(indent), curr.id, curr.description)
			indent += 2
		case curr.shouldAssert:
			assertCase(t, indent, curr)
		default:
			t.Logf("%soperation %s[%s]", indents(indent), curr.id, curr.description)
			curr.assertion()
		}
	}
	t.Log("all cases finished, overall runtime: ", time.Since(startTime))
}

func assertCase(t *testing.T, indent int, c *Assertion) {
	t.Helper()
	t.Run(c.id, func(t *testing.T) {
		if c.assertion() {
			t.Logf("%s✅ %s passed", indents(indent), c.id)
		} else {
			t.Errorf("%s❌ %s(%s) failed", indents(indent), c.id, c.description)
		}
	})
}

func indents(level int) string {
	return strings.Repeat(" ", level)
}
