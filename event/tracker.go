package event

import (
	"strings"
)

// Tracker observes the data an event owns. Acquire is called for every owned
// field copied at construction, Release once for each of them when the
// event is disposed or when construction fails half way.
type Tracker interface {
	Acquire(field string)
	Release(field string)
}

type nopTracker struct{}

func (nopTracker) Acquire(string) {}
func (nopTracker) Release(string) {}

// Option configures a new event.
type Option func(*Event)

// WithTracker installs t as the ownership tracker of the event.
func WithTracker(t Tracker) Option {
	return func(e *Event) {
		e.tracker = t
	}
}

// acquirer copies owned fields and remembers them so a failed construction
// can hand everything back.
type acquirer struct {
	t    Tracker
	held []string
}

func (a *acquirer) str(field, s string) string {
	a.t.Acquire(field)
	a.held = append(a.held, field)
	return strings.Clone(s)
}

func (a *acquirer) mark(field string) {
	a.t.Acquire(field)
	a.held = append(a.held, field)
}

func (a *acquirer) rollback() {
	for i := len(a.held) - 1; i >= 0; i-- {
		a.t.Release(a.held[i])
	}
	a.held = nil
}
