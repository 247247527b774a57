// Package clockx provides an injectable Clock capability in place of a
// process-global `time.Now()`, so RequestValve's lock/staleness windows
// can be tested deterministically without sleeping or monkey-patching a
// package-level clock.
package clockx

import (
	"time"

	"github.com/dmagro/ethlog/internal/ethval"
)

// Clock reports the current time as an ethval.Timestamp.
type Clock interface {
	Now() ethval.Timestamp
}

// System is the production Clock, backed by the OS wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() ethval.Timestamp {
	return ethval.NewTimestamp(uint64(time.Now().UnixMilli()))
}

// Fake is a deterministic Clock for tests: it reports whatever time
// was last set, advancing only when told to.
type Fake struct {
	t ethval.Timestamp
}

// NewFake creates a Fake clock starting at t.
func NewFake(t ethval.Timestamp) *Fake { return &Fake{t: t} }

// Now returns the clock's current stored time.
func (f *Fake) Now() ethval.Timestamp { return f.t }

// Advance moves the clock forward by d.
func (f *Fake) Advance(d ethval.Timespan) { f.t = f.t.Add(d) }

// Set pins the clock to an exact time.
func (f *Fake) Set(t ethval.Timestamp) { f.t = t }
