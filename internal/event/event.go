// Package event implements the manual-reset and auto-reset signals that
// synchronize the fault handler with the trimmer and writer workers
// (spec.md §2, §4.3-4.5): redo_fault (manual), start_trim (auto) and
// start_write (auto). The manager models system_shutdown with context
// cancellation, not with an event from this package.
//
// The teacher's tinfo.Tnote_t pairs a sync.Mutex-guarded sync.Cond with
// a chan bool for its kill/resume signal (Killnaps). Manual below is
// built the way Killnaps.Cond is used (a state flag under the mutex,
// Broadcast on transition); Auto is built the way Killnaps.Killch is
// used (a channel consumed once per signal).
package event

import "sync"

// Manual is a manual-reset event: once Set, every current and future
// Wait returns immediately until Reset is called. Models redo_fault.
// Broadcasting is implemented by closing a channel
// (rather than sync.Cond) so Wait can be used alongside other channels
// in a select, the same rendezvous shape spec.md's
// WaitForMultipleObjects-style worker wakeups need.
type Manual struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
	gen uint64
}

// NewManual returns an unset manual-reset event.
func NewManual() *Manual {
	return &Manual{ch: make(chan struct{})}
}

// Set signals the event, waking every current and future waiter until
// Reset is called.
func (m *Manual) Set() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if !m.set {
		m.set = true
		close(m.ch)
	}
}

// Reset clears the event.
func (m *Manual) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set {
		m.set = false
		m.ch = make(chan struct{})
	}
}

// Wait blocks until the event is signalled.
func (m *Manual) Wait() {
	<-m.waitChan()
}

// Seq returns the event's current generation: a count of how many times
// Set has been called. Callers that pulse-wait (check a condition, then
// wait for the next signal if it doesn't hold) must capture Seq before
// checking the condition and pass it to WaitSince, not call Wait
// directly — otherwise a Set/Reset pulse that lands between the check
// and the wait call is missed entirely, since by the time Wait observes
// the event it may already have been reset.
func (m *Manual) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// WaitSince blocks until the event has been set at least once since the
// generation returned by an earlier Seq call, or is currently set. This
// is immune to the pulse race Wait alone is subject to: Set always
// advances the generation before (and regardless of) any matching
// Reset, so a pulse that completes entirely before WaitSince is even
// entered is still observed as "since has passed" rather than blocking
// forever.
func (m *Manual) WaitSince(since uint64) {
	m.mu.Lock()
	for !m.set && m.gen == since {
		ch := m.ch
		m.mu.Unlock()
		<-ch
		m.mu.Lock()
	}
	m.mu.Unlock()
}

// WaitChan returns a channel that closes when the event is signalled,
// for use in a select alongside other events.
func (m *Manual) WaitChan() <-chan struct{} {
	return m.waitChan()
}

func (m *Manual) waitChan() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch
}

// IsSet reports whether the event is currently signalled.
func (m *Manual) IsSet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

// Auto is an auto-reset event: a Signal wakes exactly one Wait call,
// after which the event is immediately reset. Models start_trim and
// start_write. Signals are coalesced — calling Signal repeatedly before
// any Wait still only wakes one waiter once, matching a Win32 auto-reset
// event's semantics (signals are not queued).
type Auto struct {
	ch chan struct{}
}

// NewAuto returns an unsignalled auto-reset event.
func NewAuto() *Auto {
	return &Auto{ch: make(chan struct{}, 1)}
}

// Signal wakes one waiter. If nobody is currently waiting, the signal
// is remembered for the next Wait call (and only that one).
func (a *Auto) Signal() {
	select {
	case a.ch <- struct{}{}:
	default:
		// already signalled and not yet consumed
	}
}

// Wait blocks until Signal is called, consuming the signal.
func (a *Auto) Wait() {
	<-a.ch
}

// WaitChan exposes the underlying channel for use in a select alongside
// other events (e.g. system_shutdown), matching the
// WaitForMultipleObjects-style rendezvous spec.md describes for workers.
func (a *Auto) WaitChan() <-chan struct{} {
	return a.ch
}
