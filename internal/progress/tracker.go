// Package progress tracks the state of running imports and pushes updates
// to subscribers. Records are kept per run ID with their own lock so two
// runs never contend.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/ameyrk/gutengo/internal/models"
)

// Retention windows before a terminal record is reaped. Cancellation cleanup
// is prompt; completed and failed records linger so late pollers still see
// the outcome.
const (
	CancelledRetention = 60 * time.Second
	FinishedRetention  = 300 * time.Second
)

type entry struct {
	mu          sync.Mutex
	record      models.ProgressRecord
	result      *models.ImportResult
	subscribers map[chan models.ProgressEvent]struct{}
	reapAt      time.Time
}

// Tracker is the process-wide run store. The zero value is not usable; use
// NewTracker.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Init creates the record for a new run in the idle state. A run ID that is
// still present, terminal or not, is a collision.
func (t *Tracker) Init(runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[runID]; exists {
		return fmt.Errorf("run %q already exists", runID)
	}
	now := t.now()
	t.entries[runID] = &entry{
		record: models.ProgressRecord{
			RunID:       runID,
			State:       models.StateIdle,
			Message:     "Queued",
			StartedAt:   now,
			UpdatedAt:   now,
			Cancellable: true,
		},
		subscribers: make(map[chan models.ProgressEvent]struct{}),
	}
	return nil
}

func (t *Tracker) lookup(runID string) *entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[runID]
}

// Update transitions the run. It reports false when the record is missing,
// already terminal, or cancelled; the orchestrator must stop on false.
// Percent is clamped to [0,100].
func (t *Tracker) Update(runID string, state models.ImportState, percent int, message, details string) bool {
	e := t.lookup(runID)
	if e == nil {
		return false
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	e.mu.Lock()
	if e.record.Cancelled || e.record.State.Terminal() {
		e.mu.Unlock()
		return false
	}
	e.record.State = state
	e.record.Percent = percent
	e.record.Message = message
	e.record.Details = details
	e.bumpUpdatedAt(t.now())
	if state.Terminal() {
		e.record.Cancellable = false
		e.reapAt = t.now().Add(FinishedRetention)
	}
	event := e.eventLocked()
	subs := e.subscriberListLocked()
	e.mu.Unlock()

	publish(subs, event)
	return true
}

// Fail marks the run failed with the given error message.
func (t *Tracker) Fail(runID, errMsg string) bool {
	e := t.lookup(runID)
	if e == nil {
		return false
	}

	e.mu.Lock()
	if e.record.Cancelled || e.record.State.Terminal() {
		e.mu.Unlock()
		return false
	}
	e.record.State = models.StateFailed
	e.record.Message = "Import failed"
	e.record.Error = errMsg
	e.record.Cancellable = false
	e.bumpUpdatedAt(t.now())
	e.reapAt = t.now().Add(FinishedRetention)
	event := models.ProgressEvent{Event: "failed", RunID: runID, Message: errMsg}
	subs := e.subscriberListLocked()
	e.mu.Unlock()

	publish(subs, event)
	return true
}

// Complete marks the run completed and attaches the result payload.
func (t *Tracker) Complete(runID string, result *models.ImportResult) bool {
	e := t.lookup(runID)
	if e == nil {
		return false
	}

	e.mu.Lock()
	if e.record.Cancelled || e.record.State.Terminal() {
		e.mu.Unlock()
		return false
	}
	e.record.State = models.StateCompleted
	e.record.Percent = 100
	e.record.Message = "Import completed"
	e.record.Cancellable = false
	e.result = result
	e.bumpUpdatedAt(t.now())
	e.reapAt = t.now().Add(FinishedRetention)
	event := models.ProgressEvent{Event: "completed", RunID: runID, Result: result}
	subs := e.subscriberListLocked()
	e.mu.Unlock()

	publish(subs, event)
	return true
}

// Cancel requests cooperative cancellation. It reports false when the record
// is missing or no longer cancellable. The orchestrator observes the flag at
// its next phase boundary.
func (t *Tracker) Cancel(runID string) bool {
	e := t.lookup(runID)
	if e == nil {
		return false
	}

	e.mu.Lock()
	if !e.record.Cancellable || e.record.State.Terminal() {
		e.mu.Unlock()
		return false
	}
	e.record.Cancelled = true
	e.record.State = models.StateCancelled
	e.record.Message = "Import cancelled"
	e.record.Cancellable = false
	e.bumpUpdatedAt(t.now())
	e.reapAt = t.now().Add(CancelledRetention)
	event := models.ProgressEvent{Event: "cancelled", RunID: runID}
	subs := e.subscriberListLocked()
	e.mu.Unlock()

	publish(subs, event)
	return true
}

// Cancelled reports whether a cancel request has been recorded for the run.
func (t *Tracker) Cancelled(runID string) bool {
	e := t.lookup(runID)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.Cancelled
}

// Get returns a snapshot copy of the record.
func (t *Tracker) Get(runID string) (models.ProgressRecord, bool) {
	e := t.lookup(runID)
	if e == nil {
		return models.ProgressRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record, true
}

// Result returns the run's result payload once completed.
func (t *Tracker) Result(runID string) (*models.ImportResult, bool) {
	e := t.lookup(runID)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.result != nil
}

// Subscribe registers a channel that receives every subsequent event for the
// run, starting with a snapshot of the current state. The channel is
// buffered; slow consumers drop events rather than block the pipeline.
func (t *Tracker) Subscribe(runID string) (chan models.ProgressEvent, bool) {
	e := t.lookup(runID)
	if e == nil {
		return nil, false
	}

	ch := make(chan models.ProgressEvent, 16)
	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	snapshot := e.snapshotEventLocked()
	e.mu.Unlock()

	ch <- snapshot
	return ch, true
}

// Unsubscribe removes the channel. Safe to call after the record was reaped.
func (t *Tracker) Unsubscribe(runID string, ch chan models.ProgressEvent) {
	e := t.lookup(runID)
	if e == nil {
		return
	}
	e.mu.Lock()
	delete(e.subscribers, ch)
	e.mu.Unlock()
}

// Reap removes the record immediately.
func (t *Tracker) Reap(runID string) {
	t.mu.Lock()
	delete(t.entries, runID)
	t.mu.Unlock()
}

// Sweep removes every terminal record whose retention window has passed.
// Wired to a recurring job; returns the number of reaped records.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	reaped := 0
	for runID, e := range t.entries {
		e.mu.Lock()
		expired := e.record.State.Terminal() && !e.reapAt.IsZero() && now.After(e.reapAt)
		e.mu.Unlock()
		if expired {
			delete(t.entries, runID)
			reaped++
		}
	}
	return reaped
}

// bumpUpdatedAt keeps updated_at monotonically non-decreasing even when the
// clock steps backwards.
func (e *entry) bumpUpdatedAt(now time.Time) {
	if now.Before(e.record.UpdatedAt) {
		now = e.record.UpdatedAt
	}
	e.record.UpdatedAt = now
}

func (e *entry) eventLocked() models.ProgressEvent {
	record := e.record
	return models.ProgressEvent{Event: "progress", RunID: record.RunID, Record: &record}
}

// snapshotEventLocked names the event after the record's state so a late
// subscriber to a finished run still receives the proper terminal event.
func (e *entry) snapshotEventLocked() models.ProgressEvent {
	record := e.record
	event := models.ProgressEvent{Event: "progress", RunID: record.RunID, Record: &record}
	switch record.State {
	case models.StateCompleted:
		event.Event = "completed"
		event.Result = e.result
	case models.StateFailed:
		event.Event = "failed"
		event.Message = record.Error
	case models.StateCancelled:
		event.Event = "cancelled"
	}
	return event
}

func (e *entry) subscriberListLocked() []chan models.ProgressEvent {
	subs := make([]chan models.ProgressEvent, 0, len(e.subscribers))
	for ch := range e.subscribers {
		subs = append(subs, ch)
	}
	return subs
}

func publish(subs []chan models.ProgressEvent, event models.ProgressEvent) {
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
