package spin

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/house-of-voi/hov-engine/betkey"
	"github.com/house-of-voi/hov-engine/errors"
)

// Queue is the in-memory spin queue for one player session. Only the
// bridge's command handlers mutate it; reads return copies so callers
// never observe concurrent mutation.
type Queue struct {
	mu       sync.Mutex
	spins    map[string]*QueuedSpin
	order    []string
	selected string
	now      func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		spins: make(map[string]*QueuedSpin),
		now:   time.Now,
	}
}

// Enqueue adds a new Pending spin and returns its opaque id.
func (q *Queue) Enqueue(machineID string, betAmount, paylines uint64) *QueuedSpin {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	s := &QueuedSpin{
		ID:        uuid.NewString(),
		MachineID: machineID,
		BetAmount: betAmount,
		Paylines:  paylines,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.spins[s.ID] = s
	q.order = append(q.order, s.ID)

	out := *s
	return &out
}

// Restore replaces the queue contents with a persisted snapshot. Used
// when a reconnecting session resumes its in-flight spins.
func (q *Queue) Restore(spins []QueuedSpin) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.spins = make(map[string]*QueuedSpin, len(spins))
	q.order = make([]string, 0, len(spins))
	q.selected = ""
	for i := range spins {
		s := spins[i]
		q.spins[s.ID] = &s
		q.order = append(q.order, s.ID)
	}
}

// Get returns a copy of the spin with the given id.
func (q *Queue) Get(id string) (QueuedSpin, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[id]
	if !ok {
		return QueuedSpin{}, errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	return *s, nil
}

// MarkSubmitted moves a Pending spin to Submitted, recording the bet
// key the wallet produced and the block after which the outcome can be
// claimed.
func (q *Queue) MarkSubmitted(id string, key betkey.BetKey, claimBlock uint64) error {
	return q.transition(id, StatusPending, func(s *QueuedSpin) {
		s.Status = StatusSubmitted
		s.BetKey = key
		s.ClaimBlock = claimBlock
	})
}

// Complete moves a Submitted spin to Completed with its verified
// outcome.
func (q *Queue) Complete(id string, outcome Outcome) error {
	return q.transition(id, StatusSubmitted, func(s *QueuedSpin) {
		s.Status = StatusCompleted
		s.Outcome = &outcome
	})
}

// Fail moves a Pending or Submitted spin to Failed with the error that
// killed it.
func (q *Queue) Fail(id string, code int, msg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[id]
	if !ok {
		return errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	if s.Status.Terminal() {
		return errors.Newf(errors.ErrSpinState, "spin %s is already %s", id, s.Status)
	}
	s.Status = StatusFailed
	s.FailureCode = code
	s.FailureMsg = msg
	s.UpdatedAt = q.now()
	return nil
}

// Expire moves a Pending or Submitted spin to Expired.
func (q *Queue) Expire(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[id]
	if !ok {
		return errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	if s.Status.Terminal() {
		return errors.Newf(errors.ErrSpinState, "spin %s is already %s", id, s.Status)
	}
	s.Status = StatusExpired
	s.UpdatedAt = q.now()
	return nil
}

// Abandon removes a Pending spin from the queue entirely. A Submitted
// spin has a transaction in flight and cannot be abandoned.
func (q *Queue) Abandon(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[id]
	if !ok {
		return errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	if s.Status != StatusPending {
		return errors.Newf(errors.ErrSpinState, "only pending spins can be abandoned, spin %s is %s", id, s.Status)
	}
	delete(q.spins, id)
	q.order = lo.Without(q.order, id)
	if q.selected == id {
		q.selected = ""
	}
	return nil
}

// Select marks one spin for manual outcome resolution, deselecting any
// previously selected spin.
func (q *Queue) Select(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.spins[id]; !ok {
		return errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	q.selected = id
	return nil
}

// Selected returns the currently selected spin, if any.
func (q *Queue) Selected() (QueuedSpin, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[q.selected]
	if !ok {
		return QueuedSpin{}, false
	}
	return *s, true
}

// Snapshot returns copies of all spins in enqueue order.
func (q *Queue) Snapshot() []QueuedSpin {
	q.mu.Lock()
	defer q.mu.Unlock()

	return lo.Map(q.order, func(id string, _ int) QueuedSpin {
		return *q.spins[id]
	})
}

// Clear drops every terminal spin from the queue. Active spins stay.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	q.order = lo.Filter(q.order, func(id string, _ int) bool {
		s := q.spins[id]
		if !s.Status.Terminal() {
			return true
		}
		delete(q.spins, id)
		if q.selected == id {
			q.selected = ""
		}
		removed++
		return false
	})
	return removed
}

// ExpireOverdue expires every non-terminal spin older than maxAge and
// returns the ids it expired.
func (q *Queue) ExpireOverdue(maxAge time.Duration) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	expired := make([]string, 0)
	for _, id := range q.order {
		s := q.spins[id]
		if s.Status.Terminal() {
			continue
		}
		if now.Sub(s.CreatedAt) > maxAge {
			s.Status = StatusExpired
			s.UpdatedAt = now
			expired = append(expired, id)
		}
	}
	return expired
}

func (q *Queue) transition(id string, from Status, apply func(*QueuedSpin)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.spins[id]
	if !ok {
		return errors.Newf(errors.ErrSpinNotFound, "spin %s not found", id)
	}
	if s.Status != from {
		return errors.Newf(errors.ErrSpinState, "spin %s is %s, expected %s", id, s.Status, from)
	}
	apply(s)
	s.UpdatedAt = q.now()
	return nil
}
