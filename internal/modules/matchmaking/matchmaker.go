package matchmaking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
)

var ErrAlreadyQueued = errors.New("user is already in the matchmaking queue")

// Matchmaker holds the FIFO queue of users waiting to be paired. The queue is
// process-wide, in-memory state - membership is not meaningful across a
// restart, so it starts empty on every process start. One mutex serializes
// all mutation, preserving FIFO order and the one-entry-per-user invariant.
type Matchmaker struct {
	mu       sync.Mutex
	queue    []int64
	registry *engine.Registry
}

func NewMatchmaker(registry *engine.Registry) *Matchmaker {
	return &Matchmaker{registry: registry}
}

// Enqueue adds the user to the queue and, once two users are waiting, pairs
// the two oldest entries into a new match. Returns the new session when the
// caller's enqueue completed a pair, nil when the caller is left waiting.
// Pairing is strict FIFO - no skill matching, no randomization.
func (m *Matchmaker) Enqueue(userID int64) (*engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, queued := range m.queue {
		if queued == userID {
			return nil, ErrAlreadyQueued
		}
	}

	if _, err := m.registry.FindByPlayer(userID); err == nil {
		return nil, domain.ErrAlreadyInMatch
	}

	m.queue = append(m.queue, userID)
	if len(m.queue) < 2 {
		return nil, nil
	}

	playerA, playerB := m.queue[0], m.queue[1]
	m.queue = m.queue[2:]

	// Unreachable while the AlreadyQueued check holds. If it ever trips, the
	// queue invariant is broken and the pairing must fail loudly rather than
	// create a self-match.
	if playerA == playerB {
		return nil, fmt.Errorf("matchmaking queue contained user %d twice: %w", playerA, domain.ErrSelfMatch)
	}

	return m.registry.Create(playerA, playerB)
}

// Dequeue removes the user from the queue if present. Leaving a queue you are
// not in is a no-op.
func (m *Matchmaker) Dequeue(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, queued := range m.queue {
		if queued == userID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// Queued reports whether the user is currently waiting.
func (m *Matchmaker) Queued(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, queued := range m.queue {
		if queued == userID {
			return true
		}
	}
	return false
}
