package engine

import (
	"sync"

	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"

	"github.com/google/uuid"
)

// Registry is the single authoritative ownership map for live sessions. A
// user id appears in at most one live session at a time - Create atomically
// checks and inserts under one lock.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	players  map[int64]uuid.UUID
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
		players:  make(map[int64]uuid.UUID),
	}
}

// Create starts a new session for the pair. Fails with ErrAlreadyInMatch if
// either player already owns a live session.
func (r *Registry) Create(playerA, playerB int64) (*Session, error) {
	if playerA == playerB {
		return nil, domain.ErrSelfMatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.players[playerA]; found {
		return nil, domain.ErrAlreadyInMatch
	}
	if _, found := r.players[playerB]; found {
		return nil, domain.ErrAlreadyInMatch
	}

	state := domain.NewMatchState(uuid.New(), playerA, playerB)
	return r.insertLocked(state), nil
}

// Restore re-creates a session for a match that survived a restart. The match
// comes back Paused with readiness cleared - readiness cannot be assumed to
// have survived the restart.
func (r *Registry) Restore(state *domain.MatchState) (*Session, error) {
	if state.PlayerA == state.PlayerB {
		return nil, domain.ErrSelfMatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.players[state.PlayerA]; found {
		return nil, domain.ErrAlreadyInMatch
	}
	if _, found := r.players[state.PlayerB]; found {
		return nil, domain.ErrAlreadyInMatch
	}

	// Mutated only after the guards pass - a rejected state goes back to the
	// caller unchanged.
	state.Status = domain.StatusPaused
	state.ReadyA = false
	state.ReadyB = false

	return r.insertLocked(state), nil
}

func (r *Registry) insertLocked(state *domain.MatchState) *Session {
	session := newSession(state, r.cfg)
	r.sessions[session.id] = session
	r.players[session.playerA] = session.id
	r.players[session.playerB] = session.id

	go session.run()

	return session
}

func (r *Registry) Get(matchID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.sessions[matchID]
	if !found {
		return nil, domain.ErrMatchNotFound
	}
	return session, nil
}

// FindByPlayer returns the live session the user participates in. Used to
// resume after reconnect and to block re-entry into matchmaking and invites.
func (r *Registry) FindByPlayer(userID int64) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchID, found := r.players[userID]
	if !found {
		return nil, domain.ErrMatchNotFound
	}
	return r.sessions[matchID], nil
}

// Remove drops a finished session from the registry. Idempotent.
func (r *Registry) Remove(matchID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.sessions[matchID]
	if !found {
		return
	}

	delete(r.sessions, matchID)
	delete(r.players, session.playerA)
	delete(r.players, session.playerB)
}

// Discard removes a session that never became durable and stops its loop
// without publishing a terminal event or running the completion hook. Used
// when persisting the match fails right after creation.
func (r *Registry) Discard(matchID uuid.UUID) {
	r.mu.Lock()
	session, found := r.sessions[matchID]
	if found {
		delete(r.sessions, matchID)
		delete(r.players, session.playerA)
		delete(r.players, session.playerB)
	}
	r.mu.Unlock()

	if found {
		session.close()
	}
}
