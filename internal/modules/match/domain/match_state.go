package domain

import (
	"github.com/google/uuid"
)

// Status is the lifecycle stage of a match. Matches start Paused, alternate
// between Paused and Playing, and end in Over. Over is terminal.
type Status string

const (
	StatusPaused  Status = "paused"
	StatusPlaying Status = "playing"
	StatusOver    Status = "over"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// MatchState is the authoritative state of one match. It is owned exclusively
// by the match session while the match is live - all mutation goes through the
// session's serialized command path.
type MatchState struct {
	ID      uuid.UUID
	PlayerA int64
	PlayerB int64

	ScoreA int
	ScoreB int

	PaddleA float64
	PaddleB float64

	Ball     Ball
	Velocity Velocity

	Status Status
	ReadyA bool
	ReadyB bool

	// Winner is zero until the match is over.
	Winner int64
}

func NewMatchState(id uuid.UUID, playerA, playerB int64) *MatchState {
	centeredPaddle := (BottomBoundary-TopBoundary)/2 - PaddleHeight/2

	return &MatchState{
		ID:       id,
		PlayerA:  playerA,
		PlayerB:  playerB,
		PaddleA:  centeredPaddle,
		PaddleB:  centeredPaddle,
		Ball:     DefaultBallPosition,
		Velocity: DefaultVelocity,
		Status:   StatusPaused,
	}
}

func (s *MatchState) IsParticipant(userID int64) bool {
	return userID == s.PlayerA || userID == s.PlayerB
}

func (s *MatchState) opponent(userID int64) int64 {
	if userID == s.PlayerA {
		return s.PlayerB
	}
	return s.PlayerA
}

// SetReady marks the caller ready while paused. When both players are ready
// the match transitions to Playing and both flags reset.
func (s *MatchState) SetReady(userID int64) error {
	if !s.IsParticipant(userID) {
		return ErrInvalidParticipant
	}
	if s.Status != StatusPaused {
		return ErrInvalidStateTransition
	}

	if userID == s.PlayerA {
		s.ReadyA = true
	} else {
		s.ReadyB = true
	}

	if s.ReadyA && s.ReadyB {
		s.Status = StatusPlaying
		s.ReadyA = false
		s.ReadyB = false
	}

	return nil
}

// Pause suspends a playing match and clears both readiness flags. Pausing an
// already paused match is an error, not a no-op.
func (s *MatchState) Pause(userID int64) error {
	if !s.IsParticipant(userID) {
		return ErrInvalidParticipant
	}
	if s.Status != StatusPlaying {
		return ErrInvalidStateTransition
	}

	s.Status = StatusPaused
	s.ReadyA = false
	s.ReadyB = false

	return nil
}

// Abandon ends the match immediately with the other participant as winner.
func (s *MatchState) Abandon(userID int64) error {
	if !s.IsParticipant(userID) {
		return ErrInvalidParticipant
	}
	if s.Status == StatusOver {
		return ErrInvalidStateTransition
	}

	s.Status = StatusOver
	s.Winner = s.opponent(userID)

	return nil
}

// MovePaddle moves the caller's paddle one discrete step, clamped to the
// court. Only valid while playing.
func (s *MatchState) MovePaddle(userID int64, direction Direction) error {
	if !s.IsParticipant(userID) {
		return ErrInvalidParticipant
	}
	if s.Status != StatusPlaying {
		return ErrInvalidStateTransition
	}

	if userID == s.PlayerA {
		s.PaddleA = movedPaddle(s.PaddleA, direction)
	} else {
		s.PaddleB = movedPaddle(s.PaddleB, direction)
	}

	return nil
}

func movedPaddle(paddleY float64, direction Direction) float64 {
	switch direction {
	case DirectionUp:
		if paddleY-PaddleStep > TopBoundary {
			return paddleY - PaddleStep
		}
	case DirectionDown:
		if paddleY+PaddleHeight+PaddleStep < BottomBoundary {
			return paddleY + PaddleStep
		}
	}
	return paddleY
}

// Apply folds one simulation step into the state. Reaching the winning score
// ends the match on the same tick.
func (s *MatchState) Apply(result StepResult) {
	s.Ball = result.Ball
	s.Velocity = result.Velocity

	switch result.Score {
	case ScoreA:
		s.ScoreA++
	case ScoreB:
		s.ScoreB++
	}

	if s.ScoreA >= WinningScore {
		s.Status = StatusOver
		s.Winner = s.PlayerA
	} else if s.ScoreB >= WinningScore {
		s.Status = StatusOver
		s.Winner = s.PlayerB
	}
}

// Snapshot is the externally visible view of a match, published to the match
// room on every tick and served on HTTP reads.
type Snapshot struct {
	ID      uuid.UUID `json:"id"`
	PlayerA int64     `json:"playerA"`
	PlayerB int64     `json:"playerB"`
	ScoreA  int       `json:"scoreA"`
	ScoreB  int       `json:"scoreB"`
	PaddleA float64   `json:"paddleA"`
	PaddleB float64   `json:"paddleB"`
	Ball    Ball      `json:"ball"`
	Status  Status    `json:"status"`
	ReadyA  bool      `json:"readyA"`
	ReadyB  bool      `json:"readyB"`
	Winner  int64     `json:"winner,omitempty"`
}

func (s *MatchState) Snapshot() Snapshot {
	return Snapshot{
		ID:      s.ID,
		PlayerA: s.PlayerA,
		PlayerB: s.PlayerB,
		ScoreA:  s.ScoreA,
		ScoreB:  s.ScoreB,
		PaddleA: s.PaddleA,
		PaddleB: s.PaddleB,
		Ball:    s.Ball,
		Status:  s.Status,
		ReadyA:  s.ReadyA,
		ReadyB:  s.ReadyB,
		Winner:  s.Winner,
	}
}
