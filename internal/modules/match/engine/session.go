package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTickInterval = 10 * time.Millisecond

// Config carries the dependencies shared by every session a registry creates.
type Config struct {
	TickInterval time.Duration
	Publisher    core.Publisher
	Logger       *zap.Logger

	// OnFinished runs once, inside the session goroutine, after the match
	// reaches Over and the terminal event has been published. It is where
	// persistence and registry teardown are hooked in.
	OnFinished func(domain.Snapshot)
}

type sessionCommand struct {
	apply func() error
	reply chan error
}

// Session exclusively owns one MatchState. Every external command is funneled
// through a single channel drained by one goroutine, which also runs the tick
// timer - commands and ticks never interleave.
type Session struct {
	id      uuid.UUID
	playerA int64
	playerB int64

	state    *domain.MatchState
	commands chan sessionCommand
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	tickInterval time.Duration
	publisher    core.Publisher
	logger       *zap.Logger
	rand         *rand.Rand
	onFinished   func(domain.Snapshot)
}

func newSession(state *domain.MatchState, cfg Config) *Session {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		id:           state.ID,
		playerA:      state.PlayerA,
		playerB:      state.PlayerB,
		state:        state,
		commands:     make(chan sessionCommand),
		done:         make(chan struct{}),
		quit:         make(chan struct{}),
		tickInterval: tick,
		publisher:    cfg.Publisher,
		logger:       logger.With(zap.String("match_id", state.ID.String())),
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		onFinished:   cfg.OnFinished,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Players() (int64, int64) {
	return s.playerA, s.playerB
}

func (s *Session) MovePaddle(ctx context.Context, userID int64, direction domain.Direction) error {
	return s.do(ctx, func() error {
		return s.state.MovePaddle(userID, direction)
	})
}

func (s *Session) SetReady(ctx context.Context, userID int64) error {
	return s.do(ctx, func() error {
		return s.state.SetReady(userID)
	})
}

func (s *Session) Pause(ctx context.Context, userID int64) error {
	return s.do(ctx, func() error {
		return s.state.Pause(userID)
	})
}

func (s *Session) Abandon(ctx context.Context, userID int64) error {
	return s.do(ctx, func() error {
		return s.state.Abandon(userID)
	})
}

// Snapshot reads a consistent view of the state through the serialized
// command path.
func (s *Session) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := s.do(ctx, func() error {
		snapshot = s.state.Snapshot()
		return nil
	})
	return snapshot, err
}

// do submits a command and waits for its result. Commands sent to a finished
// session fail with ErrMatchNotFound - the registry entry is gone by then.
func (s *Session) do(ctx context.Context, apply func() error) error {
	cmd := sessionCommand{apply: apply, reply: make(chan error, 1)}

	select {
	case s.commands <- cmd:
	case <-s.done:
		return domain.ErrMatchNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- cmd.apply()
			if s.state.Status == domain.StatusOver {
				s.finish()
				return
			}
		case <-ticker.C:
			if s.state.Status != domain.StatusPlaying {
				continue
			}
			s.tick()
			if s.state.Status == domain.StatusOver {
				s.finish()
				return
			}
			s.publish(core.EventMatchUpdated, s.state.Snapshot())
		case <-s.quit:
			close(s.done)
			return
		}
	}
}

// close stops the loop without publishing a terminal event or running the
// completion hook. Only for sessions that never became durable.
func (s *Session) close() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}

// tick runs one simulation step. A panic in a single tick is logged and the
// loop carries on - one bad tick must not abandon two players' match.
func (s *Session) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tick failed", zap.Any("panic", r))
		}
	}()

	result := domain.Step(s.state.Ball, s.state.Velocity, s.state.PaddleA, s.state.PaddleB, s.rand.Intn)
	s.state.Apply(result)
}

// finish publishes the terminal event and hands the final snapshot to the
// completion hook. Closing done first guarantees no further command can be
// accepted once teardown begins.
func (s *Session) finish() {
	close(s.done)

	snapshot := s.state.Snapshot()
	s.publish(core.EventMatchEnded, snapshot)

	if s.onFinished != nil {
		s.onFinished(snapshot)
	}
}

func (s *Session) publish(event string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event, payload, s.playerA, s.playerB); err != nil {
		s.logger.Warn("publish failed", zap.String("event", event), zap.Error(err))
	}
}
