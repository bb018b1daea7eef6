package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(Config{
		TickInterval: time.Millisecond,
		Publisher:    &fakePublisher{},
		Logger:       zap.NewNop(),
	})
}

func Test_Registry_Create_Rejects_Self_Match(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Create(playerA, playerA)

	require.ErrorIs(t, err, domain.ErrSelfMatch)
}

func Test_Registry_Create_Rejects_Player_Already_In_Match(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Create(playerA, playerB)
	require.NoError(t, err)

	_, err = registry.Create(playerA, 3)
	require.ErrorIs(t, err, domain.ErrAlreadyInMatch)

	_, err = registry.Create(3, playerB)
	require.ErrorIs(t, err, domain.ErrAlreadyInMatch)
}

func Test_Registry_Get_Returns_Live_Session(t *testing.T) {
	registry := newTestRegistry(t)

	session, err := registry.Create(playerA, playerB)
	require.NoError(t, err)

	found, err := registry.Get(session.ID())
	require.NoError(t, err)
	require.Same(t, session, found)

	_, err = registry.Get(uuid.New())
	require.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func Test_Registry_FindByPlayer_Locates_Session_For_Both_Players(t *testing.T) {
	registry := newTestRegistry(t)

	session, err := registry.Create(playerA, playerB)
	require.NoError(t, err)

	for _, userID := range []int64{playerA, playerB} {
		found, err := registry.FindByPlayer(userID)
		require.NoError(t, err)
		require.Same(t, session, found)
	}

	_, err = registry.FindByPlayer(99)
	require.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func Test_Registry_Remove_Is_Idempotent(t *testing.T) {
	registry := newTestRegistry(t)

	session, err := registry.Create(playerA, playerB)
	require.NoError(t, err)

	registry.Remove(session.ID())
	registry.Remove(session.ID())

	_, err = registry.Get(session.ID())
	require.ErrorIs(t, err, domain.ErrMatchNotFound)

	_, err = registry.FindByPlayer(playerA)
	require.ErrorIs(t, err, domain.ErrMatchNotFound)

	// Players are free to enter a new match once the old one is removed.
	_, err = registry.Create(playerA, playerB)
	require.NoError(t, err)
}

func Test_Registry_Restore_Forces_Match_Back_To_Paused(t *testing.T) {
	registry := newTestRegistry(t)

	state := domain.NewMatchState(uuid.New(), playerA, playerB)
	state.Status = domain.StatusPlaying
	state.ReadyA = true
	state.ScoreA = 4
	state.ScoreB = 7

	session, err := registry.Restore(state)
	require.NoError(t, err)

	snapshot, err := session.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, domain.StatusPaused, snapshot.Status)
	require.False(t, snapshot.ReadyA)
	require.False(t, snapshot.ReadyB)
	require.Equal(t, 4, snapshot.ScoreA)
	require.Equal(t, 7, snapshot.ScoreB)
}

func Test_Registry_Restore_Rejection_Leaves_State_Untouched(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Create(playerA, playerB)
	require.NoError(t, err)

	state := domain.NewMatchState(uuid.New(), playerA, 3)
	state.Status = domain.StatusPlaying
	state.ReadyA = true

	_, err = registry.Restore(state)

	require.ErrorIs(t, err, domain.ErrAlreadyInMatch)
	require.Equal(t, domain.StatusPlaying, state.Status)
	require.True(t, state.ReadyA)
}

func Test_Registry_Discard_Stops_Session_Without_Completion(t *testing.T) {
	fixture := newSessionFixture(t)

	session, err := fixture.registry.Create(playerA, playerB)
	require.NoError(t, err)

	fixture.registry.Discard(session.ID())

	_, err = fixture.registry.Get(session.ID())
	require.ErrorIs(t, err, domain.ErrMatchNotFound)

	_, err = fixture.registry.FindByPlayer(playerA)
	require.ErrorIs(t, err, domain.ErrMatchNotFound)

	require.Eventually(t, func() bool {
		return errors.Is(session.SetReady(context.Background(), playerA), domain.ErrMatchNotFound)
	}, 2*time.Second, 5*time.Millisecond, "session loop kept accepting commands after discard")

	// A discarded session must not look like a finished match.
	select {
	case <-fixture.finished:
		t.Fatal("discarded session ran the completion hook")
	default:
	}
	require.Zero(t, fixture.publisher.count(core.EventMatchEnded))

	// Both players are immediately free to enter a new match.
	_, err = fixture.registry.Create(playerA, playerB)
	require.NoError(t, err)
}
