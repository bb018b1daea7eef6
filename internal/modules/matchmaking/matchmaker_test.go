package matchmaking

import (
	"testing"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}, ...int64) error { return nil }

func newTestMatchmaker(t *testing.T) (*Matchmaker, *engine.Registry) {
	t.Helper()
	registry := engine.NewRegistry(engine.Config{
		TickInterval: time.Millisecond,
		Publisher:    nopPublisher{},
		Logger:       zap.NewNop(),
	})
	return NewMatchmaker(registry), registry
}

func Test_Enqueue_Single_User_Waits(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	session, err := matchmaker.Enqueue(1)

	require.NoError(t, err)
	require.Nil(t, session)
	require.True(t, matchmaker.Queued(1))
}

func Test_Enqueue_Pairs_Two_Oldest_Users_In_FIFO_Order(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	_, err := matchmaker.Enqueue(1)
	require.NoError(t, err)

	session, err := matchmaker.Enqueue(2)
	require.NoError(t, err)
	require.NotNil(t, session)

	playerA, playerB := session.Players()
	require.Equal(t, int64(1), playerA, "first queued user must become player A")
	require.Equal(t, int64(2), playerB)

	require.False(t, matchmaker.Queued(1))
	require.False(t, matchmaker.Queued(2))
}

func Test_Enqueue_Third_User_Starts_A_New_Queue(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	_, err := matchmaker.Enqueue(1)
	require.NoError(t, err)
	_, err = matchmaker.Enqueue(2)
	require.NoError(t, err)

	session, err := matchmaker.Enqueue(3)
	require.NoError(t, err)
	require.Nil(t, session)
	require.True(t, matchmaker.Queued(3))
}

func Test_Enqueue_Rejects_User_Already_Queued(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	_, err := matchmaker.Enqueue(1)
	require.NoError(t, err)

	_, err = matchmaker.Enqueue(1)
	require.ErrorIs(t, err, ErrAlreadyQueued)
}

func Test_Enqueue_Rejects_User_In_Live_Match(t *testing.T) {
	matchmaker, registry := newTestMatchmaker(t)

	_, err := registry.Create(1, 2)
	require.NoError(t, err)

	_, err = matchmaker.Enqueue(1)
	require.ErrorIs(t, err, domain.ErrAlreadyInMatch)
	require.False(t, matchmaker.Queued(1))
}

func Test_Dequeue_Removes_User_Preserving_Order(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	_, err := matchmaker.Enqueue(1)
	require.NoError(t, err)

	matchmaker.Dequeue(1)
	require.False(t, matchmaker.Queued(1))

	// 2 becomes the oldest waiter and pairs with 3.
	_, err = matchmaker.Enqueue(2)
	require.NoError(t, err)

	session, err := matchmaker.Enqueue(3)
	require.NoError(t, err)
	require.NotNil(t, session)

	playerA, _ := session.Players()
	require.Equal(t, int64(2), playerA)
}

func Test_Dequeue_Is_Idempotent(t *testing.T) {
	matchmaker, _ := newTestMatchmaker(t)

	matchmaker.Dequeue(42)
	matchmaker.Dequeue(42)

	require.False(t, matchmaker.Queued(42))
}
