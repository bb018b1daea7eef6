package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	matchdomain "github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type eventEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func dialWebsocket(t *testing.T, userID int64) *websocket.Conn {
	header := http.Header{}
	header.Set(core.UserIDHeader, fmt.Sprintf("%d", userID))

	conn, _, err := websocket.DefaultDialer.Dial(fixture.wsURL, header)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

// readEvent reads frames until one matches the wanted event. Tick snapshots
// arrive continuously once a match is playing, so filtering is required.
func readEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for time.Now().Before(deadline) {
		var envelope eventEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			t.Fatalf("reading websocket event %q: %v", event, err)
		}

		if envelope.Event == event {
			return envelope.Payload
		}
	}

	t.Fatalf("no %q event received before deadline", event)
	return nil
}

func Test_Websocket_Receives_Match_Pairing_Event(t *testing.T) {
	// Arrange
	playerA := newUserID()
	playerB := newUserID()

	connA := dialWebsocket(t, playerA)

	// Act
	waiting := enterMatchmaking(t, playerA)
	require.Nil(t, waiting.Match)

	paired := enterMatchmaking(t, playerB)
	require.NotNil(t, paired.Match)

	// Assert
	payload := readEvent(t, connA, core.EventMatchUpdated)

	var snapshot matchdomain.Snapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	require.Equal(t, paired.Match.ID, snapshot.ID)
}

func Test_Websocket_Receives_Tick_Updates_While_Playing(t *testing.T) {
	// Arrange
	match, playerA, playerB := pairUsers(t)
	connB := dialWebsocket(t, playerB)

	// Act
	postMatchAction(t, playerA, match.ID.String(), "ready", http.StatusOK)
	postMatchAction(t, playerB, match.ID.String(), "ready", http.StatusOK)

	// Assert
	payload := readEvent(t, connB, core.EventMatchUpdated)

	var snapshot matchdomain.Snapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	require.Equal(t, match.ID, snapshot.ID)
	require.Equal(t, matchdomain.StatusPlaying, snapshot.Status)
}

func Test_Websocket_Receives_Match_Ended_Event(t *testing.T) {
	// Arrange
	match, playerA, playerB := pairUsers(t)
	connB := dialWebsocket(t, playerB)

	// Act
	postMatchAction(t, playerA, match.ID.String(), "abandon", http.StatusOK)

	// Assert
	payload := readEvent(t, connB, core.EventMatchEnded)

	var snapshot matchdomain.Snapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	require.Equal(t, match.ID, snapshot.ID)
	require.Equal(t, matchdomain.StatusOver, snapshot.Status)
	require.Equal(t, playerB, snapshot.Winner)
}

func Test_Websocket_Disconnect_Pauses_Live_Match(t *testing.T) {
	// Arrange
	match, playerA, playerB := pairUsers(t)
	connA := dialWebsocket(t, playerA)

	postMatchAction(t, playerA, match.ID.String(), "ready", http.StatusOK)
	postMatchAction(t, playerB, match.ID.String(), "ready", http.StatusOK)

	require.Equal(t, matchdomain.StatusPlaying, getMatch(t, playerB, match.ID.String()).Status)

	// Act
	require.NoError(t, connA.Close())

	// Assert
	require.Eventually(t, func() bool {
		return getMatch(t, playerB, match.ID.String()).Status == matchdomain.StatusPaused
	}, 5*time.Second, 50*time.Millisecond)
}
