package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	matchdomain "github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	matchmakingcommands "github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking/commands"

	"github.com/stretchr/testify/require"
)

var userIDCounter atomic.Int64

func init() {
	userIDCounter.Store(time.Now().Unix())
}

// newUserID hands out ids no other test in this run has seen. User ids come
// from an upstream identity service in production, so tests mint them freely.
func newUserID() int64 {
	return userIDCounter.Add(1)
}

type responseAssertion func(*http.Response)

func sendRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	userID int64,
	req TReq,
	opts ...responseAssertion,
) (TResp, error) {
	var resp TResp

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}

	httpReq, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}

	httpReq.Header.Set(core.UserIDHeader, fmt.Sprintf("%d", userID))

	httpResp, err := c.Do(httpReq)
	if err != nil {
		return resp, err
	}

	for _, opt := range opts {
		opt(httpResp)
	}

	if httpResp.ContentLength > 0 {
		defer func() {
			_ = httpResp.Body.Close()
		}()

		responsePayload, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return resp, err
		}

		if err := json.Unmarshal(responsePayload, &resp); err != nil {
			return resp, err
		}
	}

	return resp, err
}

func enterMatchmaking(t *testing.T, userID int64) matchmakingcommands.EnterMatchmakingResponse {
	response, err := sendRequest[any, matchmakingcommands.EnterMatchmakingResponse](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/matchmaking"),
		http.MethodPost,
		userID,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	// The queue is shared process state. Leave it the way the test found it so
	// a waiter from one test cannot pair with a user from the next.
	t.Cleanup(func() {
		_, _ = sendRequest[any, any](
			fixture.client,
			fmt.Sprintf("%s%s", fixture.baseURL, "/matchmaking"),
			http.MethodDelete,
			userID,
			nil,
		)
	})

	return response
}

// pairUsers queues two fresh users and returns the match they land in.
func pairUsers(t *testing.T) (matchdomain.Snapshot, int64, int64) {
	playerA := newUserID()
	playerB := newUserID()

	waiting := enterMatchmaking(t, playerA)
	require.Nil(t, waiting.Match)

	paired := enterMatchmaking(t, playerB)
	require.NotNil(t, paired.Match)

	return *paired.Match, playerA, playerB
}

func getMatch(t *testing.T, userID int64, matchID string) matchdomain.Snapshot {
	snapshot, err := sendRequest[any, matchdomain.Snapshot](
		fixture.client,
		fmt.Sprintf("%s/matches/%s", fixture.baseURL, matchID),
		http.MethodGet,
		userID,
		nil,
		func(resp *http.Response) { require.Equal(t, http.StatusOK, resp.StatusCode) },
	)
	require.NoError(t, err)

	return snapshot
}

func postMatchAction(t *testing.T, userID int64, matchID, action string, expectedStatus int) {
	_, err := sendRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s/matches/%s/actions/%s", fixture.baseURL, matchID, action),
		http.MethodPost,
		userID,
		nil,
		func(resp *http.Response) { require.Equal(t, expectedStatus, resp.StatusCode) },
	)
	require.NoError(t, err)
}
