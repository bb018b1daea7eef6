package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/store"
	"github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking"

	"github.com/eskrenkovic/mediator-go"
)

type EnterMatchmakingCommand struct {
	UserID int64
}

func (c EnterMatchmakingCommand) Validate() error {
	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

// EnterMatchmakingResponse carries the created match when the caller's
// enqueue completed a pair. Match is nil while the caller is left waiting.
type EnterMatchmakingResponse struct {
	Match *domain.Snapshot `json:"match"`
}

func HandleEnterMatchmaking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := EnterMatchmakingCommand{UserID: core.Session(ctx).UserID}

	response, err := mediator.Send[EnterMatchmakingCommand, EnterMatchmakingResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type EnterMatchmakingCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
	registry   *engine.Registry
	matches    *store.MatchStore
	publisher  core.Publisher
}

func NewEnterMatchmakingCommandHandler(
	matchmaker *matchmaking.Matchmaker,
	registry *engine.Registry,
	matches *store.MatchStore,
	publisher core.Publisher,
) *EnterMatchmakingCommandHandler {
	return &EnterMatchmakingCommandHandler{matchmaker, registry, matches, publisher}
}

func (h *EnterMatchmakingCommandHandler) Handle(
	ctx context.Context,
	request EnterMatchmakingCommand,
) (EnterMatchmakingResponse, error) {
	session, err := h.matchmaker.Enqueue(request.UserID)
	if err != nil {
		switch {
		case errors.Is(err, matchmaking.ErrAlreadyQueued),
			errors.Is(err, domain.ErrAlreadyInMatch):
			return EnterMatchmakingResponse{}, core.NewCommandError(409, err)
		default:
			return EnterMatchmakingResponse{}, core.NewCommandError(500, err)
		}
	}

	if session == nil {
		return EnterMatchmakingResponse{}, nil
	}

	snapshot, err := session.Snapshot(ctx)
	if err != nil {
		h.registry.Discard(session.ID())
		return EnterMatchmakingResponse{}, core.NewCommandError(500, err)
	}

	// A session without a durable row would not survive a restart. Discard it
	// so neither user is stuck in a match that only exists in memory.
	if err := h.matches.Insert(ctx, snapshot); err != nil {
		h.registry.Discard(session.ID())
		return EnterMatchmakingResponse{}, core.NewCommandError(500, err)
	}

	if err := h.publisher.Publish(
		core.EventMatchUpdated,
		snapshot,
		snapshot.PlayerA,
		snapshot.PlayerB,
	); err != nil {
		core.LogError(ctx, "failed to notify paired players")
	}

	return EnterMatchmakingResponse{Match: &snapshot}, nil
}
