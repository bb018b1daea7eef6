package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type AbandonMatchCommand struct {
	MatchID uuid.UUID
	UserID  int64
}

func (c AbandonMatchCommand) Validate() error {
	if c.MatchID == uuid.Nil {
		return fmt.Errorf("invalid MatchID - '%s'", c.MatchID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandleAbandonMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid match id"))
		return
	}

	command := AbandonMatchCommand{
		MatchID: matchID,
		UserID:  core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[AbandonMatchCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type AbandonMatchCommandHandler struct {
	registry *engine.Registry
}

func NewAbandonMatchCommandHandler(registry *engine.Registry) *AbandonMatchCommandHandler {
	return &AbandonMatchCommandHandler{registry}
}

// Handle ends the match with the opponent as winner. Persistence and registry
// teardown run on the session's completion hook, not here.
func (h *AbandonMatchCommandHandler) Handle(
	ctx context.Context,
	request AbandonMatchCommand,
) (core.Unit, error) {
	session, err := h.registry.Get(request.MatchID)
	if err != nil {
		return core.Unit{}, commandError(err)
	}

	if err := session.Abandon(ctx, request.UserID); err != nil {
		return core.Unit{}, commandError(err)
	}

	return core.Unit{}, nil
}
