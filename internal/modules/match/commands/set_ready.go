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

type SetReadyCommand struct {
	MatchID uuid.UUID
	UserID  int64
}

func (c SetReadyCommand) Validate() error {
	if c.MatchID == uuid.Nil {
		return fmt.Errorf("invalid MatchID - '%s'", c.MatchID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandleSetReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid match id"))
		return
	}

	command := SetReadyCommand{
		MatchID: matchID,
		UserID:  core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[SetReadyCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type SetReadyCommandHandler struct {
	registry *engine.Registry
}

func NewSetReadyCommandHandler(registry *engine.Registry) *SetReadyCommandHandler {
	return &SetReadyCommandHandler{registry}
}

func (h *SetReadyCommandHandler) Handle(
	ctx context.Context,
	request SetReadyCommand,
) (core.Unit, error) {
	session, err := h.registry.Get(request.MatchID)
	if err != nil {
		return core.Unit{}, commandError(err)
	}

	if err := session.SetReady(ctx, request.UserID); err != nil {
		return core.Unit{}, commandError(err)
	}

	return core.Unit{}, nil
}
