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

type PauseMatchCommand struct {
	MatchID uuid.UUID
	UserID  int64
}

func (c PauseMatchCommand) Validate() error {
	if c.MatchID == uuid.Nil {
		return fmt.Errorf("invalid MatchID - '%s'", c.MatchID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandlePauseMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid match id"))
		return
	}

	command := PauseMatchCommand{
		MatchID: matchID,
		UserID:  core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[PauseMatchCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type PauseMatchCommandHandler struct {
	registry *engine.Registry
}

func NewPauseMatchCommandHandler(registry *engine.Registry) *PauseMatchCommandHandler {
	return &PauseMatchCommandHandler{registry}
}

func (h *PauseMatchCommandHandler) Handle(
	ctx context.Context,
	request PauseMatchCommand,
) (core.Unit, error) {
	session, err := h.registry.Get(request.MatchID)
	if err != nil {
		return core.Unit{}, commandError(err)
	}

	if err := session.Pause(ctx, request.UserID); err != nil {
		return core.Unit{}, commandError(err)
	}

	return core.Unit{}, nil
}
