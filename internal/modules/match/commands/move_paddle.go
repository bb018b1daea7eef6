package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type MovePaddleCommand struct {
	MatchID   uuid.UUID
	UserID    int64
	Direction domain.Direction
}

func (c MovePaddleCommand) Validate() error {
	if c.MatchID == uuid.Nil {
		return fmt.Errorf("invalid MatchID - '%s'", c.MatchID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	if c.Direction != domain.DirectionUp && c.Direction != domain.DirectionDown {
		return fmt.Errorf("invalid Direction - '%s'", c.Direction)
	}

	return nil
}

func HandleMovePaddle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid match id"))
		return
	}

	body, err := core.RequestBody[struct {
		Direction domain.Direction `json:"direction"`
	}](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command := MovePaddleCommand{
		MatchID:   matchID,
		UserID:    core.Session(ctx).UserID,
		Direction: body.Direction,
	}

	if _, err := mediator.Send[MovePaddleCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type MovePaddleCommandHandler struct {
	registry *engine.Registry
}

func NewMovePaddleCommandHandler(registry *engine.Registry) *MovePaddleCommandHandler {
	return &MovePaddleCommandHandler{registry}
}

func (h *MovePaddleCommandHandler) Handle(
	ctx context.Context,
	request MovePaddleCommand,
) (core.Unit, error) {
	session, err := h.registry.Get(request.MatchID)
	if err != nil {
		return core.Unit{}, commandError(err)
	}

	if err := session.MovePaddle(ctx, request.UserID, request.Direction); err != nil {
		return core.Unit{}, commandError(err)
	}

	return core.Unit{}, nil
}
