package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking"

	"github.com/eskrenkovic/mediator-go"
)

type LeaveMatchmakingCommand struct {
	UserID int64
}

func (c LeaveMatchmakingCommand) Validate() error {
	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandleLeaveMatchmaking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := LeaveMatchmakingCommand{UserID: core.Session(ctx).UserID}

	if _, err := mediator.Send[LeaveMatchmakingCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type LeaveMatchmakingCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewLeaveMatchmakingCommandHandler(matchmaker *matchmaking.Matchmaker) *LeaveMatchmakingCommandHandler {
	return &LeaveMatchmakingCommandHandler{matchmaker}
}

// Handle removes the caller from the queue. Leaving a queue you are not in
// succeeds - the outcome is the same either way.
func (h *LeaveMatchmakingCommandHandler) Handle(
	ctx context.Context,
	request LeaveMatchmakingCommand,
) (core.Unit, error) {
	h.matchmaker.Dequeue(request.UserID)
	return core.Unit{}, nil
}
