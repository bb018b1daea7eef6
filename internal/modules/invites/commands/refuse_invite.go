package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/invites/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type RefuseInviteCommand struct {
	InviteID uuid.UUID
	UserID   int64
}

func (c RefuseInviteCommand) Validate() error {
	if c.InviteID == uuid.Nil {
		return fmt.Errorf("invalid InviteID - '%s'", c.InviteID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandleRefuseInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inviteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid invite id"))
		return
	}

	command := RefuseInviteCommand{
		InviteID: inviteID,
		UserID:   core.Session(ctx).UserID,
	}

	if _, err := mediator.Send[RefuseInviteCommand, core.Unit](ctx, command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type RefuseInviteCommandHandler struct {
	db        *sql.DB
	publisher core.Publisher
}

func NewRefuseInviteCommandHandler(db *sql.DB, publisher core.Publisher) *RefuseInviteCommandHandler {
	return &RefuseInviteCommandHandler{db, publisher}
}

// Handle withdraws a pending invite. Either side can do it - the invitee
// refusing or the inviter cancelling land in the same place.
func (h *RefuseInviteCommandHandler) Handle(
	ctx context.Context,
	request RefuseInviteCommand,
) (core.Unit, error) {
	const query = `
		SELECT
			*
		FROM
			game_invites
		WHERE
			id = $1;`
	invite, err := tql.QueryFirst[domain.Invite](ctx, h.db, query, request.InviteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Unit{}, core.NewCommandError(404, domain.ErrInviteNotFound)
		}
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if !invite.IsParticipant(request.UserID) {
		return core.Unit{}, core.NewCommandError(403, domain.ErrNotParticipant)
	}

	const stmt = `
		DELETE FROM
			game_invites
		WHERE
			id = $1;`
	if _, err := tql.Exec(ctx, h.db, stmt, invite.ID); err != nil {
		return core.Unit{}, core.NewCommandError(500, err)
	}

	if err := h.publisher.Publish(
		core.EventMatchInvitesChanged,
		invite,
		invite.InviterID,
		invite.InviteeID,
	); err != nil {
		core.LogError(ctx, "failed to notify invite participants")
	}

	return core.Unit{}, nil
}
