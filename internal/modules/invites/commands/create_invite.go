package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/invites/domain"
	matchdomain "github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
	"github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type CreateInviteCommand struct {
	InviterID int64
	InviteeID int64
}

func (c CreateInviteCommand) Validate() error {
	if c.InviterID < 1 {
		return fmt.Errorf("invalid InviterID - '%d'", c.InviterID)
	}

	if c.InviteeID < 1 {
		return fmt.Errorf("invalid InviteeID - '%d'", c.InviteeID)
	}

	return nil
}

func HandleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := core.RequestBody[struct {
		UserID int64 `json:"userId"`
	}](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command := CreateInviteCommand{
		InviterID: core.Session(ctx).UserID,
		InviteeID: body.UserID,
	}

	response, err := mediator.Send[CreateInviteCommand, domain.Invite](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, fmt.Sprintf("/invites/%s", response.ID), response)
}

type CreateInviteCommandHandler struct {
	db         *sql.DB
	registry   *engine.Registry
	matchmaker *matchmaking.Matchmaker
	publisher  core.Publisher
}

func NewCreateInviteCommandHandler(
	db *sql.DB,
	registry *engine.Registry,
	matchmaker *matchmaking.Matchmaker,
	publisher core.Publisher,
) *CreateInviteCommandHandler {
	return &CreateInviteCommandHandler{db, registry, matchmaker, publisher}
}

// Handle creates a pending invite. Inviting pulls the inviter out of the
// matchmaking queue - a user either waits for a random opponent or courts a
// specific one, not both.
func (h *CreateInviteCommandHandler) Handle(
	ctx context.Context,
	request CreateInviteCommand,
) (domain.Invite, error) {
	if request.InviterID == request.InviteeID {
		return domain.Invite{}, core.NewCommandError(400, domain.ErrSelfInvite)
	}

	// Neither party may receive a pending invite while in a live match.
	if _, err := h.registry.FindByPlayer(request.InviterID); err == nil {
		return domain.Invite{}, core.NewCommandError(409, matchdomain.ErrAlreadyInMatch)
	}
	if _, err := h.registry.FindByPlayer(request.InviteeID); err == nil {
		return domain.Invite{}, core.NewCommandError(409, matchdomain.ErrAlreadyInMatch)
	}

	const duplicateQuery = `
		SELECT
			count(*)
		FROM
			game_invites
		WHERE
			(inviter_id = $1 AND invitee_id = $2) OR (inviter_id = $2 AND invitee_id = $1);`
	pending, err := tql.QueryFirst[int](ctx, h.db, duplicateQuery, request.InviterID, request.InviteeID)
	if err != nil {
		return domain.Invite{}, core.NewCommandError(500, err)
	}
	if pending > 0 {
		return domain.Invite{}, core.NewCommandError(409, domain.ErrDuplicateInvite)
	}

	h.matchmaker.Dequeue(request.InviterID)

	invite := domain.Invite{
		ID:        uuid.New(),
		InviterID: request.InviterID,
		InviteeID: request.InviteeID,
		CreatedAt: time.Now().UTC(),
	}

	const stmt = `
		INSERT INTO
			game_invites (id, inviter_id, invitee_id, created_at)
		VALUES
			(:id, :inviter_id, :invitee_id, :created_at);`
	if _, err := tql.Exec(ctx, h.db, stmt, invite); err != nil {
		return domain.Invite{}, core.NewCommandError(500, err)
	}

	if err := h.publisher.Publish(
		core.EventMatchInvitesChanged,
		invite,
		invite.InviterID,
		invite.InviteeID,
	); err != nil {
		core.LogError(ctx, "failed to notify invite participants")
	}

	return invite, nil
}
