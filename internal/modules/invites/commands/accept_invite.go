package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/invites/domain"
	matchdomain "github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/store"
	"github.com/eskrenkovic/match-engine-go/internal/modules/matchmaking"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type AcceptInviteCommand struct {
	InviteID uuid.UUID
	UserID   int64
}

func (c AcceptInviteCommand) Validate() error {
	if c.InviteID == uuid.Nil {
		return fmt.Errorf("invalid InviteID - '%s'", c.InviteID)
	}

	if c.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", c.UserID)
	}

	return nil
}

func HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inviteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid invite id"))
		return
	}

	command := AcceptInviteCommand{
		InviteID: inviteID,
		UserID:   core.Session(ctx).UserID,
	}

	response, err := mediator.Send[AcceptInviteCommand, matchdomain.Snapshot](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, fmt.Sprintf("/matches/%s", response.ID), response)
}

type AcceptInviteCommandHandler struct {
	db         *sql.DB
	registry   *engine.Registry
	matchmaker *matchmaking.Matchmaker
	matches    *store.MatchStore
	publisher  core.Publisher
}

func NewAcceptInviteCommandHandler(
	db *sql.DB,
	registry *engine.Registry,
	matchmaker *matchmaking.Matchmaker,
	matches *store.MatchStore,
	publisher core.Publisher,
) *AcceptInviteCommandHandler {
	return &AcceptInviteCommandHandler{db, registry, matchmaker, matches, publisher}
}

// Handle turns a pending invite into a live match. Only the invitee can
// accept. Both users leave the matchmaking queue - the invite supersedes any
// random pairing either was waiting for.
func (h *AcceptInviteCommandHandler) Handle(
	ctx context.Context,
	request AcceptInviteCommand,
) (matchdomain.Snapshot, error) {
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
			return matchdomain.Snapshot{}, core.NewCommandError(404, domain.ErrInviteNotFound)
		}
		return matchdomain.Snapshot{}, core.NewCommandError(500, err)
	}

	if request.UserID != invite.InviteeID {
		return matchdomain.Snapshot{}, core.NewCommandError(403, domain.ErrNotInvitee)
	}

	if _, err := h.registry.FindByPlayer(invite.InviterID); err == nil {
		return matchdomain.Snapshot{}, core.NewCommandError(409, matchdomain.ErrAlreadyInMatch)
	}
	if _, err := h.registry.FindByPlayer(invite.InviteeID); err == nil {
		return matchdomain.Snapshot{}, core.NewCommandError(409, matchdomain.ErrAlreadyInMatch)
	}

	h.matchmaker.Dequeue(invite.InviterID)
	h.matchmaker.Dequeue(invite.InviteeID)

	const deleteStmt = `
		DELETE FROM
			game_invites
		WHERE
			id = $1;`
	if _, err := tql.Exec(ctx, h.db, deleteStmt, invite.ID); err != nil {
		return matchdomain.Snapshot{}, core.NewCommandError(500, err)
	}

	session, err := h.registry.Create(invite.InviterID, invite.InviteeID)
	if err != nil {
		return matchdomain.Snapshot{}, core.NewCommandError(409, err)
	}

	snapshot, err := session.Snapshot(ctx)
	if err != nil {
		h.registry.Discard(session.ID())
		return matchdomain.Snapshot{}, core.NewCommandError(500, err)
	}

	// A session without a durable row would not survive a restart. Discard it
	// so neither user is stuck in a match that only exists in memory.
	if err := h.matches.Insert(ctx, snapshot); err != nil {
		h.registry.Discard(session.ID())
		return matchdomain.Snapshot{}, core.NewCommandError(500, err)
	}

	if err := h.publisher.Publish(
		core.EventMatchInvitesChanged,
		invite,
		invite.InviterID,
		invite.InviteeID,
	); err != nil {
		core.LogError(ctx, "failed to notify invite participants")
	}

	if err := h.publisher.Publish(
		core.EventMatchUpdated,
		snapshot,
		snapshot.PlayerA,
		snapshot.PlayerB,
	); err != nil {
		core.LogError(ctx, "failed to notify paired players")
	}

	return snapshot, nil
}
