package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/invites/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
)

type GetPendingInvitesQuery struct {
	UserID int64
}

func (q GetPendingInvitesQuery) Validate() error {
	if q.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", q.UserID)
	}

	return nil
}

func HandleGetPendingInvites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := mediator.Send[GetPendingInvitesQuery, []domain.Invite](
		ctx,
		GetPendingInvitesQuery{UserID: core.Session(ctx).UserID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetPendingInvitesQueryHandler struct {
	db *sql.DB
}

func NewGetPendingInvitesQueryHandler(db *sql.DB) *GetPendingInvitesQueryHandler {
	return &GetPendingInvitesQueryHandler{db}
}

func (h *GetPendingInvitesQueryHandler) Handle(
	ctx context.Context,
	request GetPendingInvitesQuery,
) ([]domain.Invite, error) {
	const query = `
		SELECT
			*
		FROM
			game_invites
		WHERE
			inviter_id = $1 OR invitee_id = $1
		ORDER BY
			created_at DESC;`
	return tql.Query[domain.Invite](ctx, h.db, query, request.UserID)
}
