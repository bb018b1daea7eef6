package queries

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/store"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

type GetUserMatchesQuery struct {
	UserID int64
}

func (q GetUserMatchesQuery) Validate() error {
	if q.UserID < 1 {
		return fmt.Errorf("invalid UserID - '%d'", q.UserID)
	}

	return nil
}

func HandleGetUserMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid user id"))
		return
	}

	response, err := mediator.Send[GetUserMatchesQuery, []store.MatchRecord](
		r.Context(),
		GetUserMatchesQuery{UserID: userID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetUserMatchesQueryHandler struct {
	matches *store.MatchStore
}

func NewGetUserMatchesQueryHandler(matches *store.MatchStore) *GetUserMatchesQueryHandler {
	return &GetUserMatchesQueryHandler{matches}
}

func (h *GetUserMatchesQueryHandler) Handle(
	ctx context.Context,
	request GetUserMatchesQuery,
) ([]store.MatchRecord, error) {
	return h.matches.ListForUser(ctx, request.UserID)
}
