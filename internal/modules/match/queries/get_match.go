package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/engine"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/store"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetMatchQuery struct {
	MatchID uuid.UUID
}

func (q GetMatchQuery) Validate() error {
	if q.MatchID == uuid.Nil {
		return fmt.Errorf("invalid MatchID - '%s'", q.MatchID)
	}

	return nil
}

func HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid match id"))
		return
	}

	response, err := mediator.Send[GetMatchQuery, domain.Snapshot](
		r.Context(),
		GetMatchQuery{MatchID: matchID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetMatchQueryHandler struct {
	registry *engine.Registry
	matches  *store.MatchStore
}

func NewGetMatchQueryHandler(registry *engine.Registry, matches *store.MatchStore) *GetMatchQueryHandler {
	return &GetMatchQueryHandler{registry, matches}
}

// Handle serves the live snapshot when the match has a running session, and
// falls back to the stored record for finished matches.
func (h *GetMatchQueryHandler) Handle(
	ctx context.Context,
	request GetMatchQuery,
) (domain.Snapshot, error) {
	if session, err := h.registry.Get(request.MatchID); err == nil {
		snapshot, err := session.Snapshot(ctx)
		if err == nil {
			return snapshot, nil
		}
		// The session tore down between lookup and read - fall through
		// to the stored record.
	}

	record, err := h.matches.Find(ctx, request.MatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, core.NewCommandError(404, domain.ErrMatchNotFound)
		}
		return domain.Snapshot{}, core.NewCommandError(500, err)
	}

	return recordSnapshot(record), nil
}

func recordSnapshot(record store.MatchRecord) domain.Snapshot {
	return domain.Snapshot{
		ID:      record.ID,
		PlayerA: record.PlayerA,
		PlayerB: record.PlayerB,
		ScoreA:  record.ScoreA,
		ScoreB:  record.ScoreB,
		Status:  domain.Status(record.Status),
		Winner:  record.WinnerID.Int64,
	}
}
