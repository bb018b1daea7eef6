package commands

import (
	"errors"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"
	"github.com/eskrenkovic/match-engine-go/internal/modules/match/domain"
)

// commandError maps the engine's typed failures onto command errors the HTTP
// boundary understands. Rejections never mutate state and never tear down a
// session.
func commandError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return core.NewCommandError(404, err)
	case errors.Is(err, domain.ErrAlreadyInMatch):
		return core.NewCommandError(409, err)
	case errors.Is(err, domain.ErrInvalidParticipant),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrSelfMatch):
		return core.NewCommandError(400, err)
	default:
		return core.NewCommandError(500, err)
	}
}
