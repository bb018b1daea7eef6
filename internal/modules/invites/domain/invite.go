package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInviteNotFound  = errors.New("invite not found")
	ErrNotParticipant  = errors.New("user is not a participant of the invite")
	ErrNotInvitee      = errors.New("only the invited user can accept an invite")
	ErrDuplicateInvite = errors.New("an invite between these users is already pending")
	ErrSelfInvite      = errors.New("a user cannot invite themselves")
)

// Invite is a pending request from one user to play a match against another.
// It lives until accepted or refused - accepting creates the match and
// removes the invite in the same operation.
type Invite struct {
	ID        uuid.UUID `db:"id" json:"id"`
	InviterID int64     `db:"inviter_id" json:"inviterId"`
	InviteeID int64     `db:"invitee_id" json:"inviteeId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (i Invite) IsParticipant(userID int64) bool {
	return userID == i.InviterID || userID == i.InviteeID
}
