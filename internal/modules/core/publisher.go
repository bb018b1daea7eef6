package core

// Realtime event names consumed by clients of the match engine.
const (
	EventMatchUpdated        = "matchUpdated"
	EventMatchEnded          = "matchEnded"
	EventMatchInvitesChanged = "matchInvitesChanged"
)

// Publisher delivers an event to every live connection of the given users.
// Implementations must not block the caller on slow consumers - the session
// tick loop publishes through this on every tick.
type Publisher interface {
	Publish(event string, payload interface{}, userIDs ...int64) error
}
