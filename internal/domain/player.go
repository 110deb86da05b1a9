package domain

import "time"

// Reserved player ids. Bot and anonymous identities share a single sentinel
// row each instead of getting tracked rows of their own.
const (
	BotPlayerID       = 1
	AnonymousPlayerID = 2
)

// Player is a tracked (or sentinel) player identity.
type Player struct {
	PlayerID  int       `json:"player_id"`
	Nick      string    `json:"nick"`
	CreatedOn time.Time `json:"created_on"`
}

// Sentinel is true for the shared bot/anonymous rows. Sentinel players never
// gain hashkeys and their nicks are never updated by submissions.
func (p Player) Sentinel() bool {
	return p.PlayerID == BotPlayerID || p.PlayerID == AnonymousPlayerID
}

// Hashkey links an opaque stable client identifier to a tracked player.
// Absence of a row means the client has never been seen before.
type Hashkey struct {
	PlayerID int    `json:"player_id"`
	Hashkey  string `json:"hashkey"`
}
