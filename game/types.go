package game

import (
	"time"
)

// WebsocketConnection abstracts the transport so actors and tests never
// touch a real socket.
type WebsocketConnection interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// UniqueIdGenerator hands out room ids and reclaims them when a room dies.
// Reserve claims a caller-chosen id and reports false on collision.
type UniqueIdGenerator interface {
	Generate() string
	Reserve(id string) bool
	Dispose(id string)
}

// PeriodicTickerChannelCreator lets tests drive room time by hand. The
// returned stop function releases the underlying ticker.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) (<-chan time.Time, func())
}

// SessionSigner mints the reconnect token handed to a player at join time.
type SessionSigner interface {
	Generate(playerId, roomId string, now time.Time) (string, error)
}

// Lobby is the slice of the registry that rooms call back into.
type Lobby interface {
	RequestUpdateDescription(desc RoomSummary)
	RemoveRoom(roomId string)
}

// roomJoinRequest travels handler -> lobby -> room. The room answers on
// errChan: nil means seated.
type roomJoinRequest struct {
	roomId string
	player *Player
	// reclaimId is a player id recovered from a verified session token;
	// empty for a fresh join.
	reclaimId string
	errChan   chan error
}

// packetEnvelope is one inbound command with its provenance. The socket lets
// the actor drop packets read by a connection that has since been replaced.
type packetEnvelope struct {
	packet ClientPacket
	from   *Player
	socket WebsocketConnection
}

// removalRequest asks the room actor to release a player's seat. Stale
// requests from an already-replaced connection are ignored.
type removalRequest struct {
	player *Player
	socket WebsocketConnection
}
