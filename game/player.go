package game

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	playerInboxSize = 256
	pingInterval    = time.Second * 30
)

// Player is one seat in a room. All fields except the pumps' reads of
// socket/inbox are owned by the room actor goroutine.
type Player struct {
	id       string
	username string
	color    int

	isRoomHost bool
	isDead     bool
	forceStart bool
	connected  bool

	// operatedTurn is the last turn an attack was accepted; enforces
	// at most one command per turn. -1 until the game starts.
	operatedTurn int

	rateLimiter *rate.Limiter
	socket      WebsocketConnection
	inbox       chan []byte
	room        *Room
}

func NewPlayer(username string, socket WebsocketConnection) *Player {
	return &Player{
		username:     username,
		operatedTurn: -1,
		connected:    true,
		rateLimiter:  rate.NewLimiter(10, 20),
		socket:       socket,
		inbox:        make(chan []byte, playerInboxSize),
	}
}

func (p *Player) Info() PlayerInfo {
	return PlayerInfo{
		Id:         p.id,
		Username:   p.username,
		Color:      p.color,
		IsRoomHost: p.isRoomHost,
		IsDead:     p.isDead,
		ForceStart: p.forceStart,
	}
}

// ReadPump forwards inbound packets to the room's mailbox until the
// connection dies, then requests its own removal. Packets beyond the rate
// limit and packets that do not parse are dropped, not fatal.
func (p *Player) ReadPump() {
	room, socket := p.room, p.socket
	defer room.RequestRemoval(p, socket)

	for {
		data, err := socket.Read()
		if err != nil {
			return
		}
		if !p.rateLimiter.Allow() {
			log.Debug().Str("player", p.id).Msg("rate limit exceeded, dropping packet")
			continue
		}
		packet := ClientPacket{}
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}
		select {
		case room.inbox <- packetEnvelope{packet: packet, from: p, socket: socket}:
		case <-room.done:
			return
		}
	}
}

// WritePump drains the outgoing inbox onto the socket and keeps the
// connection alive with pings. Exits when the inbox closes or a write fails.
func (p *Player) WritePump() {
	socket, inbox := p.socket, p.inbox
	pings := time.NewTicker(pingInterval)
	defer pings.Stop()

	for {
		select {
		case data, ok := <-inbox:
			if !ok {
				return
			}
			if err := socket.Write(data); err != nil {
				return
			}
		case <-pings.C:
			if err := socket.Ping(); err != nil {
				return
			}
		}
	}
}
