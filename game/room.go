package game

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GenniaApp/cubebattle/gamemap"
)

const (
	roomInboxSize    = 256
	joinRequestsSize = 8
)

// forceStartQuorum[n] is how many ready votes a room with n players needs
// before the game starts early. A lone player can never reach it.
var forceStartQuorum = []int{1, 2, 2, 3, 3, 4, 5, 5, 6}

func quorumFor(players int) int {
	if players >= len(forceStartQuorum) {
		players = len(forceStartQuorum) - 1
	}
	return forceStartQuorum[players]
}

// Room owns one map and its players. Every field is confined to the room
// actor goroutine; the channels are the only way in.
type Room struct {
	id   string
	name string

	maxPlayers int
	gameSpeed  float64
	mapWidth   int
	mapHeight  int
	ratios     gamemap.Ratios
	fogOfWar   bool

	gameStarted   bool
	forceStartNum int

	// players in join order; the order decides host failover.
	players   []*Player
	gmap      *gamemap.Map
	kings     map[string]gamemap.Position
	lastViews map[string][]gamemap.Tile
	// lastDead names the winner when a tick finds nobody left standing
	lastDead *Player

	lobby         Lobby
	sessions      SessionSigner
	tickerCreator PeriodicTickerChannelCreator
	baseTick      time.Duration
	rng           *rand.Rand

	inbox        chan packetEnvelope
	joinRequests chan roomJoinRequest
	removals     chan removalRequest
	ticks        <-chan time.Time
	stopTicker   func()

	done      chan struct{}
	closeOnce sync.Once
}

func NewRoom(id, name string, baseTick time.Duration, sessions SessionSigner, tickerCreator PeriodicTickerChannelCreator) *Room {
	return &Room{
		id:            id,
		name:          name,
		maxPlayers:    8,
		gameSpeed:     1,
		mapWidth:      20,
		mapHeight:     20,
		ratios:        gamemap.Ratios{Mountain: 0.15, City: 0.05, Swamp: 0},
		fogOfWar:      true,
		sessions:      sessions,
		tickerCreator: tickerCreator,
		baseTick:      baseTick,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		inbox:         make(chan packetEnvelope, roomInboxSize),
		joinRequests:  make(chan roomJoinRequest, joinRequestsSize),
		removals:      make(chan removalRequest, joinRequestsSize),
		done:          make(chan struct{}),
	}
}

func (r *Room) SetParentLobby(l Lobby) {
	r.lobby = l
}

func (r *Room) Info() RoomInfo {
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.Info())
	}
	return RoomInfo{
		Id:            r.id,
		RoomName:      r.name,
		Players:       players,
		MaxPlayers:    r.maxPlayers,
		GameSpeed:     r.gameSpeed,
		MapWidth:      r.mapWidth,
		MapHeight:     r.mapHeight,
		Mountain:      r.ratios.Mountain,
		City:          r.ratios.City,
		Swamp:         r.ratios.Swamp,
		FogOfWar:      r.fogOfWar,
		GameStarted:   r.gameStarted,
		ForceStartNum: r.forceStartNum,
	}
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Id:          r.id,
		RoomName:    r.name,
		Players:     len(r.players),
		MaxPlayers:  r.maxPlayers,
		GameSpeed:   r.gameSpeed,
		GameStarted: r.gameStarted,
	}
}

// RequestJoin hands a join request to the actor. Rooms already shut down
// answer as if they never existed.
func (r *Room) RequestJoin(req roomJoinRequest) {
	select {
	case r.joinRequests <- req:
	case <-r.done:
		req.errChan <- ErrRoomNotFound
	}
}

// RequestRemoval is called by a player's dead ReadPump. The socket
// identifies which connection died so a reconnected seat is left alone.
func (r *Room) RequestRemoval(p *Player, socket WebsocketConnection) {
	select {
	case r.removals <- removalRequest{player: p, socket: socket}:
	case <-r.done:
	}
}

// CloseAndRelease stops the actor; idempotent.
func (r *Room) CloseAndRelease() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) playerById(id string) *Player {
	if id == "" {
		return nil
	}
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected {
			n++
		}
	}
	return n
}

func (r *Room) lowestFreeColor() int {
	for color := 0; ; color++ {
		taken := false
		for _, p := range r.players {
			if p.color == color {
				taken = true
				break
			}
		}
		if !taken {
			return color
		}
	}
}

func marshalPacket(packet *ServerPacket) []byte {
	data, err := json.Marshal(packet)
	if err != nil {
		log.Error().Err(err).Str("event", packet.Event).Msg("failed to marshal server packet")
		return nil
	}
	return data
}

// deliver never blocks the actor: a player whose inbox is full loses the
// packet. Reports whether the packet was enqueued so stateful streams can
// resynchronize after a drop.
func (r *Room) deliver(p *Player, data []byte) bool {
	if data == nil || !p.connected {
		return false
	}
	select {
	case p.inbox <- data:
		return true
	default:
		log.Warn().Str("room", r.id).Str("player", p.id).Msg("player inbox full, dropping packet")
		return false
	}
}

func (r *Room) sendTo(p *Player, packet *ServerPacket) bool {
	return r.deliver(p, marshalPacket(packet))
}

func (r *Room) broadcast(packet *ServerPacket) {
	data := marshalPacket(packet)
	for _, p := range r.players {
		r.deliver(p, data)
	}
}

// broadcastInfo pushes the room state to every player and to the directory.
func (r *Room) broadcastInfo() {
	r.broadcast(MakePacketRoomInfoUpdate(r.Info()))
	if r.lobby != nil {
		r.lobby.RequestUpdateDescription(r.Summary())
	}
}
