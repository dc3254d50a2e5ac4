package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultRoomName = "Untitled"

type createRoomResult struct {
	roomId string
	err    error
}

type createRoomRequest struct {
	roomId   string // optional, caller-chosen
	roomName string
	respChan chan createRoomResult
}

// lobby is the room directory. Like rooms it is an actor: all maps are
// confined to the LobbyActor goroutine and mutated only through channels.
type lobby struct {
	maxRooms int
	baseTick time.Duration

	rooms        map[string]*Room
	descriptions map[string]RoomSummary

	createRequests chan createRoomRequest
	removeRequests chan string
	listRequests   chan chan map[string]RoomSummary
	descUpdates    chan RoomSummary
	joinRequests   chan roomJoinRequest

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
	sessions      SessionSigner
}

func NewLobby(maxRooms int, baseTick time.Duration, idGenerator UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, sessions SessionSigner) *lobby {
	return &lobby{
		maxRooms:       maxRooms,
		baseTick:       baseTick,
		rooms:          make(map[string]*Room),
		descriptions:   make(map[string]RoomSummary),
		createRequests: make(chan createRoomRequest),
		removeRequests: make(chan string, 64),
		listRequests:   make(chan chan map[string]RoomSummary),
		descUpdates:    make(chan RoomSummary, 64),
		joinRequests:   make(chan roomJoinRequest),
		idGenerator:    idGenerator,
		tickerCreator:  tickerCreator,
		sessions:       sessions,
	}
}

// LobbyActor serializes all directory access. started is closed once the
// actor is draining its channels.
func (l *lobby) LobbyActor(started chan struct{}) {
	log.Info().Int("maxRooms", l.maxRooms).Msg("lobby actor started")
	close(started)
	for {
		select {
		case req := <-l.createRequests:
			l.handleCreateRoom(req)
		case roomId := <-l.removeRequests:
			l.handleRemoveRoom(roomId)
		case respChan := <-l.listRequests:
			l.handleListRooms(respChan)
		case desc := <-l.descUpdates:
			if _, ok := l.rooms[desc.Id]; ok {
				l.descriptions[desc.Id] = desc
			}
		case req := <-l.joinRequests:
			l.handleJoinRequest(req)
		}
	}
}

func (l *lobby) handleCreateRoom(req createRoomRequest) {
	if len(l.rooms) >= l.maxRooms {
		req.respChan <- createRoomResult{err: ErrRoomCapacity}
		return
	}
	roomId := req.roomId
	if roomId == "" {
		roomId = l.idGenerator.Generate()
	} else if !l.idGenerator.Reserve(roomId) {
		req.respChan <- createRoomResult{err: ErrRoomExists}
		return
	}
	roomName := req.roomName
	if roomName == "" {
		roomName = defaultRoomName
	}

	room := NewRoom(roomId, roomName, l.baseTick, l.sessions, l.tickerCreator)
	room.SetParentLobby(l)
	l.rooms[roomId] = room
	l.descriptions[roomId] = room.Summary()
	go room.Run()

	log.Info().Str("room", roomId).Str("name", roomName).Msg("room created")
	req.respChan <- createRoomResult{roomId: roomId}
}

func (l *lobby) handleRemoveRoom(roomId string) {
	room, ok := l.rooms[roomId]
	if !ok {
		return
	}
	delete(l.rooms, roomId)
	delete(l.descriptions, roomId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(roomId)
	log.Info().Str("room", roomId).Msg("room removed")
}

func (l *lobby) handleListRooms(respChan chan map[string]RoomSummary) {
	listing := make(map[string]RoomSummary, len(l.descriptions))
	for id, desc := range l.descriptions {
		listing[id] = desc
	}
	respChan <- listing
}

func (l *lobby) handleJoinRequest(req roomJoinRequest) {
	room, ok := l.rooms[req.roomId]
	if !ok {
		req.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(req)
}

// CreateRoom registers a new room and returns its id. An empty roomId asks
// for a generated one.
func (l *lobby) CreateRoom(ctx context.Context, roomId, roomName string) (string, error) {
	req := createRoomRequest{
		roomId:   roomId,
		roomName: roomName,
		respChan: make(chan createRoomResult, 1),
	}
	select {
	case l.createRequests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case result := <-req.respChan:
		return result.roomId, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *lobby) ListRooms(ctx context.Context) map[string]RoomSummary {
	respChan := make(chan map[string]RoomSummary, 1)
	select {
	case l.listRequests <- respChan:
	case <-ctx.Done():
		return nil
	}
	select {
	case listing := <-respChan:
		return listing
	case <-ctx.Done():
		return nil
	}
}

// ForwardPlayerJoinRequestToRoom routes a join to the target room's actor.
// The answer arrives on the request's own errChan.
func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, req roomJoinRequest) {
	select {
	case l.joinRequests <- req:
	case <-ctx.Done():
		req.errChan <- ctx.Err()
	}
}

// RequestUpdateDescription refreshes a room's directory listing. Never
// blocks the calling room actor; a dropped update is overwritten by the next.
func (l *lobby) RequestUpdateDescription(desc RoomSummary) {
	select {
	case l.descUpdates <- desc:
	default:
	}
}

// RemoveRoom unregisters a room. Callers are room actors, so the send must
// not deadlock against a lobby that is mid-forward to that same room.
func (l *lobby) RemoveRoom(roomId string) {
	select {
	case l.removeRequests <- roomId:
	default:
		go func() { l.removeRequests <- roomId }()
	}
}
