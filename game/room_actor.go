package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GenniaApp/cubebattle/gamemap"
)

// Run is the room actor. It is the only goroutine allowed to touch room
// state; everything arrives through the mailboxes.
func (r *Room) Run() {
	log.Info().Str("room", r.id).Msg("room actor started")
	defer r.release()

	for {
		select {
		case req := <-r.joinRequests:
			r.handleJoinRequest(req)
		case req := <-r.removals:
			r.handleRemoval(req)
		case env := <-r.inbox:
			r.handlePacket(env)
		case <-r.ticks:
			r.handleTick()
		case <-r.done:
			log.Info().Str("room", r.id).Msg("room actor stopped")
			return
		}
	}
}

func (r *Room) release() {
	if r.stopTicker != nil {
		r.stopTicker()
		r.stopTicker = nil
	}
	for _, p := range r.players {
		if p.connected {
			p.connected = false
			p.socket.Close("room closed")
		}
	}
}

func (r *Room) handleJoinRequest(req roomJoinRequest) {
	if req.reclaimId != "" {
		if seat := r.playerById(req.reclaimId); seat != nil && !seat.connected {
			r.reseat(seat, req.player.socket)
			req.errChan <- nil
			return
		}
	}
	if r.gameStarted {
		req.errChan <- ErrGameStarted
		return
	}
	if len(r.players) >= r.maxPlayers {
		req.errChan <- ErrRoomFull
		return
	}

	p := req.player
	p.id = uuid.NewString()
	p.color = r.lowestFreeColor()
	p.room = r
	if len(r.players) == 0 {
		p.isRoomHost = true
	}
	r.players = append(r.players, p)
	go p.ReadPump()
	go p.WritePump()

	token, err := r.sessions.Generate(p.id, r.id, time.Now())
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("failed to mint session token")
	}
	r.sendTo(p, MakePacketSetPlayerId(p.id, token))
	r.broadcast(MakePacketRoomMessage(p.Info(), "joined the lobby."))
	r.broadcastInfo()
	req.errChan <- nil

	log.Info().Str("room", r.id).Str("player", p.id).Str("username", p.username).Msg("player joined")
	if len(r.players) >= r.maxPlayers {
		r.startGame()
	}
}

// reseat swaps a new connection onto an abandoned seat. The seat gets a
// fresh inbox so the dead WritePump cannot steal packets, and its cached
// view is dropped so the next tick sends the full grid.
func (r *Room) reseat(seat *Player, socket WebsocketConnection) {
	seat.socket = socket
	seat.inbox = make(chan []byte, playerInboxSize)
	seat.connected = true
	go seat.ReadPump()
	go seat.WritePump()

	token, err := r.sessions.Generate(seat.id, r.id, time.Now())
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("failed to mint session token")
	}
	r.sendTo(seat, MakePacketSetPlayerId(seat.id, token))
	if r.gameStarted {
		delete(r.lastViews, seat.id)
	}
	r.broadcast(MakePacketRoomMessage(seat.Info(), "re-joined the lobby."))
	r.broadcastInfo()
	log.Info().Str("room", r.id).Str("player", seat.id).Msg("player reconnected")
}

func (r *Room) handleRemoval(req removalRequest) {
	p := req.player
	if p.socket != req.socket {
		// the seat was reclaimed by a newer connection
		return
	}
	p.connected = false

	if r.gameStarted {
		r.broadcast(MakePacketRoomMessage(p.Info(), "quit."))
		if r.connectedCount() == 0 {
			log.Info().Str("room", r.id).Msg("last player disconnected mid-game")
			r.lobby.RemoveRoom(r.id)
			return
		}
		r.broadcastInfo()
		return
	}
	r.removePlayer(p)
}

func (r *Room) removePlayer(gone *Player) {
	for i, p := range r.players {
		if p == gone {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	if len(r.players) == 0 {
		r.lobby.RemoveRoom(r.id)
		return
	}
	if gone.isRoomHost {
		gone.isRoomHost = false
		r.players[0].isRoomHost = true
	}
	r.forceStartNum = 0
	for _, p := range r.players {
		if p.forceStart {
			r.forceStartNum++
		}
	}
	r.broadcast(MakePacketRoomMessage(gone.Info(), "quit."))
	r.broadcastInfo()
}

func (r *Room) handlePacket(env packetEnvelope) {
	p := env.from
	if p.socket != env.socket {
		return
	}
	switch env.packet.Event {
	case CmdGetRoomInfo:
		r.sendTo(p, MakePacketRoomInfoUpdate(r.Info()))
	case CmdForceStart:
		r.handleForceStart(p)
	case CmdAttack:
		r.handleAttack(p, env.packet)
	case CmdSurrender:
		r.handleSurrender(p)
	case CmdPlayerMessage:
		if env.packet.Text != "" {
			r.broadcast(MakePacketRoomMessage(p.Info(), env.packet.Text))
		}
	case CmdChangeHost, CmdChangeGameSpeed, CmdChangeRoomName,
		CmdChangeMapWidth, CmdChangeMapHeight,
		CmdChangeMountain, CmdChangeCity, CmdChangeSwamp,
		CmdChangeMaxPlayerNum, CmdChangeFogOfWar:
		r.handleSettingChange(p, env.packet)
	default:
		r.sendTo(p, MakePacketError("Unknown command", env.packet.Event))
	}
}

func (r *Room) handleSettingChange(p *Player, packet ClientPacket) {
	if !p.isRoomHost {
		r.sendTo(p, MakePacketError("Changing setting failed", "You are not the room host."))
		return
	}
	if r.gameStarted {
		r.sendTo(p, MakePacketError("Changing setting failed", "Game is already started."))
		return
	}

	var message string
	switch packet.Event {
	case CmdChangeHost:
		target := r.playerById(packet.TargetId)
		if target == nil || target == p {
			r.sendTo(p, MakePacketError("Changing setting failed", "Target player not found."))
			return
		}
		p.isRoomHost = false
		target.isRoomHost = true
		message = "transferred host to " + target.username + "."
	case CmdChangeGameSpeed:
		if packet.Number < 0.25 || packet.Number > 4 {
			r.sendTo(p, MakePacketError("Changing setting failed", "Game speed is invalid."))
			return
		}
		r.gameSpeed = packet.Number
		message = fmt.Sprintf("changed the game speed to %gx.", packet.Number)
	case CmdChangeRoomName:
		if len(packet.Text) < 1 || len(packet.Text) > 20 {
			r.sendTo(p, MakePacketError("Changing setting failed", "Room name length should be in [1, 20]."))
			return
		}
		r.name = packet.Text
		message = "changed the room name to " + packet.Text + "."
	case CmdChangeMapWidth:
		w := int(packet.Number)
		if w < 2 || w > 100 {
			r.sendTo(p, MakePacketError("Changing setting failed", "Map width is invalid."))
			return
		}
		r.mapWidth = w
		message = fmt.Sprintf("changed the map width to %d.", w)
	case CmdChangeMapHeight:
		h := int(packet.Number)
		if h < 2 || h > 100 {
			r.sendTo(p, MakePacketError("Changing setting failed", "Map height is invalid."))
			return
		}
		r.mapHeight = h
		message = fmt.Sprintf("changed the map height to %d.", h)
	case CmdChangeMountain:
		if !validRatio(packet.Number) {
			r.sendTo(p, MakePacketError("Changing setting failed", "Mountain density is invalid."))
			return
		}
		r.ratios.Mountain = packet.Number
		message = fmt.Sprintf("changed the mountain density to %g.", packet.Number)
	case CmdChangeCity:
		if !validRatio(packet.Number) {
			r.sendTo(p, MakePacketError("Changing setting failed", "City density is invalid."))
			return
		}
		r.ratios.City = packet.Number
		message = fmt.Sprintf("changed the city density to %g.", packet.Number)
	case CmdChangeSwamp:
		if !validRatio(packet.Number) {
			r.sendTo(p, MakePacketError("Changing setting failed", "Swamp density is invalid."))
			return
		}
		r.ratios.Swamp = packet.Number
		message = fmt.Sprintf("changed the swamp density to %g.", packet.Number)
	case CmdChangeMaxPlayerNum:
		n := int(packet.Number)
		if n < 2 || n > 16 || n < len(r.players) {
			r.sendTo(p, MakePacketError("Changing setting failed", "Max player num is invalid."))
			return
		}
		r.maxPlayers = n
		message = fmt.Sprintf("changed the max player num to %d.", n)
	case CmdChangeFogOfWar:
		r.fogOfWar = packet.Flag
		message = fmt.Sprintf("set fog of war to %t.", packet.Flag)
	}

	r.broadcast(MakePacketRoomMessage(p.Info(), message))
	r.broadcastInfo()
}

func validRatio(v float64) bool {
	return v >= 0 && v <= 0.5
}

func (r *Room) handleForceStart(p *Player) {
	if r.gameStarted {
		return
	}
	p.forceStart = !p.forceStart
	r.forceStartNum = 0
	for _, other := range r.players {
		if other.forceStart {
			r.forceStartNum++
		}
	}
	r.broadcastInfo()
	if r.forceStartNum >= quorumFor(len(r.players)) {
		r.startGame()
	}
}

func (r *Room) startGame() {
	if r.gameStarted {
		return
	}

	owners := make([]string, 0, len(r.players))
	for _, p := range r.players {
		p.isDead = false
		p.operatedTurn = -1
		owners = append(owners, p.id)
	}
	gmap, kings, err := gamemap.Generate(r.mapWidth, r.mapHeight, r.ratios, owners, r.rng)
	if err != nil {
		log.Error().Err(err).Str("room", r.id).Msg("map generation failed")
		r.broadcast(MakePacketError("Game start failed", err.Error()))
		return
	}
	r.gmap = gmap
	r.kings = kings
	r.lastViews = make(map[string][]gamemap.Tile)
	r.lastDead = nil
	r.gameStarted = true

	interval := time.Duration(float64(r.baseTick) / r.gameSpeed)
	r.ticks, r.stopTicker = r.tickerCreator.Create(interval)

	log.Info().
		Str("room", r.id).
		Int("players", len(r.players)).
		Int("width", r.mapWidth).
		Int("height", r.mapHeight).
		Dur("interval", interval).
		Msg("game started")
	r.broadcastInfo()
}

func (r *Room) handleAttack(p *Player, packet ClientPacket) {
	fail := func() {
		r.sendTo(p, MakePacketAttackFailure(packet.From, packet.To))
	}
	if !r.gameStarted || p.isDead || packet.From == nil || packet.To == nil {
		fail()
		return
	}
	if p.operatedTurn >= r.gmap.Turn {
		fail()
		return
	}
	result, err := r.gmap.ApplyMove(p.id, *packet.From, *packet.To, packet.Half)
	if err != nil {
		log.Debug().Err(err).Str("room", r.id).Str("player", p.id).Msg("attack rejected")
		fail()
		return
	}
	p.operatedTurn = r.gmap.Turn
	r.sendTo(p, MakePacketAttackSuccess(*packet.From, *packet.To))

	if result.CapturedOwner != "" {
		if victim := r.playerById(result.CapturedOwner); victim != nil {
			r.markCaptured(victim, p)
		}
	}
}

func (r *Room) markCaptured(victim, capturer *Player) {
	victim.isDead = true
	r.lastDead = victim
	r.broadcast(MakePacketCaptured(capturer.Info(), victim.Info()))
	r.broadcast(MakePacketRoomMessage(capturer.Info(), "captured "+victim.username+"."))
	r.sendTo(victim, MakePacketGameOver(capturer.Info()))
	log.Info().Str("room", r.id).Str("capturer", capturer.id).Str("captured", victim.id).Msg("player captured")
}

func (r *Room) handleSurrender(p *Player) {
	if !r.gameStarted || p.isDead {
		return
	}
	r.gmap.Neutralize(p.id)
	p.isDead = true
	r.lastDead = p
	r.broadcast(MakePacketRoomMessage(p.Info(), "surrendered."))
}

// handleTick is the turn pipeline: eliminations, end check, leaderboard,
// per-player views, then advance and grow.
func (r *Room) handleTick() {
	if !r.gameStarted || r.gmap == nil {
		log.Error().Str("room", r.id).Msg("tick fired without a running game")
		return
	}

	for _, p := range r.players {
		if p.isDead {
			continue
		}
		kingPos, ok := r.kings[p.id]
		if !ok {
			log.Warn().Str("room", r.id).Str("player", p.id).Msg("living player has no king")
			continue
		}
		tile := r.gmap.GetTile(kingPos)
		if tile.Owner == p.id {
			continue
		}
		r.gmap.TransferAll(p.id, tile.Owner)
		if capturer := r.playerById(tile.Owner); capturer != nil {
			r.markCaptured(p, capturer)
		} else {
			p.isDead = true
			r.lastDead = p
			log.Warn().Str("room", r.id).Str("player", p.id).Msg("king lost to no known player")
		}
	}

	alive := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if !p.isDead {
			alive = append(alive, p)
		}
	}
	ended := len(alive) <= 1
	if ended {
		winnerId := ""
		if len(alive) == 1 {
			winnerId = alive[0].id
		} else if r.lastDead != nil {
			// everyone fell between ticks; the last one standing won
			winnerId = r.lastDead.id
		}
		r.broadcast(MakePacketGameEnded(winnerId))
		log.Info().Str("room", r.id).Str("winner", winnerId).Msg("game ended")
	}

	update := GameUpdate{
		Width:       r.gmap.Width,
		Height:      r.gmap.Height,
		Turn:        r.gmap.Turn,
		Leaderboard: r.leaderboard(alive),
	}
	for _, p := range r.players {
		if !p.connected {
			continue
		}
		// the dead spectate without fog
		view := r.gmap.ViewFor(p.id, r.fogOfWar && !p.isDead)
		prev, seen := r.lastViews[p.id]
		var diff []gamemap.DiffEntry
		if !seen {
			diff = gamemap.EncodeFull(view)
		} else {
			diff, _ = gamemap.EncodeDiff(prev, view)
		}
		u := update
		u.Diff = diff
		if r.sendTo(p, MakePacketGameUpdate(u)) {
			r.lastViews[p.id] = view
		} else {
			// a dropped update breaks the diff chain; start over from a
			// full encode once the client drains its inbox
			delete(r.lastViews, p.id)
		}
	}

	if ended {
		r.finishGame()
		return
	}
	r.gmap.AdvanceTurn()
	r.gmap.Grow()
}

func (r *Room) leaderboard(alive []*Player) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(alive))
	for _, p := range alive {
		army, lands := r.gmap.Totals(p.id)
		rows = append(rows, LeaderboardRow{
			Color:      p.color,
			Username:   p.username,
			ArmyCount:  army,
			LandsCount: lands,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ArmyCount != rows[j].ArmyCount {
			return rows[i].ArmyCount > rows[j].ArmyCount
		}
		return rows[i].LandsCount > rows[j].LandsCount
	})
	return rows
}

// finishGame tears the match down and turns the room back into a lobby.
// Seats whose players disconnected mid-game are released now.
func (r *Room) finishGame() {
	if r.stopTicker != nil {
		r.stopTicker()
		r.stopTicker = nil
	}
	r.ticks = nil
	r.gameStarted = false
	r.gmap = nil
	r.kings = nil
	r.lastViews = nil
	r.lastDead = nil
	r.forceStartNum = 0

	remaining := r.players[:0]
	hostLost := false
	for _, p := range r.players {
		if !p.connected {
			hostLost = hostLost || p.isRoomHost
			continue
		}
		p.forceStart = false
		p.isDead = false
		p.operatedTurn = -1
		remaining = append(remaining, p)
	}
	r.players = remaining
	if len(r.players) == 0 {
		r.lobby.RemoveRoom(r.id)
		return
	}
	if hostLost {
		r.players[0].isRoomHost = true
	}
	r.broadcastInfo()
}
