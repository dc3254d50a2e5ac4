package game

import (
	"github.com/GenniaApp/cubebattle/gamemap"
)

// Server-to-client event names.
const (
	EventRoomInfoUpdate = "room_info_update"
	EventRoomMessage    = "room_message"
	EventSetPlayerId    = "set_player_id"
	EventGameUpdate     = "game_update"
	EventCaptured       = "captured"
	EventGameOver       = "game_over"
	EventGameEnded      = "game_ended"
	EventRejectJoin     = "reject_join"
	EventError          = "error"
	EventAttackSuccess  = "attack_success"
	EventAttackFailure  = "attack_failure"
)

// Client-to-server command names.
const (
	CmdGetRoomInfo        = "get_room_info"
	CmdChangeHost         = "change_host"
	CmdChangeGameSpeed    = "change_game_speed"
	CmdChangeRoomName     = "change_room_name"
	CmdChangeMapWidth     = "change_map_width"
	CmdChangeMapHeight    = "change_map_height"
	CmdChangeMountain     = "change_mountain"
	CmdChangeCity         = "change_city"
	CmdChangeSwamp        = "change_swamp"
	CmdChangeMaxPlayerNum = "change_max_player_num"
	CmdChangeFogOfWar     = "change_fog_of_war"
	CmdForceStart         = "force_start"
	CmdAttack             = "attack"
	CmdPlayerMessage      = "player_message"
	CmdSurrender          = "surrender"
)

// ClientPacket is the single inbound message shape. Which fields matter
// depends on Event; unknown events are rejected at dispatch.
type ClientPacket struct {
	Event    string            `json:"event"`
	From     *gamemap.Position `json:"from,omitempty"`
	To       *gamemap.Position `json:"to,omitempty"`
	Half     bool              `json:"half,omitempty"`
	Text     string            `json:"text,omitempty"`
	TargetId string            `json:"targetId,omitempty"`
	Number   float64           `json:"number,omitempty"`
	Flag     bool              `json:"flag,omitempty"`
}

// PlayerInfo is the public slice of a player's state.
type PlayerInfo struct {
	Id         string `json:"id"`
	Username   string `json:"username"`
	Color      int    `json:"color"`
	IsRoomHost bool   `json:"isRoomHost"`
	IsDead     bool   `json:"isDead"`
	ForceStart bool   `json:"forceStart"`
}

// RoomInfo is the full room state broadcast on every room mutation.
type RoomInfo struct {
	Id            string       `json:"id"`
	RoomName      string       `json:"roomName"`
	Players       []PlayerInfo `json:"players"`
	MaxPlayers    int          `json:"maxPlayers"`
	GameSpeed     float64      `json:"gameSpeed"`
	MapWidth      int          `json:"mapWidth"`
	MapHeight     int          `json:"mapHeight"`
	Mountain      float64      `json:"mountain"`
	City          float64      `json:"city"`
	Swamp         float64      `json:"swamp"`
	FogOfWar      bool         `json:"fogOfWar"`
	GameStarted   bool         `json:"gameStarted"`
	ForceStartNum int          `json:"forceStartNum"`
}

// RoomSummary is the compact listing entry served by the room directory.
type RoomSummary struct {
	Id          string  `json:"id"`
	RoomName    string  `json:"roomName"`
	Players     int     `json:"players"`
	MaxPlayers  int     `json:"maxPlayers"`
	GameSpeed   float64 `json:"gameSpeed"`
	GameStarted bool    `json:"gameStarted"`
}

// LeaderboardRow is one living player's standing, sorted by army then land.
type LeaderboardRow struct {
	Color      int    `json:"color"`
	Username   string `json:"username"`
	ArmyCount  int    `json:"armyCount"`
	LandsCount int    `json:"landsCount"`
}

// GameUpdate carries one tick's masked view delta for one player.
type GameUpdate struct {
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	Turn        int                 `json:"turn"`
	Diff        []gamemap.DiffEntry `json:"diff"`
	Leaderboard []LeaderboardRow    `json:"leaderboard"`
}

// ServerPacket is the single outbound message shape; only the fields
// relevant to Event are populated.
type ServerPacket struct {
	Event        string            `json:"event"`
	Room         *RoomInfo         `json:"room,omitempty"`
	Sender       *PlayerInfo       `json:"sender,omitempty"`
	Text         string            `json:"text,omitempty"`
	PlayerId     string            `json:"playerId,omitempty"`
	SessionToken string            `json:"sessionToken,omitempty"`
	Update       *GameUpdate       `json:"update,omitempty"`
	Capturer     *PlayerInfo       `json:"capturer,omitempty"`
	Captured     *PlayerInfo       `json:"captured,omitempty"`
	WinnerId     string            `json:"winnerId,omitempty"`
	Title        string            `json:"title,omitempty"`
	Message      string            `json:"message,omitempty"`
	From         *gamemap.Position `json:"from,omitempty"`
	To           *gamemap.Position `json:"to,omitempty"`
}

func MakePacketRoomInfoUpdate(info RoomInfo) *ServerPacket {
	return &ServerPacket{Event: EventRoomInfoUpdate, Room: &info}
}

func MakePacketRoomMessage(sender PlayerInfo, text string) *ServerPacket {
	return &ServerPacket{Event: EventRoomMessage, Sender: &sender, Text: text}
}

func MakePacketSetPlayerId(playerId, sessionToken string) *ServerPacket {
	return &ServerPacket{Event: EventSetPlayerId, PlayerId: playerId, SessionToken: sessionToken}
}

func MakePacketGameUpdate(update GameUpdate) *ServerPacket {
	return &ServerPacket{Event: EventGameUpdate, Update: &update}
}

func MakePacketCaptured(capturer, captured PlayerInfo) *ServerPacket {
	return &ServerPacket{Event: EventCaptured, Capturer: &capturer, Captured: &captured}
}

func MakePacketGameOver(capturer PlayerInfo) *ServerPacket {
	return &ServerPacket{Event: EventGameOver, Capturer: &capturer}
}

func MakePacketGameEnded(winnerId string) *ServerPacket {
	return &ServerPacket{Event: EventGameEnded, WinnerId: winnerId}
}

func MakePacketRejectJoin(message string) *ServerPacket {
	return &ServerPacket{Event: EventRejectJoin, Message: message}
}

func MakePacketError(title, message string) *ServerPacket {
	return &ServerPacket{Event: EventError, Title: title, Message: message}
}

func MakePacketAttackSuccess(from, to gamemap.Position) *ServerPacket {
	return &ServerPacket{Event: EventAttackSuccess, From: &from, To: &to}
}

func MakePacketAttackFailure(from, to *gamemap.Position) *ServerPacket {
	return &ServerPacket{Event: EventAttackFailure, From: from, To: to}
}
