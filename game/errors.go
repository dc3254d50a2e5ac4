package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrRoomCapacity = errors.New("room count exceeded")
	ErrRoomExists   = errors.New("room id already taken")
	ErrGameStarted  = errors.New("game is already started")
	ErrBadUsername  = errors.New("username is invalid")
)
