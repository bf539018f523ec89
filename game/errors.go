// game/errors.go
package game

import "errors"

// 命令错误分类。拒绝只影响当前命令，从不破坏房间状态。
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidRoll      = errors.New("invalid roll")
	ErrSessionEnded     = errors.New("session ended")
	ErrNotStarted       = errors.New("session not started")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrUnknownRoom      = errors.New("unknown room")
	ErrStaleEvent       = errors.New("stale event")
	ErrEventPending     = errors.New("blocking event pending")
	ErrInvalidOutcome   = errors.New("invalid event outcome")
	ErrRoomFull         = errors.New("room is full")
	ErrNotEnoughPlayers = errors.New("not enough players")
)
