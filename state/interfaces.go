// state/interfaces.go
package state

import "github.com/wfunc/boardgame/game"

// RoomContext defines the interface that a Room must implement to be driven
// by the lifecycle states. This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	Game() *game.Game
	ChangeState(newState State) error
	// ScheduleEventTimeout arms the deadline timer for a blocking event.
	ScheduleEventTimeout(ev *game.BlockingEvent)
	// CancelEventTimeout disarms the deadline timer for a resolved event.
	CancelEventTimeout(eventID string)
}
