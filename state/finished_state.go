package state

import (
	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/logger"
)

// FinishedState 终局：不再接受任何变更命令
type FinishedState struct {
	RoomStateBase
}

func NewFinishedState(room RoomContext) *FinishedState {
	return &FinishedState{
		RoomStateBase: RoomStateBase{
			ID:   "finished",
			Room: room,
		},
	}
}

func (s *FinishedState) OnEnter() {
	logger.Log.Infof("房间 %s 对局结束", s.Room.GetID())
}

func (s *FinishedState) HandleCommand(cmd game.Command) (*game.StateDelta, error) {
	return nil, game.ErrSessionEnded
}
