package state

import (
	"github.com/wfunc/boardgame/game"

	"github.com/wfunc/boardgame/logger"
)

// LobbyState 大厅阶段：名单可变，不接受对局命令
type LobbyState struct {
	RoomStateBase
}

func NewLobbyState(room RoomContext) *LobbyState {
	return &LobbyState{
		RoomStateBase: RoomStateBase{
			ID:   "lobby",
			Room: room,
		},
	}
}

func (s *LobbyState) OnEnter() {
	logger.Log.Infof("房间 %s 进入大厅阶段", s.Room.GetID())
}

// HandleCommand handles lobby-phase commands: join, leave and start.
func (s *LobbyState) HandleCommand(cmd game.Command) (*game.StateDelta, error) {
	g := s.Room.Game()

	switch cmd.Type {
	case game.CmdJoin:
		return g.Join(cmd.PlayerID, cmd.Nickname, cmd.Avatar)

	case game.CmdLeave:
		return g.Leave(cmd.PlayerID)

	case game.CmdStart:
		delta, err := g.Start()
		if err != nil {
			return nil, err
		}
		s.Room.ChangeState(NewPlayingState(s.Room))
		return delta, nil

	default:
		return nil, game.ErrNotStarted
	}
}
