package state

import (
	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/logger"
)

// PlayingState 对局阶段：名单冻结，回合循环生效
type PlayingState struct {
	RoomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   "playing",
			Room: room,
		},
	}
}

func (s *PlayingState) OnEnter() {
	logger.Log.Infof("房间 %s 开始对局，回合上限 %d", s.Room.GetID(), s.Room.Game().Rules.MaxRounds)
}

// HandleCommand handles in-progress commands. Every accepted command yields
// exactly one delta; whenever a delta reports the terminal state the room is
// moved to FinishedState before the delta is returned.
func (s *PlayingState) HandleCommand(cmd game.Command) (*game.StateDelta, error) {
	g := s.Room.Game()

	var delta *game.StateDelta
	var err error

	switch cmd.Type {
	case game.CmdRollAndMove:
		if cmd.Roll != 0 {
			delta, err = g.ApplyRoll(cmd.PlayerID, cmd.Roll)
		} else {
			delta, err = g.RollAndMove(cmd.PlayerID)
		}
		if err == nil && delta.Event != nil {
			s.Room.ScheduleEventTimeout(delta.Event)
		}

	case game.CmdResolve:
		delta, err = g.ResolveEvent(cmd.PlayerID, cmd.EventID, cmd.Outcome)
		if err == nil {
			s.Room.CancelEventTimeout(cmd.EventID)
		}

	case game.CmdExpireEvent:
		delta, err = g.ExpireEvent(cmd.EventID)
		if err == nil {
			logger.Log.Infow("blocking event expired",
				"room", s.Room.GetID(), "event", cmd.EventID)
		}

	case game.CmdLeave:
		delta, err = g.Leave(cmd.PlayerID)

	case game.CmdStart:
		return nil, game.ErrAlreadyStarted

	case game.CmdJoin:
		// 名单已冻结，只有重连会成功
		delta, err = g.Join(cmd.PlayerID, cmd.Nickname, cmd.Avatar)

	default:
		return nil, game.ErrInvalidOutcome
	}

	if err != nil {
		return nil, err
	}

	if delta.Finished {
		s.Room.ChangeState(NewFinishedState(s.Room))
	}
	return delta, nil
}
