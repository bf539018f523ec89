// game/command.go
package game

// CommandType 房间命令类型
type CommandType string

const (
	CmdJoin        CommandType = "join"
	CmdStart       CommandType = "start"
	CmdRollAndMove CommandType = "roll_and_move"
	CmdResolve     CommandType = "resolve_event"
	CmdLeave       CommandType = "leave"
	// CmdExpireEvent 只由房间内部的超时调度入队，客户端不可用
	CmdExpireEvent CommandType = "expire_event"
)

// Command 提交给房间的一条命令。房间按 FIFO 逐条应用，
// 同一房间不会有两条命令并发执行。
type Command struct {
	Type     CommandType `json:"type"`
	PlayerID string      `json:"player_id"`
	Nickname string      `json:"nickname,omitempty"`
	Avatar   string      `json:"avatar,omitempty"`
	EventID  string      `json:"event_id,omitempty"`
	Outcome  Outcome     `json:"outcome,omitempty"`
	// Roll 回放时外部注入的骰子结果，0 表示由 RNG 产生
	Roll int `json:"roll,omitempty"`
}

// Join 加入玩家并产生一条 delta。大厅阶段是新玩家入场；
// 对局中只接受名单里已有玩家的重连（恢复在线标记，状态保留）。
func (g *Game) Join(playerID, nickname, avatar string) (*StateDelta, error) {
	if p, exists := g.players[playerID]; exists {
		if g.Phase == PhaseFinished {
			return nil, ErrSessionEnded
		}
		p.Connected = true
		delta := g.newDelta("join", playerID)
		delta.touch(g, playerID)
		return delta, nil
	}

	if err := g.AddPlayer(playerID, nickname, avatar); err != nil {
		return nil, err
	}
	delta := g.newDelta("join", playerID)
	delta.touch(g, playerID)
	return delta, nil
}
