// game/delta.go
package game

import "time"

// EventKind 阻塞事件类型
type EventKind string

const (
	EventQuestion EventKind = "question"
	EventDuel     EventKind = "duel"
)

// BlockingEvent 需要外部输入才能结算的事件（问题、决斗）。
// 每个玩家同一时刻最多只能挂一个。
type BlockingEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	PlayerID   string    `json:"player_id"`
	OpponentID string    `json:"opponent_id,omitempty"`
	TilePos    int       `json:"tile_pos"`
	Deadline   time.Time `json:"deadline"`
}

// involves reports whether playerID participates in the event.
func (e *BlockingEvent) involves(playerID string) bool {
	return e.PlayerID == playerID || e.OpponentID == playerID
}

// Outcome 决议命令携带的外部结果
type Outcome struct {
	// Result is "correct" or "incorrect" for question events.
	Result string `json:"result,omitempty"`
	// Winner is the winning player id for duel events.
	Winner string `json:"winner,omitempty"`
}

// EventResult 事件结算后的摘要，进入 delta
type EventResult struct {
	EventID string    `json:"event_id"`
	Kind    EventKind `json:"kind"`
	// Correct is set for questions.
	Correct bool `json:"correct,omitempty"`
	// Winner/Loser are set for duels.
	Winner string `json:"winner,omitempty"`
	Loser  string `json:"loser,omitempty"`
	// TimedOut marks a default resolution after the deadline passed.
	TimedOut bool `json:"timed_out,omitempty"`
}

// StateDelta 一条已接受命令产生的权威状态变化，广播给房间内所有客户端。
// 每条被接受的变更命令恰好产生一条 delta。
type StateDelta struct {
	RoomID  string `json:"room_id"`
	Seq     int64  `json:"seq"`
	Command string `json:"command"`

	PlayerID string `json:"player_id,omitempty"`
	Roll     int    `json:"roll,omitempty"`
	FromPos  int    `json:"from_pos,omitempty"`
	ToPos    int    `json:"to_pos,omitempty"`
	TileType string `json:"tile_type,omitempty"`

	// StarClaimed is the board position of a star deactivated by this command.
	StarClaimed *int `json:"star_claimed,omitempty"`
	// Effect describes an applied event-tile effect, e.g. "coins:+5".
	Effect string `json:"effect,omitempty"`

	// Event is set when this command opened a blocking event.
	Event *BlockingEvent `json:"event,omitempty"`
	// EventResolved is set when this command closed a blocking event.
	EventResolved *EventResult `json:"event_resolved,omitempty"`

	// Players carries the post-command state of every player this command touched.
	Players []Player `json:"players,omitempty"`

	// Skipped lists players whose turn was consumed without acting
	// (skip flag or disconnect).
	Skipped []string `json:"skipped,omitempty"`

	NextTurn string `json:"next_turn,omitempty"`
	Round    int    `json:"round,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// touch records playerID as changed by this delta (once).
func (d *StateDelta) touch(g *Game, playerID string) {
	for _, p := range d.Players {
		if p.ID == playerID {
			return
		}
	}
	if p, ok := g.players[playerID]; ok {
		d.Players = append(d.Players, p.view())
	}
}

// finalize refreshes the views of touched players so the delta reflects the
// state after every mutation of the command.
func (d *StateDelta) finalize(g *Game) {
	for i, p := range d.Players {
		if cur, ok := g.players[p.ID]; ok {
			d.Players[i] = cur.view()
		}
	}
}

// Snapshot 房间完整状态的只读副本，给迟到/重连的客户端同步用
type Snapshot struct {
	RoomID      string           `json:"room_id"`
	BoardID     string           `json:"board_id"`
	Phase       string           `json:"phase"`
	Round       int              `json:"round"`
	MaxRounds   int              `json:"max_rounds"`
	CurrentTurn string           `json:"current_turn,omitempty"`
	Players     []Player         `json:"players"`
	Stars       map[int]bool     `json:"stars"`
	Events      []*BlockingEvent `json:"events,omitempty"`
	Seq         int64            `json:"seq"`
}
