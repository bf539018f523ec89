// game/game.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/boardgame/board"
	"github.com/wfunc/boardgame/rng"
)

// Phase 对局生命周期
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Game 一个房间的权威状态。所有方法都必须由房间的单个写协程调用，
// 结构内部不加锁（single-writer）。
type Game struct {
	RoomID string
	Board  *board.Board
	Rules  Rules

	roller rng.Roller

	players map[string]*Player
	order   []string // 入场顺序 = 回合顺序
	current int      // order 下标
	Round   int
	Phase   Phase

	// stars 每个房间自己的星星状态副本，棋盘定义本身不变
	stars map[int]bool

	events         map[string]*BlockingEvent // event id -> event
	eventsByPlayer map[string]string         // initiator id -> event id

	seq int64
}

// New 创建一个处于大厅阶段的对局
func New(roomID string, b *board.Board, rules Rules, roller rng.Roller) *Game {
	return &Game{
		RoomID:         roomID,
		Board:          b,
		Rules:          rules,
		roller:         roller,
		players:        make(map[string]*Player),
		events:         make(map[string]*BlockingEvent),
		eventsByPlayer: make(map[string]string),
		stars:          make(map[int]bool),
		Phase:          PhaseLobby,
	}
}

// AddPlayer 大厅阶段加入一个玩家
func (g *Game) AddPlayer(id, nickname, avatar string) error {
	if g.Phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	if len(g.players) >= g.Rules.MaxPlayers {
		return ErrRoomFull
	}
	if _, exists := g.players[id]; exists {
		return fmt.Errorf("player %s already joined", id)
	}

	g.players[id] = &Player{
		ID:        id,
		Nickname:  nickname,
		Avatar:    avatar,
		Items:     []Item{},
		Connected: true,
	}
	g.order = append(g.order, id)
	return nil
}

// Start 冻结名单并进入对局。至少需要一个玩家。
func (g *Game) Start() (*StateDelta, error) {
	if g.Phase == PhaseFinished {
		return nil, ErrSessionEnded
	}
	if g.Phase == PhaseInProgress {
		return nil, ErrAlreadyStarted
	}
	if len(g.order) == 0 {
		return nil, ErrNotEnoughPlayers
	}

	g.Phase = PhaseInProgress
	g.Round = 1
	g.current = 0
	for _, pos := range g.Board.StarPositions {
		g.stars[pos] = true
	}
	for _, p := range g.players {
		p.Coins = g.Rules.StartingCoins
	}

	delta := g.newDelta("start", "")
	for _, id := range g.order {
		delta.touch(g, id)
	}
	delta.NextTurn = g.order[g.current]
	delta.Round = g.Round
	return delta, nil
}

// CurrentPlayer 当前回合的玩家
func (g *Game) CurrentPlayer() (string, bool) {
	if g.Phase != PhaseInProgress || len(g.order) == 0 {
		return "", false
	}
	return g.order[g.current], true
}

// IsPlayersTurn reports whether playerID holds the current turn.
func (g *Game) IsPlayersTurn(playerID string) bool {
	cur, ok := g.CurrentPlayer()
	return ok && cur == playerID
}

// Player 按 id 查玩家
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// PendingEvent 玩家作为发起者挂着的阻塞事件
func (g *Game) PendingEvent(playerID string) (*BlockingEvent, bool) {
	id, ok := g.eventsByPlayer[playerID]
	if !ok {
		return nil, false
	}
	ev, ok := g.events[id]
	return ev, ok
}

// Event 按 id 查阻塞事件
func (g *Game) Event(eventID string) (*BlockingEvent, bool) {
	ev, ok := g.events[eventID]
	return ev, ok
}

// Events returns all unresolved blocking events.
func (g *Game) Events() []*BlockingEvent {
	out := make([]*BlockingEvent, 0, len(g.events))
	for _, ev := range g.events {
		out = append(out, ev)
	}
	return out
}

// RollAndMove 为当前玩家掷骰并移动。骰子结果由 RNG 产生后传给
// ApplyRoll，这样同一个 roll 可以被日志记录和回放。
func (g *Game) RollAndMove(playerID string) (*StateDelta, error) {
	if err := g.checkTurn(playerID); err != nil {
		return nil, err
	}
	return g.ApplyRoll(playerID, g.roller.RollDie())
}

// ApplyRoll 应用一个外部给定的骰子结果。回放时直接调用。
func (g *Game) ApplyRoll(playerID string, roll int) (*StateDelta, error) {
	if err := g.checkTurn(playerID); err != nil {
		return nil, err
	}
	if roll < 1 || roll > 6 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoll, roll)
	}

	p := g.players[playerID]
	delta := g.newDelta("roll_and_move", playerID)
	delta.Roll = roll
	delta.FromPos = p.Position

	// 移动：允许绕圈，越界取模
	p.Position = (p.Position + roll) % g.Board.TileCount()
	tile := g.Board.TileAt(p.Position)
	delta.ToPos = p.Position
	delta.TileType = string(tile.Type)
	delta.touch(g, playerID)

	blocking := g.resolveTile(p, tile, delta)
	if blocking == nil {
		// 即时结算，回合立刻前进
		g.advanceTurn(delta)
	}

	delta.finalize(g)
	return delta, nil
}

// checkTurn 校验命令发起者是否拥有当前回合且没有挂起事件
func (g *Game) checkTurn(playerID string) error {
	switch g.Phase {
	case PhaseLobby:
		return ErrNotStarted
	case PhaseFinished:
		return ErrSessionEnded
	}
	if _, ok := g.players[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if !g.IsPlayersTurn(playerID) {
		return ErrNotYourTurn
	}
	if _, pending := g.eventsByPlayer[playerID]; pending {
		return ErrEventPending
	}
	return nil
}

// resolveTile 执行落点格子的效果。返回非 nil 表示开启了阻塞事件，
// 回合在事件结算前不前进。
func (g *Game) resolveTile(p *Player, tile board.Tile, delta *StateDelta) *BlockingEvent {
	switch tile.Type {
	case board.TileNormal:
		return nil

	case board.TileStar:
		// 星星只能被领取一次：灭灯和加星在同一条命令里原子完成
		if g.stars[tile.Position] {
			g.stars[tile.Position] = false
			p.Stars++
			pos := tile.Position
			delta.StarClaimed = &pos
		}
		return nil

	case board.TileEvent:
		g.applyEventEffect(p, delta)
		return nil

	case board.TileTrap:
		g.applyTrap(p, delta)
		return nil

	case board.TileQuestion:
		ev := &BlockingEvent{
			ID:       uuid.New().String(),
			Kind:     EventQuestion,
			PlayerID: p.ID,
			TilePos:  tile.Position,
			Deadline: time.Now().Add(g.Rules.QuestionTimeout),
		}
		g.openEvent(ev, delta)
		return ev

	case board.TileDuel:
		opponent := g.nearestOpponent(p.ID)
		if opponent == "" {
			// 没有可决斗的对手，格子退化为普通格
			return nil
		}
		ev := &BlockingEvent{
			ID:         uuid.New().String(),
			Kind:       EventDuel,
			PlayerID:   p.ID,
			OpponentID: opponent,
			TilePos:    tile.Position,
			Deadline:   time.Now().Add(g.Rules.DuelTimeout),
		}
		g.openEvent(ev, delta)
		return ev
	}
	return nil
}

func (g *Game) openEvent(ev *BlockingEvent, delta *StateDelta) {
	g.events[ev.ID] = ev
	g.eventsByPlayer[ev.PlayerID] = ev.ID
	delta.Event = ev
}

// applyEventEffect event 格子：从配置池里按权重抽一个效果并应用
func (g *Game) applyEventEffect(p *Player, delta *StateDelta) {
	pool := g.Rules.EventPool
	if len(pool) == 0 {
		return
	}
	weights := make([]int, len(pool))
	for i, e := range pool {
		weights[i] = e.Weight
	}
	effect := pool[g.roller.Pick(weights)]

	switch effect.Effect {
	case "coins":
		applied := p.addCoins(effect.Amount)
		delta.Effect = fmt.Sprintf("coins:%+d", applied)
	case "item":
		item := Item{ID: uuid.New().String(), Name: effect.Item, Type: effect.Item}
		p.Items = append(p.Items, item)
		delta.Effect = "item:" + effect.Item
	case "shift":
		n := g.Board.TileCount()
		p.Position = ((p.Position+effect.Amount)%n + n) % n
		delta.ToPos = p.Position
		delta.Effect = fmt.Sprintf("shift:%+d", effect.Amount)
	}
	delta.touch(g, p.ID)
}

// applyTrap trap 格子：随机严重度，扣金币和/或跳过下一回合
func (g *Game) applyTrap(p *Player, delta *StateDelta) {
	severity := g.roller.Intn(3)
	if severity == 0 || severity == 2 {
		loss := 1 + g.roller.Intn(g.Rules.TrapMaxCoins)
		applied := p.addCoins(-loss)
		delta.Effect = fmt.Sprintf("trap:coins:%+d", applied)
	}
	if severity == 1 || severity == 2 {
		p.SkipNextTurn = true
		if delta.Effect != "" {
			delta.Effect += ",skip"
		} else {
			delta.Effect = "trap:skip"
		}
	}
	delta.touch(g, p.ID)
}

// nearestOpponent 选决斗对手：棋盘环形距离最近的其他玩家，
// 距离相同时按入场顺序取先加入的。断线玩家不参与。
func (g *Game) nearestOpponent(playerID string) string {
	me := g.players[playerID]
	n := g.Board.TileCount()

	best := ""
	bestDist := n + 1
	for _, id := range g.order {
		if id == playerID {
			continue
		}
		other := g.players[id]
		if !other.Connected {
			continue
		}
		d := me.Position - other.Position
		if d < 0 {
			d = -d
		}
		if n-d < d {
			d = n - d
		}
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best
}

// ResolveEvent 结算一个阻塞事件。playerID 必须是事件参与者；
// 超时路径走 ExpireEvent。
func (g *Game) ResolveEvent(playerID, eventID string, outcome Outcome) (*StateDelta, error) {
	if g.Phase == PhaseFinished {
		return nil, ErrSessionEnded
	}
	if g.Phase == PhaseLobby {
		return nil, ErrNotStarted
	}
	if _, ok := g.players[playerID]; !ok {
		return nil, ErrUnknownPlayer
	}
	ev, ok := g.events[eventID]
	if !ok {
		return nil, ErrStaleEvent
	}
	if !ev.involves(playerID) {
		return nil, ErrNotYourTurn
	}
	return g.closeEvent(ev, outcome, false)
}

// ExpireEvent 截止时间到后由房间调度的缺省结算：
// 问题按答错处理，决斗随机定胜负。
func (g *Game) ExpireEvent(eventID string) (*StateDelta, error) {
	if g.Phase != PhaseInProgress {
		return nil, ErrSessionEnded
	}
	ev, ok := g.events[eventID]
	if !ok {
		return nil, ErrStaleEvent
	}

	outcome := Outcome{Result: "incorrect"}
	if ev.Kind == EventDuel {
		outcome.Winner = ev.PlayerID
		if g.roller.Intn(2) == 1 {
			outcome.Winner = ev.OpponentID
		}
	}
	return g.closeEvent(ev, outcome, true)
}

func (g *Game) closeEvent(ev *BlockingEvent, outcome Outcome, timedOut bool) (*StateDelta, error) {
	// 先验证再分配 delta：被拒绝的决议不产生任何状态变化
	switch ev.Kind {
	case EventQuestion:
		if outcome.Result != "correct" && outcome.Result != "incorrect" {
			return nil, fmt.Errorf("%w: result %q", ErrInvalidOutcome, outcome.Result)
		}
	case EventDuel:
		if outcome.Winner != ev.PlayerID && outcome.Winner != ev.OpponentID {
			return nil, fmt.Errorf("%w: winner %q is not a duel participant", ErrInvalidOutcome, outcome.Winner)
		}
	}

	delta := g.newDelta("resolve_event", ev.PlayerID)
	result := &EventResult{EventID: ev.ID, Kind: ev.Kind, TimedOut: timedOut}

	switch ev.Kind {
	case EventQuestion:
		p := g.players[ev.PlayerID]
		if outcome.Result == "correct" {
			result.Correct = true
			p.addCoins(g.Rules.QuestionReward)
		} else {
			p.addCoins(-g.Rules.QuestionPenalty)
		}
		delta.touch(g, ev.PlayerID)

	case EventDuel:
		winnerID, loserID := outcome.Winner, ev.OpponentID
		if winnerID == ev.OpponentID {
			loserID = ev.PlayerID
		}
		winner, loser := g.players[winnerID], g.players[loserID]

		// 输家有星就转移一颗星，否则转移押注金币
		if loser.Stars > 0 {
			loser.Stars--
			winner.Stars++
		} else {
			taken := -loser.addCoins(-g.Rules.DuelCoinsStake)
			winner.addCoins(taken)
		}
		result.Winner = winnerID
		result.Loser = loserID
		delta.touch(g, winnerID)
		delta.touch(g, loserID)
	}

	delete(g.events, ev.ID)
	delete(g.eventsByPlayer, ev.PlayerID)
	delta.EventResolved = result

	// 发起者是当前回合持有者时，事件结算后回合才前进
	if cur, ok := g.CurrentPlayer(); ok && cur == ev.PlayerID {
		g.advanceTurn(delta)
	}

	delta.finalize(g)
	return delta, nil
}

// Leave 玩家离开。大厅阶段直接出名单；对局中标记断线，
// 之后轮到该玩家时自动跳过（保留状态，失去回合）。
func (g *Game) Leave(playerID string) (*StateDelta, error) {
	p, ok := g.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}

	if g.Phase == PhaseLobby {
		delete(g.players, playerID)
		for i, id := range g.order {
			if id == playerID {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
		delta := g.newDelta("leave", playerID)
		return delta, nil
	}

	if g.Phase == PhaseFinished {
		return nil, ErrSessionEnded
	}

	p.Connected = false
	delta := g.newDelta("leave", playerID)
	delta.touch(g, playerID)

	// 挂着的事件按超时缺省结算，避免别人永远等它
	if evID, pending := g.eventsByPlayer[playerID]; pending {
		if ev, ok := g.events[evID]; ok {
			outcome := Outcome{Result: "incorrect"}
			if ev.Kind == EventDuel {
				outcome.Winner = ev.OpponentID
			}
			sub, err := g.closeEvent(ev, outcome, true)
			if err == nil {
				delta.EventResolved = sub.EventResolved
				for _, changed := range sub.Players {
					delta.touch(g, changed.ID)
				}
				delta.NextTurn = sub.NextTurn
				delta.Round = sub.Round
				delta.Finished = sub.Finished
				delta.Skipped = sub.Skipped
			}
		}
	}

	// 只剩一个在线玩家时对局终止
	if g.connectedCount() <= 1 {
		g.finish(delta)
	} else if cur, ok := g.CurrentPlayer(); ok && cur == playerID && delta.NextTurn == "" {
		g.advanceTurn(delta)
	}

	delta.finalize(g)
	return delta, nil
}

// connectedCount 在线玩家数
func (g *Game) connectedCount() int {
	n := 0
	for _, p := range g.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// advanceTurn 把回合指针推进到下一个应当行动的玩家。
// 跳过标记消耗一次即清除；断线玩家无副作用跳过。
// 指针绕回起点时回合数 +1，超过上限则对局终止。
func (g *Game) advanceTurn(delta *StateDelta) {
	if g.connectedCount() == 0 {
		g.finish(delta)
		return
	}

	// 每个跳过标记最多消耗一次，所以 2N 步内必然落在某个可行动玩家上
	for i := 0; i < 2*len(g.order); i++ {
		g.current = (g.current + 1) % len(g.order)
		if g.current == 0 {
			if g.Round >= g.Rules.MaxRounds {
				g.finish(delta)
				return
			}
			g.Round++
		}

		p := g.players[g.order[g.current]]
		if !p.Connected {
			delta.Skipped = append(delta.Skipped, p.ID)
			continue
		}
		if p.SkipNextTurn {
			p.SkipNextTurn = false
			delta.Skipped = append(delta.Skipped, p.ID)
			delta.touch(g, p.ID)
			continue
		}
		delta.NextTurn = p.ID
		delta.Round = g.Round
		return
	}

	// 所有人都不可行动（理论上只剩断线玩家才会走到这里）
	g.finish(delta)
}

// finish 进入终局。只会发生一次。
func (g *Game) finish(delta *StateDelta) {
	if g.Phase == PhaseFinished {
		return
	}
	g.Phase = PhaseFinished
	delta.Finished = true
	delta.Round = g.Round
	delta.NextTurn = ""
}

// Finished reports whether the session reached its terminal state.
func (g *Game) Finished() bool {
	return g.Phase == PhaseFinished
}

// newDelta 分配下一条 delta
func (g *Game) newDelta(command, playerID string) *StateDelta {
	g.seq++
	return &StateDelta{
		RoomID:   g.RoomID,
		Seq:      g.seq,
		Command:  command,
		PlayerID: playerID,
	}
}

// Snapshot 当前完整状态的副本
func (g *Game) Snapshot() *Snapshot {
	snap := &Snapshot{
		RoomID:    g.RoomID,
		BoardID:   g.Board.ID,
		Phase:     g.Phase.String(),
		Round:     g.Round,
		MaxRounds: g.Rules.MaxRounds,
		Players:   make([]Player, 0, len(g.order)),
		Stars:     make(map[int]bool, len(g.stars)),
		Seq:       g.seq,
	}
	if cur, ok := g.CurrentPlayer(); ok {
		snap.CurrentTurn = cur
	}
	for _, id := range g.order {
		snap.Players = append(snap.Players, g.players[id].view())
	}
	for pos, active := range g.stars {
		snap.Stars[pos] = active
	}
	for _, ev := range g.events {
		cp := *ev
		snap.Events = append(snap.Events, &cp)
	}
	return snap
}
