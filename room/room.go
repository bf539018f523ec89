// room/room.go
package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/boardgame/board"
	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/logger"
	"github.com/wfunc/boardgame/network"
	"github.com/wfunc/boardgame/rng"
	"github.com/wfunc/boardgame/state"
	"github.com/wfunc/boardgame/timer"
)

// RosterEntry 建房时预置名单里的一个玩家
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type request struct {
	cmd      game.Command
	snapshot bool
	reply    chan response
}

type response struct {
	delta *game.StateDelta
	snap  *game.Snapshot
	err   error
}

// Room 一个房间的权威写入者。所有变更命令经 Submit 入队，
// 由唯一的一个协程按 FIFO 逐条应用；房间之间互不阻塞。
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time

	// game 只允许房间协程触碰，外部一律走 Submit/Snapshot
	game         *game.Game
	StateMachine state.StateMachine

	broadcaster Broadcaster
	recorder    Recorder
	metrics     Metrics
	timers      *timer.Manager

	cmdChan   chan request
	closeChan chan struct{}
	closeOnce sync.Once

	// eventID -> timer task id，只在房间协程里读写
	eventTimers map[string]int64
}

// NewRoom 创建房间并启动它的命令协程。roster 预置名单可为空（自由加入）。
func NewRoom(id, name string, b *board.Board, rules game.Rules, roster []RosterEntry,
	roller rng.Roller, broadcaster Broadcaster, recorder Recorder, metrics Metrics,
	timers *timer.Manager) (*Room, error) {

	g := game.New(id, b, rules, roller)
	for _, entry := range roster {
		if err := g.AddPlayer(entry.PlayerID, entry.Nickname, entry.Avatar); err != nil {
			return nil, err
		}
	}

	room := &Room{
		ID:          id,
		Name:        name,
		CreatedAt:   time.Now(),
		game:        g,
		broadcaster: broadcaster,
		recorder:    recorder,
		metrics:     metrics,
		timers:      timers,
		cmdChan:     make(chan request, 64),
		closeChan:   make(chan struct{}),
		eventTimers: make(map[string]int64),
	}

	room.StateMachine = state.NewBaseStateMachine(state.NewLobbyState(room))
	go room.loop()

	return room, nil
}

// --- 实现 state.RoomContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Game() *game.Game {
	return r.game
}

func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

// ScheduleEventTimeout 给阻塞事件上截止时间闹钟。到点的回调只是往
// 队列里塞一条内部命令，超时结算和普通命令走完全相同的串行路径。
func (r *Room) ScheduleEventTimeout(ev *game.BlockingEvent) {
	if r.timers == nil {
		return
	}
	eventID := ev.ID
	taskID := r.timers.ScheduleAt(ev.Deadline, func() {
		_, err := r.Submit(game.Command{Type: game.CmdExpireEvent, EventID: eventID})
		if err != nil && err != game.ErrStaleEvent && err != game.ErrSessionEnded {
			logger.Log.Warnf("房间 %s 事件 %s 超时结算失败: %v", r.ID, eventID, err)
		}
	})
	r.eventTimers[eventID] = taskID
}

func (r *Room) CancelEventTimeout(eventID string) {
	if taskID, ok := r.eventTimers[eventID]; ok {
		if r.timers != nil {
			r.timers.Cancel(taskID)
		}
		delete(r.eventTimers, eventID)
	}
}

// --- 对外入口 ---

// Submit 房间唯一的变更入口，同步等待结果。
// 拒绝的命令不产生任何状态变化。
func (r *Room) Submit(cmd game.Command) (*game.StateDelta, error) {
	req := request{cmd: cmd, reply: make(chan response, 1)}

	select {
	case r.cmdChan <- req:
	case <-r.closeChan:
		return nil, game.ErrUnknownRoom
	}

	select {
	case resp := <-req.reply:
		return resp.delta, resp.err
	case <-r.closeChan:
		return nil, game.ErrUnknownRoom
	}
}

// Snapshot 当前权威状态的只读副本，迟到和重连的客户端用它同步。
// 快照请求和命令走同一条队列，读到的永远是完整应用后的状态。
func (r *Room) Snapshot() *game.Snapshot {
	req := request{snapshot: true, reply: make(chan response, 1)}

	select {
	case r.cmdChan <- req:
	case <-r.closeChan:
		// 房间已关闭，协程不再消费队列，此时无并发写
		return r.game.Snapshot()
	}

	resp := <-req.reply
	return resp.snap
}

// Finished reports whether the room's session reached its terminal state.
func (r *Room) Finished() bool {
	snap := r.Snapshot()
	return snap.Phase == game.PhaseFinished.String()
}

// Close 停止房间协程。未回复的提交者收到 ErrUnknownRoom。
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}

// --- 房间协程 ---

func (r *Room) loop() {
	for {
		select {
		case <-r.closeChan:
			return
		case req := <-r.cmdChan:
			r.handle(req)
		}
	}
}

func (r *Room) handle(req request) {
	if req.snapshot {
		req.reply <- response{snap: r.game.Snapshot()}
		return
	}

	currentState := r.StateMachine.GetCurrentState()
	delta, err := currentState.HandleCommand(req.cmd)
	if err != nil {
		req.reply <- response{err: err}
		return
	}

	// delta 的应用和广播对同一房间的其他命令原子：都发生在本协程内
	r.publish(delta)
	req.reply <- response{delta: delta}
}

// publish 广播 delta 并落库。终局时额外推送 SessionEnded。
func (r *Room) publish(delta *game.StateDelta) {
	if delta.Roll != 0 {
		logger.Log.Infow("die rolled",
			"room", r.ID, "round", delta.Round, "player", delta.PlayerID, "roll", delta.Roll)
	}

	if r.metrics != nil {
		if delta.Event != nil {
			r.metrics.IncBlockingEvents()
		}
		if delta.EventResolved != nil {
			r.metrics.DecBlockingEvents()
		}
	}

	if r.broadcaster != nil {
		if data, err := json.Marshal(delta); err == nil {
			r.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeStateDelta, data)
		}
	}

	if r.recorder != nil {
		if err := r.recorder.AppendCommand(r.ID, delta); err != nil {
			logger.Log.Errorf("房间 %s 命令日志写入失败: %v", r.ID, err)
		}
		if err := r.recorder.SaveRoomSnapshot(r.game.Snapshot()); err != nil {
			logger.Log.Errorf("房间 %s 快照写入失败: %v", r.ID, err)
		}
	}

	if delta.Finished {
		for eventID := range r.eventTimers {
			r.CancelEventTimeout(eventID)
		}
		if r.broadcaster != nil {
			data, _ := json.Marshal(map[string]interface{}{"room_id": r.ID, "round": delta.Round})
			r.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeSessionEnded, data)
		}
	}
}

// --- 房间管理器 ---

// Manager 进程级房间注册表，带显式的创建/销毁生命周期
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建房间并注册。参见 NewRoom。
func (m *Manager) CreateRoom(id, name string, b *board.Board, rules game.Rules, roster []RosterEntry,
	roller rng.Roller, broadcaster Broadcaster, recorder Recorder, metrics Metrics,
	timers *timer.Manager) (*Room, error) {

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[id]; exists {
		return nil, fmt.Errorf("room %s already exists", id)
	}

	room, err := NewRoom(id, name, b, rules, roster, roller, broadcaster, recorder, metrics, timers)
	if err != nil {
		return nil, err
	}
	m.rooms[id] = room
	return room, nil
}

// RemoveRoom 从注册表移除并关闭房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

// GetRoom 查房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Count 当前房间数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
