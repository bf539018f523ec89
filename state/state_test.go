package state

import (
	"testing"

	"github.com/wfunc/boardgame/board"
	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/rng"
)

// MockState is a test double for the State interface.
type MockState struct {
	ID            string
	OnEnterCalled bool
	OnExitCalled  bool
}

func (m *MockState) OnEnter() { m.OnEnterCalled = true }
func (m *MockState) OnExit()  { m.OnExitCalled = true }
func (m *MockState) GetID() string {
	return m.ID
}
func (m *MockState) HandleCommand(cmd game.Command) (*game.StateDelta, error) {
	return nil, nil
}

func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset()

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}
	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}
	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_BlockedTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}

	sm := NewBaseStateMachine(stateA)
	if err := sm.AddTransition(stateA, stateB, func() bool { return false }); err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	stateA.reset()
	if err := sm.ChangeState(stateB); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "A" {
		t.Errorf("Expected current state to remain A, got %s", sm.GetCurrentState().GetID())
	}
	if stateA.OnExitCalled || stateB.OnEnterCalled {
		t.Error("Lifecycle hooks must not fire on a blocked transition")
	}
}

// stubRoom implements RoomContext around a real game for lifecycle tests.
type stubRoom struct {
	id        string
	g         *game.Game
	machine   StateMachine
	scheduled []string
	cancelled []string
}

func (r *stubRoom) GetID() string     { return r.id }
func (r *stubRoom) Game() *game.Game  { return r.g }
func (r *stubRoom) ChangeState(s State) error {
	return r.machine.ChangeState(s)
}
func (r *stubRoom) ScheduleEventTimeout(ev *game.BlockingEvent) {
	r.scheduled = append(r.scheduled, ev.ID)
}
func (r *stubRoom) CancelEventTimeout(eventID string) {
	r.cancelled = append(r.cancelled, eventID)
}

func newStubRoom(t *testing.T) *stubRoom {
	t.Helper()
	tiles := make([]board.Tile, 10)
	for i := range tiles {
		tiles[i] = board.Tile{Position: i, Type: board.TileNormal}
	}
	tiles[5].Type = board.TileQuestion
	b := &board.Board{ID: "test", Name: "Test", Tiles: tiles}

	rules := game.DefaultRules()
	rules.MaxRounds = 5

	r := &stubRoom{id: "room1", g: game.New("room1", b, rules, rng.Seeded(1))}
	r.machine = NewBaseStateMachine(NewLobbyState(r))
	return r
}

func handle(t *testing.T, r *stubRoom, cmd game.Command) *game.StateDelta {
	t.Helper()
	delta, err := r.machine.GetCurrentState().HandleCommand(cmd)
	if err != nil {
		t.Fatalf("HandleCommand(%s) failed: %v", cmd.Type, err)
	}
	return delta
}

func TestLifecycle_LobbyToPlayingToFinished(t *testing.T) {
	r := newStubRoom(t)

	// 大厅阶段不接受掷骰
	if _, err := r.machine.GetCurrentState().HandleCommand(
		game.Command{Type: game.CmdRollAndMove, PlayerID: "A"}); err != game.ErrNotStarted {
		t.Errorf("Expected ErrNotStarted in lobby, got %v", err)
	}

	handle(t, r, game.Command{Type: game.CmdJoin, PlayerID: "A", Nickname: "a"})
	handle(t, r, game.Command{Type: game.CmdJoin, PlayerID: "B", Nickname: "b"})
	handle(t, r, game.Command{Type: game.CmdStart, PlayerID: "A"})

	if r.machine.GetCurrentState().GetID() != "playing" {
		t.Fatalf("Expected playing state after start, got %s", r.machine.GetCurrentState().GetID())
	}

	// 对局中重复 start 拒绝
	if _, err := r.machine.GetCurrentState().HandleCommand(
		game.Command{Type: game.CmdStart, PlayerID: "A"}); err != game.ErrAlreadyStarted {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	// 打满回合直到终局
	r.g.Rules.MaxRounds = 1
	handle(t, r, game.Command{Type: game.CmdRollAndMove, PlayerID: "A", Roll: 1})
	delta := handle(t, r, game.Command{Type: game.CmdRollAndMove, PlayerID: "B", Roll: 1})
	if !delta.Finished {
		t.Fatal("Expected session to finish")
	}

	if r.machine.GetCurrentState().GetID() != "finished" {
		t.Fatalf("Expected finished state, got %s", r.machine.GetCurrentState().GetID())
	}

	// 终局拒绝一切变更命令
	if _, err := r.machine.GetCurrentState().HandleCommand(
		game.Command{Type: game.CmdRollAndMove, PlayerID: "A", Roll: 1}); err != game.ErrSessionEnded {
		t.Errorf("Expected ErrSessionEnded, got %v", err)
	}
}

func TestLifecycle_BlockingEventSchedulesTimeout(t *testing.T) {
	r := newStubRoom(t)
	handle(t, r, game.Command{Type: game.CmdJoin, PlayerID: "A", Nickname: "a"})
	handle(t, r, game.Command{Type: game.CmdJoin, PlayerID: "B", Nickname: "b"})
	handle(t, r, game.Command{Type: game.CmdStart, PlayerID: "A"})

	// A 从 0 掷 5 落在 question 格
	delta := handle(t, r, game.Command{Type: game.CmdRollAndMove, PlayerID: "A", Roll: 5})
	if delta.Event == nil {
		t.Fatal("Expected blocking event")
	}
	if len(r.scheduled) != 1 || r.scheduled[0] != delta.Event.ID {
		t.Errorf("Expected timeout scheduled for %s, got %v", delta.Event.ID, r.scheduled)
	}

	handle(t, r, game.Command{Type: game.CmdResolve, PlayerID: "A",
		EventID: delta.Event.ID, Outcome: game.Outcome{Result: "correct"}})
	if len(r.cancelled) != 1 || r.cancelled[0] != delta.Event.ID {
		t.Errorf("Expected timeout cancelled for %s, got %v", delta.Event.ID, r.cancelled)
	}
}
