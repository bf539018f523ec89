package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_Schedule(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	manager.Schedule(50*time.Millisecond, func() {
		fired.Add(1)
	})

	waitFor(t, time.Second, func() bool { return fired.Load() == 1 })

	// 一次性任务只触发一次
	time.Sleep(300 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("Expected exactly 1 firing, got %d", got)
	}
}

func TestManager_ScheduleAt(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	manager.ScheduleAt(time.Now().Add(50*time.Millisecond), func() {
		fired.Add(1)
	})

	waitFor(t, time.Second, func() bool { return fired.Load() == 1 })
}

func TestManager_Cancel(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	taskID := manager.Schedule(200*time.Millisecond, func() {
		fired.Add(1)
	})
	manager.Cancel(taskID)

	time.Sleep(500 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("Cancelled task must not fire, fired %d times", got)
	}
}

func TestManager_Repeat(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	taskID := manager.Repeat(100*time.Millisecond, func() {
		fired.Add(1)
	})

	waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 2 })
	manager.Cancel(taskID)
}

func TestManager_Ordering(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var first, second atomic.Int64
	manager.Schedule(300*time.Millisecond, func() {
		second.Store(time.Now().UnixNano())
	})
	manager.Schedule(100*time.Millisecond, func() {
		first.Store(time.Now().UnixNano())
	})

	waitFor(t, 2*time.Second, func() bool {
		return first.Load() != 0 && second.Load() != 0
	})
	if first.Load() > second.Load() {
		t.Error("The earlier deadline must fire first")
	}
}

func TestManager_Stop(t *testing.T) {
	manager := NewManager()

	var fired atomic.Int32
	manager.Schedule(200*time.Millisecond, func() {
		fired.Add(1)
	})
	manager.Stop()

	time.Sleep(500 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("Tasks must not fire after Stop, fired %d times", got)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met before timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
