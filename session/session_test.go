package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/boardgame/network"
)

// MockConnection is a test double for network.Connection.
type MockConnection struct {
	sent   []sentPacket
	closed bool
}

type sentPacket struct {
	msgID uint16
	data  []byte
}

func (c *MockConnection) Send(msgID uint16, data []byte) error {
	c.sent = append(c.sent, sentPacket{msgID: msgID, data: data})
	return nil
}

func (c *MockConnection) Close() error {
	c.closed = true
	return nil
}

func (c *MockConnection) RemoteAddr() net.Addr                 { return nil }
func (c *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (c *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSession_BindAndJoin(t *testing.T) {
	conn := &MockConnection{}
	s := NewSession("session1", conn)

	s.BindPlayer("A", "alice", "avatar1")
	if s.PlayerID != "A" || s.Nickname != "alice" {
		t.Error("BindPlayer should record the player identity")
	}

	if s.GetRoomID() != "" {
		t.Error("A fresh session should not belong to a room")
	}
	s.JoinRoom("room1")
	if s.GetRoomID() != "room1" {
		t.Errorf("Expected room1, got %s", s.GetRoomID())
	}
}

func TestSession_SendAndClose(t *testing.T) {
	conn := &MockConnection{}
	s := NewSession("session1", conn)

	if err := s.Send(301, []byte("payload")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0].msgID != 301 {
		t.Error("Send should forward the packet to the connection")
	}

	s.Close()
	if !conn.closed {
		t.Error("Close should close the underlying connection")
	}
}

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()

	s1 := NewSession("session1", &MockConnection{})
	s2 := NewSession("session2", &MockConnection{})
	manager.Add(s1)
	manager.Add(s2)

	if manager.Count() != 2 {
		t.Errorf("Expected 2 sessions, got %d", manager.Count())
	}

	got, exists := manager.Get("session1")
	if !exists || got != s1 {
		t.Error("Get should return the added session")
	}

	manager.Remove("session1")
	if _, exists := manager.Get("session1"); exists {
		t.Error("Removed session should be gone")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session after remove, got %d", manager.Count())
	}
}

func TestManager_GetByRoomID(t *testing.T) {
	manager := NewManager()

	s1 := NewSession("session1", &MockConnection{})
	s1.JoinRoom("room1")
	s2 := NewSession("session2", &MockConnection{})
	s2.JoinRoom("room1")
	s3 := NewSession("session3", &MockConnection{})
	s3.JoinRoom("room2")

	manager.Add(s1)
	manager.Add(s2)
	manager.Add(s3)

	if got := manager.GetByRoomID("room1"); len(got) != 2 {
		t.Errorf("Expected 2 sessions in room1, got %d", len(got))
	}
	if got := manager.GetByRoomID("room3"); len(got) != 0 {
		t.Errorf("Expected no sessions in room3, got %d", len(got))
	}
}

func TestManager_GetByPlayerID(t *testing.T) {
	manager := NewManager()

	s1 := NewSession("session1", &MockConnection{})
	s1.BindPlayer("A", "alice", "")
	// 重连窗口内同一玩家可能短暂有两条会话
	s2 := NewSession("session2", &MockConnection{})
	s2.BindPlayer("A", "alice", "")
	s3 := NewSession("session3", &MockConnection{})
	s3.BindPlayer("B", "bob", "")

	manager.Add(s1)
	manager.Add(s2)
	manager.Add(s3)

	if got := manager.GetByPlayerID("A"); len(got) != 2 {
		t.Errorf("Expected 2 sessions for player A, got %d", len(got))
	}
	if got := manager.GetByPlayerID("C"); len(got) != 0 {
		t.Errorf("Expected no sessions for player C, got %d", len(got))
	}
}
