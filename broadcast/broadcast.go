// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/boardgame/session"
)

var (
	ErrNoSessions = errors.New("no sessions in room")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToPlayer(playerID string, msgID uint16, data []byte) error
}

// RoomBroadcaster 按会话归属做房间扇出。发送失败的连接跳过，
// 断线由服务器的读循环负责处理。
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	sessions := b.sessionManager.GetByRoomID(roomID)
	if len(sessions) == 0 {
		return ErrNoSessions
	}

	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToPlayer(playerID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByPlayerID(playerID) {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
