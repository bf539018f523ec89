package room

import "github.com/wfunc/boardgame/game"

// Broadcaster defines the interface for pushing authoritative deltas to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}

// Recorder 房间落库的最小接口：快照加追加写的命令日志，足以回放审计。
// persistence.Database 实现它；nil 表示无持久化运行。
type Recorder interface {
	SaveRoomSnapshot(snap *game.Snapshot) error
	AppendCommand(roomID string, delta *game.StateDelta) error
}

// Metrics 阻塞事件计数的观察口。开和关都在 publish 里计，
// 超时结算不经过外部入口也不会让计数漂移。monitor.Monitor 实现它。
type Metrics interface {
	IncBlockingEvents()
	DecBlockingEvents()
}
