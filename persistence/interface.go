// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/models"
)

// Database 数据库接口。持久布局：每个房间一条快照记录，
// 外加一条追加写的命令日志，足以回放和审计一局。
type Database interface {
	SaveRoomSnapshot(snap *game.Snapshot) error
	LoadRoomSnapshot(roomID string) (*game.Snapshot, error)
	AppendCommand(roomID string, delta *game.StateDelta) error
	CommandLog(roomID string) ([]*game.StateDelta, error)
	SaveGameRecord(record *models.GameRecord) error
	PlayerStats(playerID string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
