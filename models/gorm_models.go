// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormRoomSnapshot 房间快照，每个房间一条，整包 jsonb
type GormRoomSnapshot struct {
	gorm.Model
	RoomID   string                 `gorm:"uniqueIndex;not null"`
	BoardID  string                 `gorm:"not null"`
	Phase    string                 `gorm:"not null"`
	Round    int                    `gorm:"default:0"`
	Snapshot map[string]interface{} `gorm:"serializer:json;type:jsonb"`
}

// GormCommandLog 追加写的命令日志，按 (room_id, seq) 有序，可回放审计
type GormCommandLog struct {
	gorm.Model
	RoomID  string                 `gorm:"index:idx_room_seq;not null"`
	Seq     int64                  `gorm:"index:idx_room_seq;not null"`
	Command string                 `gorm:"not null"`
	Delta   map[string]interface{} `gorm:"serializer:json;type:jsonb"`
}

// GormGameRecord 终局成绩归档
type GormGameRecord struct {
	gorm.Model
	RoomID  string                 `gorm:"index;not null"`
	BoardID string                 `gorm:"not null"`
	Rounds  int                    `gorm:"default:0"`
	Players map[string]interface{} `gorm:"serializer:json;type:jsonb;not null"`
}

func (GormRoomSnapshot) TableName() string { return "room_snapshots" }
func (GormCommandLog) TableName() string   { return "command_log" }
func (GormGameRecord) TableName() string   { return "game_records" }
