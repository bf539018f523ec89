// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormRoomSnapshot{},
		&models.GormCommandLog{},
		&models.GormGameRecord{},
	)
}

// toJSONMap 结构体转 jsonb 列使用的 map
func toJSONMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromJSONMap(m map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SaveRoomSnapshot 保存房间快照，每个房间一条记录，UPSERT
func (p *GormPostgreSQL) SaveRoomSnapshot(snap *game.Snapshot) error {
	payload, err := toJSONMap(snap)
	if err != nil {
		return err
	}

	var row models.GormRoomSnapshot
	result := p.db.Where("room_id = ?", snap.RoomID).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = models.GormRoomSnapshot{
			RoomID:   snap.RoomID,
			BoardID:  snap.BoardID,
			Phase:    snap.Phase,
			Round:    snap.Round,
			Snapshot: payload,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.Phase = snap.Phase
	row.Round = snap.Round
	row.Snapshot = payload
	return p.db.Save(&row).Error
}

// LoadRoomSnapshot 加载房间快照
func (p *GormPostgreSQL) LoadRoomSnapshot(roomID string) (*game.Snapshot, error) {
	var row models.GormRoomSnapshot
	if err := p.db.Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var snap game.Snapshot
	if err := fromJSONMap(row.Snapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AppendCommand 命令日志追加一条 delta
func (p *GormPostgreSQL) AppendCommand(roomID string, delta *game.StateDelta) error {
	payload, err := toJSONMap(delta)
	if err != nil {
		return err
	}

	row := models.GormCommandLog{
		RoomID:  roomID,
		Seq:     delta.Seq,
		Command: delta.Command,
		Delta:   payload,
	}
	return p.db.Create(&row).Error
}

// CommandLog 按 seq 升序读出一个房间的全部命令日志
func (p *GormPostgreSQL) CommandLog(roomID string) ([]*game.StateDelta, error) {
	var rows []models.GormCommandLog
	if err := p.db.Where("room_id = ?", roomID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	deltas := make([]*game.StateDelta, 0, len(rows))
	for _, row := range rows {
		var delta game.StateDelta
		if err := fromJSONMap(row.Delta, &delta); err != nil {
			return nil, err
		}
		deltas = append(deltas, &delta)
	}
	return deltas, nil
}

// SaveGameRecord 保存终局归档
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players := make(map[string]interface{}, len(record.Players))
	for _, info := range record.Players {
		m, err := toJSONMap(info)
		if err != nil {
			return err
		}
		players[info.PlayerID] = m
	}

	row := models.GormGameRecord{
		RoomID:  record.RoomID,
		BoardID: record.BoardID,
		Rounds:  record.Rounds,
		Players: players,
	}
	return p.db.Create(&row).Error
}

// PlayerStats 跨局聚合一个玩家的成绩
func (p *GormPostgreSQL) PlayerStats(playerID string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_games,
            SUM(CASE WHEN players->?->>'outcome' = 'win' THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN players->?->>'outcome' = 'lose' THEN 1 ELSE 0 END) as losses,
            COALESCE(SUM((players->?->>'stars')::int), 0) as total_stars,
            COALESCE(SUM((players->?->>'coins')::int), 0) as total_coins
        FROM game_records
        WHERE players @> ?`,
		playerID, playerID, playerID, playerID,
		fmt.Sprintf(`{"%s": {}}`, playerID),
	).Scan(&stats).Error

	return &stats, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
