// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/models"
)

// PostgreSQL 基于 database/sql 的实现，不经过 GORM
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 房间快照表，每个房间一条
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS room_snapshots (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) UNIQUE NOT NULL,
            board_id VARCHAR(255) NOT NULL,
            phase VARCHAR(50) NOT NULL,
            round INT NOT NULL DEFAULT 0,
            snapshot JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 追加写的命令日志表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS command_log (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            seq BIGINT NOT NULL,
            command VARCHAR(100) NOT NULL,
            delta JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 终局归档表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            board_id VARCHAR(255) NOT NULL,
            rounds INT NOT NULL DEFAULT 0,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_room_snapshots_room_id ON room_snapshots(room_id);
        CREATE UNIQUE INDEX IF NOT EXISTS idx_command_log_room_seq ON command_log(room_id, seq);
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
    `)

	return err
}

// SaveRoomSnapshot 保存房间快照，UPSERT
func (p *PostgreSQL) SaveRoomSnapshot(snap *game.Snapshot) error {
	jsonData, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO room_snapshots (room_id, board_id, phase, round, snapshot, updated_at)
        VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
        ON CONFLICT (room_id)
        DO UPDATE SET phase = $3, round = $4, snapshot = $5, updated_at = CURRENT_TIMESTAMP
    `
	_, err = p.db.ExecContext(ctx, query, snap.RoomID, snap.BoardID, snap.Phase, snap.Round, jsonData)
	return err
}

// LoadRoomSnapshot 加载房间快照
func (p *PostgreSQL) LoadRoomSnapshot(roomID string) (*game.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var jsonData []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT snapshot FROM room_snapshots WHERE room_id = $1`, roomID,
	).Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap game.Snapshot
	if err := json.Unmarshal(jsonData, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AppendCommand 命令日志追加一条 delta
func (p *PostgreSQL) AppendCommand(roomID string, delta *game.StateDelta) error {
	jsonData, err := json.Marshal(delta)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO command_log (room_id, seq, command, delta) VALUES ($1, $2, $3, $4)`,
		roomID, delta.Seq, delta.Command, jsonData)
	return err
}

// CommandLog 按 seq 升序读出一个房间的全部命令日志
func (p *PostgreSQL) CommandLog(roomID string) ([]*game.StateDelta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT delta FROM command_log WHERE room_id = $1 ORDER BY seq ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deltas []*game.StateDelta
	for rows.Next() {
		var jsonData []byte
		if err := rows.Scan(&jsonData); err != nil {
			return nil, err
		}
		var delta game.StateDelta
		if err := json.Unmarshal(jsonData, &delta); err != nil {
			return nil, err
		}
		deltas = append(deltas, &delta)
	}
	return deltas, rows.Err()
}

// SaveGameRecord 保存终局归档
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players := make(map[string]models.PlayerInfo, len(record.Players))
	for _, info := range record.Players {
		players[info.PlayerID] = info
	}
	jsonData, err := json.Marshal(players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO game_records (room_id, board_id, rounds, players) VALUES ($1, $2, $3, $4)`,
		record.RoomID, record.BoardID, record.Rounds, jsonData)
	return err
}

// PlayerStats 跨局聚合一个玩家的成绩
func (p *PostgreSQL) PlayerStats(playerID string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stats models.PlayerStats
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN players->$1->>'outcome' = 'win' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN players->$1->>'outcome' = 'lose' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM((players->$1->>'stars')::int), 0),
            COALESCE(SUM((players->$1->>'coins')::int), 0)
        FROM game_records
        WHERE players @> $2`,
		playerID, fmt.Sprintf(`{"%s": {}}`, playerID),
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.TotalStars, &stats.TotalCoins)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
