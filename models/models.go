// models/models.go
package models

import (
	"time"
)

// GameRecord 一局结束后的归档记录
type GameRecord struct {
	RoomID    string       `json:"room_id"`
	BoardID   string       `json:"board_id"`
	Rounds    int          `json:"rounds"`
	Players   []PlayerInfo `json:"players"`
	CreatedAt time.Time    `json:"created_at"`
}

// PlayerInfo 玩家在一局里的最终成绩
type PlayerInfo struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Stars    int    `json:"stars"`
	Coins    int    `json:"coins"`
	Outcome  string `json:"outcome"` // win/lose/draw
}

// PlayerStats 玩家跨局统计
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	TotalStars int `json:"total_stars"`
	TotalCoins int `json:"total_coins"`
}
