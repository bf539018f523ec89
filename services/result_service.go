// services/result_service.go
package services

import (
	"time"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/models"
	"github.com/wfunc/boardgame/persistence"
)

// ResultService 终局成绩归档和玩家统计
type ResultService struct {
	db persistence.Database
}

func NewResultService(db persistence.Database) *ResultService {
	return &ResultService{db: db}
}

// RecordResult 把一局的终局快照归档。胜者是星星最多的玩家，
// 星星相同比金币，再相同算平局。
func (s *ResultService) RecordResult(snap *game.Snapshot) error {
	record := &models.GameRecord{
		RoomID:    snap.RoomID,
		BoardID:   snap.BoardID,
		Rounds:    snap.Round,
		CreatedAt: time.Now(),
	}

	winners := Winners(snap)
	isWinner := make(map[string]bool, len(winners))
	for _, id := range winners {
		isWinner[id] = true
	}

	for _, p := range snap.Players {
		outcome := "lose"
		if isWinner[p.ID] {
			outcome = "win"
			if len(winners) > 1 {
				outcome = "draw"
			}
		}
		record.Players = append(record.Players, models.PlayerInfo{
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Stars:    p.Stars,
			Coins:    p.Coins,
			Outcome:  outcome,
		})
	}

	return s.db.SaveGameRecord(record)
}

// PlayerStats 查询玩家跨局统计
func (s *ResultService) PlayerStats(playerID string) (*models.PlayerStats, error) {
	return s.db.PlayerStats(playerID)
}

// Winners 从终局快照里算出胜者（可能并列）
func Winners(snap *game.Snapshot) []string {
	bestStars, bestCoins := -1, -1
	for _, p := range snap.Players {
		if p.Stars > bestStars || (p.Stars == bestStars && p.Coins > bestCoins) {
			bestStars, bestCoins = p.Stars, p.Coins
		}
	}

	var winners []string
	for _, p := range snap.Players {
		if p.Stars == bestStars && p.Coins == bestCoins {
			winners = append(winners, p.ID)
		}
	}
	return winners
}
