package services

import (
	"testing"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/models"
	"github.com/wfunc/boardgame/persistence"
)

// MockDatabase is a test double for persistence.Database.
type MockDatabase struct {
	records []*models.GameRecord
	stats   map[string]*models.PlayerStats
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{stats: make(map[string]*models.PlayerStats)}
}

func (m *MockDatabase) SaveRoomSnapshot(snap *game.Snapshot) error { return nil }
func (m *MockDatabase) LoadRoomSnapshot(roomID string) (*game.Snapshot, error) {
	return nil, persistence.ErrRecordNotFound
}
func (m *MockDatabase) AppendCommand(roomID string, delta *game.StateDelta) error { return nil }
func (m *MockDatabase) CommandLog(roomID string) ([]*game.StateDelta, error)      { return nil, nil }

func (m *MockDatabase) SaveGameRecord(record *models.GameRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *MockDatabase) PlayerStats(playerID string) (*models.PlayerStats, error) {
	stats, exists := m.stats[playerID]
	if !exists {
		return nil, persistence.ErrRecordNotFound
	}
	return stats, nil
}

func (m *MockDatabase) Close() error { return nil }

func finishedSnapshot(players ...game.Player) *game.Snapshot {
	return &game.Snapshot{
		RoomID:  "room1",
		BoardID: "classic",
		Phase:   "finished",
		Round:   10,
		Players: players,
	}
}

func TestWinners_MostStars(t *testing.T) {
	snap := finishedSnapshot(
		game.Player{ID: "A", Stars: 2, Coins: 5},
		game.Player{ID: "B", Stars: 3, Coins: 0},
		game.Player{ID: "C", Stars: 1, Coins: 20},
	)

	winners := Winners(snap)
	if len(winners) != 1 || winners[0] != "B" {
		t.Errorf("Expected B to win on stars, got %v", winners)
	}
}

func TestWinners_CoinsBreakTie(t *testing.T) {
	snap := finishedSnapshot(
		game.Player{ID: "A", Stars: 2, Coins: 5},
		game.Player{ID: "B", Stars: 2, Coins: 8},
	)

	winners := Winners(snap)
	if len(winners) != 1 || winners[0] != "B" {
		t.Errorf("Expected B to win on coins, got %v", winners)
	}
}

func TestWinners_Draw(t *testing.T) {
	snap := finishedSnapshot(
		game.Player{ID: "A", Stars: 2, Coins: 5},
		game.Player{ID: "B", Stars: 2, Coins: 5},
		game.Player{ID: "C", Stars: 0, Coins: 9},
	)

	winners := Winners(snap)
	if len(winners) != 2 {
		t.Fatalf("Expected a two-way draw, got %v", winners)
	}
}

func TestRecordResult_Outcomes(t *testing.T) {
	db := NewMockDatabase()
	service := NewResultService(db)

	snap := finishedSnapshot(
		game.Player{ID: "A", Nickname: "alice", Stars: 3, Coins: 2},
		game.Player{ID: "B", Nickname: "bob", Stars: 1, Coins: 9},
	)
	if err := service.RecordResult(snap); err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}

	if len(db.records) != 1 {
		t.Fatalf("Expected 1 saved record, got %d", len(db.records))
	}
	record := db.records[0]
	if record.RoomID != "room1" || record.Rounds != 10 {
		t.Errorf("Record header mismatch: %+v", record)
	}

	outcomes := make(map[string]string)
	for _, p := range record.Players {
		outcomes[p.PlayerID] = p.Outcome
	}
	if outcomes["A"] != "win" || outcomes["B"] != "lose" {
		t.Errorf("Expected A win / B lose, got %v", outcomes)
	}
}

func TestRecordResult_DrawOutcome(t *testing.T) {
	db := NewMockDatabase()
	service := NewResultService(db)

	snap := finishedSnapshot(
		game.Player{ID: "A", Stars: 1, Coins: 5},
		game.Player{ID: "B", Stars: 1, Coins: 5},
	)
	if err := service.RecordResult(snap); err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}

	for _, p := range db.records[0].Players {
		if p.Outcome != "draw" {
			t.Errorf("Expected draw for %s, got %s", p.PlayerID, p.Outcome)
		}
	}
}

func TestPlayerStats_Passthrough(t *testing.T) {
	db := NewMockDatabase()
	db.stats["A"] = &models.PlayerStats{TotalGames: 4, Wins: 2, Losses: 1, TotalStars: 7}
	service := NewResultService(db)

	stats, err := service.PlayerStats("A")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.TotalGames != 4 || stats.Wins != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	if _, err := service.PlayerStats("unknown"); err != persistence.ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}
