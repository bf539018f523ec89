package board

import (
	"testing"
)

func TestTileType_Valid(t *testing.T) {
	valid := []TileType{TileNormal, TileQuestion, TileStar, TileDuel, TileEvent, TileTrap}
	for _, tt := range valid {
		if !tt.Valid() {
			t.Errorf("Expected %q to be valid", tt)
		}
	}
	if TileType("teleport").Valid() {
		t.Error("Unknown tile type should not be valid")
	}
}

func TestBoard_Validate(t *testing.T) {
	b := &Board{
		ID:   "b1",
		Name: "Board",
		Tiles: []Tile{
			{Position: 0, Type: TileNormal},
			{Position: 1, Type: TileStar},
		},
		StarPositions: []int{1},
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Expected valid board, got %v", err)
	}
}

func TestBoard_Validate_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		board *Board
	}{
		{"no id", &Board{Tiles: []Tile{{Position: 0, Type: TileNormal}}}},
		{"no tiles", &Board{ID: "b"}},
		{"misnumbered tiles", &Board{ID: "b", Tiles: []Tile{{Position: 5, Type: TileNormal}}}},
		{"unknown type", &Board{ID: "b", Tiles: []Tile{{Position: 0, Type: "warp"}}}},
		{"star out of range", &Board{ID: "b",
			Tiles:         []Tile{{Position: 0, Type: TileNormal}},
			StarPositions: []int{4}}},
		{"star on non-star tile", &Board{ID: "b",
			Tiles:         []Tile{{Position: 0, Type: TileNormal}},
			StarPositions: []int{0}}},
	}

	for _, tc := range cases {
		if err := tc.board.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestClassic_IsValid(t *testing.T) {
	b := Classic()
	if err := b.Validate(); err != nil {
		t.Fatalf("Classic board must validate: %v", err)
	}
	if b.TileCount() != 20 {
		t.Errorf("Expected 20 tiles, got %d", b.TileCount())
	}

	// 每种格子类型至少出现一次
	seen := make(map[TileType]bool)
	for _, tile := range b.Tiles {
		seen[tile.Type] = true
	}
	for _, tt := range []TileType{TileNormal, TileQuestion, TileStar, TileDuel, TileEvent, TileTrap} {
		if !seen[tt] {
			t.Errorf("Classic board is missing tile type %q", tt)
		}
	}
}

func TestCatalog_RegisterAndGet(t *testing.T) {
	catalog := NewCatalog()

	if err := catalog.Register(Classic()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	b, exists := catalog.Get("classic")
	if !exists {
		t.Fatal("Get should find the registered board")
	}
	if b.ID != "classic" {
		t.Errorf("Expected board id classic, got %s", b.ID)
	}

	if err := catalog.Register(Classic()); err == nil {
		t.Error("Duplicate registration should fail")
	}

	if _, exists := catalog.Get("missing"); exists {
		t.Error("Get should not find an unregistered board")
	}
}
