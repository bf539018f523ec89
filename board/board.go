// board/board.go
package board

import (
	"fmt"
	"sync"
)

// TileType 格子类型，closed set，每种类型对应一个结算分支
type TileType string

const (
	TileNormal   TileType = "normal"
	TileQuestion TileType = "question"
	TileStar     TileType = "star"
	TileDuel     TileType = "duel"
	TileEvent    TileType = "event"
	TileTrap     TileType = "trap"
)

// Valid reports whether t is one of the known tile types.
func (t TileType) Valid() bool {
	switch t {
	case TileNormal, TileQuestion, TileStar, TileDuel, TileEvent, TileTrap:
		return true
	}
	return false
}

// Tile 棋盘上的一个格子
type Tile struct {
	Position    int      `json:"position"`
	Type        TileType `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
}

// Board 棋盘定义，创建后不可变，所有房间共享只读
type Board struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Theme         string `json:"theme"`
	Tiles         []Tile `json:"tiles"`
	StarPositions []int  `json:"star_positions"`
}

// TileCount returns the number of tiles on the board.
func (b *Board) TileCount() int {
	return len(b.Tiles)
}

// TileAt returns the tile at pos. pos must be a valid index.
func (b *Board) TileAt(pos int) Tile {
	return b.Tiles[pos]
}

// Validate 检查棋盘定义是否自洽
func (b *Board) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("board has no id")
	}
	if len(b.Tiles) == 0 {
		return fmt.Errorf("board %s has no tiles", b.ID)
	}
	for i, tile := range b.Tiles {
		if tile.Position != i {
			return fmt.Errorf("board %s: tile at index %d has position %d", b.ID, i, tile.Position)
		}
		if !tile.Type.Valid() {
			return fmt.Errorf("board %s: unknown tile type %q at position %d", b.ID, tile.Type, i)
		}
	}
	for _, pos := range b.StarPositions {
		if pos < 0 || pos >= len(b.Tiles) {
			return fmt.Errorf("board %s: star position %d out of range", b.ID, pos)
		}
		if b.Tiles[pos].Type != TileStar {
			return fmt.Errorf("board %s: star position %d is not a star tile", b.ID, pos)
		}
	}
	return nil
}

// Catalog 棋盘目录，启动时注册，之后只读
type Catalog struct {
	boards map[string]*Board
	mutex  sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		boards: make(map[string]*Board),
	}
}

// Register adds a board to the catalog. Register only before serving traffic;
// boards are immutable once rooms reference them.
func (c *Catalog) Register(b *Board) error {
	if err := b.Validate(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.boards[b.ID]; exists {
		return fmt.Errorf("board %s already registered", b.ID)
	}
	c.boards[b.ID] = b
	return nil
}

// Get 获取棋盘定义
func (c *Catalog) Get(id string) (*Board, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	b, exists := c.boards[id]
	return b, exists
}
