// game/player.go
package game

// Item 玩家道具。引擎只负责保存和移除，不解释具体玩法效果。
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Player 房间内一个玩家的可变状态
type Player struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar"`
	Position     int    `json:"position"`
	Stars        int    `json:"stars"`
	Coins        int    `json:"coins"`
	Items        []Item `json:"items"`
	SkipNextTurn bool   `json:"skip_next_turn"`
	Connected    bool   `json:"connected"`
}

// addCoins 调整金币，下限为 0
func (p *Player) addCoins(delta int) int {
	before := p.Coins
	p.Coins += delta
	if p.Coins < 0 {
		p.Coins = 0
	}
	return p.Coins - before
}

// view returns a copy safe to hand outside the room goroutine.
func (p *Player) view() Player {
	cp := *p
	cp.Items = make([]Item, len(p.Items))
	copy(cp.Items, p.Items)
	return cp
}
