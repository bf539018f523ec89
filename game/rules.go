// game/rules.go
package game

import (
	"time"

	"github.com/wfunc/boardgame/config"
)

// EventEffect event 格子效果池里的一项
type EventEffect struct {
	Effect string // coins/item/shift
	Amount int
	Item   string
	Weight int
}

// Rules 一局游戏的规则参数
type Rules struct {
	MaxRounds       int
	MaxPlayers      int
	StartingCoins   int
	QuestionTimeout time.Duration
	DuelTimeout     time.Duration
	QuestionReward  int
	QuestionPenalty int
	TrapMaxCoins    int
	DuelCoinsStake  int
	EventPool       []EventEffect
}

// DefaultRules 配置缺省时的规则
func DefaultRules() Rules {
	return Rules{
		MaxRounds:       10,
		MaxPlayers:      4,
		StartingCoins:   10,
		QuestionTimeout: 30 * time.Second,
		DuelTimeout:     30 * time.Second,
		QuestionReward:  5,
		QuestionPenalty: 3,
		TrapMaxCoins:    5,
		DuelCoinsStake:  5,
		EventPool: []EventEffect{
			{Effect: "coins", Amount: 5, Weight: 3},
			{Effect: "coins", Amount: -3, Weight: 3},
			{Effect: "item", Item: "shield", Weight: 2},
			{Effect: "shift", Amount: 2, Weight: 1},
			{Effect: "shift", Amount: -2, Weight: 1},
		},
	}
}

// RulesFromConfig 从配置构建规则，空字段回落到缺省值
func RulesFromConfig(cfg config.GameConfig) Rules {
	rules := DefaultRules()

	if cfg.MaxRounds > 0 {
		rules.MaxRounds = cfg.MaxRounds
	}
	if cfg.MaxPlayers > 0 {
		rules.MaxPlayers = cfg.MaxPlayers
	}
	if cfg.StartingCoins > 0 {
		rules.StartingCoins = cfg.StartingCoins
	}
	if cfg.QuestionTimeout > 0 {
		rules.QuestionTimeout = cfg.QuestionTimeout
	}
	if cfg.DuelTimeout > 0 {
		rules.DuelTimeout = cfg.DuelTimeout
	}
	if cfg.QuestionReward > 0 {
		rules.QuestionReward = cfg.QuestionReward
	}
	if cfg.QuestionPenalty > 0 {
		rules.QuestionPenalty = cfg.QuestionPenalty
	}
	if cfg.TrapMaxCoins > 0 {
		rules.TrapMaxCoins = cfg.TrapMaxCoins
	}
	if cfg.DuelCoinsStake > 0 {
		rules.DuelCoinsStake = cfg.DuelCoinsStake
	}
	if len(cfg.EventPool) > 0 {
		pool := make([]EventEffect, 0, len(cfg.EventPool))
		for _, e := range cfg.EventPool {
			pool = append(pool, EventEffect{
				Effect: e.Effect,
				Amount: e.Amount,
				Item:   e.Item,
				Weight: e.Weight,
			})
		}
		rules.EventPool = pool
	}

	return rules
}
