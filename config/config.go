package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig 游戏规则配置
type GameConfig struct {
	BoardID         string        `mapstructure:"board_id"`
	MaxRounds       int           `mapstructure:"max_rounds"`
	MaxPlayers      int           `mapstructure:"max_players"`
	StartingCoins   int           `mapstructure:"starting_coins"`
	QuestionTimeout time.Duration `mapstructure:"question_timeout"`
	DuelTimeout     time.Duration `mapstructure:"duel_timeout"`
	QuestionReward  int           `mapstructure:"question_reward"`
	QuestionPenalty int           `mapstructure:"question_penalty"`
	TrapMaxCoins    int           `mapstructure:"trap_max_coins"`
	DuelCoinsStake  int           `mapstructure:"duel_coins_stake"`
	EventPool       []EventConfig `mapstructure:"event_pool"`
}

// EventConfig event 格子的随机效果池配置
type EventConfig struct {
	Effect string `mapstructure:"effect"` // coins/item/shift
	Amount int    `mapstructure:"amount"` // 金币增减或者移动格数，可为负
	Item   string `mapstructure:"item"`   // effect=item 时的道具类型
	Weight int    `mapstructure:"weight"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func setDefaults() {
	viper.SetDefault("game.board_id", "classic")
	viper.SetDefault("game.max_rounds", 10)
	viper.SetDefault("game.max_players", 4)
	viper.SetDefault("game.starting_coins", 10)
	viper.SetDefault("game.question_timeout", 30*time.Second)
	viper.SetDefault("game.duel_timeout", 30*time.Second)
	viper.SetDefault("game.question_reward", 5)
	viper.SetDefault("game.question_penalty", 3)
	viper.SetDefault("game.trap_max_coins", 5)
	viper.SetDefault("game.duel_coins_stake", 5)
}
