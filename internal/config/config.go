package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// GridSize 牌桌固定 12 个槽位
const GridSize = 12

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Game   GameConfig   `mapstructure:"game"`
	UI     UIConfig     `mapstructure:"ui"`
	NATS   NATSConfig   `mapstructure:"nats"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Health HealthConfig `mapstructure:"health"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json, text
	LogFile   string `mapstructure:"log_file"`   // 终端模式下日志输出文件
	NodeID    int64  `mapstructure:"node_id"`    // 雪花ID节点号
}

// GameConfig 单局游戏配置
type GameConfig struct {
	Tables          int      `mapstructure:"tables"`           // 同时运行的牌桌数
	HumanPlayers    int      `mapstructure:"human_players"`    // 人类玩家数（编号在前）
	ComputerPlayers int      `mapstructure:"computer_players"` // 电脑玩家数
	PlayerNames     []string `mapstructure:"player_names"`

	DeckSize     int `mapstructure:"deck_size"`
	TableSize    int `mapstructure:"table_size"`
	FeatureSize  int `mapstructure:"feature_size"`
	FeatureCount int `mapstructure:"feature_count"`

	TurnTimeout        time.Duration `mapstructure:"turn_timeout"`         // 重新洗牌间隔
	TurnTimeoutWarning time.Duration `mapstructure:"turn_timeout_warning"` // 倒计时告警阈值
	PointFreeze        time.Duration `mapstructure:"point_freeze"`         // 得分后冻结
	PenaltyFreeze      time.Duration `mapstructure:"penalty_freeze"`       // 判错后冻结
	TableDelay         time.Duration `mapstructure:"table_delay"`          // 放牌/收牌动画延迟
	ComputerThink      time.Duration `mapstructure:"computer_think"`       // 电脑玩家两次按键间隔
	EndGamePause       time.Duration `mapstructure:"end_game_pause"`       // 宣布赢家后停留
	EvictTimeout       time.Duration `mapstructure:"evict_timeout"`        // 已结束牌局的保留时间

	Hints bool `mapstructure:"hints"` // 发牌后在日志中打印可行组合
}

// Players 玩家总数
func (g GameConfig) Players() int {
	return g.HumanPlayers + g.ComputerPlayers
}

// PlayerName 获取玩家显示名
func (g GameConfig) PlayerName(id int) string {
	if id >= 0 && id < len(g.PlayerNames) && g.PlayerNames[id] != "" {
		return g.PlayerNames[id]
	}
	return fmt.Sprintf("Player %d", id+1)
}

type UIConfig struct {
	Mode      string   `mapstructure:"mode"`       // log, terminal
	Keys      []string `mapstructure:"keys"`       // 每个人类玩家 12 个按键，对应 12 个槽位
	QueueSize int      `mapstructure:"queue_size"` // 显示事件缓冲
}

type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HealthConfig 健康检查与牌局状态 HTTP 服务
type HealthConfig struct {
	Addr string `mapstructure:"addr"` // 为空则不启动
	Mode string `mapstructure:"mode"` // gin 模式：release, debug, test
}

// setDefaults 默认值与原版 Set 游戏一致
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "set-dealer")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.log_file", "set.log")
	v.SetDefault("app.node_id", 1)

	v.SetDefault("game.tables", 1)
	v.SetDefault("game.human_players", 2)
	v.SetDefault("game.computer_players", 0)
	v.SetDefault("game.player_names", []string{})
	v.SetDefault("game.deck_size", 81)
	v.SetDefault("game.table_size", GridSize)
	v.SetDefault("game.feature_size", 3)
	v.SetDefault("game.feature_count", 4)
	v.SetDefault("game.turn_timeout", 60*time.Second)
	v.SetDefault("game.turn_timeout_warning", 5*time.Second)
	v.SetDefault("game.point_freeze", time.Second)
	v.SetDefault("game.penalty_freeze", 3*time.Second)
	v.SetDefault("game.table_delay", time.Duration(0))
	v.SetDefault("game.computer_think", time.Duration(0))
	v.SetDefault("game.end_game_pause", time.Duration(0))
	v.SetDefault("game.evict_timeout", 10*time.Minute)
	v.SetDefault("game.hints", false)

	v.SetDefault("ui.mode", "log")
	v.SetDefault("ui.keys", []string{"qwerasdfzxcv", "uiopjkl;m,./"})
	v.SetDefault("ui.queue_size", 1024)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("health.addr", ":8081")
	v.SetDefault("health.mode", "release")
}

// Load 从指定路径加载配置
// 文件不存在时只使用默认值和环境变量（前缀 SET_，例如 SET_GAME_TURN_TIMEOUT=30s）
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := c.Game.Validate(); err != nil {
		return err
	}

	switch c.UI.Mode {
	case "log", "terminal":
	default:
		return fmt.Errorf("%w: unknown ui.mode %q", ErrInvalidConfig, c.UI.Mode)
	}

	if c.UI.Mode == "terminal" {
		if c.Game.Tables != 1 {
			return fmt.Errorf("%w: terminal mode supports a single table", ErrInvalidConfig)
		}
		if len(c.UI.Keys) < c.Game.HumanPlayers {
			return fmt.Errorf("%w: ui.keys needs one entry per human player", ErrInvalidConfig)
		}
		for i := 0; i < c.Game.HumanPlayers; i++ {
			if n := len([]rune(c.UI.Keys[i])); n != c.Game.TableSize {
				return fmt.Errorf("%w: ui.keys[%d] has %d keys, want %d", ErrInvalidConfig, i, n, c.Game.TableSize)
			}
		}
	}

	return nil
}

// Validate 校验牌局参数
func (g GameConfig) Validate() error {
	if g.Tables <= 0 {
		return fmt.Errorf("%w: game.tables must be positive", ErrInvalidConfig)
	}
	if g.HumanPlayers < 0 || g.ComputerPlayers < 0 || g.Players() == 0 {
		return fmt.Errorf("%w: at least one player is required", ErrInvalidConfig)
	}
	if g.TableSize != GridSize {
		return fmt.Errorf("%w: game.table_size must be %d", ErrInvalidConfig, GridSize)
	}
	if g.FeatureSize < 2 || g.FeatureCount < 1 {
		return fmt.Errorf("%w: invalid feature layout %dx%d", ErrInvalidConfig, g.FeatureSize, g.FeatureCount)
	}
	if want := int(math.Pow(float64(g.FeatureSize), float64(g.FeatureCount))); g.DeckSize != want {
		return fmt.Errorf("%w: game.deck_size must be %d for %d features of size %d",
			ErrInvalidConfig, want, g.FeatureCount, g.FeatureSize)
	}
	if g.TurnTimeout <= 0 {
		return fmt.Errorf("%w: game.turn_timeout must be positive", ErrInvalidConfig)
	}
	if g.PointFreeze < 0 || g.PenaltyFreeze < 0 || g.TableDelay < 0 || g.ComputerThink < 0 || g.EndGamePause < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}
