package game

import (
	"log/slog"
	"time"

	"sudooom.set/internal/config"
)

// Env 单局游戏的运行环境
// 每个牌局独立一份，多个牌局之间互不影响
type Env struct {
	GameID  string
	Config  config.GameConfig
	Display Display
	Oracle  Oracle
	Logger  *slog.Logger
}

// NewEnv 创建运行环境，display 为 nil 时使用空实现
func NewEnv(gameID string, cfg config.GameConfig, display Display, oracle Oracle) *Env {
	if display == nil {
		display = nopDisplay{}
	}
	return &Env{
		GameID:  gameID,
		Config:  cfg,
		Display: display,
		Oracle:  oracle,
		Logger:  slog.Default().With("gameId", gameID),
	}
}

// nopDisplay 不输出任何内容
type nopDisplay struct{}

func (nopDisplay) PlaceCard(Card, int) {}
func (nopDisplay) RemoveCard(int) {}
func (nopDisplay) PlaceToken(int, int) {}
func (nopDisplay) RemoveToken(int, int) {}
func (nopDisplay) RemoveTokens(int) {}
func (nopDisplay) RemoveAllTokens() {}
func (nopDisplay) SetCountdown(time.Duration, bool) {}
func (nopDisplay) SetFreeze(int, time.Duration) {}
func (nopDisplay) SetScore(int, int) {}
func (nopDisplay) AnnounceWinners([]int) {}
