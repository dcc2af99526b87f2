package display

import (
	"log/slog"
	"time"

	"sudooom.set/internal/game"
)

// LogDisplay 把显示事件写到日志，用于无终端运行
// 倒计时和冻结刷新频繁，只记录整秒变化
type LogDisplay struct {
	logger   *slog.Logger
	lastSecs int64
}

var _ game.Display = (*LogDisplay)(nil)

// NewLogDisplay 创建日志显示
func NewLogDisplay(gameID string) *LogDisplay {
	return &LogDisplay{
		logger:   slog.Default().With("component", "LogDisplay", "gameId", gameID),
		lastSecs: -1,
	}
}

func (l *LogDisplay) PlaceCard(card game.Card, slot int) {
	l.logger.Debug("Card placed", "card", int(card), "slot", slot)
}

func (l *LogDisplay) RemoveCard(slot int) {
	l.logger.Debug("Card removed", "slot", slot)
}

func (l *LogDisplay) PlaceToken(player, slot int) {
	l.logger.Debug("Token placed", "playerId", player, "slot", slot)
}

func (l *LogDisplay) RemoveToken(player, slot int) {
	l.logger.Debug("Token removed", "playerId", player, "slot", slot)
}

func (l *LogDisplay) RemoveTokens(slot int) {
	l.logger.Debug("Tokens cleared", "slot", slot)
}

func (l *LogDisplay) RemoveAllTokens() {
	l.logger.Debug("All tokens cleared")
}

// SetCountdown 非并发安全，经 Dispatcher 串行调用
func (l *LogDisplay) SetCountdown(remaining time.Duration, warn bool) {
	secs := int64(remaining / time.Second)
	if secs == l.lastSecs {
		return
	}
	l.lastSecs = secs
	if warn {
		l.logger.Info("Countdown", "remaining", remaining.Round(time.Second).String(), "warn", true)
		return
	}
	l.logger.Debug("Countdown", "remaining", remaining.Round(time.Second).String())
}

func (l *LogDisplay) SetFreeze(player int, remaining time.Duration) {
	if remaining == 0 {
		l.logger.Debug("Player unfrozen", "playerId", player)
	}
}

func (l *LogDisplay) SetScore(player, score int) {
	l.logger.Info("Score", "playerId", player, "score", score)
}

func (l *LogDisplay) AnnounceWinners(players []int) {
	l.logger.Info("Winners", "players", players)
}
