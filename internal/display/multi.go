package display

import (
	"time"

	"sudooom.set/internal/game"
)

// Multi 把同一事件依次转发给多个显示
type Multi []game.Display

var _ game.Display = Multi(nil)

// NewMulti 组合多个显示，忽略 nil
func NewMulti(sinks ...game.Display) Multi {
	m := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m Multi) PlaceCard(card game.Card, slot int) {
	for _, s := range m {
		s.PlaceCard(card, slot)
	}
}

func (m Multi) RemoveCard(slot int) {
	for _, s := range m {
		s.RemoveCard(slot)
	}
}

func (m Multi) PlaceToken(player, slot int) {
	for _, s := range m {
		s.PlaceToken(player, slot)
	}
}

func (m Multi) RemoveToken(player, slot int) {
	for _, s := range m {
		s.RemoveToken(player, slot)
	}
}

func (m Multi) RemoveTokens(slot int) {
	for _, s := range m {
		s.RemoveTokens(slot)
	}
}

func (m Multi) RemoveAllTokens() {
	for _, s := range m {
		s.RemoveAllTokens()
	}
}

func (m Multi) SetCountdown(remaining time.Duration, warn bool) {
	for _, s := range m {
		s.SetCountdown(remaining, warn)
	}
}

func (m Multi) SetFreeze(player int, remaining time.Duration) {
	for _, s := range m {
		s.SetFreeze(player, remaining)
	}
}

func (m Multi) SetScore(player, score int) {
	for _, s := range m {
		s.SetScore(player, score)
	}
}

func (m Multi) AnnounceWinners(players []int) {
	for _, s := range m {
		s.AnnounceWinners(players)
	}
}
