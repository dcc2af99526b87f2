package game

import (
	"context"
	"time"
)

// Card 牌号 0 <= c < deckSize
type Card int

// ClaimSize 一个组合的牌数
const ClaimSize = 3

// QueueCapacity 玩家待处理按键上限
const QueueCapacity = 3

// Oracle 组合判定器
// 纯函数，不得修改共享状态
type Oracle interface {
	// IsValid 三张牌是否构成合法组合
	IsValid(cards [ClaimSize]Card) bool

	// FindSets 在给定牌中找出至多 limit 个合法组合
	FindSets(cards []Card, limit int) [][ClaimSize]Card
}

// Display 显示输出
// 只发不收，失败不回传给核心
type Display interface {
	PlaceCard(card Card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	RemoveTokens(slot int)
	RemoveAllTokens()
	SetCountdown(remaining time.Duration, warn bool)
	SetFreeze(player int, remaining time.Duration)
	SetScore(player, score int)
	AnnounceWinners(players []int)
}

// KeyPresser 接收外部按键
type KeyPresser interface {
	KeyPressed(player, slot int)
}

// InputSource 人类玩家的外部输入来源
type InputSource interface {
	Run(ctx context.Context, keys KeyPresser) error
}
