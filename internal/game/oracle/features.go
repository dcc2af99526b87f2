// Package oracle 判定三张牌是否构成合法组合
package oracle

import (
	"log/slog"

	"sudooom.set/internal/game"
)

// Features 按特征判定的规则
//
// 每张牌编码为 featureCount 位 featureSize 进制数，每一位是一个特征。
// 三张牌的每个特征要么全相同，要么全不同，才构成合法组合。
type Features struct {
	size  int
	count int
	deck  int
}

var _ game.Oracle = (*Features)(nil)

// New 创建按特征判定的规则，默认 3 个取值、4 个特征共 81 张牌
func New(featureSize, featureCount int) *Features {
	deck := 1
	for i := 0; i < featureCount; i++ {
		deck *= featureSize
	}
	slog.Default().With("component", "Oracle").Debug("Oracle created",
		"featureSize", featureSize, "featureCount", featureCount, "deckSize", deck)
	return &Features{size: featureSize, count: featureCount, deck: deck}
}

// DeckSize 牌的总数
func (f *Features) DeckSize() int {
	return f.deck
}

// CardToFeatures 把牌拆成各个特征的取值，低位在前
func (f *Features) CardToFeatures(card game.Card) []int {
	features := make([]int, f.count)
	n := int(card)
	for i := range features {
		features[i] = n % f.size
		n /= f.size
	}
	return features
}

// IsValid 三张牌是否构成合法组合
func (f *Features) IsValid(cards [game.ClaimSize]game.Card) bool {
	for _, c := range cards {
		if c < 0 || int(c) >= f.deck {
			return false
		}
	}
	if cards[0] == cards[1] || cards[1] == cards[2] || cards[0] == cards[2] {
		return false
	}

	a, b, c := int(cards[0]), int(cards[1]), int(cards[2])
	for i := 0; i < f.count; i++ {
		x, y, z := a%f.size, b%f.size, c%f.size
		sameAll := x == y && y == z
		diffAll := x != y && y != z && x != z
		if !sameAll && !diffAll {
			return false
		}
		a, b, c = a/f.size, b/f.size, c/f.size
	}
	return true
}

// FindSets 找出至多 limit 个合法组合，按牌的输入顺序枚举
func (f *Features) FindSets(cards []game.Card, limit int) [][game.ClaimSize]game.Card {
	if limit <= 0 {
		return nil
	}

	var sets [][game.ClaimSize]game.Card
	n := len(cards)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				set := [game.ClaimSize]game.Card{cards[i], cards[j], cards[k]}
				if !f.IsValid(set) {
					continue
				}
				sets = append(sets, set)
				if len(sets) >= limit {
					return sets
				}
			}
		}
	}
	return sets
}
