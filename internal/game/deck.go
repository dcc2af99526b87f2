package game

import (
	"math/rand"
	"slices"
	"sync"
	"time"
)

// Deck 未发出的牌
// 只有庄家协程会修改牌堆，锁用于测试和统计时读取快照
type Deck struct {
	mu    sync.Mutex
	cards []Card
	rand  *rand.Rand
}

// NewDeck 创建包含全部 size 张牌的牌堆
func NewDeck(size int) *Deck {
	cards := make([]Card, size)
	for i := range cards {
		cards[i] = Card(i)
	}
	return NewDeckWithCards(cards, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDeckWithCards 用指定的牌和随机源创建牌堆
func NewDeckWithCards(cards []Card, rnd *rand.Rand) *Deck {
	return &Deck{
		cards: slices.Clone(cards),
		rand:  rnd,
	}
}

// Draw 随机抽一张牌（不放回），牌堆为空时返回 false
func (d *Deck) Draw() (Card, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.cards) == 0 {
		return 0, false
	}
	i := d.rand.Intn(len(d.cards))
	card := d.cards[i]
	last := len(d.cards) - 1
	d.cards[i] = d.cards[last]
	d.cards = d.cards[:last]
	return card, true
}

// Return 把牌放回牌堆
func (d *Deck) Return(card Card) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = append(d.cards, card)
}

// Len 剩余牌数
func (d *Deck) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// Cards 剩余牌快照
func (d *Deck) Cards() []Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.cards)
}

// Contains 牌是否在牌堆中
func (d *Deck) Contains(card Card) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.cards, card)
}
