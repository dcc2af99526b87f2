package game

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

const noCard = -1

// Table 牌桌对象
//
// 所有放牌、收牌、标记操作共用一把锁。
// 庄家验证组合时在同一个临界区内读牌、判定、收牌、补牌，
// 判定结果因此不会被并发的标记或另一次收牌打断。
//
// 不变量：slotToCard[s] == c 当且仅当 cardToSlot[c] == s
type Table struct {
	mu sync.Mutex

	env *Env

	slotToCard  []int         // 每个槽位上的牌，noCard 表示空
	cardToSlot  []int         // 每张牌所在槽位，noCard 表示不在桌上
	tokens      [][]int       // 每个槽位上的玩家标记（按放置顺序）
	selections  map[int][]int // 每个玩家已标记的槽位（按放置顺序）
	reshuffling bool          // 正在整桌洗牌，期间玩家操作无效
}

// NewTable 创建空牌桌
func NewTable(env *Env) *Table {
	t := &Table{
		env:        env,
		slotToCard: make([]int, env.Config.TableSize),
		cardToSlot: make([]int, env.Config.DeckSize),
		tokens:     make([][]int, env.Config.TableSize),
		selections: make(map[int][]int),
	}
	for i := range t.slotToCard {
		t.slotToCard[i] = noCard
	}
	for i := range t.cardToSlot {
		t.cardToSlot[i] = noCard
	}
	return t
}

// Size 槽位数量
func (t *Table) Size() int {
	return len(t.slotToCard)
}

// ========== 牌 ==========

// PlaceCard 在空槽位放一张牌，槽位已有牌时 panic
func (t *Table) PlaceCard(card Card, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.placeCardLocked(card, slot)
}

// RemoveCard 收走槽位上的牌并清除该槽位上所有玩家的标记，槽位为空时 panic
func (t *Table) RemoveCard(slot int) Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeCardLocked(slot)
}

// SlotCard 获取槽位上的牌
func (t *Table) SlotCard(slot int) (Card, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustSlot(slot)
	c := t.slotToCard[slot]
	return Card(c), c != noCard
}

// CardSlot 获取牌所在槽位
func (t *Table) CardSlot(card Card) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustCard(card)
	s := t.cardToSlot[card]
	return s, s != noCard
}

// CountCards 桌上牌数
func (t *Table) CountCards() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cardsLocked())
}

// Cards 桌上所有牌（按槽位顺序）
func (t *Table) Cards() []Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cardsLocked()
}

// EmptySlots 空槽位列表
func (t *Table) EmptySlots() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emptySlotsLocked()
}

// ========== 标记 ==========

// ToggleToken 切换玩家在槽位上的标记，返回玩家当前的标记数
// 已标记则取消；未标记且不足 3 个且槽位有牌则放置；否则不变
func (t *Table) ToggleToken(player, slot int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count, _ := t.toggleTokenLocked(player, slot)
	return count
}

// TokensOn 槽位上的玩家标记快照
func (t *Table) TokensOn(slot int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustSlot(slot)
	return slices.Clone(t.tokens[slot])
}

// PlayerTokens 玩家已标记的槽位快照
func (t *Table) PlayerTokens(player int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.selections[player])
}

// ClearPlayerTokens 清除玩家的全部标记
func (t *Table) ClearPlayerTokens(player int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearPlayerTokensLocked(player)
}

// IsReshuffling 是否正在整桌洗牌
func (t *Table) IsReshuffling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reshuffling
}

// Hints 在日志中打印桌上所有合法组合
func (t *Table) Hints() {
	t.mu.Lock()
	cards := t.cardsLocked()
	slotOf := slices.Clone(t.cardToSlot)
	t.mu.Unlock()

	features, _ := t.env.Oracle.(interface{ CardToFeatures(Card) []int })
	for _, set := range t.env.Oracle.FindSets(cards, math.MaxInt) {
		slots := make([]int, 0, ClaimSize)
		for _, c := range set {
			slots = append(slots, slotOf[c])
		}
		slices.Sort(slots)

		attrs := []any{"slots", slots, "cards", set}
		if features != nil {
			f := make([][]int, 0, ClaimSize)
			for _, c := range set {
				f = append(f, features.CardToFeatures(c))
			}
			attrs = append(attrs, "features", f)
		}
		t.env.Logger.Info("Hint: set found", attrs...)
	}
}

// selectSlot 处理玩家按键，洗牌期间无效
// 本次新增标记使玩家凑满 3 个时返回待提交的组合
func (t *Table) selectSlot(player, slot int) (Claim, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reshuffling {
		return Claim{}, false
	}

	count, added := t.toggleTokenLocked(player, slot)
	if !added || count != ClaimSize {
		return Claim{}, false
	}

	claim := Claim{Player: player}
	for i, s := range t.selections[player] {
		claim.Slots[i] = s
		claim.Cards[i] = Card(t.slotToCard[s])
	}
	return claim, true
}

// setReshuffling 设置整桌洗牌标志
func (t *Table) setReshuffling(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reshuffling = v
}

// ========== 内部方法（调用方持有锁） ==========

func (t *Table) placeCardLocked(card Card, slot int) {
	t.mustSlot(slot)
	t.mustCard(card)
	if t.slotToCard[slot] != noCard {
		panic(ErrSlotOccupied.WithContext("slot", slot).WithContext("card", t.slotToCard[slot]))
	}
	if t.cardToSlot[card] != noCard {
		panic(ErrMappingMismatch.WithContext("card", int(card)).WithContext("slot", t.cardToSlot[card]))
	}

	t.delay()
	t.cardToSlot[card] = slot
	t.slotToCard[slot] = int(card)

	t.env.Display.PlaceCard(card, slot)
}

func (t *Table) removeCardLocked(slot int) Card {
	t.mustSlot(slot)
	c := t.slotToCard[slot]
	if c == noCard {
		panic(ErrSlotEmpty.WithContext("slot", slot))
	}
	if t.cardToSlot[c] != slot {
		panic(ErrMappingMismatch.WithContext("card", c).WithContext("slot", slot))
	}

	t.delay()
	t.slotToCard[slot] = noCard
	t.cardToSlot[c] = noCard

	// 槽位上的标记全部失效
	for _, p := range t.tokens[slot] {
		t.selections[p] = slices.DeleteFunc(t.selections[p], func(s int) bool { return s == slot })
	}
	t.tokens[slot] = nil

	t.env.Display.RemoveTokens(slot)
	t.env.Display.RemoveCard(slot)
	return Card(c)
}

// toggleTokenLocked 返回标记数以及本次是否新增了标记
func (t *Table) toggleTokenLocked(player, slot int) (int, bool) {
	t.mustSlot(slot)
	sel := t.selections[player]

	if slices.Contains(sel, slot) {
		t.selections[player] = slices.DeleteFunc(sel, func(s int) bool { return s == slot })
		t.tokens[slot] = slices.DeleteFunc(t.tokens[slot], func(p int) bool { return p == player })
		t.env.Display.RemoveToken(player, slot)
		return len(t.selections[player]), false
	}

	if len(sel) >= ClaimSize || t.slotToCard[slot] == noCard {
		return len(sel), false
	}

	t.selections[player] = append(sel, slot)
	t.tokens[slot] = append(t.tokens[slot], player)
	if len(t.selections[player]) > ClaimSize {
		panic(ErrTokenOverflow.WithContext("player", player))
	}
	t.env.Display.PlaceToken(player, slot)
	return len(t.selections[player]), true
}

func (t *Table) clearPlayerTokensLocked(player int) {
	for _, slot := range t.selections[player] {
		t.tokens[slot] = slices.DeleteFunc(t.tokens[slot], func(p int) bool { return p == player })
		t.env.Display.RemoveToken(player, slot)
	}
	delete(t.selections, player)
}

// clearAllTokensLocked 清除桌上全部标记
func (t *Table) clearAllTokensLocked() {
	for i := range t.tokens {
		t.tokens[i] = nil
	}
	clear(t.selections)
	t.env.Display.RemoveAllTokens()
}

// claimStillValidLocked 提交后槽位未被收走：玩家仍标记着这 3 个槽位，且槽位上仍是提交时的牌
func (t *Table) claimStillValidLocked(c Claim) bool {
	sel := t.selections[c.Player]
	if len(sel) != ClaimSize {
		return false
	}
	for i, slot := range c.Slots {
		if !slices.Contains(sel, slot) || t.slotToCard[slot] != int(c.Cards[i]) {
			return false
		}
	}
	return true
}

func (t *Table) cardsLocked() []Card {
	cards := make([]Card, 0, len(t.slotToCard))
	for _, c := range t.slotToCard {
		if c != noCard {
			cards = append(cards, Card(c))
		}
	}
	return cards
}

func (t *Table) emptySlotsLocked() []int {
	var slots []int
	for s, c := range t.slotToCard {
		if c == noCard {
			slots = append(slots, s)
		}
	}
	return slots
}

// checkInvariantsLocked 校验映射互逆、标记数量与双向记录一致
func (t *Table) checkInvariantsLocked() error {
	for s, c := range t.slotToCard {
		if c != noCard && t.cardToSlot[c] != s {
			return ErrMappingMismatch.WithContext("slot", s).WithContext("card", c)
		}
	}
	for c, s := range t.cardToSlot {
		if s != noCard && t.slotToCard[s] != c {
			return ErrMappingMismatch.WithContext("slot", s).WithContext("card", c)
		}
	}
	for p, sel := range t.selections {
		if len(sel) > ClaimSize {
			return ErrTokenOverflow.WithContext("player", p)
		}
		for _, s := range sel {
			if !slices.Contains(t.tokens[s], p) {
				return fmt.Errorf("player %d selected slot %d without a token", p, s)
			}
		}
	}
	for s, players := range t.tokens {
		if len(players) > 0 && t.slotToCard[s] == noCard {
			return ErrSlotEmpty.WithContext("slot", s)
		}
		for _, p := range players {
			if !slices.Contains(t.selections[p], s) {
				return fmt.Errorf("token of player %d on slot %d not in selection", p, s)
			}
		}
	}
	return nil
}

func (t *Table) mustSlot(slot int) {
	if slot < 0 || slot >= len(t.slotToCard) {
		panic(ErrInvalidSlot.WithContext("slot", slot))
	}
}

func (t *Table) mustCard(card Card) {
	if card < 0 || int(card) >= len(t.cardToSlot) {
		panic(ErrInvalidCard.WithContext("card", int(card)))
	}
}

func (t *Table) delay() {
	if d := t.env.Config.TableDelay; d > 0 {
		time.Sleep(d)
	}
}
