package game

import (
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"
)

// TestTablePlaceRemove 测试放牌收牌与双向映射
func TestTablePlaceRemove(t *testing.T) {
	env, rec := newTestEnv(testConfig(), newFakeOracle())
	table := NewTable(env)

	table.PlaceCard(42, 3)

	if c, ok := table.SlotCard(3); !ok || c != 42 {
		t.Errorf("期望槽位 3 = 42, 实际 = %d, %v", c, ok)
	}
	if s, ok := table.CardSlot(42); !ok || s != 3 {
		t.Errorf("期望牌 42 在槽位 3, 实际 = %d, %v", s, ok)
	}
	if table.CountCards() != 1 {
		t.Errorf("期望桌上 1 张牌, 实际 = %d", table.CountCards())
	}

	if c := table.RemoveCard(3); c != 42 {
		t.Errorf("期望收走 42, 实际 = %d", c)
	}
	if _, ok := table.CardSlot(42); ok {
		t.Error("收牌后牌不应在桌上")
	}
	if len(table.EmptySlots()) != table.Size() {
		t.Errorf("期望 %d 个空槽位, 实际 = %d", table.Size(), len(table.EmptySlots()))
	}
	if rec.placed != 1 || rec.removed != 1 {
		t.Errorf("期望显示 1 次放牌 1 次收牌, 实际 = %d, %d", rec.placed, rec.removed)
	}
}

// TestTableInvariantPanics 测试违反不变量时 panic
func TestTableInvariantPanics(t *testing.T) {
	env, _ := newTestEnv(testConfig(), newFakeOracle())
	table := NewTable(env)
	table.PlaceCard(1, 0)

	tests := []struct {
		name string
		fn   func()
		want error
	}{
		{"槽位已有牌", func() { table.PlaceCard(2, 0) }, ErrSlotOccupied},
		{"牌已在桌上", func() { table.PlaceCard(1, 5) }, ErrMappingMismatch},
		{"空槽位收牌", func() { table.RemoveCard(7) }, ErrSlotEmpty},
		{"非法槽位", func() { table.ToggleToken(0, 12) }, ErrInvalidSlot},
		{"非法牌号", func() { table.PlaceCard(81, 1) }, ErrInvalidCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok {
					t.Fatalf("期望 panic 一个 error, 实际 = %v", r)
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("期望 %v, 实际 = %v", tt.want, err)
				}
			}()
			tt.fn()
		})
	}
}

// TestToggleToken 测试标记切换
func TestToggleToken(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle(), 81)
	table := f.table

	// 放置再取消，恢复原状
	if n := table.ToggleToken(0, 4); n != 1 {
		t.Errorf("期望 1 个标记, 实际 = %d", n)
	}
	if n := table.ToggleToken(0, 4); n != 0 {
		t.Errorf("期望 0 个标记, 实际 = %d", n)
	}
	if len(table.TokensOn(4)) != 0 {
		t.Error("取消后槽位上不应有标记")
	}

	// 最多 3 个，第 4 个不生效
	for _, s := range []int{0, 1, 2, 3} {
		table.ToggleToken(0, s)
	}
	if got := table.PlayerTokens(0); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("期望标记 [0 1 2], 实际 = %v", got)
	}

	// 空槽位不能放标记
	table.RemoveCard(5)
	if n := table.ToggleToken(1, 5); n != 0 {
		t.Errorf("空槽位期望 0 个标记, 实际 = %d", n)
	}

	// 多个玩家可以标记同一槽位，按放置顺序记录
	table.ToggleToken(1, 0)
	if got := table.TokensOn(0); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("期望槽位 0 标记 [0 1], 实际 = %v", got)
	}

	f.checkInvariants(t)
}

// TestRemoveCardClearsTokens 测试收牌清除所有玩家在该槽位的标记
func TestRemoveCardClearsTokens(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle(), 81)

	f.table.ToggleToken(0, 2)
	f.table.ToggleToken(1, 2)
	f.table.ToggleToken(1, 3)

	f.table.RemoveCard(2)

	if len(f.table.TokensOn(2)) != 0 {
		t.Error("收牌后槽位上不应有标记")
	}
	if got := f.table.PlayerTokens(1); !slices.Equal(got, []int{3}) {
		t.Errorf("期望玩家 1 只剩 [3], 实际 = %v", got)
	}
	if len(f.table.PlayerTokens(0)) != 0 {
		t.Error("玩家 0 不应再有标记")
	}
	f.checkInvariants(t)
}

// TestSelectSlot 测试凑满 3 个标记时生成组合
func TestSelectSlot(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle(), 81)

	if _, ok := f.table.selectSlot(0, 7); ok {
		t.Error("1 个标记不应生成组合")
	}
	f.table.selectSlot(0, 2)
	c, ok := f.table.selectSlot(0, 9)
	if !ok {
		t.Fatal("3 个标记应生成组合")
	}
	if c.Slots != [3]int{7, 2, 9} || c.Cards != [3]Card{7, 2, 9} {
		t.Errorf("组合内容不符: %+v", c)
	}

	// 已满 3 个时按其他槽位不会重复提交
	if _, ok := f.table.selectSlot(0, 5); ok {
		t.Error("已满时不应再次生成组合")
	}

	// 取消一个再补一个，重新生成
	f.table.selectSlot(0, 2)
	if _, ok := f.table.selectSlot(0, 4); !ok {
		t.Error("补满后应重新生成组合")
	}

	// 洗牌期间按键无效
	f.table.setReshuffling(true)
	f.table.selectSlot(1, 0)
	if len(f.table.PlayerTokens(1)) != 0 {
		t.Error("洗牌期间不应放置标记")
	}
	f.table.setReshuffling(false)
}

// TestTableConcurrentInvariants 测试并发标记与收放牌后不变量仍成立
func TestTableConcurrentInvariants(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle(), 81)
	table := f.table

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(player int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(player)))
			for i := 0; i < 2000; i++ {
				table.ToggleToken(player, rnd.Intn(table.Size()))
			}
		}(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rnd := rand.New(rand.NewSource(99))
		for i := 0; i < 500; i++ {
			slot := rnd.Intn(table.Size())
			table.mu.Lock()
			if table.slotToCard[slot] != noCard {
				c := table.removeCardLocked(slot)
				table.placeCardLocked(c, slot)
			}
			table.mu.Unlock()
		}
	}()
	wg.Wait()

	f.checkInvariants(t)
	for p := 0; p < 4; p++ {
		if n := len(table.PlayerTokens(p)); n > ClaimSize {
			t.Errorf("玩家 %d 标记数 %d 超过上限", p, n)
		}
	}
}
