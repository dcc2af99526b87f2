package game

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLegalClaim(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle([3]Card{0, 1, 2}), 81)

	seq := f.claim(t, 0, 0, 1, 2)
	require.True(t, f.dealer.resolveClaims())

	msg := f.verdict(t, 0)
	assert.Equal(t, seq, msg.Seq)
	assert.Equal(t, VerdictAccepted, msg.Verdict)
	assert.Equal(t, 1, f.players[0].Score())

	// 组合中的牌离开牌局，槽位从牌堆补满
	for _, c := range []Card{0, 1, 2} {
		_, onTable := f.table.CardSlot(c)
		assert.False(t, onTable)
		assert.False(t, f.deck.Contains(c))
	}
	assert.Equal(t, 12, f.table.CountCards())
	assert.Equal(t, 81-12-3, f.deck.Len())
	assert.Empty(t, f.table.PlayerTokens(0))
	f.checkInvariants(t)
}

func TestResolveIllegalClaim(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle([3]Card{0, 1, 2}), 81)

	f.claim(t, 1, 3, 4, 5)
	assert.False(t, f.dealer.resolveClaims())

	msg := f.verdict(t, 1)
	assert.Equal(t, VerdictRejected, msg.Verdict)
	assert.Equal(t, 0, f.players[1].Score())

	// 判错不动牌，标记由玩家自己处理
	for slot := 3; slot <= 5; slot++ {
		c, ok := f.table.SlotCard(slot)
		assert.True(t, ok)
		assert.Equal(t, Card(slot), c)
	}
	assert.Len(t, f.table.PlayerTokens(1), 3)
}

// 两个玩家的组合共用一个槽位，无论谁先入队，后者都被撤回且不罚
func TestOverlappingClaims(t *testing.T) {
	tests := []struct {
		name   string
		first  int
		second int
	}{
		{"玩家 0 先提交", 0, 1},
		{"玩家 1 先提交", 1, 0},
	}

	selections := map[int][]int{0: {0, 1, 2}, 1: {2, 3, 4}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := newFakeOracle([3]Card{0, 1, 2}, [3]Card{2, 3, 4})
			f := newFixture(t, testConfig(), oracle, 81)

			firstSeq := f.claim(t, tt.first, selections[tt.first]...)
			secondSeq := f.claim(t, tt.second, selections[tt.second]...)

			require.True(t, f.dealer.resolveClaims())

			won := f.verdict(t, tt.first)
			assert.Equal(t, firstSeq, won.Seq)
			assert.Equal(t, VerdictAccepted, won.Verdict)

			lost := f.verdict(t, tt.second)
			assert.Equal(t, secondSeq, lost.Seq)
			assert.Equal(t, VerdictNone, lost.Verdict)

			assert.Equal(t, 1, f.players[tt.first].Score())
			assert.Equal(t, 0, f.players[tt.second].Score())
			assert.Equal(t, 0, f.claims.Len())

			// 输的一方在共用槽位上的标记随牌一起消失
			assert.Len(t, f.table.PlayerTokens(tt.second), 2)
			f.checkInvariants(t)
		})
	}
}

// 提交之后槽位上的牌被换掉，组合作废不罚
func TestStaleClaimDropped(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle([3]Card{0, 1, 2}), 81)

	f.claim(t, 0, 0, 1, 2)
	c := f.table.RemoveCard(1)
	f.table.PlaceCard(c, 1)

	assert.False(t, f.dealer.resolveClaims())
	assert.Equal(t, VerdictNone, f.verdict(t, 0).Verdict)
	assert.Equal(t, 0, f.players[0].Score())
}

func TestRefillWithEmptyDeck(t *testing.T) {
	// 一共 12 张牌，没有可补的牌
	f := newFixture(t, testConfig(), newFakeOracle([3]Card{0, 1, 2}), 12)

	f.claim(t, 0, 0, 1, 2)
	require.True(t, f.dealer.resolveClaims())

	assert.Equal(t, 9, f.table.CountCards())
	assert.ElementsMatch(t, []int{0, 1, 2}, f.table.EmptySlots())
	f.checkInvariants(t)
}

func TestReshuffle(t *testing.T) {
	f := newFixture(t, testConfig(), newFakeOracle([3]Card{3, 4, 5}), 21)

	// 一个待判定的合法组合，一个只放了部分标记的玩家
	f.claim(t, 0, 3, 4, 5)
	f.table.ToggleToken(1, 7)
	f.players[1].KeyPressed(8)

	f.dealer.reshuffle()

	assert.Equal(t, VerdictAccepted, f.verdict(t, 0).Verdict)
	assert.Equal(t, 1, f.players[0].Score())

	// 所有牌要么在桌上要么在牌堆，被收走的 3 张除外
	assert.Equal(t, 21-3, f.table.CountCards()+f.deck.Len())
	assert.Equal(t, 12, f.table.CountCards())
	for _, c := range f.table.Cards() {
		assert.False(t, f.deck.Contains(c), "牌 %d 同时在桌上和牌堆", c)
	}

	for slot := 0; slot < f.table.Size(); slot++ {
		assert.Empty(t, f.table.TokensOn(slot))
	}
	assert.Equal(t, 0, f.players[1].PendingActions())
	assert.False(t, f.table.IsReshuffling())
	f.checkInvariants(t)
}

func TestComputeWinners(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []int
	}{
		{"唯一赢家", []int{1, 4, 2}, []int{1}},
		{"并列最高", []int{3, 1, 3, 0}, []int{0, 2}},
		{"全部零分", []int{0, 0}, []int{0, 1}},
		{"没有玩家", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeWinners(tt.scores))
		})
	}
}

func TestPollInterval(t *testing.T) {
	cfg := testConfig()

	cfg.TurnTimeout = time.Hour
	f := newFixture(t, cfg, newFakeOracle(), 81)
	assert.Equal(t, maxPollInterval, f.dealer.pollInterval())

	cfg.TurnTimeout = 10 * time.Second
	f = newFixture(t, cfg, newFakeOracle(), 81)
	assert.Equal(t, 10*time.Millisecond, f.dealer.pollInterval())

	cfg.TurnTimeout = 100 * time.Millisecond
	f = newFixture(t, cfg, newFakeOracle(), 81)
	assert.Equal(t, time.Millisecond, f.dealer.pollInterval())
}

// 一个玩家卡在等待判定，一个卡在空队列，一个电脑玩家在按键，关闭都应及时完成
func TestTerminatePlayersBounded(t *testing.T) {
	cfg := testConfig()
	cfg.ComputerPlayers = 1
	cfg.ComputerThink = time.Millisecond
	f := newFixture(t, cfg, newFakeOracle(), 81)

	for _, p := range f.players {
		p.Start()
	}
	for _, s := range []int{0, 1, 2} {
		f.players[0].KeyPressed(s)
	}

	require.Eventually(t, func() bool {
		return f.players[0].State() == PlayerAwaitingVerdict
	}, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.dealer.terminatePlayers()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("关闭玩家超时")
	}

	for _, p := range f.players {
		assert.Equal(t, PlayerStopped, p.State())
	}

	// 终止后的按键直接丢弃
	f.players[1].KeyPressed(3)
	assert.Equal(t, 0, f.players[1].PendingActions())
}

// 只有 6 张牌的小牌局由电脑玩家自然打完
func TestDealerRunFinishes(t *testing.T) {
	cfg := testConfig()
	cfg.HumanPlayers = 0
	cfg.ComputerPlayers = 3
	cfg.TurnTimeout = 200 * time.Millisecond

	oracle := newFakeOracle([3]Card{0, 1, 2}, [3]Card{3, 4, 5})
	env, rec := newTestEnv(cfg, oracle)
	deck := NewDeckWithCards([]Card{0, 1, 2, 3, 4, 5}, rand.New(rand.NewSource(7)))
	g := NewGameWithDeck(env, deck)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, g.Start(ctx))
	assert.ErrorIs(t, g.Start(ctx), ErrGameRunning)

	select {
	case <-g.Done():
	case <-ctx.Done():
		t.Fatal("牌局没有自然结束")
	}

	snap := g.GetSnapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, DealerFinished.String(), snap.State)
	assert.Equal(t, 0, snap.OnTable)
	assert.Equal(t, 0, snap.DeckLeft)

	total := 0
	for _, s := range snap.Scores {
		total += s
	}
	assert.Equal(t, 2, total)
	assert.NotEmpty(t, snap.Winners)

	winners, announced := rec.Winners()
	assert.Equal(t, 1, announced)
	assert.Equal(t, snap.Winners, winners)
	assert.ErrorIs(t, g.Start(ctx), ErrGameFinished)
}

// 取消 ctx 终止牌局，宣布当前的赢家
func TestDealerRunCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.HumanPlayers = 2
	env, rec := newTestEnv(cfg, newFakeOracle([3]Card{0, 1, 2}))
	g := NewGame(env)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, g.Start(ctx))

	require.Eventually(t, func() bool {
		return g.Dealer().State() == DealerRunning
	}, time.Second, time.Millisecond)
	assert.Equal(t, StatusPlaying, g.Status())

	cancel()
	select {
	case <-g.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("取消后牌局应结束")
	}

	winners, announced := rec.Winners()
	assert.Equal(t, 1, announced)
	assert.Equal(t, []int{0, 1}, winners)
	assert.Equal(t, StatusFinished, g.Status())
}
