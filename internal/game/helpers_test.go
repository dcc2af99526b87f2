package game

import (
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"sudooom.set/internal/config"
)

// fakeOracle 只认可预先给定的组合
type fakeOracle struct {
	legal map[[ClaimSize]Card]bool
}

func newFakeOracle(sets ...[ClaimSize]Card) *fakeOracle {
	o := &fakeOracle{legal: make(map[[ClaimSize]Card]bool)}
	for _, s := range sets {
		o.legal[sortedTriple(s)] = true
	}
	return o
}

func sortedTriple(s [ClaimSize]Card) [ClaimSize]Card {
	slices.Sort(s[:])
	return s
}

func (o *fakeOracle) IsValid(cards [ClaimSize]Card) bool {
	return o.legal[sortedTriple(cards)]
}

func (o *fakeOracle) FindSets(cards []Card, limit int) [][ClaimSize]Card {
	var sets [][ClaimSize]Card
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			for k := j + 1; k < len(cards); k++ {
				s := [ClaimSize]Card{cards[i], cards[j], cards[k]}
				if o.IsValid(s) {
					sets = append(sets, s)
					if len(sets) >= limit {
						return sets
					}
				}
			}
		}
	}
	return sets
}

// recordingDisplay 统计收到的显示事件
type recordingDisplay struct {
	mu         sync.Mutex
	placed     int
	removed    int
	scores     map[int]int
	winners    []int
	announced  int
	countdowns int
	warned     bool
	freezes    map[int][]time.Duration
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{
		scores:  make(map[int]int),
		freezes: make(map[int][]time.Duration),
	}
}

func (r *recordingDisplay) PlaceCard(Card, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed++
}

func (r *recordingDisplay) RemoveCard(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed++
}

func (r *recordingDisplay) PlaceToken(int, int) {}
func (r *recordingDisplay) RemoveToken(int, int) {}
func (r *recordingDisplay) RemoveTokens(int) {}
func (r *recordingDisplay) RemoveAllTokens() {}

func (r *recordingDisplay) SetCountdown(_ time.Duration, warn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countdowns++
	r.warned = r.warned || warn
}

func (r *recordingDisplay) SetFreeze(player int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freezes[player] = append(r.freezes[player], d)
}

func (r *recordingDisplay) SetScore(player, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[player] = score
}

func (r *recordingDisplay) AnnounceWinners(players []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announced++
	r.winners = slices.Clone(players)
}

func (r *recordingDisplay) Winners() ([]int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.winners), r.announced
}

func (r *recordingDisplay) Freezes(player int) []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.freezes[player])
}

func testConfig() config.GameConfig {
	return config.GameConfig{
		Tables:          1,
		HumanPlayers:    2,
		ComputerPlayers: 0,
		DeckSize:        81,
		TableSize:       config.GridSize,
		FeatureSize:     3,
		FeatureCount:    4,
		TurnTimeout:     time.Hour,
		EvictTimeout:    time.Minute,
	}
}

func newTestEnv(cfg config.GameConfig, oracle Oracle) (*Env, *recordingDisplay) {
	rec := newRecordingDisplay()
	return NewEnv("test", cfg, rec, oracle), rec
}

// fixture 手工组装的牌局，玩家不启动协程，测试直接驱动
type fixture struct {
	env     *Env
	display *recordingDisplay
	table   *Table
	deck    *Deck
	claims  *ClaimQueue
	players []*Player
	dealer  *Dealer
}

// newFixture 桌上 0-11 号槽位依次放 0-11 号牌，牌堆为 12 到 deckCards-1
func newFixture(t *testing.T, cfg config.GameConfig, oracle Oracle, deckCards int) *fixture {
	t.Helper()

	env, rec := newTestEnv(cfg, oracle)
	table := NewTable(env)
	for i := 0; i < cfg.TableSize && i < deckCards; i++ {
		table.PlaceCard(Card(i), i)
	}

	var rest []Card
	for c := cfg.TableSize; c < deckCards; c++ {
		rest = append(rest, Card(c))
	}
	deck := NewDeckWithCards(rest, rand.New(rand.NewSource(1)))
	claims := NewClaimQueue()

	players := make([]*Player, cfg.Players())
	for i := range players {
		players[i] = NewPlayer(env, table, claims, i, i < cfg.HumanPlayers)
	}

	return &fixture{
		env:     env,
		display: rec,
		table:   table,
		deck:    deck,
		claims:  claims,
		players: players,
		dealer:  NewDealer(env, table, deck, claims, players),
	}
}

// claim 玩家依次选中槽位并提交
func (f *fixture) claim(t *testing.T, player int, slots ...int) uint64 {
	t.Helper()

	var (
		c  Claim
		ok bool
	)
	for _, s := range slots {
		c, ok = f.table.selectSlot(player, s)
	}
	if !ok {
		t.Fatalf("玩家 %d 选中 %v 后应凑满一个组合", player, slots)
	}
	return f.claims.Submit(c)
}

// verdict 读取玩家收到的判定，没有则失败
func (f *fixture) verdict(t *testing.T, player int) verdictMsg {
	t.Helper()
	select {
	case msg := <-f.players[player].verdicts:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("玩家 %d 没有收到判定", player)
		return verdictMsg{}
	}
}

// checkInvariants 校验牌桌不变量
func (f *fixture) checkInvariants(t *testing.T) {
	t.Helper()
	f.table.mu.Lock()
	defer f.table.mu.Unlock()
	if err := f.table.checkInvariantsLocked(); err != nil {
		t.Fatalf("牌桌不变量被破坏: %v", err)
	}
}
