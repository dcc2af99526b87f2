package game

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DealerState 庄家状态
type DealerState int32

const (
	DealerDealing DealerState = iota
	DealerRunning
	DealerReshuffling
	DealerFinished
)

func (s DealerState) String() string {
	switch s {
	case DealerDealing:
		return "dealing"
	case DealerRunning:
		return "running"
	case DealerReshuffling:
		return "reshuffling"
	case DealerFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// maxPollInterval 轮询间隔上限，保证倒计时刷新和判定及时
const maxPollInterval = 100 * time.Millisecond

// Dealer 庄家
// 持有回合计时器，按入队顺序判定组合，收牌补牌，到时整桌洗牌，结束时宣布赢家并关闭玩家
type Dealer struct {
	env     *Env
	table   *Table
	deck    *Deck
	claims  *ClaimQueue
	players []*Player
	logger  *slog.Logger

	state       atomic.Int32
	reshuffleAt time.Time // 仅庄家协程访问

	mu      sync.RWMutex
	winners []int
}

// NewDealer 创建庄家
func NewDealer(env *Env, table *Table, deck *Deck, claims *ClaimQueue, players []*Player) *Dealer {
	return &Dealer{
		env:     env,
		table:   table,
		deck:    deck,
		claims:  claims,
		players: players,
		logger:  env.Logger.With("component", "Dealer"),
	}
}

// Run 庄家主循环，阻塞直到牌局结束
// ctx 取消即终止牌局；桌上和牌堆中都找不到合法组合时自然结束
func (d *Dealer) Run(ctx context.Context) {
	d.logger.Info("Dealer started", "players", len(d.players), "deck", d.deck.Len())

	d.setState(DealerDealing)
	d.dealCards()
	d.resetTimer()
	d.startPlayers()

	for !d.shouldFinish(ctx) {
		d.setState(DealerRunning)
		d.timerLoop(ctx)
		if d.shouldFinish(ctx) {
			break
		}
		d.reshuffle()
	}

	d.finish(ctx)
	d.logger.Info("Dealer terminated")
}

// KeyPressed 把外部按键转给玩家
func (d *Dealer) KeyPressed(player, slot int) {
	if player < 0 || player >= len(d.players) {
		d.logger.Debug("Ignore key for unknown player", "playerId", player)
		return
	}
	d.players[player].KeyPressed(slot)
}

// State 当前状态
func (d *Dealer) State() DealerState {
	return DealerState(d.state.Load())
}

// Winners 赢家（牌局结束后有效）
func (d *Dealer) Winners() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.winners)
}

// Scores 所有玩家得分
func (d *Dealer) Scores() []int {
	scores := make([]int, len(d.players))
	for i, p := range d.players {
		scores[i] = p.Score()
	}
	return scores
}

// Players 玩家列表
func (d *Dealer) Players() []*Player {
	return d.players
}

// timerLoop 每个时间片：休眠、判定全部待判组合、刷新倒计时
// 到时返回以便洗牌；合法组合被接受时重置计时
func (d *Dealer) timerLoop(ctx context.Context) {
	interval := d.pollInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for time.Now().Before(d.reshuffleAt) {
		d.updateCountdown()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(interval)
		}

		if d.resolveClaims() {
			d.resetTimer()
		}
		if d.noSetsLeft() {
			return
		}
	}
	d.updateCountdown()
}

// pollInterval 超时的千分之一，上限 100ms
func (d *Dealer) pollInterval() time.Duration {
	return max(min(d.env.Config.TurnTimeout/1000, maxPollInterval), time.Millisecond)
}

// resolveClaims 按入队顺序判定全部待判组合，返回是否有组合被接受
func (d *Dealer) resolveClaims() bool {
	accepted := false
	for {
		claim, ok := d.claims.Pop()
		if !ok {
			break
		}
		if d.resolve(claim) {
			accepted = true
		}
	}

	if accepted && d.env.Config.Hints {
		d.table.Hints()
	}
	return accepted
}

// resolve 判定一个组合
// 读牌、判定、收牌、补牌、撤销其他玩家的提交都在牌桌锁内完成
func (d *Dealer) resolve(c Claim) bool {
	if c.Player < 0 || c.Player >= len(d.players) {
		d.logger.Error("Claim from unknown player", "playerId", c.Player, "seq", c.Seq)
		return false
	}
	p := d.players[c.Player]
	logger := d.logger.With("playerId", c.Player, "seq", c.Seq, "slots", c.Slots)

	d.table.mu.Lock()

	// 同一轮中前面的组合已经收走了这些槽位
	if !d.table.claimStillValidLocked(c) {
		d.table.mu.Unlock()
		logger.Debug("Stale claim dropped")
		p.deliver(c.Seq, VerdictNone)
		return false
	}

	if !d.env.Oracle.IsValid(c.Cards) {
		d.table.mu.Unlock()
		logger.Debug("Claim rejected", "cards", c.Cards)
		p.deliver(c.Seq, VerdictRejected)
		return false
	}

	// 其他在这些槽位上有标记的玩家：撤回其待判组合，不罚
	for _, slot := range c.Slots {
		for _, other := range d.table.tokens[slot] {
			if other == c.Player {
				continue
			}
			if stale, ok := d.claims.Remove(other); ok {
				logger.Debug("Claim cancelled by accepted claim", "cancelledPlayer", other, "cancelledSeq", stale.Seq)
				d.players[other].deliver(stale.Seq, VerdictNone)
			}
		}
	}

	// 组合中的牌离开牌局，不回牌堆
	for _, slot := range c.Slots {
		d.table.removeCardLocked(slot)
	}
	d.refillLocked(c.Slots[:])
	d.table.mu.Unlock()

	p.point()
	p.deliver(c.Seq, VerdictAccepted)
	logger.Info("Claim accepted", "score", p.Score(), "deck", d.deck.Len())
	return true
}

// refillLocked 从牌堆随机补牌，牌堆空则槽位留空
func (d *Dealer) refillLocked(slots []int) {
	for _, slot := range slots {
		card, ok := d.deck.Draw()
		if !ok {
			return
		}
		d.table.placeCardLocked(card, slot)
	}
}

// dealCards 把所有空槽位补满，直到牌堆用尽
func (d *Dealer) dealCards() {
	d.table.mu.Lock()
	d.refillLocked(d.table.emptySlotsLocked())
	count := len(d.table.cardsLocked())
	d.table.mu.Unlock()

	d.logger.Debug("Cards dealt", "onTable", count, "deck", d.deck.Len())
	if d.env.Config.Hints {
		d.table.Hints()
	}
}

// reshuffle 整桌洗牌
// 先判定已提交的组合，再收回全部牌和标记，清空所有玩家的按键队列，重新发牌
func (d *Dealer) reshuffle() {
	d.setState(DealerReshuffling)
	d.logger.Info("Reshuffling", "deck", d.deck.Len())

	d.table.setReshuffling(true)
	defer d.table.setReshuffling(false)

	d.resolveClaims()

	d.table.mu.Lock()
	for slot, c := range d.table.slotToCard {
		if c != noCard {
			d.deck.Return(d.table.removeCardLocked(slot))
		}
	}
	d.table.clearAllTokensLocked()
	d.table.mu.Unlock()

	for _, p := range d.players {
		p.clearActions()
	}

	// 收牌期间提交的组合已失效
	for _, c := range d.claims.DrainAll() {
		d.players[c.Player].deliver(c.Seq, VerdictNone)
	}

	d.dealCards()
	d.resetTimer()
}

// shouldFinish 收到终止信号，或者牌堆加桌面已无合法组合
func (d *Dealer) shouldFinish(ctx context.Context) bool {
	return ctx.Err() != nil || d.noSetsLeft()
}

func (d *Dealer) noSetsLeft() bool {
	cards := append(d.table.Cards(), d.deck.Cards()...)
	return len(d.env.Oracle.FindSets(cards, 1)) == 0
}

// finish 宣布赢家并关闭所有玩家
func (d *Dealer) finish(ctx context.Context) {
	d.setState(DealerFinished)

	winners := computeWinners(d.Scores())
	d.mu.Lock()
	d.winners = winners
	d.mu.Unlock()

	d.logger.Info("Game finished", "winners", winners, "scores", d.Scores(), "deck", d.deck.Len())
	d.env.Display.AnnounceWinners(winners)

	d.terminatePlayers()

	if pause := d.env.Config.EndGamePause; pause > 0 && ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case <-time.After(pause):
		}
	}
}

// computeWinners 最高分的所有玩家
func computeWinners(scores []int) []int {
	if len(scores) == 0 {
		return nil
	}
	best := slices.Max(scores)
	var winners []int
	for id, s := range scores {
		if s == best {
			winners = append(winners, id)
		}
	}
	return winners
}

func (d *Dealer) startPlayers() {
	for _, p := range d.players {
		p.Start()
	}
}

// terminatePlayers 按创建的逆序关闭玩家并等待退出
func (d *Dealer) terminatePlayers() {
	for i := len(d.players) - 1; i >= 0; i-- {
		p := d.players[i]
		p.Terminate()
		p.Wait()
	}
}

// resetTimer 重置回合计时
func (d *Dealer) resetTimer() {
	d.reshuffleAt = time.Now().Add(d.env.Config.TurnTimeout)
	d.env.Display.SetCountdown(d.env.Config.TurnTimeout, false)
}

// updateCountdown 刷新倒计时显示
func (d *Dealer) updateCountdown() {
	remaining := time.Until(d.reshuffleAt)
	if remaining <= 0 {
		d.env.Display.SetCountdown(0, true)
		return
	}
	d.env.Display.SetCountdown(remaining, remaining < d.env.Config.TurnTimeoutWarning)
}

func (d *Dealer) setState(s DealerState) {
	d.state.Store(int32(s))
}
