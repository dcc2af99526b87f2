package game

import (
	"context"
	"sync"
	"time"
)

// 牌局状态
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Game 游戏对象
// 组装牌桌、牌堆、待判定队列、玩家和庄家，管理一局的生命周期
type Game struct {
	mu sync.RWMutex

	env     *Env
	table   *Table
	deck    *Deck
	claims  *ClaimQueue
	players []*Player
	dealer  *Dealer

	status     string
	startedAt  time.Time
	finishedAt time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// Snapshot 牌局快照（只读）
type Snapshot struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	State      string    `json:"state"`
	Scores     []int     `json:"scores"`
	Winners    []int     `json:"winners,omitempty"`
	OnTable    int       `json:"onTable"`
	DeckLeft   int       `json:"deckLeft"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// NewGame 创建牌局，牌堆包含全部牌
func NewGame(env *Env) *Game {
	return NewGameWithDeck(env, NewDeck(env.Config.DeckSize))
}

// NewGameWithDeck 用指定牌堆创建牌局
// 前 HumanPlayers 个玩家是人类，其余是电脑
func NewGameWithDeck(env *Env, deck *Deck) *Game {
	table := NewTable(env)
	claims := NewClaimQueue()

	players := make([]*Player, env.Config.Players())
	for i := range players {
		players[i] = NewPlayer(env, table, claims, i, i < env.Config.HumanPlayers)
	}

	return &Game{
		env:     env,
		table:   table,
		deck:    deck,
		claims:  claims,
		players: players,
		dealer:  NewDealer(env, table, deck, claims, players),
		status:  StatusWaiting,
		done:    make(chan struct{}),
	}
}

// ID 牌局ID
func (g *Game) ID() string {
	return g.env.GameID
}

// Dealer 庄家
func (g *Game) Dealer() *Dealer {
	return g.dealer
}

// Table 牌桌
func (g *Game) Table() *Table {
	return g.table
}

// Start 在后台启动牌局
func (g *Game) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.status {
	case StatusPlaying:
		return ErrGameRunning
	case StatusFinished:
		return ErrGameFinished
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.status = StatusPlaying
	g.startedAt = time.Now()

	go func() {
		defer close(g.done)
		defer cancel()

		g.dealer.Run(runCtx)

		g.mu.Lock()
		g.status = StatusFinished
		g.finishedAt = time.Now()
		g.mu.Unlock()
	}()
	return nil
}

// Stop 终止牌局并等待庄家和所有玩家退出
func (g *Game) Stop() {
	g.mu.RLock()
	cancel := g.cancel
	g.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-g.done
}

// Close 终止牌局，显示实现了 Close 时一并关闭
func (g *Game) Close() {
	g.Stop()
	if c, ok := g.env.Display.(interface{ Close() }); ok {
		c.Close()
	}
}

// Done 牌局结束时关闭
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// KeyPressed 外部按键
func (g *Game) KeyPressed(player, slot int) {
	g.dealer.KeyPressed(player, slot)
}

// Status 牌局状态
func (g *Game) Status() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// FinishedAt 结束时间
func (g *Game) FinishedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.finishedAt
}

// GetSnapshot 获取牌局快照
func (g *Game) GetSnapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return Snapshot{
		ID:         g.env.GameID,
		Status:     g.status,
		State:      g.dealer.State().String(),
		Scores:     g.dealer.Scores(),
		Winners:    g.dealer.Winners(),
		OnTable:    g.table.CountCards(),
		DeckLeft:   g.deck.Len(),
		StartedAt:  g.startedAt,
		FinishedAt: g.finishedAt,
	}
}
