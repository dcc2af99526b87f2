// Package display 显示事件的分发与组合
package display

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sudooom.set/internal/game"
)

// DefaultQueueSize 默认事件缓冲大小
const DefaultQueueSize = 1024

type event func(game.Display)

// Dispatcher 异步显示
// 牌局协程只入队不等待，单个 worker 按入队顺序转发给下游；队列满时丢弃并告警。
// 下游 panic 被捕获，不影响牌局。
type Dispatcher struct {
	sink   game.Display
	queue  chan event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	dropped atomic.Int64
	logger  *slog.Logger
}

var _ game.Display = (*Dispatcher)(nil)

// NewDispatcher 创建并启动异步显示
func NewDispatcher(sink game.Display, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		sink:   sink,
		queue:  make(chan event, queueSize),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "DisplayDispatcher"),
	}

	d.wg.Add(1)
	go d.worker()

	return d
}

// Dropped 因队列满丢弃的事件数
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close 停止接收事件，转发完已入队的事件后返回
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.done)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.queue:
			d.apply(ev)
		case <-d.done:
			for {
				select {
				case ev := <-d.queue:
					d.apply(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) apply(ev event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Display panic recovered", "panic", r)
		}
	}()
	ev(d.sink)
}

func (d *Dispatcher) submit(ev event) {
	if d.closed.Load() {
		return
	}
	select {
	case d.queue <- ev:
	default:
		if n := d.dropped.Add(1); n == 1 || n%100 == 0 {
			d.logger.Warn("Display queue full, dropping event", "dropped", n)
		}
	}
}

func (d *Dispatcher) PlaceCard(card game.Card, slot int) {
	d.submit(func(s game.Display) { s.PlaceCard(card, slot) })
}

func (d *Dispatcher) RemoveCard(slot int) {
	d.submit(func(s game.Display) { s.RemoveCard(slot) })
}

func (d *Dispatcher) PlaceToken(player, slot int) {
	d.submit(func(s game.Display) { s.PlaceToken(player, slot) })
}

func (d *Dispatcher) RemoveToken(player, slot int) {
	d.submit(func(s game.Display) { s.RemoveToken(player, slot) })
}

func (d *Dispatcher) RemoveTokens(slot int) {
	d.submit(func(s game.Display) { s.RemoveTokens(slot) })
}

func (d *Dispatcher) RemoveAllTokens() {
	d.submit(func(s game.Display) { s.RemoveAllTokens() })
}

func (d *Dispatcher) SetCountdown(remaining time.Duration, warn bool) {
	d.submit(func(s game.Display) { s.SetCountdown(remaining, warn) })
}

func (d *Dispatcher) SetFreeze(player int, remaining time.Duration) {
	d.submit(func(s game.Display) { s.SetFreeze(player, remaining) })
}

func (d *Dispatcher) SetScore(player, score int) {
	d.submit(func(s game.Display) { s.SetScore(player, score) })
}

func (d *Dispatcher) AnnounceWinners(players []int) {
	winners := append([]int(nil), players...)
	d.submit(func(s game.Display) { s.AnnounceWinners(winners) })
}
