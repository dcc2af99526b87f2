package game

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// PlayerState 玩家状态
type PlayerState int32

const (
	PlayerIdle            PlayerState = iota // 等待按键
	PlayerSelecting                          // 处理按键
	PlayerAwaitingVerdict                    // 已提交组合，等待庄家判定
	PlayerApplyingVerdict                    // 处理判定结果
	PlayerFrozen                             // 冻结中，按键不生效
	PlayerStopped                            // 已退出
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "idle"
	case PlayerSelecting:
		return "selecting"
	case PlayerAwaitingVerdict:
		return "awaiting_verdict"
	case PlayerApplyingVerdict:
		return "applying_verdict"
	case PlayerFrozen:
		return "frozen"
	case PlayerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Player 玩家
//
// 每个玩家一个协程，依次处理自己的按键队列。电脑玩家另有一个协程随机按键。
// 等待条件各用一个通道：
//   - actions  非空时唤醒主循环
//   - verdicts 庄家写入判定时唤醒等待中的玩家
//   - done     关闭即终止，所有等待点都监听它
type Player struct {
	ID    int
	Name  string
	human bool

	env    *Env
	table  *Table
	claims *ClaimQueue
	logger *slog.Logger

	actions  chan int        // 待处理按键，容量 3
	verdicts chan verdictMsg // 判定结果，容量 1（同一时间最多一个待判定组合）
	done     chan struct{}
	exited   chan struct{}

	stopOnce    sync.Once
	started     atomic.Bool
	generator   sync.WaitGroup
	score       atomic.Int64
	state       atomic.Int32
	frozenUntil atomic.Int64 // UnixNano，0 表示未冻结
}

// NewPlayer 创建玩家
func NewPlayer(env *Env, table *Table, claims *ClaimQueue, id int, human bool) *Player {
	kind := "computer"
	if human {
		kind = "human"
	}
	return &Player{
		ID:       id,
		Name:     env.Config.PlayerName(id),
		human:    human,
		env:      env,
		table:    table,
		claims:   claims,
		logger:   env.Logger.With("component", "Player", "playerId", id, "kind", kind),
		actions:  make(chan int, QueueCapacity),
		verdicts: make(chan verdictMsg, 1),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// IsHuman 是否人类玩家
func (p *Player) IsHuman() bool {
	return p.human
}

// Score 当前得分
func (p *Player) Score() int {
	return int(p.score.Load())
}

// State 当前状态
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// PendingActions 待处理按键数
func (p *Player) PendingActions() int {
	return len(p.actions)
}

// IsFrozen 是否处于冻结中
func (p *Player) IsFrozen() bool {
	until := p.frozenUntil.Load()
	return until != 0 && time.Now().UnixNano() < until
}

// Start 启动玩家协程
func (p *Player) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.run()
}

// KeyPressed 外部按键入队，队列满或已终止时丢弃
func (p *Player) KeyPressed(slot int) {
	if slot < 0 || slot >= p.table.Size() {
		p.logger.Debug("Ignore key for invalid slot", "slot", slot)
		return
	}

	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.actions <- slot:
	default:
		// 队列已满，丢弃
	}
}

// Terminate 通知玩家退出，可重复调用
// 关闭 done 同时唤醒等待按键和等待判定的玩家
func (p *Player) Terminate() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}

// Wait 等待玩家协程（以及电脑按键协程）退出
func (p *Player) Wait() {
	if !p.started.Load() {
		return
	}
	<-p.exited
}

// run 玩家主循环
func (p *Player) run() {
	defer func() {
		p.setState(PlayerStopped)
		close(p.exited)
		p.logger.Info("Player terminated")
	}()

	p.logger.Info("Player started", "name", p.Name)

	if !p.human {
		p.generator.Add(1)
		go p.generate()
	}
	defer p.generator.Wait()

	for {
		p.setState(PlayerIdle)
		select {
		case <-p.done:
			return
		case slot := <-p.actions:
			p.handleAction(slot)
		}
	}
}

// handleAction 处理一次按键；凑满 3 个标记时提交并等待判定
func (p *Player) handleAction(slot int) {
	p.setState(PlayerSelecting)

	claim, complete := p.table.selectSlot(p.ID, slot)
	if !complete {
		return
	}

	p.setState(PlayerAwaitingVerdict)
	seq := p.claims.Submit(claim)
	p.logger.Debug("Claim submitted", "seq", seq, "slots", claim.Slots)

	verdict, ok := p.awaitVerdict(seq)
	if !ok {
		return
	}
	p.applyVerdict(verdict)
}

// awaitVerdict 阻塞直到庄家给出 seq 对应的判定，终止时返回 false
func (p *Player) awaitVerdict(seq uint64) (Verdict, bool) {
	for {
		select {
		case <-p.done:
			return VerdictNone, false
		case msg := <-p.verdicts:
			if msg.Seq != seq {
				p.logger.Debug("Ignore verdict of another claim", "seq", msg.Seq, "want", seq)
				continue
			}
			return msg.Verdict, true
		}
	}
}

// applyVerdict 得分后冻结；判错后清空按键并冻结，电脑玩家同时撤掉自己的标记
func (p *Player) applyVerdict(v Verdict) {
	p.setState(PlayerApplyingVerdict)
	p.logger.Debug("Verdict received", "verdict", v.String())

	switch v {
	case VerdictAccepted:
		p.clearActions()
		p.table.ClearPlayerTokens(p.ID)
		p.freeze(p.env.Config.PointFreeze)
	case VerdictRejected:
		p.clearActions()
		if !p.human {
			p.table.ClearPlayerTokens(p.ID)
		}
		p.freeze(p.env.Config.PenaltyFreeze)
	default:
		// 被其他玩家抢先或提交已失效，不罚
	}
}

// freeze 冻结 d，期间按键被取出丢弃，倒计时按固定步长刷新
func (p *Player) freeze(d time.Duration) {
	if d <= 0 {
		p.env.Display.SetFreeze(p.ID, 0)
		return
	}

	p.setState(PlayerFrozen)
	until := time.Now().Add(d)
	p.frozenUntil.Store(until.UnixNano())
	defer p.frozenUntil.Store(0)

	ticker := time.NewTicker(freezeStep(d))
	defer ticker.Stop()

	p.env.Display.SetFreeze(p.ID, d)
	for remaining := d; remaining > 0; remaining = time.Until(until) {
		select {
		case <-p.done:
			return
		case <-p.actions:
			// 冻结期间的按键不生效
		case <-ticker.C:
			if left := time.Until(until); left > 0 {
				p.env.Display.SetFreeze(p.ID, left)
			}
		}
	}
	p.env.Display.SetFreeze(p.ID, 0)
}

// freezeStep 倒计时刷新步长
func freezeStep(d time.Duration) time.Duration {
	return min(100*time.Millisecond, d/100) + time.Millisecond
}

// generate 电脑玩家随机按键，队列满时阻塞，冻结期间暂停
func (p *Player) generate() {
	defer p.generator.Done()

	p.logger.Info("Computer input started")
	defer p.logger.Info("Computer input terminated")

	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(p.ID)))
	think := p.env.Config.ComputerThink

	for {
		if !p.waitUnfrozen() {
			return
		}

		select {
		case <-p.done:
			return
		case p.actions <- rnd.Intn(p.table.Size()):
		}

		if think > 0 {
			select {
			case <-p.done:
				return
			case <-time.After(think):
			}
		}
	}
}

// waitUnfrozen 冻结中则等到解冻，终止时返回 false
func (p *Player) waitUnfrozen() bool {
	for {
		until := p.frozenUntil.Load()
		wait := time.Until(time.Unix(0, until))
		if until == 0 || wait <= 0 {
			return true
		}
		select {
		case <-p.done:
			return false
		case <-time.After(wait):
		}
	}
}

// point 加一分
func (p *Player) point() {
	score := p.score.Add(1)
	p.env.Display.SetScore(p.ID, int(score))
}

// deliver 庄家写入判定（不阻塞）
func (p *Player) deliver(seq uint64, v Verdict) {
	select {
	case p.verdicts <- verdictMsg{Seq: seq, Verdict: v}:
	default:
		p.logger.Warn("Verdict dropped, previous verdict not consumed", "seq", seq, "verdict", v.String())
	}
}

// clearActions 清空待处理按键
func (p *Player) clearActions() {
	for {
		select {
		case <-p.actions:
		default:
			return
		}
	}
}

func (p *Player) setState(s PlayerState) {
	p.state.Store(int32(s))
}
