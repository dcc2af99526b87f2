package game

import (
	"sync"
	"time"
)

// Verdict 庄家对组合的判定
type Verdict int

const (
	// VerdictNone 未判定或被取消，不罚分
	VerdictNone Verdict = iota
	// VerdictAccepted 合法组合
	VerdictAccepted
	// VerdictRejected 非法组合
	VerdictRejected
)

func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Claim 玩家提交的 3 个槽位
// 记录提交时的槽位和牌，庄家据此识别已失效的提交
type Claim struct {
	Player      int
	Seq         uint64
	Slots       [ClaimSize]int
	Cards       [ClaimSize]Card
	SubmittedAt time.Time
}

// verdictMsg 庄家发给玩家的判定，Seq 对应被判定的提交
type verdictMsg struct {
	Seq     uint64
	Verdict Verdict
}

// ClaimQueue 待判定队列
// 多个玩家写入，庄家单独读取，按入队顺序出队
type ClaimQueue struct {
	mu     sync.Mutex
	claims []Claim
	seq    uint64
}

// NewClaimQueue 创建待判定队列
func NewClaimQueue() *ClaimQueue {
	return &ClaimQueue{}
}

// Submit 入队，返回分配的序号
func (q *ClaimQueue) Submit(c Claim) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	c.Seq = q.seq
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now()
	}
	q.claims = append(q.claims, c)
	return c.Seq
}

// Pop 取出队首，队列为空返回 false
func (q *ClaimQueue) Pop() (Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.claims) == 0 {
		return Claim{}, false
	}
	c := q.claims[0]
	q.claims[0] = Claim{}
	q.claims = q.claims[1:]
	return c, true
}

// Remove 删除玩家尚未判定的提交
func (q *ClaimQueue) Remove(player int) (Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, c := range q.claims {
		if c.Player == player {
			q.claims = append(q.claims[:i], q.claims[i+1:]...)
			return c, true
		}
	}
	return Claim{}, false
}

// Contains 玩家是否有尚未判定的提交
func (q *ClaimQueue) Contains(player int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, c := range q.claims {
		if c.Player == player {
			return true
		}
	}
	return false
}

// DrainAll 取出全部提交
func (q *ClaimQueue) DrainAll() []Claim {
	q.mu.Lock()
	defer q.mu.Unlock()

	claims := q.claims
	q.claims = nil
	return claims
}

// Len 队列长度
func (q *ClaimQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.claims)
}
