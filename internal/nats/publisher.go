package nats

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.set/internal/game"
)

// 事件类型
const (
	EventPlaceCard   = "place_card"
	EventRemoveCard  = "remove_card"
	EventPlaceToken  = "place_token"
	EventRemoveToken = "remove_token"
	EventClearSlot   = "clear_slot"
	EventClearTokens = "clear_tokens"
	EventCountdown   = "countdown"
	EventFreeze      = "freeze"
	EventScore       = "score"
	EventWinners     = "winners"
)

// Event 发布到 NATS 的牌局事件
type Event struct {
	Type        string `json:"type"`
	GameID      string `json:"gameId"`
	Seq         uint64 `json:"seq"`
	Timestamp   int64  `json:"ts"`
	Card        *int   `json:"card,omitempty"`
	Slot        *int   `json:"slot,omitempty"`
	Player      *int   `json:"player,omitempty"`
	Score       *int   `json:"score,omitempty"`
	RemainingMs *int64 `json:"remainingMs,omitempty"`
	Warn        bool   `json:"warn,omitempty"`
	Winners     []int  `json:"winners,omitempty"`
}

// EventPublisher 把显示事件发布为 NATS 消息，供旁观者订阅
// 倒计时只在整秒变化时发布
type EventPublisher struct {
	nc      *nats.Conn
	gameID  string
	subject string
	seq     atomic.Uint64

	lastCountdown atomic.Int64

	mu     sync.Mutex
	frozen map[int]bool

	logger *slog.Logger
}

var _ game.Display = (*EventPublisher)(nil)

// NewEventPublisher 创建牌局事件发布器
func NewEventPublisher(nc *nats.Conn, gameID string) *EventPublisher {
	p := &EventPublisher{
		nc:      nc,
		gameID:  gameID,
		subject: BuildGameEventsSubject(gameID),
		frozen:  make(map[int]bool),
		logger:  slog.Default().With("component", "EventPublisher", "gameId", gameID),
	}
	p.lastCountdown.Store(-1)
	return p
}

// Subject 事件发布的 Subject
func (p *EventPublisher) Subject() string {
	return p.subject
}

func (p *EventPublisher) publish(subject string, ev *Event) {
	ev.GameID = p.gameID
	ev.Seq = p.seq.Add(1)
	ev.Timestamp = time.Now().UnixMilli()

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to marshal event", "type", ev.Type, "error", err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "type", ev.Type, "subject", subject, "error", err)
		return
	}
	p.logger.Debug("Published event", "type", ev.Type, "seq", ev.Seq)
}

func ptr[T any](v T) *T {
	return &v
}

func (p *EventPublisher) PlaceCard(card game.Card, slot int) {
	p.publish(p.subject, &Event{Type: EventPlaceCard, Card: ptr(int(card)), Slot: ptr(slot)})
}

func (p *EventPublisher) RemoveCard(slot int) {
	p.publish(p.subject, &Event{Type: EventRemoveCard, Slot: ptr(slot)})
}

func (p *EventPublisher) PlaceToken(player, slot int) {
	p.publish(p.subject, &Event{Type: EventPlaceToken, Player: ptr(player), Slot: ptr(slot)})
}

func (p *EventPublisher) RemoveToken(player, slot int) {
	p.publish(p.subject, &Event{Type: EventRemoveToken, Player: ptr(player), Slot: ptr(slot)})
}

func (p *EventPublisher) RemoveTokens(slot int) {
	p.publish(p.subject, &Event{Type: EventClearSlot, Slot: ptr(slot)})
}

func (p *EventPublisher) RemoveAllTokens() {
	p.publish(p.subject, &Event{Type: EventClearTokens})
}

func (p *EventPublisher) SetCountdown(remaining time.Duration, warn bool) {
	secs := int64(remaining / time.Second)
	if p.lastCountdown.Swap(secs) == secs {
		return
	}
	p.publish(p.subject, &Event{Type: EventCountdown, RemainingMs: ptr(remaining.Milliseconds()), Warn: warn})
}

func (p *EventPublisher) SetFreeze(player int, remaining time.Duration) {
	// 只发布冻结开始和结束
	frozen := remaining > 0
	p.mu.Lock()
	was := p.frozen[player]
	p.frozen[player] = frozen
	p.mu.Unlock()
	if was == frozen {
		return
	}
	p.publish(p.subject, &Event{Type: EventFreeze, Player: ptr(player), RemainingMs: ptr(remaining.Milliseconds())})
}

func (p *EventPublisher) SetScore(player, score int) {
	p.publish(p.subject, &Event{Type: EventScore, Player: ptr(player), Score: ptr(score)})
}

// AnnounceWinners 同时发布到牌局 Subject 和结算 Subject
func (p *EventPublisher) AnnounceWinners(players []int) {
	p.publish(p.subject, &Event{Type: EventWinners, Winners: players})
	p.publish(SubjectGameResults, &Event{Type: EventWinners, Winners: players})
}
