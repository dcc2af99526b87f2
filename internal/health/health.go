// Package health 进程健康检查
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// NATSConn NATS 连接状态
type NATSConn interface {
	IsConnected() bool
}

// RedisPinger Redis 连接检查
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// GameCounter 牌局计数
type GameCounter interface {
	Count() int
	Running() int
}

// Status 健康状态
type Status struct {
	NATS         string `json:"nats"`
	Redis        string `json:"redis"`
	Games        int    `json:"games"`
	RunningGames int    `json:"runningGames"`
}

// Checker 健康检查器，未启用的依赖传 nil
type Checker struct {
	nats  NATSConn
	redis RedisPinger
	games GameCounter
}

// NewChecker 创建健康检查器
func NewChecker(nats NATSConn, redis RedisPinger, games GameCounter) *Checker {
	return &Checker{nats: nats, redis: redis, games: games}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{NATS: StatusDisabled, Redis: StatusDisabled}

	if h.nats != nil {
		if h.nats.IsConnected() {
			status.NATS = StatusConnected
		} else {
			status.NATS = StatusDisconnected
		}
	}

	if h.redis != nil {
		redisCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.redis.Ping(redisCtx); err == nil {
			status.Redis = StatusConnected
		} else {
			status.Redis = StatusDisconnected
		}
	}

	if h.games != nil {
		status.Games = h.games.Count()
		status.RunningGames = h.games.Running()
	}

	return status
}

// healthy 已启用的依赖都已连接
func (s *Status) healthy() bool {
	return s.NATS != StatusDisconnected && s.Redis != StatusDisconnected
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
