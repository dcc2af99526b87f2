package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sudooom.set/internal/config"
)

// EnvFactory 为新牌局构造运行环境
type EnvFactory func(gameID string) *Env

// Manager 游戏管理器
// 管理多个互相隔离的牌局，定期清理已结束的牌局
type Manager struct {
	games sync.Map // gameId -> *Game

	newID  func() string
	newEnv EnvFactory

	evictTimeout time.Duration
	evictTicker  *time.Ticker

	stopChan chan struct{} // 停止信号通道
	stopOnce sync.Once

	logger *slog.Logger
}

// NewManager 创建游戏管理器
func NewManager(cfg config.GameConfig, newID func() string, newEnv EnvFactory) *Manager {
	interval := time.Minute
	if cfg.EvictTimeout > 0 && cfg.EvictTimeout < interval {
		interval = cfg.EvictTimeout
	}

	m := &Manager{
		newID:        newID,
		newEnv:       newEnv,
		evictTimeout: cfg.EvictTimeout,
		evictTicker:  time.NewTicker(interval),
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// Launch 创建并启动一局
func (m *Manager) Launch(ctx context.Context) (*Game, error) {
	id := m.newID()
	g := NewGame(m.newEnv(id))

	if err := g.Start(ctx); err != nil {
		return nil, err
	}
	m.games.Store(id, g)
	m.logger.Info("Game launched", "gameId", id)
	return g, nil
}

// Get 获取牌局
func (m *Manager) Get(gameID string) (*Game, error) {
	val, ok := m.games.Load(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	return val.(*Game), nil
}

// Remove 移除牌局（未结束则先终止）
func (m *Manager) Remove(gameID string) {
	val, ok := m.games.LoadAndDelete(gameID)
	if !ok {
		return
	}
	val.(*Game).Close()
	m.logger.Info("Removed game", "gameId", gameID)
}

// Count 返回当前牌局数
func (m *Manager) Count() int {
	count := 0
	m.games.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// Running 返回进行中的牌局数
func (m *Manager) Running() int {
	count := 0
	m.games.Range(func(key, value any) bool {
		if value.(*Game).Status() == StatusPlaying {
			count++
		}
		return true
	})
	return count
}

// Snapshots 所有牌局快照
func (m *Manager) Snapshots() []Snapshot {
	var snaps []Snapshot
	m.games.Range(func(key, value any) bool {
		snaps = append(snaps, value.(*Game).GetSnapshot())
		return true
	})
	return snaps
}

// evictLoop 淘汰循环
func (m *Manager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictFinished()
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictFinished 淘汰结束超过 evictTimeout 的牌局
func (m *Manager) evictFinished() {
	now := time.Now()
	var toEvict []string

	m.games.Range(func(key, value any) bool {
		g := value.(*Game)
		if g.Status() == StatusFinished && now.Sub(g.FinishedAt()) > m.evictTimeout {
			toEvict = append(toEvict, key.(string))
		}
		return true
	})

	for _, id := range toEvict {
		m.Remove(id)
		m.logger.Info("Evicted finished game", "gameId", id)
	}
}

// Shutdown 终止所有牌局并关闭其显示，ctx 到期时不再等待
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.evictTicker.Stop()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		m.games.Range(func(key, value any) bool {
			wg.Add(1)
			go func(g *Game) {
				defer wg.Done()
				g.Close()
			}(value.(*Game))
			return true
		})
		wg.Wait()
	}()

	select {
	case <-done:
		m.logger.Info("GameManager shutdown complete")
		return nil
	case <-ctx.Done():
		m.logger.Warn("GameManager shutdown timed out")
		return ctx.Err()
	}
}
