package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.set/internal/game"
)

// opTimeout 单次写入超时
const opTimeout = 2 * time.Second

// ScoreBoard 把比分和赢家写入 Redis，供外部看板读取
// 牌局本身从不读取这些数据；只处理比分相关事件，其余事件忽略
type ScoreBoard struct {
	client *redis.Client
	gameID string
	ttl    time.Duration
	logger *slog.Logger
}

var _ game.Display = (*ScoreBoard)(nil)

// NewScoreBoard 创建比分镜像
func NewScoreBoard(c *Client, gameID string, ttl time.Duration) *ScoreBoard {
	return &ScoreBoard{
		client: c.client,
		gameID: gameID,
		ttl:    ttl,
		logger: slog.Default().With("component", "ScoreBoard", "gameId", gameID),
	}
}

// Register 写入玩家名并把比分清零
func (s *ScoreBoard) Register(ctx context.Context, names []string) error {
	players := make(map[string]any, len(names))
	scores := make(map[string]any, len(names))
	for id, name := range names {
		players[strconv.Itoa(id)] = name
		scores[strconv.Itoa(id)] = 0
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, BuildWinnersKey(s.gameID))
	if len(names) > 0 {
		pipe.HSet(ctx, BuildPlayersKey(s.gameID), players)
		pipe.HSet(ctx, BuildScoresKey(s.gameID), scores)
	}
	pipe.Expire(ctx, BuildPlayersKey(s.gameID), s.ttl)
	pipe.Expire(ctx, BuildScoresKey(s.gameID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register game %s: %w", s.gameID, err)
	}
	return nil
}

// Scores 读取比分
func (s *ScoreBoard) Scores(ctx context.Context) (map[int]int, error) {
	raw, err := s.client.HGetAll(ctx, BuildScoresKey(s.gameID)).Result()
	if err != nil {
		return nil, err
	}
	scores := make(map[int]int, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		score, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		scores[id] = score
	}
	return scores, nil
}

// Winners 读取赢家，牌局未结束时返回 nil
func (s *ScoreBoard) Winners(ctx context.Context) ([]int, error) {
	data, err := s.client.Get(ctx, BuildWinnersKey(s.gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var winners []int
	if err := json.Unmarshal([]byte(data), &winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal winners: %w", err)
	}
	return winners, nil
}

func (s *ScoreBoard) SetScore(player, score int) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := BuildScoresKey(s.gameID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, strconv.Itoa(player), score)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to write score", "playerId", player, "error", err)
	}
}

func (s *ScoreBoard) AnnounceWinners(players []int) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := json.Marshal(players)
	if err != nil {
		s.logger.Error("Failed to marshal winners", "error", err)
		return
	}
	if err := s.client.Set(ctx, BuildWinnersKey(s.gameID), data, s.ttl).Err(); err != nil {
		s.logger.Error("Failed to write winners", "error", err)
	}
}

func (s *ScoreBoard) PlaceCard(game.Card, int) {}
func (s *ScoreBoard) RemoveCard(int) {}
func (s *ScoreBoard) PlaceToken(int, int) {}
func (s *ScoreBoard) RemoveToken(int, int) {}
func (s *ScoreBoard) RemoveTokens(int) {}
func (s *ScoreBoard) RemoveAllTokens() {}
func (s *ScoreBoard) SetCountdown(time.Duration, bool) {}
func (s *ScoreBoard) SetFreeze(int, time.Duration) {}
