package redis

import "fmt"

const (
	// GameKeyPrefix 牌局 Key 前缀
	GameKeyPrefix = "set:game:"
)

// BuildScoresKey 牌局比分 Hash
// Key: set:game:{gameId}:scores, Field: playerId, Value: score
func BuildScoresKey(gameID string) string {
	return fmt.Sprintf("%s%s:scores", GameKeyPrefix, gameID)
}

// BuildPlayersKey 玩家名 Hash
// Key: set:game:{gameId}:players, Field: playerId, Value: name
func BuildPlayersKey(gameID string) string {
	return fmt.Sprintf("%s%s:players", GameKeyPrefix, gameID)
}

// BuildWinnersKey 赢家列表（JSON 数组）
// Key: set:game:{gameId}:winners
func BuildWinnersKey(gameID string) string {
	return fmt.Sprintf("%s%s:winners", GameKeyPrefix, gameID)
}
