package nats

// NATS Subject 常量定义
const (
	// SubjectGamePrefix 牌局事件前缀
	// 完整格式: set.game.{gameId}.events
	SubjectGamePrefix = "set.game."
	SubjectGameSuffix = ".events"

	// SubjectGameResults 所有牌局的结算
	SubjectGameResults = "set.game.results"

	// SubjectAllGameEvents 订阅全部牌局事件
	SubjectAllGameEvents = "set.game.*.events"
)

// BuildGameEventsSubject 构建牌局事件 Subject
func BuildGameEventsSubject(gameID string) string {
	return SubjectGamePrefix + gameID + SubjectGameSuffix
}
