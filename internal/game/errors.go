package game

import (
	"errors"
	"fmt"
)

// GameError 牌桌不变量错误
// 只在程序逻辑错误时出现，调用方以 panic 处理
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Context)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较，WithContext 派生出的错误仍与原错误相等
func (e *GameError) Is(target error) bool {
	var other *GameError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 返回带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	cp := e.clone()
	cp.Cause = cause
	return cp
}

// WithContext 返回带上下文的副本，预定义错误本身不会被修改
func (e *GameError) WithContext(key string, value any) *GameError {
	cp := e.clone()
	cp.Context[key] = value
	return cp
}

func (e *GameError) clone() *GameError {
	cp := &GameError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: make(map[string]any, len(e.Context)+1),
	}
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	return cp
}

// 牌桌不变量
var (
	ErrInvalidSlot     = NewGameError("INVALID_SLOT", "槽位超出范围")
	ErrInvalidCard     = NewGameError("INVALID_CARD", "牌号超出范围")
	ErrSlotOccupied    = NewGameError("SLOT_OCCUPIED", "槽位已有牌")
	ErrSlotEmpty       = NewGameError("SLOT_EMPTY", "槽位没有牌")
	ErrMappingMismatch = NewGameError("MAPPING_MISMATCH", "槽位与牌的映射不一致")
	ErrTokenOverflow   = NewGameError("TOKEN_OVERFLOW", "玩家标记超过上限")
)

// 牌局管理错误
var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameFinished = errors.New("game already finished")
	ErrGameRunning  = errors.New("game already running")
)
