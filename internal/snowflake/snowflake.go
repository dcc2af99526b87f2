// Package snowflake 生成牌局ID
package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	// 起始时间戳 (2026-01-01 00:00:00 UTC)
	epoch int64 = 1767225600000

	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = -1 ^ (-1 << nodeBits)
	maxSequence = -1 ^ (-1 << sequenceBits)

	nodeShift      = sequenceBits
	timestampShift = nodeBits + sequenceBits
)

// ID 雪花ID
type ID int64

// String 十进制字符串
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Time 生成时间（毫秒精度）
func (id ID) Time() time.Time {
	return time.UnixMilli(int64(id)>>timestampShift + epoch)
}

// Node 返回生成该ID的节点号
func (id ID) Node() int64 {
	return int64(id) >> nodeShift & maxNodeID
}

// Node 雪花ID生成器
type Node struct {
	mu       sync.Mutex
	nodeID   int64
	sequence int64
	lastTime int64
}

// NewNode 创建生成器，nodeID 取值 0-1023
func NewNode(nodeID int64) (*Node, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake: node id %d out of range [0, %d]", nodeID, maxNodeID)
	}
	return &Node{nodeID: nodeID}, nil
}

// Generate 生成ID，同一毫秒序号用尽时等待下一毫秒
func (n *Node) Generate() ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < n.lastTime {
		// 时钟回拨，沿用上次的时间戳
		now = n.lastTime
	}

	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & maxSequence
		if n.sequence == 0 {
			for now <= n.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.sequence = 0
	}
	n.lastTime = now

	return ID((now-epoch)<<timestampShift | n.nodeID<<nodeShift | n.sequence)
}
