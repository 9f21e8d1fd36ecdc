package profile

import (
	"sync"
)

// --- Redis 键名常量 ---

const (
	// StatsKey 是一个 Redis Hash 的键，存储每个用户的实时统计。
	// Field: 用户的UUID
	// Value: UserStats 结构体的JSON序列化字符串
	StatsKey = "profile:stats"

	// RankingKey 是一个 Redis Sorted Set 的键，存储用户积分排行。
	// Score: 用户积分
	// Member: 用户的UUID
	RankingKey = "profile:ranking"

	// KnownUsersKey 是一个Set，用于快速判断一个UUID是否是已激活的用户。
	KnownUsersKey = "profile:known"

	// DirtySetKey 是一个 Redis Set 的键，存储自上次快照以来
	// 统计数据发生变化的用户UUID，用于增量落盘。
	DirtySetKey = "profile:dirty"

	// ProcessingDirtySetKey 是快照期间DirtySetKey被原子地重命名后的临时键。
	// 快照失败时其内容会被合并回DirtySetKey，不丢失任何脏用户。
	ProcessingDirtySetKey = "profile:dirty:processing"
)

// --- Redis 数据结构 ---

// UserStats 定义了在 profile:stats 哈希表中以JSON存储的用户实时统计。
type UserStats struct {
	Points     int `json:"points"`
	Activities int `json:"activities"`
}

// --- 并发控制 ---

// repoMutex 保护本模块管理的Redis键在重建与常规写入之间的并发访问。
var repoMutex sync.RWMutex

// LockRepository 获取写锁。
func LockRepository() {
	repoMutex.Lock()
}

// UnlockRepository 释放写锁。
func UnlockRepository() {
	repoMutex.Unlock()
}

// RLockRepository 获取读锁。
func RLockRepository() {
	repoMutex.RLock()
}

// RUnlockRepository 释放读锁。
func RUnlockRepository() {
	repoMutex.RUnlock()
}
