package xkeyrw

import "errors"

var (
	// ErrInvalidMode 表示 mode 既不是 [ModeRead] 也不是 [ModeWrite]。
	// Acquire/TryAcquire 同步返回此错误，不会默默按某一类处理。
	ErrInvalidMode = errors.New("xkeyrw: invalid mode")

	// ErrInvalidKey 表示 key 为空字符串。
	ErrInvalidKey = errors.New("xkeyrw: invalid key")

	// ErrLockOccupied 表示 TryAcquire 时准入条件未满足（锁被占用）。
	ErrLockOccupied = errors.New("xkeyrw: lock occupied")

	// ErrClosed 表示 RWLocker 已关闭。
	// Close 后调用 Acquire/TryAcquire 返回此错误。
	ErrClosed = errors.New("xkeyrw: closed")

	// ErrMaxKeysExceeded 表示在途 (key, 种类) 条目数已达上限。
	ErrMaxKeysExceeded = errors.New("xkeyrw: max keys exceeded")

	// ErrInvalidShardCount 表示分片数配置非法。
	ErrInvalidShardCount = errors.New("xkeyrw: invalid shard count")
)
