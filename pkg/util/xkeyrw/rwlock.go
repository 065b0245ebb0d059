package xkeyrw

import (
	"context"
	"io"
)

// Handle 表示一次成功的锁获取，持有者通过它释放锁。
// Unlock 幂等：重复调用无额外效果，不报错也不 panic。
type Handle interface {
	// Unlock 释放锁，触发本次操作的完成信号。
	// 幂等：只有第一次调用生效。
	Unlock()

	// Key 返回锁的 key。Unlock 之后调用仍返回原始 key 值。
	Key() string

	// Mode 返回获取时的模式。
	Mode() Mode
}

// Stats 是当前在途条目的瞬时快照，用于排空/泄漏检查和监控。
// 所有操作释放且完成信号被观察到之后，两个计数都归零。
type Stats struct {
	// ReadKeys 读表中的 key 条目数。
	ReadKeys int
	// WriteKeys 写表中的 key 条目数。
	WriteKeys int
}

// RWLocker 提供基于 key 的进程内异步读写锁。
// 所有方法都是并发安全的。
type RWLocker interface {
	io.Closer

	// Acquire 阻塞式获取锁。
	// 同一 key 上：读与读并发；写与一切互斥；跨类按准入顺序 FIFO 执行。
	// 不同 key 之间互不影响。
	//
	// 支持 ctx 超时/取消，ctx 取消时返回 [context.Canceled] 或
	// [context.DeadlineExceeded]；被取消的等待者已发布的排队位置会立即
	// 放行，后继操作不受影响。ctx 不得为 nil，否则 panic。
	// RWLocker 已关闭时返回 [ErrClosed]。key 不得为空字符串，否则返回
	// [ErrInvalidKey]。mode 非法时返回 [ErrInvalidMode]。
	//
	// 当 Acquire 处于阻塞等待时，若 Close 与 ctx 取消同时发生，
	// 返回 [ErrClosed] 或 ctx.Err() 均有可能（Go select 语义）。
	//
	// 设计决策: 锁是非可重入的。同一 goroutine 先持有读锁再 Acquire
	// 同一 key 的写锁会阻塞到该读锁被（其他 goroutine）释放为止，
	// 由调用方负责避免自阻塞。建议始终使用带 deadline 的 context。
	Acquire(ctx context.Context, key string, mode Mode) (Handle, error)

	// TryAcquire 非阻塞获取锁。
	// 准入条件未满足（锁被占用）时返回 (nil, [ErrLockOccupied])，
	// 且不会在队列中留下任何排队痕迹。
	// RWLocker 已关闭时返回 (nil, [ErrClosed])。
	TryAcquire(key string, mode Mode) (Handle, error)

	// Stats 返回读表/写表当前的 key 条目数（瞬时快照）。
	// 注意释放是异步收尾的：Unlock 返回后，条目清理可能仍在进行，
	// 排空校验应轮询至归零。
	Stats() Stats

	// Keys 返回当前有在途条目的 key 列表（去重），仅用于调试。
	// 返回值是快照，不保证跨分片原子性。
	Keys() []string
}

// New 创建一个新的 RWLocker 实例。
// 配置无效时返回错误（如分片数不是 2 的幂）。
func New(opts ...Option) (RWLocker, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	l := newRWLockImpl(&o)
	if o.meterProvider != nil {
		m, err := newLockMetrics(o.meterProvider)
		if err != nil {
			return nil, err
		}
		l.metrics = m
	}
	return l, nil
}
