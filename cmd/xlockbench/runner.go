package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlock/pkg/util/xkeyrw"
)

// drainTimeout 场景结束后等待表排空的上限。
// 释放是异步收尾的，正常情况下微秒级即排空。
const drainTimeout = time.Second

// Report 是一次场景执行的结果汇总。
type Report struct {
	RunID      string
	Elapsed    time.Duration
	Reads      int64
	Writes     int64
	Violations int64
	Drained    bool
	Stats      xkeyrw.Stats
}

func (r *Report) ok() bool {
	return r.Violations == 0 && r.Drained
}

// keyState 单个 key 的在场计数，用于校验互斥/共享不变量。
type keyState struct {
	writers atomic.Int32
	readers atomic.Int32
}

// runScenario 执行场景：按 key 启动读写 worker，在临界区内校验
// 写独占与读共享，结束后做排空（泄漏）检查。
func runScenario(ctx context.Context, sc Scenario) (*Report, error) {
	var opts []xkeyrw.Option
	if sc.ShardCount > 0 {
		opts = append(opts, xkeyrw.WithShardCount(sc.ShardCount))
	}
	if sc.MaxKeys > 0 {
		opts = append(opts, xkeyrw.WithMaxKeys(sc.MaxKeys))
	}
	l, err := xkeyrw.New(opts...)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(ctx, sc.Timeout)
	defer cancel()

	var (
		reads      atomic.Int64
		writes     atomic.Int64
		violations atomic.Int64
	)
	states := make([]keyState, sc.Keys)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for ki := range sc.Keys {
		key := fmt.Sprintf("bench-key-%d", ki)
		st := &states[ki]

		for range sc.Writers {
			g.Go(func() error {
				for range sc.Iterations {
					h, err := l.Acquire(gctx, key, xkeyrw.ModeWrite)
					if err != nil {
						return err
					}
					// 独占段：每 key 至多一个写者且无读者
					if st.writers.Add(1) != 1 || st.readers.Load() != 0 {
						violations.Add(1)
					}
					hold(gctx, sc.HoldTime)
					st.writers.Add(-1)
					h.Unlock()
					writes.Add(1)
				}
				return nil
			})
		}
		for range sc.Readers {
			g.Go(func() error {
				for range sc.Iterations {
					h, err := l.Acquire(gctx, key, xkeyrw.ModeRead)
					if err != nil {
						return err
					}
					// 共享段：读持有期间不得有写者
					st.readers.Add(1)
					if st.writers.Load() != 0 {
						violations.Add(1)
					}
					hold(gctx, sc.HoldTime)
					st.readers.Add(-1)
					h.Unlock()
					reads.Add(1)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Elapsed:    time.Since(start),
		Reads:      reads.Load(),
		Writes:     writes.Load(),
		Violations: violations.Load(),
	}
	report.Drained = waitDrain(l, drainTimeout)
	report.Stats = l.Stats()
	return report, nil
}

// waitDrain 轮询至两张表排空或超时。
func waitDrain(l xkeyrw.RWLocker, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st := l.Stats()
		if st.ReadKeys == 0 && st.WriteKeys == 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// hold 持有锁 d 时长，ctx 取消时提前返回。
func hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
