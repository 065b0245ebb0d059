package xkeyrw

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// closedChan 是预先关闭的完成信号，表示"该类在此 key 上无在途操作"。
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// rwLockImpl 是 RWLocker 的分片实现。
//
// 每个分片为每个 key 维护两个尾条目：读尾与写尾。尾条目的 done 在
// "该类此前准入的全部操作均已完成"时关闭。准入在分片锁内一次性完成
// "读取旧尾 + 发布新尾"，等待则在分片锁之外进行，因此长持有不阻塞
// 其他 key 的准入。
type rwLockImpl struct {
	shards []shard
	mask   uint64
	opts   *options
	closed atomic.Bool
	// entryCount 跟踪在途 (key, 种类) 条目数，供 WithMaxKeys 限额。
	entryCount atomic.Int64
	done       chan struct{}
	metrics    *lockMetrics
}

type shard struct {
	mu     sync.Mutex
	reads  map[string]*tailEntry
	writes map[string]*tailEntry
}

// tailEntry 是某 (key, 种类) 的当前尾条目。done 关闭恰好一次；
// 条目整体替换、从不原位修改，清理校验依赖条目的指针身份。
type tailEntry struct {
	done chan struct{}
}

// admission 是一次准入的结果：本操作的完成信号与挂起等待的门槛。
type admission struct {
	sig   chan struct{}
	gates []chan struct{}
}

func newRWLockImpl(opts *options) *rwLockImpl {
	shards := make([]shard, opts.shardCount)
	for i := range shards {
		shards[i].reads = make(map[string]*tailEntry)
		shards[i].writes = make(map[string]*tailEntry)
	}
	return &rwLockImpl{
		shards: shards,
		mask:   opts.shardMask,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

func (l *rwLockImpl) getShard(key string) *shard {
	h := xxhash.Sum64String(key)
	return &l.shards[h&l.mask]
}

// admit 在分片锁内完成"读取旧尾、发布新尾"这一不可分步骤。
// try 为 true 时，仅当门槛已全部满足才发布，否则返回 ErrLockOccupied。
func (l *rwLockImpl) admit(key string, mode Mode, try bool) (*admission, error) {
	s := l.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.closed.Load() {
		return nil, ErrClosed
	}

	same, other := s.reads, s.writes
	if mode == ModeWrite {
		same, other = s.writes, s.reads
	}

	priorSame := closedChan
	prev, replacing := same[key]
	if replacing {
		priorSame = prev.done
	}
	priorOther := closedChan
	if e, ok := other[key]; ok {
		priorOther = e.done
	}

	// 门槛（真正的准入条件）：读只等最近的写尾，读与读之间不互相等待；
	// 写等准入时刻的读尾快照与前一个写尾。
	// 尾链（发布给后继观察的新尾）：同类旧尾按序衔接本操作的完成信号，
	// 写尾还要衔接读尾快照。
	var gates, chainPriors []chan struct{}
	if mode == ModeRead {
		gates = []chan struct{}{priorOther}
		chainPriors = []chan struct{}{priorSame}
	} else {
		gates = []chan struct{}{priorOther, priorSame}
		chainPriors = []chan struct{}{priorOther, priorSame}
	}

	if try && !gatesSatisfied(gates) {
		return nil, ErrLockOccupied
	}

	if !replacing {
		if err := l.reserveEntry(); err != nil {
			return nil, err
		}
	}

	entry := &tailEntry{done: make(chan struct{})}
	same[key] = entry
	sig := make(chan struct{})

	go l.chain(key, mode, entry, chainPriors, sig)

	return &admission{sig: sig, gates: gates}, nil
}

// chain 维护尾信号的因果链：等链上前驱、等本操作的完成信号，
// 然后关闭尾并回收表条目。每次准入对应一个 chain goroutine，
// 其生命周期与该操作的在途时间一致。
func (l *rwLockImpl) chain(key string, mode Mode, entry *tailEntry, priors []chan struct{}, sig chan struct{}) {
	for _, p := range priors {
		<-p
	}
	<-sig
	close(entry.done)
	l.retire(key, mode, entry)
}

// retire 在尾信号触发后删除表条目。若条目已被更新的准入替换，
// 说明该 key 仍有在途操作，放弃删除——这是预期中的并发竞态，
// 就地消化，从不上抛。
func (l *rwLockImpl) retire(key string, mode Mode, entry *tailEntry) {
	s := l.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.reads
	if mode == ModeWrite {
		table = s.writes
	}
	if table[key] == entry {
		delete(table, key)
		l.entryCount.Add(-1)
	}
}

// gatesSatisfied 非阻塞判断所有门槛是否已放行。
func gatesSatisfied(gates []chan struct{}) bool {
	for _, g := range gates {
		select {
		case <-g:
		default:
			return false
		}
	}
	return true
}

func (l *rwLockImpl) reserveEntry() error {
	if l.opts.maxKeys > 0 {
		// 使用 CAS 严格限制条目数量，避免跨分片并发突破上限。
		for {
			cur := l.entryCount.Load()
			if cur >= int64(l.opts.maxKeys) {
				return ErrMaxKeysExceeded
			}
			if l.entryCount.CompareAndSwap(cur, cur+1) {
				return nil
			}
		}
	}
	l.entryCount.Add(1)
	return nil
}

func (l *rwLockImpl) Acquire(ctx context.Context, key string, mode Mode) (Handle, error) {
	if ctx == nil {
		panic("xkeyrw: nil Context")
	}
	if !mode.valid() {
		return nil, ErrInvalidMode
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	// 快速检查：ctx 已取消时避免无谓的准入与回滚。
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	adm, err := l.admit(key, mode, false)
	if err != nil {
		return nil, err
	}
	h := &handle{key: key, mode: mode, sig: adm.sig, metrics: l.metrics}

	for _, gate := range adm.gates {
		select {
		case <-gate:
		case <-ctx.Done():
			// 已发布的排队位置立即放行，后继操作不会被取消者卡住。
			h.complete()
			l.metrics.recordAcquire(ctx, mode, statusCancelled, time.Since(start))
			return nil, ctx.Err()
		case <-l.done:
			h.complete()
			l.metrics.recordAcquire(ctx, mode, statusClosed, time.Since(start))
			return nil, ErrClosed
		}
	}

	l.metrics.recordAcquire(ctx, mode, statusAcquired, time.Since(start))
	return h, nil
}

func (l *rwLockImpl) TryAcquire(key string, mode Mode) (Handle, error) {
	if !mode.valid() {
		return nil, ErrInvalidMode
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	adm, err := l.admit(key, mode, true)
	if err != nil {
		if errors.Is(err, ErrLockOccupied) {
			l.metrics.recordAcquire(context.Background(), mode, statusOccupied, time.Since(start))
		}
		return nil, err
	}

	l.metrics.recordAcquire(context.Background(), mode, statusAcquired, time.Since(start))
	return &handle{key: key, mode: mode, sig: adm.sig, metrics: l.metrics}, nil
}

func (l *rwLockImpl) Stats() Stats {
	var st Stats
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		st.ReadKeys += len(s.reads)
		st.WriteKeys += len(s.writes)
		s.mu.Unlock()
	}
	return st
}

func (l *rwLockImpl) Keys() []string {
	seen := make(map[string]struct{})
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k := range s.reads {
			seen[k] = struct{}{}
		}
		for k := range s.writes {
			seen[k] = struct{}{}
		}
		s.mu.Unlock()
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	return keys
}

func (l *rwLockImpl) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(l.done)
	return nil
}

// 编译期接口检查。
var _ RWLocker = (*rwLockImpl)(nil)
