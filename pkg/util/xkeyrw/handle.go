package xkeyrw

import "sync/atomic"

// handle 实现 Handle 接口。
type handle struct {
	key     string
	mode    Mode
	sig     chan struct{}
	metrics *lockMetrics
	done    atomic.Bool
}

func (h *handle) Unlock() {
	if h.complete() {
		h.metrics.recordRelease(h.mode)
	}
}

// complete 触发本操作的完成信号，只有第一次调用生效。
// 取消/关闭路径也走这里：等待者即便没拿到锁，也要兑现自己发布的排队位置。
func (h *handle) complete() bool {
	if !h.done.CompareAndSwap(false, true) {
		return false
	}
	close(h.sig)
	return true
}

func (h *handle) Key() string { return h.key }

func (h *handle) Mode() Mode { return h.mode }

// 编译期接口检查。
var _ Handle = (*handle)(nil)
