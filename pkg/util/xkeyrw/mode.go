package xkeyrw

import "strconv"

// Mode 表示锁的获取模式。
type Mode uint8

const (
	// ModeRead 共享读模式。同一 key 的多个读可并发持有。
	ModeRead Mode = iota
	// ModeWrite 独占写模式。排斥同一 key 的其他读和写。
	ModeWrite
)

// String 返回 Mode 的可读字符串表示，用于调试、日志和指标属性。
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m Mode) valid() bool {
	return m == ModeRead || m == ModeWrite
}
