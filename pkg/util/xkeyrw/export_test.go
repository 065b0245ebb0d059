package xkeyrw

import "testing"

// newForTest 创建 RWLocker 并注册 Close 清理，供测试使用。
func newForTest(tb testing.TB, opts ...Option) RWLocker {
	tb.Helper()
	l, err := New(opts...)
	if err != nil {
		tb.Fatalf("New failed: %v", err)
	}
	tb.Cleanup(func() { _ = l.Close() })
	return l
}
