package xkeyrw

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 设计决策: 指标前缀使用 "xkeyrw.*"，与 OTel Meter scope name 保持一致
// （Meter("xkeyrw")），避免与 scope 名称产生冗余嵌套。
// 如需统一命名空间，应在采集端（Prometheus relabel）处理。
const (
	meterScopeName = "xkeyrw"

	// metricNameAcquireTotal 锁获取次数计数器
	metricNameAcquireTotal = "xkeyrw.acquire.total"
	// metricNameReleaseTotal 锁释放次数计数器
	metricNameReleaseTotal = "xkeyrw.release.total"
	// metricNameAcquireDuration 锁获取耗时直方图（从准入到门槛放行）
	metricNameAcquireDuration = "xkeyrw.acquire.duration"
)

const (
	attrMode   = "mode"
	attrStatus = "status"

	statusAcquired  = "acquired"
	statusOccupied  = "occupied"
	statusCancelled = "cancelled"
	statusClosed    = "closed"
)

// durationBuckets 耗时直方图的桶边界
var durationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}

// lockMetrics 锁指标收集器。
// nil 接收者表示不采集，所有方法对 nil 安全。
type lockMetrics struct {
	acquireTotal    metric.Int64Counter
	releaseTotal    metric.Int64Counter
	acquireDuration metric.Float64Histogram
}

func newLockMetrics(mp metric.MeterProvider) (*lockMetrics, error) {
	meter := mp.Meter(meterScopeName)

	m := &lockMetrics{}
	var err error
	if m.acquireTotal, err = meter.Int64Counter(metricNameAcquireTotal,
		metric.WithDescription("锁获取次数"), metric.WithUnit("{acquire}")); err != nil {
		return nil, fmt.Errorf("xkeyrw: create counter failed: %w", err)
	}
	if m.releaseTotal, err = meter.Int64Counter(metricNameReleaseTotal,
		metric.WithDescription("锁释放次数"), metric.WithUnit("{release}")); err != nil {
		return nil, fmt.Errorf("xkeyrw: create counter failed: %w", err)
	}
	if m.acquireDuration, err = meter.Float64Histogram(metricNameAcquireDuration,
		metric.WithDescription("锁获取耗时"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, fmt.Errorf("xkeyrw: create histogram failed: %w", err)
	}
	return m, nil
}

func (m *lockMetrics) recordAcquire(ctx context.Context, mode Mode, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMode, mode.String()),
		attribute.String(attrStatus, status),
	)
	m.acquireTotal.Add(ctx, 1, attrs)
	m.acquireDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *lockMetrics) recordRelease(mode Mode) {
	if m == nil {
		return
	}
	m.releaseTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(attrMode, mode.String())))
}
