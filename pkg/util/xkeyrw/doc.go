// Package xkeyrw 提供基于 key 的进程内异步读写锁。
//
// 适用于需要按业务 key 做读写隔离的场景，如按文件路径的并发读写保护、
// 按资源 ID 的快照读与独占更新互斥等。同一 key 的多个读操作可并发持有；
// 写操作独占该 key；不同 key 之间完全独立，互不阻塞。
//
// # 与 sync.RWMutex 的区别
//
//	特性          xkeyrw                      sync.RWMutex
//	────────────────────────────────────────────────────────
//	粒度          按 key（动态创建/回收）       单个锁对象
//	Context       ✓ Acquire 支持超时/取消      ✗
//	公平性        FIFO（跨读写两类按准入排队）   写者优先近似公平
//	内存          与在途操作数成正比            固定
//	TryAcquire    ✓                           ✓ TryLock/TryRLock
//
// # 排队语义
//
// 每个 key 维护两个"尾信号"：读尾与写尾，各自代表"该类已准入的全部操作
// 均已完成"。准入时一次性读取当前尾信号并发布新尾，之后才挂起等待：
//
//   - 读准入只等待最近一个写尾（读与读之间不互相等待）；
//   - 写准入等待准入时刻的读尾快照与前一个写尾。写准入之后到达的读
//     会反过来等待该写完成，因此互斥不依赖写者无限追赶新读者。
//
// 由此，跨类操作严格按准入顺序执行（FIFO）；同类读之间无顺序保证。
//
// # 特性
//
//   - Context 支持：Acquire 支持超时和取消（ctx 不得为 nil，否则 panic）；
//     被取消的等待者会立即触发自己的完成信号，后继操作不会被卡住
//   - TryAcquire：非阻塞获取，占用时返回 [ErrLockOccupied]
//   - Handle 语义：Unlock 幂等，重复调用无副作用、不报错
//   - 分片 map：默认 32 分片，减少管理锁争用
//   - 内存安全：key 的尾条目在排空后立即从表中删除；WithMaxKeys(n)
//     可限制在途 (key, 种类) 条目总数
//   - 关闭语义：Close() 拒绝新请求并唤醒所有等待者，已持有锁不受影响
//   - 可观测：WithMeterProvider 启用 OpenTelemetry 指标
//
// # 非目标
//
// 不支持锁升级/降级、同一调用方可重入、跨 key 死锁检测，也不是分布式锁。
package xkeyrw
