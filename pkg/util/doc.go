// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xkeyrw: 基于 key 的进程内异步读写锁，读共享、写独占、跨类 FIFO，
//     支持 context 超时和非阻塞获取
//
// 设计原则：
//   - 进程内、无外部依赖的通用原语
//   - 内存占用与在途操作数成正比，排空即回收
//   - 并发安全，跨平台兼容
package util
