package notify

import (
	"sync"

	"go.uber.org/zap"
)

/* ========================================================================
 * Notifier - 用户提示通道
 * ========================================================================
 * 职责: transport 层的通用错误提示出口
 * 设计: 显式注入的接口，取代挂在全局回调上的 toast 单例；
 *       CLI 用 zap 实现，测试用 Collector 断言提示内容
 * ======================================================================== */

// Level 提示级别
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notifier 用户提示接口
type Notifier interface {
	Notify(level Level, message string)
}

// Func 函数适配器
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) {
	f(level, message)
}

// Nop 丢弃所有提示
func Nop() Notifier {
	return Func(func(Level, string) {})
}

// NewZapNotifier 把提示写进结构化日志，CLI 的默认实现
func NewZapNotifier(log *zap.Logger) Notifier {
	return Func(func(level Level, message string) {
		switch level {
		case LevelError:
			log.Error(message)
		case LevelWarn:
			log.Warn(message)
		default:
			log.Info(message)
		}
	})
}

/* ========================================================================
 * Collector - 测试用提示收集器
 * ======================================================================== */

// Notice 一条被收集的提示
type Notice struct {
	Level   Level
	Message string
}

// Collector 收集提示供测试断言
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, Notice{Level: level, Message: message})
}

// Notices 返回已收集提示的副本
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Reset 清空已收集的提示
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = nil
}
