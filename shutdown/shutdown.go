/*
 * ====================================================================
 * 优雅退出
 *
 * 功能说明:
 *       统一管理退出清理：会话落盘、本地缓存关闭、回调监听
 *       停止。钩子按优先级顺序执行，同优先级并行，整体受
 *       超时约束，超时后放弃剩余钩子直接退出。
 * ====================================================================
 */

package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise-go/logger"
)

// 钩子优先级，数值小的先执行
const (
	PriorityFirst  = 0   // 停止入站，比如回调监听
	PriorityNormal = 100 // 业务清理
	PriorityLast   = 200 // 落盘与连接关闭
)

// DefaultTimeout 整体关停超时
const DefaultTimeout = 10 * time.Second

// Hook 清理钩子
type Hook func(ctx context.Context) error

type hookEntry struct {
	name     string
	hook     Hook
	priority int
}

// Manager 退出清理管理器
type Manager struct {
	logger  *logger.Logger
	timeout time.Duration
	mu      sync.Mutex
	hooks   []hookEntry
	done    chan struct{}
	once    sync.Once
}

// NewManager 创建管理器，timeout 非正时使用 DefaultTimeout
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		logger:  log,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Register 注册普通优先级钩子
func (m *Manager) Register(name string, hook Hook) {
	m.RegisterWithPriority(name, hook, PriorityNormal)
}

// RegisterWithPriority 注册带优先级的钩子
func (m *Manager) RegisterWithPriority(name string, hook Hook, priority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hookEntry{name: name, hook: hook, priority: priority})
}

// Wait 阻塞到收到 SIGINT/SIGTERM/SIGQUIT 后执行关停
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	m.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	m.Shutdown(context.Background())
}

// Shutdown 执行关停，重复调用只生效一次
func (m *Manager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.run(ctx)
		close(m.done)
	})
}

// Done 关停完成通道
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := make([]hookEntry, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].priority < hooks[j].priority
	})

	m.logger.Info("starting graceful shutdown",
		zap.Int("hooks", len(hooks)),
		zap.Duration("timeout", m.timeout),
	)

	for start := 0; start < len(hooks); {
		if ctx.Err() != nil {
			m.logger.Warn("shutdown timeout reached, skipping remaining hooks",
				zap.Int("remaining", len(hooks)-start))
			return
		}

		end := start
		for end < len(hooks) && hooks[end].priority == hooks[start].priority {
			end++
		}
		m.runGroup(ctx, hooks[start:end])
		start = end
	}

	m.logger.Info("graceful shutdown completed")
}

// 同优先级的钩子并行跑，整组等待或超时放弃
func (m *Manager) runGroup(ctx context.Context, group []hookEntry) {
	var wg sync.WaitGroup
	groupDone := make(chan struct{})

	for _, entry := range group {
		wg.Add(1)
		go func(entry hookEntry) {
			defer wg.Done()
			start := time.Now()
			if err := entry.hook(ctx); err != nil {
				m.logger.Error("shutdown hook failed",
					zap.String("name", entry.name),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err),
				)
				return
			}
			m.logger.Debug("shutdown hook completed",
				zap.String("name", entry.name),
				zap.Duration("elapsed", time.Since(start)),
			)
		}(entry)
	}

	go func() {
		wg.Wait()
		close(groupDone)
	}()

	select {
	case <-groupDone:
	case <-ctx.Done():
	}
}
