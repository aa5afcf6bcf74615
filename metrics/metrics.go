package metrics

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

/* ========================================================================
 * Prometheus Metrics - 客户端可观测性指标
 * ========================================================================
 * 职责: 记录出站 API 调用的延迟与结果分布
 * outcome 取值: success / biz_error / http_<status> / network / error
 * ======================================================================== */

var (
	// RequestDuration 出站请求延迟
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookwise",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "outcome"},
	)

	// RequestTotal 出站请求总数
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookwise",
			Subsystem: "client",
			Name:      "request_total",
			Help:      "Total number of outgoing API requests",
		},
		[]string{"method", "path", "outcome"},
	)
)

// ClientRecorder 出站调用指标记录器，实现 transport.Recorder
type ClientRecorder struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewClientRecorder 创建默认指标记录器
func NewClientRecorder() *ClientRecorder {
	return &ClientRecorder{
		duration: RequestDuration,
		total:    RequestTotal,
	}
}

// Observe 记录一次出站调用
func (r *ClientRecorder) Observe(method, path, outcome string, elapsed time.Duration) {
	r.total.WithLabelValues(method, path, outcome).Inc()
	r.duration.WithLabelValues(method, path, outcome).Observe(elapsed.Seconds())
}

// RegisterMetricsEndpoint 注册 /metrics 端点
// 挂在 OAuth 回调监听器的本地 Fiber 应用上，调试时查看调用指标
func RegisterMetricsEndpoint(app *fiber.App) {
	// 使用 fasthttpadaptor 将 promhttp.Handler 适配到 Fiber
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// NewCounter 创建自定义 Counter
func NewCounter(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
