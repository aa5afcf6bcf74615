package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bookwise/bookwise-go/errcode"
	"github.com/bookwise/bookwise-go/logger"
	"github.com/bookwise/bookwise-go/notify"
	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/session"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

/* ========================================================================
 * Transport Client - HTTP 传输层 + 拦截器链
 * ========================================================================
 * 职责: 出站统一附加会话令牌，入站统一分类响应/错误，
 *       调用点不再各自重复错误处理
 * 入站分类（五类）:
 *   - HTTP 2xx 且 code == 200  → 原样返回信封
 *   - HTTP 2xx 且 code != 200  → 业务错误，分类器决定是否提示，
 *                                以 BizError 拒绝，调用点仍可按 code 分支
 *   - HTTP 401                → 认证失败，一律清会话 + 跳登录，
 *                                message 里的子原因只进日志
 *   - HTTP 403                → 授权失败，非法令牌额外清会话 + 跳登录
 *   - HTTP 402 / 其它 / 无响应 → 提示用户，会话不动
 * 并发模型: 每次调用同步跑一遍拦截器，无排队、无重试、无合并；
 *           并发 401 各自清会话跳登录，动作幂等，互不伤害
 * ======================================================================== */

const (
	// HeaderToken 会话令牌请求头，与后端约定的字面名
	HeaderToken = "token"
	// HeaderTraceID 客户端生成的链路追踪头
	HeaderTraceID = "X-Trace-Id"

	// DefaultBasePath 后端 API 前缀
	DefaultBasePath = "/api"
	// DefaultTimeout 整体请求超时，超过即按无响应处理
	DefaultTimeout = 30 * time.Second

	// MsgConnectivity 网络不可达/超时的兜底提示
	MsgConnectivity = "network error, please try again later"
)

// Navigator 全局导航接口，认证失败后跳转登录入口
// 跳转必须幂等：并发 401 会触发多次
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc 函数适配器
type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

// Recorder 出站调用指标记录接口，见 metrics 包
type Recorder interface {
	Observe(method, path, outcome string, elapsed time.Duration)
}

// Config 传输层配置
type Config struct {
	// BaseURL 后端地址，如 https://bookwise.example.com
	BaseURL string
	// BasePath API 前缀，默认 /api
	BasePath string
	// Timeout 整体超时，默认 30s
	Timeout time.Duration

	Store      session.Store
	Notifier   notify.Notifier
	Navigator  Navigator
	Classifier *errcode.Classifier
	Logger     *logger.Logger
	Metrics    Recorder

	// HTTPClient 覆盖底层客户端，测试注入用
	HTTPClient *http.Client
}

// Client HTTP 传输客户端
type Client struct {
	http       *http.Client
	base       string
	store      session.Store
	notifier   notify.Notifier
	nav        Navigator
	classifier *errcode.Classifier
	log        *logger.Logger
	metrics    Recorder
}

// NewClient 创建传输客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("transport: session store is required")
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = NavigatorFunc(func() {})
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = errcode.NewClassifier()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		http:       httpClient,
		base:       strings.TrimRight(cfg.BaseURL, "/") + basePath,
		store:      cfg.Store,
		notifier:   notifier,
		nav:        nav,
		classifier: classifier,
		log:        log,
		metrics:    cfg.Metrics,
	}, nil
}

// Do 发起一次请求并返回未解析 data 的信封
// body 非 nil 时按 JSON 编码；所有失败路径的副作用（提示/清会话/跳转）
// 在这里完成，错误对象原样抛给调用方做定制恢复
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*result.Raw, error) {
	start := time.Now()
	raw, err := c.do(ctx, method, path, query, body)
	if c.metrics != nil {
		c.metrics.Observe(method, path, outcomeOf(err), time.Since(start))
	}
	return raw, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*result.Raw, error) {
	req, traceID, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// 完全没有响应：网络/超时，提示连接失败，会话不动
		c.notifier.Notify(notify.LevelError, MsgConnectivity)
		c.log.Warn("request failed without response",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return nil, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.notifier.Notify(notify.LevelError, MsgConnectivity)
		return nil, &ConnectError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.interceptHTTPError(method, path, traceID, resp.StatusCode, payload)
	}

	var raw result.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("transport: decode envelope %s %s: %w", method, path, err)
	}

	if !raw.Success() {
		return nil, c.interceptBizError(method, path, &raw)
	}
	return &raw, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, string, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("transport: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, "", fmt.Errorf("transport: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// 出站拦截: 有令牌就带上，匿名接口原样放行
	if token := session.Token(c.store); token != "" {
		req.Header.Set(HeaderToken, token)
	}

	traceID := ulid.Make().String()
	req.Header.Set(HeaderTraceID, traceID)
	return req, traceID, nil
}

// interceptHTTPError 传输级错误分类，按 HTTP 状态码分支
func (c *Client) interceptHTTPError(method, path, traceID string, status int, payload []byte) error {
	message := envelopeMessage(payload)
	statusErr := &StatusError{Status: status, Message: message}

	switch status {
	case http.StatusUnauthorized:
		// 子原因只进日志，处置对所有子原因一致：清会话 + 跳登录
		c.log.Info("authentication failure, clearing session",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("trace_id", traceID),
			zap.String("sub_reason", errcode.AuthSubReason(message)),
		)
		c.terminateSession()

	case http.StatusForbidden:
		if message == "" {
			message = fmt.Sprintf("request failed (%d)", status)
		}
		c.notifier.Notify(notify.LevelError, message)
		if errcode.IsIllegalToken(statusErr.Message) {
			// 令牌被认定失陷，和 401 同样处置
			c.log.Warn("illegal token detected, clearing session",
				zap.String("path", path),
				zap.String("trace_id", traceID),
			)
			c.terminateSession()
		}

	case http.StatusPaymentRequired:
		// 授权/额度过期，只提示，会话不动
		if message == "" {
			message = fmt.Sprintf("request failed (%d)", status)
		}
		c.notifier.Notify(notify.LevelWarn, message)

	default:
		if message == "" {
			message = fmt.Sprintf("request failed (%d)", status)
		}
		c.notifier.Notify(notify.LevelError, message)
	}

	return statusErr
}

// interceptBizError 业务级错误: HTTP 200 但 code != 200
func (c *Client) interceptBizError(method, path string, raw *result.Raw) error {
	code := errcode.Code(raw.Code)
	if msg, show := c.classifier.Notice(code, raw.Message); show {
		c.notifier.Notify(notify.LevelError, msg)
	} else {
		c.log.Debug("silenced business error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("code", raw.Code),
		)
	}
	return &errcode.BizError{
		Code:    code,
		Message: raw.Message,
		TraceID: raw.TraceID,
	}
}

// terminateSession 清会话并跳登录，可并发触发，两步都幂等
func (c *Client) terminateSession() {
	if err := session.ClearAuth(c.store); err != nil {
		c.log.Warn("clear session failed", zap.Error(err))
	}
	c.nav.RedirectToLogin()
}

// envelopeMessage 尽力从错误响应体里取信封 message
func envelopeMessage(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var raw result.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ""
	}
	return raw.Message
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var connErr *ConnectError
	if errors.As(err, &connErr) {
		return "network"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http_%d", statusErr.Status)
	}
	var bizErr *errcode.BizError
	if errors.As(err, &bizErr) {
		return "biz_error"
	}
	return "error"
}
