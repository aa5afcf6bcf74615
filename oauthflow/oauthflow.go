/*
 * ====================================================================
 * OAuth 登录流程
 *
 * 功能说明:
 *       本机回环回调方式完成第三方登录：起一个 loopback HTTP
 *       监听，生成随机 state，把授权地址交给浏览器，等待回调
 *       送回 code 后完成换取登录态。
 * 技术: Fiber v3
 * ====================================================================
 */

package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookwise/bookwise-go/bookapi"
	"github.com/bookwise/bookwise-go/logger"
	"github.com/bookwise/bookwise-go/metrics"
)

// DefaultTimeout 等待浏览器回调的默认时长
const DefaultTimeout = 5 * time.Minute

// ErrCallbackTimeout 等待回调超时
var ErrCallbackTimeout = errors.New("oauthflow: timed out waiting for the browser callback")

// Config 回环监听配置
type Config struct {
	Host    string        // 默认 127.0.0.1
	Port    int           // 默认 0，取随机空闲端口
	Timeout time.Duration // 默认 DefaultTimeout

	// EnableMetrics 在回调监听上同时暴露 /metrics
	EnableMetrics bool
}

// OpenURLFunc 把授权地址交给用户，通常是打开浏览器或打印到终端
type OpenURLFunc func(authorizeURL string) error

// Flow 一次完整的第三方登录流程
type Flow struct {
	oauth  *bookapi.OAuthService
	logger *logger.Logger
	cfg    Config
}

// NewFlow 创建登录流程
func NewFlow(oauth *bookapi.OAuthService, log *logger.Logger, cfg Config) *Flow {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Flow{oauth: oauth, logger: log, cfg: cfg}
}

type callback struct {
	code  string
	state string
	fail  string
}

// Login 执行完整的授权往返并返回登录结果
func (f *Flow) Login(ctx context.Context, providerType string, openURL OpenURLFunc) (*bookapi.LoginData, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("oauthflow: bind loopback listener: %w", err)
	}

	redirectURI := fmt.Sprintf("http://%s/oauth/callback", listener.Addr().String())
	state := uuid.NewString()

	results := make(chan callback, 1)
	app := f.newCallbackApp(results)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	go func() {
		err := app.Listener(listener, fiber.ListenConfig{DisableStartupMessage: true})
		if err != nil {
			f.logger.Error("callback listener failed", zap.Error(err))
		}
	}()

	data, err := f.oauth.Authorize(ctx, providerType, state, redirectURI)
	if err != nil {
		return nil, err
	}

	f.logger.Info("waiting for oauth callback",
		zap.String("provider", providerType),
		zap.String("redirect_uri", redirectURI),
	)
	if err := openURL(data.AuthorizeURL); err != nil {
		return nil, err
	}

	timer := time.NewTimer(f.cfg.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrCallbackTimeout
	case cb := <-results:
		if cb.fail != "" {
			return nil, fmt.Errorf("oauthflow: provider rejected the request: %s", cb.fail)
		}
		return f.oauth.Callback(ctx, providerType, cb.code, cb.state)
	}
}

func (f *Flow) newCallbackApp(results chan<- callback) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "BookWise OAuth Callback",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recoverer.New(recoverer.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			f.logger.Error("Panic recovered",
				zap.Any("error", e),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		},
	}))

	if f.cfg.EnableMetrics {
		metrics.RegisterMetricsEndpoint(app)
	}

	app.Get("/oauth/callback", func(c fiber.Ctx) error {
		cb := callback{
			code:  c.Query("code"),
			state: c.Query("state"),
			fail:  c.Query("error"),
		}
		select {
		case results <- cb:
		default:
			// 重复回调只取第一次
		}
		if cb.fail != "" {
			c.Status(fiber.StatusBadRequest)
			return c.SendString("Sign-in failed. You can close this window.")
		}
		return c.SendString("Signed in. You can close this window and return to the terminal.")
	})

	return app
}
