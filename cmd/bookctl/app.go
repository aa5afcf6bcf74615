package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/bookwise/bookwise-go/bookapi"
	"github.com/bookwise/bookwise-go/conf"
	"github.com/bookwise/bookwise-go/history"
	"github.com/bookwise/bookwise-go/imageref"
	"github.com/bookwise/bookwise-go/logger"
	"github.com/bookwise/bookwise-go/metrics"
	"github.com/bookwise/bookwise-go/notify"
	"github.com/bookwise/bookwise-go/oauthflow"
	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/shutdown"
	"github.com/bookwise/bookwise-go/store"
	"github.com/bookwise/bookwise-go/transport"
)

/* ========================================================================
 * 依赖装配
 * ========================================================================
 * 职责: 用 FX 把配置、日志、会话、传输层和业务服务装配起来
 * ======================================================================== */

func newLogger(cfg *conf.Config) *logger.Logger {
	return logger.NewLogger(cfg.Logger)
}

func newSessionStore(cfg *conf.Config, sd *shutdown.Manager) (session.Store, error) {
	switch cfg.Session.Backend {
	case conf.SessionBackendMemory:
		return session.NewMemoryStore(), nil
	case conf.SessionBackendFile:
		return session.NewFileStore(cfg.Session.File)
	case conf.SessionBackendRedis:
		rs, err := session.NewRedisStore(cfg.Session.Redis)
		if err != nil {
			return nil, err
		}
		sd.RegisterWithPriority("session-redis", func(context.Context) error {
			return rs.Close()
		}, shutdown.PriorityLast)
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// 终端上的消息提示都走 stderr，stdout 留给命令输出
func newNotifier() notify.Notifier {
	return notify.Func(func(level notify.Level, message string) {
		switch level {
		case notify.LevelError:
			fmt.Fprintf(os.Stderr, "error: %s\n", message)
		case notify.LevelWarn:
			fmt.Fprintf(os.Stderr, "warning: %s\n", message)
		default:
			fmt.Fprintln(os.Stderr, message)
		}
	})
}

func newNavigator() transport.Navigator {
	return transport.NavigatorFunc(func() {
		fmt.Fprintln(os.Stderr, "session expired, run `bookctl login` to sign in again")
	})
}

func newClient(cfg *conf.Config, log *logger.Logger, s session.Store, n notify.Notifier, nav transport.Navigator) (*transport.Client, error) {
	return transport.NewClient(transport.Config{
		BaseURL:   cfg.Server.BaseURL,
		BasePath:  cfg.Server.BasePath,
		Timeout:   cfg.Server.Timeout,
		Store:     s,
		Notifier:  n,
		Navigator: nav,
		Logger:    log,
		Metrics:   metrics.NewClientRecorder(),
	})
}

func newCacheStore(cfg *conf.Config, sd *shutdown.Manager) (*store.Store, error) {
	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	sd.RegisterWithPriority("analysis-cache", func(context.Context) error {
		return cache.Close()
	}, shutdown.PriorityLast)
	return cache, nil
}

func newShutdownManager(log *logger.Logger) *shutdown.Manager {
	return shutdown.NewManager(log, 10*time.Second)
}

func newOAuthFlow(oauth *bookapi.OAuthService, log *logger.Logger) *oauthflow.Flow {
	return oauthflow.NewFlow(oauth, log, oauthflow.Config{})
}

func newResolver(cfg *conf.Config) *imageref.Resolver {
	return &imageref.Resolver{ProxyEndpoint: cfg.Server.BaseURL + imageref.DefaultProxyEndpoint}
}

func newModule(cfg *conf.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newShutdownManager,
			newSessionStore,
			newNotifier,
			newNavigator,
			newClient,
			newCacheStore,
			newResolver,
			newOAuthFlow,
			history.NewManager,
			bookapi.NewAuthService,
			bookapi.NewBookService,
			bookapi.NewAIModelService,
			bookapi.NewOAuthService,
			bookapi.NewAdminService,
		),
		fx.NopLogger,
	)
}
