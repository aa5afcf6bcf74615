/*
 * ====================================================================
 * bookctl - BookWise 命令行客户端
 *
 * 功能说明:
 *       登录、图书分析、推荐、历史浏览与报告下载的终端入口。
 *       配置来自 ~/.bookwise/bookwise.yaml，可用 BOOKWISE_*
 *       环境变量或命令行参数覆盖。
 * ====================================================================
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/bookwise/bookwise-go/conf"
	"github.com/bookwise/bookwise-go/result"
)

const usage = `bookctl - BookWise command line client

Usage:
  bookctl [flags] <command> [args]

Commands:
  login <username> <password>   sign in with password
  oauth-login <provider>        sign in through a third-party provider
  logout                        sign out
  whoami                        show the signed-in user
  recommend                     get today's recommendation
  analyze <title>               submit a book for analysis
  query <title>                 look up an analyzed book
  extract <text>                extract a book title from free text
  history                       browse analysis history (server side)
  searches [clear]              show or clear local search history
  cached                        browse locally cached analyses
  preference                    show the learned reading preference
  feedback                      list submitted feedback
  models                        list AI models
  providers                     list OAuth providers
  report <year>                 download the yearly reading report
  users                         admin: list users
  attack-logs                   admin: list attack logs

Flags:
`

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".bookwise")
}

func main() {
	var (
		configPath = pflag.StringP("config", "c", defaultConfigDir(), "config directory")
		baseURL    = pflag.String("base-url", "", "override the backend base URL")
		timeout    = pflag.Duration("timeout", 0, "override the request timeout")
		page       = pflag.Int("page", result.DefaultPageIndex, "page index for paged commands")
		pageSize   = pflag.Int("page-size", result.DefaultPageSize, "page size for paged commands")
		modelType  = pflag.String("type", "", "model type filter for `models`")
		keyword    = pflag.String("keyword", "", "keyword filter for admin queries")
		outFile    = pflag.StringP("out", "o", "", "output file for `report`")
		showHelp   = pflag.BoolP("help", "h", false, "show help")
	)
	pflag.Parse()

	args := pflag.Args()
	if *showHelp || len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		pflag.PrintDefaults()
		if len(args) == 0 && !*showHelp {
			os.Exit(2)
		}
		return
	}

	cfg, err := conf.LoadConfig(*configPath, "bookwise")
	if err != nil {
		// 命令行给了地址时允许没有配置文件
		if *baseURL == "" {
			fatal(err)
		}
		fallback := conf.Default()
		cfg = &fallback
	}
	if *baseURL != "" {
		cfg.Server.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Server.Timeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	r := &runner{
		command:   args[0],
		args:      args[1:],
		paging:    result.Paging{PageIndex: *page, PageSize: *pageSize},
		modelType: *modelType,
		keyword:   *keyword,
		outFile:   *outFile,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cmdErr error
	app := fx.New(
		newModule(cfg),
		fx.Invoke(func(d deps) {
			defer d.Shutdown.Shutdown(context.Background())
			cmdErr = r.run(ctx, d)
		}),
		fx.StartTimeout(30*time.Second),
	)
	if err := app.Err(); err != nil {
		fatal(err)
	}
	if cmdErr != nil {
		fatal(cmdErr)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "bookctl: %v\n", err)
	os.Exit(1)
}
