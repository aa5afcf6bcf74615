package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/bookwise/bookwise-go/bookapi"
	"github.com/bookwise/bookwise-go/conf"
	"github.com/bookwise/bookwise-go/history"
	"github.com/bookwise/bookwise-go/imageref"
	"github.com/bookwise/bookwise-go/logger"
	"github.com/bookwise/bookwise-go/oauthflow"
	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/shutdown"
	"github.com/bookwise/bookwise-go/store"
)

/* ========================================================================
 * 命令分发
 * ========================================================================
 * 职责: 把命令行子命令映射到业务服务调用，输出统一为 JSON
 * ======================================================================== */

type deps struct {
	fx.In

	Cfg      *conf.Config
	Logger   *logger.Logger
	Shutdown *shutdown.Manager
	Session  session.Store
	Cache    *store.Store
	Resolver *imageref.Resolver
	History  *history.Manager
	Flow     *oauthflow.Flow
	Auth     *bookapi.AuthService
	Books    *bookapi.BookService
	Models   *bookapi.AIModelService
	OAuth    *bookapi.OAuthService
	Admin    *bookapi.AdminService
}

type runner struct {
	command string
	args    []string

	paging    result.Paging
	modelType string
	keyword   string
	outFile   string
}

func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func (r *runner) arg(i int, name string) (string, error) {
	if i >= len(r.args) {
		return "", fmt.Errorf("missing argument <%s>", name)
	}
	return r.args[i], nil
}

// 把分析结果里的海报引用解析成可直接打开的地址
func (r *runner) present(d deps, analysis *bookapi.BookAnalysis) *bookapi.BookAnalysis {
	if analysis == nil {
		return nil
	}
	out := *analysis
	out.Poster = d.Resolver.Resolve(out.Poster)
	return &out
}

func (r *runner) cacheAnalysis(ctx context.Context, d deps, analysis *bookapi.BookAnalysis) {
	if analysis == nil {
		return
	}
	record := &store.CachedAnalysis{
		Title:          analysis.Title,
		Genre:          analysis.Genre,
		Themes:         strings.Join(analysis.Themes, ","),
		Tone:           analysis.Tone,
		Poster:         analysis.Poster,
		Recommendation: analysis.Recommendation,
		AnalyzedAt:     time.UnixMilli(analysis.AnalyzedAt),
	}
	if err := d.Cache.Save(ctx, record); err != nil {
		d.Logger.Sugar().Warnf("failed to cache analysis locally: %v", err)
	}
}

func (r *runner) run(ctx context.Context, d deps) error {
	switch r.command {
	case "login":
		username, err := r.arg(0, "username")
		if err != nil {
			return err
		}
		password, err := r.arg(1, "password")
		if err != nil {
			return err
		}
		data, err := d.Auth.Login(ctx, bookapi.LoginRequest{Username: username, Password: password})
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s\n", data.User.Username)
		return nil

	case "logout":
		if err := d.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil

	case "whoami":
		user, err := d.Auth.UserInfo(ctx)
		if err != nil {
			return err
		}
		return printJSON(user)

	case "recommend":
		analysis, err := d.Books.Recommend(ctx)
		if err != nil {
			return err
		}
		return printJSON(r.present(d, analysis))

	case "analyze":
		title, err := r.arg(0, "title")
		if err != nil {
			return err
		}
		_ = d.History.Record(title)
		analysis, err := d.Books.Analyze(ctx, title)
		if err != nil {
			return err
		}
		r.cacheAnalysis(ctx, d, analysis)
		return printJSON(r.present(d, analysis))

	case "query":
		title, err := r.arg(0, "title")
		if err != nil {
			return err
		}
		_ = d.History.Record(title)
		analysis, err := d.Books.Query(ctx, title)
		if err != nil {
			return err
		}
		r.cacheAnalysis(ctx, d, analysis)
		return printJSON(r.present(d, analysis))

	case "extract":
		text, err := r.arg(0, "text")
		if err != nil {
			return err
		}
		data, err := d.Books.Extract(ctx, bookapi.ExtractRequest{Text: text})
		if err != nil {
			return err
		}
		return printJSON(data)

	case "history":
		page, err := d.Books.History(ctx, r.paging)
		if err != nil {
			return err
		}
		return printJSON(page)

	case "searches":
		if len(r.args) > 0 && r.args[0] == "clear" {
			if err := d.History.Clear(); err != nil {
				return err
			}
			fmt.Println("search history cleared")
			return nil
		}
		return printJSON(d.History.List())

	case "cached":
		paging := r.paging
		paging.Normalize()
		page, err := d.Cache.Recent(ctx, paging.PageIndex, paging.PageSize)
		if err != nil {
			return err
		}
		return printJSON(page)

	case "preference":
		pref, err := d.Books.Preference(ctx)
		if err != nil {
			return err
		}
		return printJSON(pref)

	case "feedback":
		records, err := d.Books.FeedbackHistory(ctx)
		if err != nil {
			return err
		}
		return printJSON(records)

	case "models":
		models, err := d.Models.List(ctx, r.modelType)
		if err != nil {
			return err
		}
		return printJSON(models)

	case "providers":
		providers, err := d.OAuth.Providers(ctx)
		if err != nil {
			return err
		}
		return printJSON(providers)

	case "oauth-login":
		provider, err := r.arg(0, "provider")
		if err != nil {
			return err
		}
		data, err := d.Flow.Login(ctx, provider, func(authorizeURL string) error {
			fmt.Fprintf(os.Stderr, "open this URL in your browser to continue:\n  %s\n", authorizeURL)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s\n", data.User.Username)
		return nil

	case "report":
		rawYear, err := r.arg(0, "year")
		if err != nil {
			return err
		}
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			return fmt.Errorf("invalid year %q", rawYear)
		}
		payload, err := d.Books.DownloadReport(ctx, year)
		if err != nil {
			return err
		}
		out := r.outFile
		if out == "" {
			out = fmt.Sprintf("bookwise-report-%d.pdf", year)
		}
		if err := os.WriteFile(out, payload, 0o600); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", out)
		return nil

	case "users":
		page, err := d.Admin.ListUsers(ctx, r.paging, r.keyword)
		if err != nil {
			return err
		}
		return printJSON(page)

	case "attack-logs":
		page, err := d.Admin.ListAttackLogs(ctx, r.paging, r.keyword)
		if err != nil {
			return err
		}
		return printJSON(page)

	default:
		return fmt.Errorf("unknown command %q", r.command)
	}
}
