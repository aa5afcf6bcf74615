package bookapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookwise/bookwise-go/errcode"
	"github.com/bookwise/bookwise-go/notify"
	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/transport"
	"github.com/bookwise/bookwise-go/validator"
)

type fixture struct {
	client    *transport.Client
	store     session.Store
	collector *notify.Collector
	requests  *[]*http.Request
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	var requests []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(r.Context()))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	store := session.NewMemoryStore()
	collector := notify.NewCollector()
	client, err := transport.NewClient(transport.Config{
		BaseURL:  server.URL,
		Store:    store,
		Notifier: collector,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &fixture{client: client, store: store, collector: collector, requests: &requests}
}

func ok(w http.ResponseWriter, data any) {
	payload, _ := json.Marshal(data)
	raw := json.RawMessage(payload)
	env := result.Raw{Code: result.CodeOK, Message: "ok", Ts: 1700000000000}
	if data != nil {
		env.Data = &raw
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func bizError(w http.ResponseWriter, code errcode.Code, message string) {
	env := result.Raw{Code: int(code), Message: message, Ts: 1700000000000}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func TestLoginSavesSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		ok(w, LoginData{Token: "tok-login", User: UserInfo{UserID: 3, Username: "reader"}})
	})

	auth := NewAuthService(f.client, f.store)
	data, err := auth.Login(context.Background(), LoginRequest{Username: "reader", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if data.Token != "tok-login" {
		t.Fatalf("unexpected token: %q", data.Token)
	}
	if session.Token(f.store) != "tok-login" {
		t.Fatalf("token not persisted")
	}
	cached := session.CachedUser(f.store)
	if cached == nil || cached.Username != "reader" {
		t.Fatalf("user info not persisted: %+v", cached)
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should reach the server")
	})

	auth := NewAuthService(f.client, f.store)
	_, err := auth.Login(context.Background(), LoginRequest{Username: "", Password: "short"})
	verr, ok := err.(*validator.ValidationError)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.HasErrors() {
		t.Fatalf("expected field errors")
	}
	if len(*f.requests) != 0 {
		t.Fatalf("invalid form must not hit the network")
	}
}

func TestLogoutClearsSessionEvenOnError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		bizError(w, errcode.CodeInternal, "logout failed upstream")
	})
	_ = session.SaveLogin(f.store, "tok", nil)

	auth := NewAuthService(f.client, f.store)
	if err := auth.Logout(context.Background()); err == nil {
		t.Fatalf("expected upstream error to propagate")
	}
	if session.Token(f.store) != "" {
		t.Fatalf("local session must be cleared regardless")
	}
}

func TestAnalyzeDuplicateIsSilentForCallSite(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/book/analyze/Dune%20Messiah" && r.URL.Path != "/api/book/analyze/Dune Messiah" {
			t.Errorf("title not escaped into path: %s", r.URL.Path)
		}
		bizError(w, errcode.CodeAlreadyExists, "book already analyzed")
	})

	books := NewBookService(f.client)
	_, err := books.Analyze(context.Background(), "Dune Messiah")
	if !errcode.IsAlreadyExists(err) {
		t.Fatalf("call site must see the duplicate code, got %v", err)
	}
	// 重复分析走静默分支，不弹通用提示
	if n := f.collector.Notices(); len(n) != 0 {
		t.Fatalf("expected no generic notice, got %v", n)
	}
}

func TestHistoryPagingForwarded(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("pageSize") != "10" {
			t.Errorf("unexpected paging: %v", q)
		}
		ok(w, result.Of(2, 10, 13, []BookAnalysis{{Title: "Dune"}}))
	})

	books := NewBookService(f.client)
	page, err := books.History(context.Background(), result.Paging{PageIndex: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.TotalPages != 2 || len(page.Rows) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestOAuthRoundTrip(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/oauth/authorize/github":
			ok(w, AuthorizeData{AuthorizeURL: "https://github.test/authorize", State: r.URL.Query().Get("state")})
		case "/api/oauth/callback/github":
			ok(w, LoginData{Token: "tok-oauth", User: UserInfo{UserID: 5, Username: "gh-user"}})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	oauth := NewOAuthService(f.client, f.store)
	_, err := oauth.Authorize(context.Background(), "github", "state-abc", "http://127.0.0.1:18888/callback")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if v, _ := f.store.Get(session.KeyOAuthState); v != "state-abc" {
		t.Fatalf("state not persisted: %q", v)
	}

	data, err := oauth.Callback(context.Background(), "github", "code-1", "state-abc")
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if data.Token != "tok-oauth" || session.Token(f.store) != "tok-oauth" {
		t.Fatalf("oauth login not persisted")
	}
	// 瞬态键回调后清除
	for _, key := range []string{session.KeyOAuthState, session.KeyOAuthProvider, session.KeyOAuthRedirect} {
		if _, err := f.store.Get(key); err != session.ErrNotFound {
			t.Fatalf("transient key %s should be cleared", key)
		}
	}
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("mismatched state must not reach the backend")
	})
	_ = f.store.Set(session.KeyOAuthState, "state-good")

	oauth := NewOAuthService(f.client, f.store)
	if _, err := oauth.Callback(context.Background(), "github", "code", "state-evil"); err != ErrOAuthStateMismatch {
		t.Fatalf("expected state mismatch, got %v", err)
	}
}

func TestAdminListUsersKeyword(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sys-manage/user/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("keyword") != "reader" {
			t.Errorf("keyword missing: %v", r.URL.Query())
		}
		ok(w, result.Of(1, 20, 1, []AdminUser{{UserID: 3, Username: "reader"}}))
	})

	admin := NewAdminService(f.client)
	page, err := admin.ListUsers(context.Background(), result.Paging{}, "reader")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page.Rows) != 1 || page.Rows[0].Username != "reader" {
		t.Fatalf("unexpected rows: %+v", page.Rows)
	}
}

func TestAIModelActivate(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/ai/models/42/active" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		ok(w, nil)
	})

	models := NewAIModelService(f.client)
	if err := models.Activate(context.Background(), 42); err != nil {
		t.Fatalf("Activate: %v", err)
	}
}
