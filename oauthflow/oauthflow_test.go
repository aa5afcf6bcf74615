package oauthflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bookwise/bookwise-go/bookapi"
	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/transport"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data any
		switch r.URL.Path {
		case "/api/oauth/authorize/github":
			// 真实提供方会带上 state 回跳，这里直接把 redirect_uri 编进授权地址
			authorizeURL := "https://github.test/authorize?" + url.Values{
				"state":        {r.URL.Query().Get("state")},
				"redirect_uri": {r.URL.Query().Get("redirectUri")},
			}.Encode()
			data = bookapi.AuthorizeData{AuthorizeURL: authorizeURL, State: r.URL.Query().Get("state")}
		case "/api/oauth/callback/github":
			data = bookapi.LoginData{Token: "tok-oauth", User: bookapi.UserInfo{UserID: 7, Username: "gh-user"}}
		default:
			t.Errorf("unexpected backend path: %s", r.URL.Path)
			return
		}
		payload, _ := json.Marshal(data)
		raw := json.RawMessage(payload)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result.Raw{Code: result.CodeOK, Message: "ok", Ts: 1, Data: &raw})
	}))
	t.Cleanup(server.Close)
	return server
}

func newFlow(t *testing.T, cfg Config) (*Flow, session.Store) {
	t.Helper()
	backend := newBackend(t)
	store := session.NewMemoryStore()
	client, err := transport.NewClient(transport.Config{BaseURL: backend.URL, Store: store})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewFlow(bookapi.NewOAuthService(client, store), nil, cfg), store
}

// browse 扮演浏览器：解析授权地址里的 state 与回跳地址，直接回调
func browse(t *testing.T, query url.Values) error {
	t.Helper()
	callbackURL := query.Get("redirect_uri") + "?" + url.Values{
		"code":  {"code-123"},
		"state": {query.Get("state")},
	}.Encode()
	resp, err := http.Get(callbackURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("callback status = %d", resp.StatusCode)
	}
	return nil
}

func TestLoginRoundTrip(t *testing.T) {
	flow, store := newFlow(t, Config{Timeout: 5 * time.Second})

	data, err := flow.Login(context.Background(), "github", func(authorizeURL string) error {
		parsed, err := url.Parse(authorizeURL)
		if err != nil {
			return err
		}
		return browse(t, parsed.Query())
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if data.Token != "tok-oauth" {
		t.Fatalf("unexpected token: %q", data.Token)
	}
	if session.Token(store) != "tok-oauth" {
		t.Fatalf("session not persisted")
	}
	if _, err := store.Get(session.KeyOAuthState); err != session.ErrNotFound {
		t.Fatalf("transient state key should be cleared")
	}
}

func TestLoginProviderDenied(t *testing.T) {
	flow, _ := newFlow(t, Config{Timeout: 5 * time.Second})

	_, err := flow.Login(context.Background(), "github", func(authorizeURL string) error {
		parsed, err := url.Parse(authorizeURL)
		if err != nil {
			return err
		}
		deniedURL := parsed.Query().Get("redirect_uri") + "?error=access_denied"
		resp, err := http.Get(deniedURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("denied callback status = %d", resp.StatusCode)
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected provider rejection to propagate")
	}
}

func TestLoginTimeout(t *testing.T) {
	flow, _ := newFlow(t, Config{Timeout: 50 * time.Millisecond})

	_, err := flow.Login(context.Background(), "github", func(string) error {
		return nil // 用户始终没有完成授权
	})
	if err != ErrCallbackTimeout {
		t.Fatalf("expected ErrCallbackTimeout, got %v", err)
	}
}
