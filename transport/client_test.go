package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bookwise/bookwise-go/errcode"
	"github.com/bookwise/bookwise-go/notify"
	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/session"
)

type testEnv struct {
	client    *Client
	store     session.Store
	collector *notify.Collector
	redirects *atomic.Int32
}

func newTestEnv(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewMemoryStore()
	collector := notify.NewCollector()
	redirects := &atomic.Int32{}

	client, err := NewClient(Config{
		BaseURL:   server.URL,
		Store:     store,
		Notifier:  collector,
		Navigator: NavigatorFunc(func() { redirects.Add(1) }),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &testEnv{client: client, store: store, collector: collector, redirects: redirects}
}

func writeEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	payload, _ := json.Marshal(data)
	raw := json.RawMessage(payload)
	env := result.Raw{Code: code, Message: message, Ts: 1700000000000}
	if data != nil {
		env.Data = &raw
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestTokenAttachedWhenPresent(t *testing.T) {
	var gotToken, gotTrace string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(HeaderToken)
		gotTrace = r.Header.Get(HeaderTraceID)
		writeEnvelope(w, 200, result.CodeOK, "ok", map[string]string{"v": "1"})
	})

	if err := session.SaveLogin(env.store, "tok-1", nil); err != nil {
		t.Fatalf("SaveLogin: %v", err)
	}
	if _, err := env.client.Do(context.Background(), http.MethodGet, "/user/info", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotToken != "tok-1" {
		t.Fatalf("token header = %q, want tok-1", gotToken)
	}
	if gotTrace == "" {
		t.Fatalf("trace id header should be generated")
	}
}

func TestAnonymousRequestHasNoTokenHeader(t *testing.T) {
	var hasToken bool
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasToken = r.Header[http.CanonicalHeaderKey(HeaderToken)]
		writeEnvelope(w, 200, result.CodeOK, "ok", nil)
	})

	if _, err := env.client.Do(context.Background(), http.MethodGet, "/oauth/providers", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if hasToken {
		t.Fatalf("anonymous request must not carry token header")
	}
}

func TestUnauthorizedClearsSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, 401, "auth failed: session expired", nil)
	})
	_ = session.SaveLogin(env.store, "tok-9", &session.UserInfo{UserID: 9})

	_, err := env.client.Do(context.Background(), http.MethodGet, "/user/info", nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if session.Token(env.store) != "" {
		t.Fatalf("token should be cleared on 401")
	}
	if session.CachedUser(env.store) != nil {
		t.Fatalf("user info should be cleared on 401")
	}
	if got := env.redirects.Load(); got != 1 {
		t.Fatalf("expected exactly one redirect, got %d", got)
	}
	// 401 不额外弹提示，用户看到的是跳转本身
	if n := env.collector.Notices(); len(n) != 0 {
		t.Fatalf("401 should not emit a notice, got %v", n)
	}
}

func TestConcurrentUnauthorizedIsIdempotent(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, 401, "token invalid", nil)
	})
	_ = session.SaveLogin(env.store, "tok", nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.client.Do(context.Background(), http.MethodGet, "/user/info", nil, nil)
		}()
	}
	wg.Wait()

	if session.Token(env.store) != "" {
		t.Fatalf("session should end cleared")
	}
	// 两个 401 各自跑完拦截器，重复跳转无害
	if got := env.redirects.Load(); got != 2 {
		t.Fatalf("both calls should run their interceptor, redirects=%d", got)
	}
}

func TestForbiddenPlainKeepsSession(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, 403, "no permission for this resource", nil)
	})
	_ = session.SaveLogin(env.store, "tok", nil)

	_, err := env.client.Do(context.Background(), http.MethodDelete, "/sys-manage/user/3", nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if session.Token(env.store) != "tok" {
		t.Fatalf("plain 403 must keep the session")
	}
	if env.redirects.Load() != 0 {
		t.Fatalf("plain 403 must not redirect")
	}
	notices := env.collector.Notices()
	if len(notices) != 1 || !strings.Contains(notices[0].Message, "no permission") {
		t.Fatalf("expected one notice with message, got %v", notices)
	}
}

func TestForbiddenIllegalTokenTerminatesSession(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, 403, "forbidden: illegal token", nil)
	})
	_ = session.SaveLogin(env.store, "tok", nil)

	_, err := env.client.Do(context.Background(), http.MethodGet, "/book/recommend", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if session.Token(env.store) != "" {
		t.Fatalf("illegal token must clear session")
	}
	if env.redirects.Load() != 1 {
		t.Fatalf("illegal token must redirect, got %d", env.redirects.Load())
	}
	if len(env.collector.Notices()) != 1 {
		t.Fatalf("illegal token still shows the message")
	}
}

func TestPaymentRequiredNotifiesOnly(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusPaymentRequired, 402, "license expired", nil)
	})
	_ = session.SaveLogin(env.store, "tok", nil)

	_, err := env.client.Do(context.Background(), http.MethodGet, "/book/recommend", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if session.Token(env.store) != "tok" || env.redirects.Load() != 0 {
		t.Fatalf("402 must not touch session")
	}
	notices := env.collector.Notices()
	if len(notices) != 1 || notices[0].Message != "license expired" {
		t.Fatalf("unexpected notices: %v", notices)
	}
}

func TestGenericHTTPErrorFallbackMessage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream boom"))
	})

	_, err := env.client.Do(context.Background(), http.MethodGet, "/book/recommend", nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
	notices := env.collector.Notices()
	if len(notices) != 1 || notices[0].Message != "request failed (502)" {
		t.Fatalf("expected status fallback message, got %v", notices)
	}
}

func TestNetworkFailureNotifiesConnectivity(t *testing.T) {
	store := session.NewMemoryStore()
	collector := notify.NewCollector()
	client, err := NewClient(Config{
		// 不可路由地址，拨号立刻失败
		BaseURL:  "http://127.0.0.1:1",
		Store:    store,
		Notifier: collector,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Do(context.Background(), http.MethodGet, "/book/recommend", nil, nil)
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
	notices := collector.Notices()
	if len(notices) != 1 || notices[0].Message != MsgConnectivity {
		t.Fatalf("expected connectivity notice, got %v", notices)
	}
}

func TestBusinessErrorNotifiesWithMessage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, int(errcode.CodeInternal), "model call failed", nil)
	})

	_, err := env.client.Do(context.Background(), http.MethodPut, "/book/analyze/dune", nil, nil)
	var bizErr *errcode.BizError
	if !errors.As(err, &bizErr) || bizErr.Code != errcode.CodeInternal {
		t.Fatalf("expected BizError, got %v", err)
	}
	notices := env.collector.Notices()
	if len(notices) != 1 || notices[0].Message != "model call failed" {
		t.Fatalf("expected exactly one notice with message, got %v", notices)
	}
}

func TestBusinessErrorSilencedForDuplicateCode(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, int(errcode.CodeAlreadyExists), "book already analyzed", nil)
	})

	_, err := env.client.Do(context.Background(), http.MethodPut, "/book/analyze/dune", nil, nil)
	if !errcode.IsAlreadyExists(err) {
		t.Fatalf("call site must still see the duplicate code, got %v", err)
	}
	if n := env.collector.Notices(); len(n) != 0 {
		t.Fatalf("duplicate code must be silent, got %v", n)
	}
}

func TestBusinessErrorEmptyMessageFallsBack(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, int(errcode.CodeUnknown), "", nil)
	})

	if _, err := env.client.Do(context.Background(), http.MethodGet, "/book/recommend", nil, nil); err == nil {
		t.Fatalf("expected error")
	}
	notices := env.collector.Notices()
	if len(notices) != 1 || notices[0].Message != errcode.FallbackMessage {
		t.Fatalf("expected fallback message, got %v", notices)
	}
}

func TestCallDecodesData(t *testing.T) {
	type book struct {
		Title string `json:"title"`
		Genre string `json:"genre"`
	}
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, result.CodeOK, "ok", book{Title: "Dune", Genre: "sci-fi"})
	})

	got, err := Call[book](context.Background(), env.client, http.MethodGet, "/book/recommend", nil, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got == nil || got.Title != "Dune" || got.Genre != "sci-fi" {
		t.Fatalf("unexpected data: %+v", got)
	}
}

func TestCallPageNormalizesAndReconciles(t *testing.T) {
	var gotQuery url.Values
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		// 后端下发自相矛盾的 totalPages
		writeEnvelope(w, 200, result.CodeOK, "ok", result.PageResult[string]{
			Rows: []string{"a", "b"}, Total: 25, CurrentPage: 1, PageSize: 20, TotalPages: 99,
		})
	})

	page, err := CallPage[string](context.Background(), env.client, "/book/history", result.Paging{PageIndex: 0, PageSize: 999}, nil)
	if err != nil {
		t.Fatalf("CallPage: %v", err)
	}
	if gotQuery.Get("page") != "1" || gotQuery.Get("pageSize") != "100" {
		t.Fatalf("paging not normalized: %v", gotQuery)
	}
	if page.TotalPages != 1 {
		t.Fatalf("totalPages should be recomputed from total/pageSize, got %d", page.TotalPages)
	}
	if len(page.Rows) != 2 {
		t.Fatalf("rows lost: %+v", page.Rows)
	}
}

func TestDownloadReturnsRawBytes(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 report"))
	})

	data, err := env.client.Download(context.Background(), "/user/report/2025/download", nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "%PDF-1.7 report" {
		t.Fatalf("unexpected payload: %q", data)
	}
}
