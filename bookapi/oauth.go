package bookapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/transport"
	"github.com/bookwise/bookwise-go/validator"
)

/* ========================================================================
 * OAuth Service - 第三方登录接口
 * ========================================================================
 * 往返状态（state/provider/redirect）落在会话存储的瞬态键上，
 * 回调处理完成后清除
 * ======================================================================== */

// ErrOAuthStateMismatch 回调携带的 state 与本地存的不一致（CSRF 防护）
var ErrOAuthStateMismatch = errors.New("bookapi: oauth state mismatch")

// OAuthService 第三方登录与绑定接口
type OAuthService struct {
	client   *transport.Client
	store    session.Store
	validate *validator.Validator
}

// NewOAuthService 创建 OAuth 服务
func NewOAuthService(client *transport.Client, store session.Store) *OAuthService {
	return &OAuthService{
		client:   client,
		store:    store,
		validate: validator.New(),
	}
}

// Providers 列出启用的第三方提供方
func (s *OAuthService) Providers(ctx context.Context) ([]OAuthProvider, error) {
	providers, err := transport.Call[[]OAuthProvider](ctx, s.client, http.MethodGet, "/oauth/providers", nil, nil)
	if err != nil {
		return nil, err
	}
	if providers == nil {
		return nil, nil
	}
	return *providers, nil
}

// Authorize 获取授权跳转地址，并把往返状态写进会话存储
func (s *OAuthService) Authorize(ctx context.Context, providerType, state, redirectURI string) (*AuthorizeData, error) {
	query := url.Values{}
	query.Set("state", state)
	query.Set("redirectUri", redirectURI)
	data, err := transport.Call[AuthorizeData](ctx, s.client, http.MethodGet, "/oauth/authorize/"+providerType, query, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(session.KeyOAuthState, state); err != nil {
		return nil, err
	}
	if err := s.store.Set(session.KeyOAuthProvider, providerType); err != nil {
		return nil, err
	}
	if err := s.store.Set(session.KeyOAuthRedirect, redirectURI); err != nil {
		return nil, err
	}
	return data, nil
}

// Callback 处理提供方回跳
// state 与会话里存的不一致直接拒绝；成功后写入会话并清掉瞬态键
func (s *OAuthService) Callback(ctx context.Context, providerType, code, state string) (*LoginData, error) {
	stored, err := s.store.Get(session.KeyOAuthState)
	if err != nil || stored != state {
		return nil, ErrOAuthStateMismatch
	}

	query := url.Values{}
	query.Set("code", code)
	query.Set("state", state)
	data, err := transport.Call[LoginData](ctx, s.client, http.MethodGet, "/oauth/callback/"+providerType, query, nil)
	if err != nil {
		return nil, err
	}
	if data != nil {
		user := session.UserInfo(data.User)
		if err := session.SaveLogin(s.store, data.Token, &user); err != nil {
			return nil, err
		}
	}
	// 瞬态键用完即清
	if err := s.store.Del(session.KeyOAuthState, session.KeyOAuthProvider, session.KeyOAuthRedirect); err != nil {
		return nil, err
	}
	return data, nil
}

// Bindings 当前账号的第三方绑定列表
func (s *OAuthService) Bindings(ctx context.Context) ([]Binding, error) {
	bindings, err := transport.Call[[]Binding](ctx, s.client, http.MethodGet, "/user/third-party/bindings", nil, nil)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		return nil, nil
	}
	return *bindings, nil
}

// Bind 绑定第三方账号
func (s *OAuthService) Bind(ctx context.Context, req BindRequest) error {
	if err := s.validate.Validate(&req); err != nil {
		return err
	}
	return transport.Exec(ctx, s.client, http.MethodPost, "/user/third-party/bind", nil, req)
}

// Unbind 解绑第三方账号
func (s *OAuthService) Unbind(ctx context.Context, providerType string) error {
	return transport.Exec(ctx, s.client, http.MethodDelete, "/user/third-party/unbind/"+providerType, nil, nil)
}
