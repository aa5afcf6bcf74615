package bookapi

import (
	"context"
	"net/http"

	"github.com/bookwise/bookwise-go/session"
	"github.com/bookwise/bookwise-go/transport"
	"github.com/bookwise/bookwise-go/validator"
)

/* ========================================================================
 * Auth Service - 认证接口
 * ======================================================================== */

// AuthService 登录、登出和资料接口
type AuthService struct {
	client   *transport.Client
	store    session.Store
	validate *validator.Validator
}

// NewAuthService 创建认证服务
func NewAuthService(client *transport.Client, store session.Store) *AuthService {
	return &AuthService{
		client:   client,
		store:    store,
		validate: validator.New(),
	}
}

// Login 账号密码登录，成功后把令牌和用户信息写进会话存储
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginData, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	data, err := transport.Call[LoginData](ctx, s.client, http.MethodPost, "/login", nil, req)
	if err != nil {
		return nil, err
	}
	if data != nil {
		user := session.UserInfo(data.User)
		if err := session.SaveLogin(s.store, data.Token, &user); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Logout 登出，无论后端结果如何本地会话都清掉
func (s *AuthService) Logout(ctx context.Context) error {
	err := transport.Exec(ctx, s.client, http.MethodPost, "/logout", nil, nil)
	if clearErr := session.ClearAuth(s.store); clearErr != nil {
		return clearErr
	}
	return err
}

// UserInfo 拉取用户信息并刷新本地缓存
func (s *AuthService) UserInfo(ctx context.Context) (*UserInfo, error) {
	user, err := transport.Call[UserInfo](ctx, s.client, http.MethodGet, "/user/info", nil, nil)
	if err != nil {
		return nil, err
	}
	if user != nil {
		cached := session.UserInfo(*user)
		if err := session.SaveLogin(s.store, session.Token(s.store), &cached); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdateProfile 资料编辑
func (s *AuthService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserInfo, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[UserInfo](ctx, s.client, http.MethodPut, "/user/info", nil, req)
}
