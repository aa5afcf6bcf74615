package bookapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bookwise/bookwise-go/result"
	"github.com/bookwise/bookwise-go/transport"
	"github.com/bookwise/bookwise-go/validator"
)

/* ========================================================================
 * Admin Service - 管理端接口
 * ========================================================================
 * OAuth 配置 / 用户管理 / 模型管理 / 日志查询
 * 全部复用共享的信封 + 分页合同，业务逻辑在后端
 * ======================================================================== */

// AdminService 管理端接口
type AdminService struct {
	client   *transport.Client
	validate *validator.Validator
}

// NewAdminService 创建管理端服务
func NewAdminService(client *transport.Client) *AdminService {
	return &AdminService{
		client:   client,
		validate: validator.New(),
	}
}

// ========================================================================
// OAuth 配置
// ========================================================================

// ListOAuthConfigs 分页列出 OAuth 配置
func (s *AdminService) ListOAuthConfigs(ctx context.Context, paging result.Paging) (*result.PageResult[OAuthConfig], error) {
	return transport.CallPage[OAuthConfig](ctx, s.client, "/sys-manage/oauth-config/list", paging, nil)
}

// CreateOAuthConfig 新建 OAuth 配置
func (s *AdminService) CreateOAuthConfig(ctx context.Context, req SaveOAuthConfigRequest) (*OAuthConfig, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[OAuthConfig](ctx, s.client, http.MethodPost, "/sys-manage/oauth-config", nil, req)
}

// UpdateOAuthConfig 更新 OAuth 配置
func (s *AdminService) UpdateOAuthConfig(ctx context.Context, id int64, req SaveOAuthConfigRequest) (*OAuthConfig, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[OAuthConfig](ctx, s.client, http.MethodPut, fmt.Sprintf("/sys-manage/oauth-config/%d", id), nil, req)
}

// DeleteOAuthConfig 删除 OAuth 配置
func (s *AdminService) DeleteOAuthConfig(ctx context.Context, id int64) error {
	return transport.Exec(ctx, s.client, http.MethodDelete, fmt.Sprintf("/sys-manage/oauth-config/%d", id), nil, nil)
}

// ========================================================================
// 用户管理
// ========================================================================

// ListUsers 分页列出用户，keyword 为空时不过滤
func (s *AdminService) ListUsers(ctx context.Context, paging result.Paging, keyword string) (*result.PageResult[AdminUser], error) {
	extra := url.Values{}
	if keyword != "" {
		extra.Set("keyword", keyword)
	}
	return transport.CallPage[AdminUser](ctx, s.client, "/sys-manage/user/list", paging, extra)
}

// SetUserDisabled 封禁/解封用户
func (s *AdminService) SetUserDisabled(ctx context.Context, userID int64, disabled bool) error {
	return transport.Exec(ctx, s.client, http.MethodPut,
		fmt.Sprintf("/sys-manage/user/%d/disabled", userID), nil,
		map[string]bool{"disabled": disabled})
}

// ResetUserPassword 重置用户密码，返回临时密码
func (s *AdminService) ResetUserPassword(ctx context.Context, userID int64) (*string, error) {
	return transport.Call[string](ctx, s.client, http.MethodPut,
		fmt.Sprintf("/sys-manage/user/%d/password/reset", userID), nil, nil)
}

// ========================================================================
// 模型管理
// ========================================================================

// ListAllModels 管理端全量模型列表（含未激活）
func (s *AdminService) ListAllModels(ctx context.Context, paging result.Paging) (*result.PageResult[AIModel], error) {
	return transport.CallPage[AIModel](ctx, s.client, "/sys-manage/ai-model/list", paging, nil)
}

// ========================================================================
// 日志查询
// ========================================================================

// ListAttackLogs 分页查询攻击日志，attackType 为空时查全部
func (s *AdminService) ListAttackLogs(ctx context.Context, paging result.Paging, attackType string) (*result.PageResult[AttackLog], error) {
	extra := url.Values{}
	if attackType != "" {
		extra.Set("attackType", attackType)
	}
	return transport.CallPage[AttackLog](ctx, s.client, "/sys-manage/logs/attack", paging, extra)
}

// AttackStats 按类型聚合的攻击统计
func (s *AdminService) AttackStats(ctx context.Context) ([]AttackStat, error) {
	stats, err := transport.Call[[]AttackStat](ctx, s.client, http.MethodGet, "/sys-manage/logs/attack/stats", nil, nil)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, nil
	}
	return *stats, nil
}
