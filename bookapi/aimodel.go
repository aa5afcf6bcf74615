package bookapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bookwise/bookwise-go/transport"
	"github.com/bookwise/bookwise-go/validator"
)

/* ========================================================================
 * AI Model Service - 模型管理接口
 * ======================================================================== */

// AIModelService AI 模型配置接口
type AIModelService struct {
	client   *transport.Client
	validate *validator.Validator
}

// NewAIModelService 创建模型服务
func NewAIModelService(client *transport.Client) *AIModelService {
	return &AIModelService{
		client:   client,
		validate: validator.New(),
	}
}

// List 按类型列出模型
func (s *AIModelService) List(ctx context.Context, modelType string) ([]AIModel, error) {
	models, err := transport.Call[[]AIModel](ctx, s.client, http.MethodGet, "/ai/models/"+modelType, nil, nil)
	if err != nil {
		return nil, err
	}
	if models == nil {
		return nil, nil
	}
	return *models, nil
}

// Create 新建模型配置
func (s *AIModelService) Create(ctx context.Context, req SaveAIModelRequest) (*AIModel, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[AIModel](ctx, s.client, http.MethodPost, "/ai/models", nil, req)
}

// Update 更新模型配置
func (s *AIModelService) Update(ctx context.Context, id int64, req SaveAIModelRequest) (*AIModel, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[AIModel](ctx, s.client, http.MethodPut, fmt.Sprintf("/ai/models/%d", id), nil, req)
}

// Delete 删除模型配置
func (s *AIModelService) Delete(ctx context.Context, id int64) error {
	return transport.Exec(ctx, s.client, http.MethodDelete, fmt.Sprintf("/ai/models/%d", id), nil, nil)
}

// Activate 激活模型，同类型模型同一时刻只有一个生效
func (s *AIModelService) Activate(ctx context.Context, id int64) error {
	return transport.Exec(ctx, s.client, http.MethodPut, fmt.Sprintf("/ai/models/%d/active", id), nil, nil)
}
