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
 * Book Service - 书籍分析接口
 * ========================================================================
 * 调用点定制恢复的唯一现存场景在 Analyze:
 * 重复分析返回 CodeAlreadyExists，transport 静默放行，
 * 调用方用 errcode.IsAlreadyExists 判断后跳历史页而不是报错
 * ======================================================================== */

// BookService 书籍分析与反馈接口
type BookService struct {
	client   *transport.Client
	validate *validator.Validator
}

// NewBookService 创建书籍服务
func NewBookService(client *transport.Client) *BookService {
	return &BookService{
		client:   client,
		validate: validator.New(),
	}
}

// Recommend 拉取一条推荐
func (s *BookService) Recommend(ctx context.Context) (*BookAnalysis, error) {
	return transport.Call[BookAnalysis](ctx, s.client, http.MethodGet, "/book/recommend", nil, nil)
}

// Analyze 提交书名做 AI 分析
// 重复分析时 err 满足 errcode.IsAlreadyExists，调用方自行跳转
func (s *BookService) Analyze(ctx context.Context, title string) (*BookAnalysis, error) {
	if title == "" {
		return nil, fmt.Errorf("bookapi: title is required")
	}
	path := "/book/analyze/" + url.PathEscape(title)
	return transport.Call[BookAnalysis](ctx, s.client, http.MethodPut, path, nil, nil)
}

// Query 按书名查询既有分析
func (s *BookService) Query(ctx context.Context, title string) (*BookAnalysis, error) {
	query := url.Values{}
	query.Set("title", title)
	return transport.Call[BookAnalysis](ctx, s.client, http.MethodGet, "/book/query", query, nil)
}

// Extract 从自由文本抽取书名
func (s *BookService) Extract(ctx context.Context, req ExtractRequest) (*ExtractData, error) {
	if err := s.validate.Validate(&req); err != nil {
		return nil, err
	}
	return transport.Call[ExtractData](ctx, s.client, http.MethodPost, "/book/extract", nil, req)
}

// Interest 提交对一次分析的反馈
func (s *BookService) Interest(ctx context.Context, req InterestRequest) error {
	if err := s.validate.Validate(&req); err != nil {
		return err
	}
	return transport.Exec(ctx, s.client, http.MethodPost, "/user/interest", nil, req)
}

// FeedbackHistory 全量反馈历史
func (s *BookService) FeedbackHistory(ctx context.Context) ([]FeedbackRecord, error) {
	records, err := transport.Call[[]FeedbackRecord](ctx, s.client, http.MethodGet, "/book/feedback/history", nil, nil)
	if err != nil {
		return nil, err
	}
	if records == nil {
		return nil, nil
	}
	return *records, nil
}

// History 分页的分析历史
func (s *BookService) History(ctx context.Context, paging result.Paging) (*result.PageResult[BookAnalysis], error) {
	return transport.CallPage[BookAnalysis](ctx, s.client, "/book/history", paging, nil)
}

// Preference 聚合出的个人阅读偏好
func (s *BookService) Preference(ctx context.Context) (*Preference, error) {
	return transport.Call[Preference](ctx, s.client, http.MethodGet, "/user/preference", nil, nil)
}

// DownloadReport 下载年度阅读报告，返回原始字节流
func (s *BookService) DownloadReport(ctx context.Context, year int) ([]byte, error) {
	return s.client.Download(ctx, fmt.Sprintf("/user/report/%d/download", year), nil)
}
