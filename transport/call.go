package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bookwise/bookwise-go/notify"
	"github.com/bookwise/bookwise-go/result"

	"go.uber.org/zap"
)

/* ========================================================================
 * 类型化调用辅助
 * ========================================================================
 * Do 返回 Raw 信封，这里负责把 data 二次解码成调用方要的类型。
 * Go 的方法不能带类型参数，所以是包级泛型函数。
 * ======================================================================== */

// Call 发起请求并把信封 data 解码为 T
// 失败响应的 data 保持 nil，调用方拿到的是错误而不是空对象
func Call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	raw, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if raw.Data == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(*raw.Data, &out); err != nil {
		return nil, fmt.Errorf("transport: decode data %s %s: %w", method, path, err)
	}
	return &out, nil
}

// Exec 发起不关心 data 的请求（登出、删除等）
func Exec(ctx context.Context, c *Client, method, path string, query url.Values, body any) error {
	_, err := c.Do(ctx, method, path, query, body)
	return err
}

// CallPage 发起分页查询，分页参数规范化后作为 query 下发
// 后端 totalPages 与计算值不一致时记日志并以计算值为准
func CallPage[T any](ctx context.Context, c *Client, path string, paging result.Paging, extra url.Values) (*result.PageResult[T], error) {
	paging = paging.Normalize()
	query := url.Values{}
	for k, vs := range extra {
		query[k] = vs
	}
	query.Set("page", strconv.Itoa(paging.PageIndex))
	query.Set("pageSize", strconv.Itoa(paging.PageSize))

	page, err := Call[result.PageResult[T]](ctx, c, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if page == nil {
		empty := result.Of[T](paging.PageIndex, paging.PageSize, 0, nil)
		return &empty, nil
	}
	if !page.Reconcile() {
		c.log.Warn("backend totalPages disagrees, recomputed",
			zap.String("path", path),
			zap.Int64("total", page.Total),
			zap.Int("page_size", page.PageSize),
		)
	}
	return page, nil
}

// Download 下载非信封包装的二进制内容（如年度报告）
// 错误路径仍走统一分类，成功路径直接返回字节流
func (c *Client) Download(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, traceID, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(notify.LevelError, MsgConnectivity)
		return nil, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.interceptHTTPError(http.MethodGet, path, traceID, resp.StatusCode, payload)
	}
	return payload, nil
}
