package result

import "math"

/* ========================================================================
 * PageResult - 分页响应信封
 * ========================================================================
 * 职责: 列表接口在 Result 之上叠加的分页包装
 * 约定:
 *   - totalPages 恒等于 ceil(total / pageSize)
 *   - 后端下发的 totalPages 与计算值不一致时以计算值为准（调用方记录差异），
 *     不因脏数据崩溃
 *   - 翻页整页重取，客户端不做增量合并
 * ======================================================================== */

// PageResult 一页数据
// rows 保持后端返回顺序，客户端视为不可变
type PageResult[T any] struct {
	Rows        []T   `json:"rows"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"` // 1 起始
	PageSize    int   `json:"pageSize"`
	TotalPages  int64 `json:"totalPages"`
}

// Of 构造分页结果，totalPages 由 total/size 计算
func Of[T any](page, size int, total int64, rows []T) PageResult[T] {
	pages := int64(0)
	if size > 0 {
		pages = int64(math.Ceil(float64(total) / float64(size)))
	}
	return PageResult[T]{
		Rows:        rows,
		Total:       total,
		CurrentPage: page,
		PageSize:    size,
		TotalPages:  pages,
	}
}

// Reconcile 用 total/pageSize 重算 totalPages
// 返回后端下发值是否与计算值一致，不一致时调用方打日志即可
func (p *PageResult[T]) Reconcile() bool {
	want := int64(0)
	if p.PageSize > 0 {
		want = int64(math.Ceil(float64(p.Total) / float64(p.PageSize)))
	}
	ok := p.TotalPages == want
	p.TotalPages = want
	return ok
}

/* ========================================================================
 * Paging - 请求侧分页参数
 * ======================================================================== */

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 20
	MaxPageSize      = 100
)

// Paging 请求侧分页参数，构造后必须 Normalize
type Paging struct {
	PageIndex int `json:"page"`
	PageSize  int `json:"pageSize"`
}

// Normalize 钳制分页参数: pageIndex >= 1，pageSize ∈ [1,100]
// 零值回落到默认值，永远不会出现负数或 0
func (p Paging) Normalize() Paging {
	if p.PageIndex < 1 {
		p.PageIndex = DefaultPageIndex
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}
