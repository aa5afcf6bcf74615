package errcode

import (
	"errors"
	"fmt"
)

/* ========================================================================
 * BookWise Error Package - 业务错误码
 * ========================================================================
 * 职责: 定义后端业务错误码与客户端侧错误类型
 * 约定: 信封 code == 200 为成功，其余为业务错误码（区别于 HTTP 状态码）
 * ======================================================================== */

// ========================================================================
// 错误码定义
// ========================================================================

// Code 业务错误码
type Code int

const (
	// 通用错误 (1xxx)
	CodeUnknown          Code = 1000 // 未知错误
	CodeInvalidArgument  Code = 1001 // 参数无效
	CodeNotFound         Code = 1002 // 资源不存在
	CodeAlreadyExists    Code = 1003 // 资源已存在 / 重复操作（如重复分析同一本书）
	CodePermissionDenied Code = 1004 // 权限不足
	CodeUnauthenticated  Code = 1005 // 未认证
	CodeInternal         Code = 1006 // 内部错误
	CodeUnavailable      Code = 1007 // 服务不可用（如 AI 模型离线）
	CodeTimeout          Code = 1008 // 超时
)

// ========================================================================
// 业务错误类型
// ========================================================================

// BizError HTTP 200 但信封 code != 200 时 transport 层抛给调用方的错误
// 保留原始信封字段，页面级代码仍可按 code 做定制处理
type BizError struct {
	Code    Code   // 信封 code
	Message string // 信封 message
	TraceID string // 信封 traceId，可能为空
}

// Error 实现 error 接口
func (e *BizError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("[%d] %s (trace=%s)", e.Code, e.Message, e.TraceID)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Is 支持 errors.Is：按业务错误码匹配
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建业务错误
func New(code Code, message string) *BizError {
	return &BizError{
		Code:    code,
		Message: message,
	}
}

// ========================================================================
// 预定义错误（便于 errors.Is 判断）
// ========================================================================

var (
	ErrInvalidArgument  = New(CodeInvalidArgument, "invalid argument")
	ErrNotFound         = New(CodeNotFound, "resource not found")
	ErrAlreadyExists    = New(CodeAlreadyExists, "resource already exists")
	ErrPermissionDenied = New(CodePermissionDenied, "permission denied")
	ErrUnauthenticated  = New(CodeUnauthenticated, "unauthenticated")
	ErrInternal         = New(CodeInternal, "internal error")
	ErrUnavailable      = New(CodeUnavailable, "service unavailable")
	ErrTimeout          = New(CodeTimeout, "timeout")
)

// ========================================================================
// 错误判断辅助函数
// ========================================================================

// CodeOf 获取错误携带的业务错误码
func CodeOf(err error) Code {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return CodeUnknown
}

// IsAlreadyExists 判断是否为重复操作错误（调用方通常跳转而非报错）
func IsAlreadyExists(err error) bool {
	return CodeOf(err) == CodeAlreadyExists
}

// AsBizError 将错误转换为 BizError
func AsBizError(err error) (*BizError, bool) {
	if err == nil {
		return nil, false
	}
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr, true
	}
	return nil, false
}
