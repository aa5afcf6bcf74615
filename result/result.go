package result

import (
	"encoding/json"
	"time"
)

/* ========================================================================
 * Result - 统一响应信封
 * ========================================================================
 * 职责: 定义后端所有接口共用的响应结构
 * 约定:
 *   - code == 200 表示业务成功，其余为业务错误码（区别于 HTTP 状态码）
 *   - success 永远由 code 推导（Success 方法），不允许独立赋值
 *   - 失败响应的 data 保持 nil，不回填空集合，
 *     调用方据此区分 "空列表" 和 "调用失败"
 * ======================================================================== */

// CodeOK 业务成功码
const CodeOK = 200

// Result 标准 API 响应信封
// 客户端只读，收到后不再修改
type Result[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Ts      int64  `json:"ts"` // 服务端生成响应的毫秒时间戳
	Data    *T     `json:"data,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// Raw 未解析 data 的信封，transport 层先解出 Raw 再二次解码
type Raw = Result[json.RawMessage]

// New 从部分数据构造信封，应用字段默认值
// code=0, message="", ts=当前时间
func New[T any](code int, message string, data *T) Result[T] {
	return Result[T]{
		Code:    code,
		Message: message,
		Ts:      time.Now().UnixMilli(),
		Data:    data,
	}
}

// Success 成功标记，只由 code 推导
// 结构体不声明 success 字段，wire 上的冗余标记在解码时被直接丢弃，
// 杜绝布尔标记与 code 不一致的整类缺陷
func (r Result[T]) Success() bool {
	return r.Code == CodeOK
}
