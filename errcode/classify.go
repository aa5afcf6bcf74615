package errcode

import "strings"

/* ========================================================================
 * Classifier - 业务错误分类
 * ========================================================================
 * 职责: 对 HTTP 200 但 code != 200 的信封决定是否弹出通用提示
 * 约定:
 *   - 静默名单内的错误码不弹通用提示，由调用方识别后自行处理
 *     （唯一的现存场景：重复分析 → 跳转到历史页而不是报错）
 *   - 名单可扩展，不触碰 transport 层
 * ======================================================================== */

// FallbackMessage 信封 message 为空时的兜底提示文案
const FallbackMessage = "operation failed"

// Classifier 业务错误分类器
type Classifier struct {
	silenced map[Code]struct{}
}

// NewClassifier 创建分类器，默认静默名单只含重复操作码
func NewClassifier(extra ...Code) *Classifier {
	c := &Classifier{silenced: map[Code]struct{}{
		CodeAlreadyExists: {},
	}}
	for _, code := range extra {
		c.silenced[code] = struct{}{}
	}
	return c
}

// Silence 追加静默错误码
func (c *Classifier) Silence(code Code) {
	c.silenced[code] = struct{}{}
}

// Silent 判断错误码是否在静默名单内
func (c *Classifier) Silent(code Code) bool {
	_, ok := c.silenced[code]
	return ok
}

// Notice 返回需要展示给用户的提示文案
// 静默码返回 ("", false)；message 为空时回退到 FallbackMessage
func (c *Classifier) Notice(code Code, message string) (string, bool) {
	if c.Silent(code) {
		return "", false
	}
	if message == "" {
		message = FallbackMessage
	}
	return message, true
}

/* ========================================================================
 * 认证/授权子原因标记
 * ========================================================================
 * 后端没有为 401/403 定义结构化子码，只能对 message 做子串匹配。
 * 属于遗留兼容层：文案变更会悄悄破坏匹配，后端合同修订后应换成结构化字段。
 * ======================================================================== */

// 401 子原因，所有子原因的处置完全相同（清会话 + 跳登录），匹配结果只进日志
const (
	MarkerTokenInvalid    = "token invalid"
	MarkerSessionExpired  = "session expired"
	MarkerSessionNotFound = "session not found"
	MarkerLoginConflict   = "logged in elsewhere"
)

// 403 子原因，illegal token 视为令牌已失陷，额外清会话并跳登录
const (
	MarkerNoPermission = "no permission"
	MarkerIllegalToken = "illegal token"
)

// AuthSubReason 从 401 的 message 里识别子原因，仅用于诊断日志
func AuthSubReason(message string) string {
	for _, marker := range []string{
		MarkerTokenInvalid,
		MarkerSessionExpired,
		MarkerSessionNotFound,
		MarkerLoginConflict,
	} {
		if strings.Contains(message, marker) {
			return marker
		}
	}
	return ""
}

// IsIllegalToken 判断 403 的 message 是否命中非法令牌标记
func IsIllegalToken(message string) bool {
	return strings.Contains(message, MarkerIllegalToken)
}
