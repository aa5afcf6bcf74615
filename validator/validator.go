package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

/* ========================================================================
 * Validator - 请求参数验证
 * ========================================================================
 * 职责: 请求 DTO 出站前的结构体验证，失败的请求不浪费一次网络往返
 * 特性: 支持 error_msg 标签定义自定义错误消息
 * 使用示例:
 *     type LoginRequest struct {
 *         Username string `validate:"required" error_msg:"required:用户名必填"`
 *         Password string `validate:"required,min=8" error_msg:"required:密码必填|min:密码至少8位"`
 *     }
 * ======================================================================== */

const (
	tagCustom     = "error_msg"
	ruleSeparator = "|"
	keyValueSep   = ":"
)

// ValidationError 按字段分组的验证错误
type ValidationError struct {
	Errors map[string][]string // 字段名 -> 错误消息列表
}

// Error 实现 error 接口
func (v *ValidationError) Error() string {
	var sb strings.Builder
	for field, msgs := range v.Errors {
		sb.WriteString(fmt.Sprintf("%s: %s; ", field, strings.Join(msgs, ", ")))
	}
	return strings.TrimSuffix(sb.String(), "; ")
}

// HasErrors 检查是否有验证错误
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string][]string)
	}
	v.Errors[field] = append(v.Errors[field], message)
}

// Validator 结构体验证器
type Validator struct {
	validate *validator.Validate

	mu       sync.RWMutex
	msgCache map[reflect.Type]map[string]map[string]string // 类型 -> 字段 -> 规则 -> 消息
}

// New 创建验证器
func New() *Validator {
	return &Validator{
		validate: validator.New(),
		msgCache: make(map[reflect.Type]map[string]map[string]string),
	}
}

// Validate 验证结构体，全部通过返回 nil，否则返回 *ValidationError
func (v *Validator) Validate(s any) error {
	if s == nil {
		return nil
	}
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := v.customMessages(s)
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		msg := messages[fe.StructField()][fe.Tag()]
		if msg == "" {
			msg = fmt.Sprintf("failed on %q", fe.Tag())
		}
		out.add(fe.StructField(), msg)
	}
	return out
}

// customMessages 解析并缓存 error_msg 标签
func (v *Validator) customMessages(s any) map[string]map[string]string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	v.mu.RLock()
	cached, ok := v.msgCache[t]
	v.mu.RUnlock()
	if ok {
		return cached
	}

	messages := make(map[string]map[string]string)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		raw := field.Tag.Get(tagCustom)
		if raw == "" {
			continue
		}
		rules := make(map[string]string)
		for _, pair := range strings.Split(raw, ruleSeparator) {
			parts := strings.SplitN(pair, keyValueSep, 2)
			if len(parts) == 2 {
				rules[parts[0]] = parts[1]
			}
		}
		messages[field.Name] = rules
	}

	v.mu.Lock()
	v.msgCache[t] = messages
	v.mu.Unlock()
	return messages
}
