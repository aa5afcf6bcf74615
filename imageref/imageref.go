package imageref

import (
	"net/url"
	"strings"
)

/* ========================================================================
 * Image Reference Resolver - 封面图引用解析
 * ========================================================================
 * 职责: 把紧凑编码的图片引用解析成可直接请求的 URL
 * 编码格式: scheme:auth:path
 *   - scheme ∈ {h, ali, qiniu, s3, f, l}，仅作记录，解析只看 auth
 *   - auth   "0" 公网直连，"1" 需要后端代理中转
 *   - path   剩余部分，可能自带冒号（如 https://），因此切分上限为 3 段
 * 遗留数据（无冒号或不足 3 段）：http(s) 开头原样返回，否则走代理
 * 纯函数，不做任何 I/O，畸形输入退化到遗留分支，永不 panic
 * ======================================================================== */

// DefaultProxyEndpoint 后端图片代理端点
const DefaultProxyEndpoint = "/api/image"

// Resolver 封面图引用解析器
type Resolver struct {
	// ProxyEndpoint 代理端点，空值回落到 DefaultProxyEndpoint
	ProxyEndpoint string
}

// Resolve 解析图片引用，返回最终可请求的 URL
// 空引用返回空串，由上层渲染占位图
func (r Resolver) Resolve(ref string) string {
	if ref == "" {
		return ""
	}

	// 切分上限 3 段，保证 path 里的 "://" 不被误切
	parts := strings.SplitN(ref, ":", 3)
	if len(parts) < 3 {
		return r.resolveLegacy(ref)
	}

	// 只认 auth 字段：0 为公网可直接拉取，其余一律走代理
	if parts[1] == "0" {
		return parts[2]
	}

	// 整串原样编码传给代理，后端据此还原 scheme/auth/path
	return r.proxied(ref)
}

func (r Resolver) resolveLegacy(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return r.proxied(ref)
}

func (r Resolver) proxied(ref string) string {
	endpoint := r.ProxyEndpoint
	if endpoint == "" {
		endpoint = DefaultProxyEndpoint
	}
	return endpoint + "?path=" + url.QueryEscape(ref)
}

// Resolve 用默认代理端点解析图片引用
func Resolve(ref string) string {
	return Resolver{}.Resolve(ref)
}
