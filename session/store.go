package session

import (
	"encoding/json"
	"errors"
)

/* ========================================================================
 * Session Store - 客户端持久会话存储
 * ========================================================================
 * 职责: 保存会话令牌、用户信息缓存和少量客户端状态
 * 设计: 小型 KV 接口 + 注入实现（内存 / JSON 文件 / Redis），
 *       transport 层只依赖接口，脱离具体运行环境即可测试
 * 生命周期: 登录 / OAuth 回调成功时写入；每次请求前读取；
 *           登出或任何认证失败时清除
 * ======================================================================== */

// 持久键名，与后端约定保持一致
const (
	KeyToken         = "token"
	KeyUserInfo      = "userInfo"
	KeySearchHistory = "searchHistory"
	KeyOAuthState    = "oauth_state"
	KeyOAuthProvider = "oauth_provider"
	KeyOAuthRedirect = "oauth_redirect"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("session: key not found")

// Store 键值存储接口
// 实现必须保证单键读写原子；跨调用共享状态按尽力而为处理，
// 两个并发 401 同时 Clear 是无害的幂等操作
type Store interface {
	// Get 读取键值，不存在返回 ErrNotFound
	Get(key string) (string, error)
	// Set 写入键值
	Set(key, value string) error
	// Del 删除键，键不存在不报错
	Del(keys ...string) error
	// Clear 清空全部键
	Clear() error
}

// UserInfo 登录成功后缓存的用户画像
type UserInfo struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"` // 封面引用编码，见 imageref
	Role     string `json:"role,omitempty"`
}

/* ========================================================================
 * 类型化辅助函数
 * ======================================================================== */

// Token 读取会话令牌，未登录返回空串
func Token(s Store) string {
	v, err := s.Get(KeyToken)
	if err != nil {
		return ""
	}
	return v
}

// SaveLogin 登录成功后写入令牌和用户信息
func SaveLogin(s Store, token string, user *UserInfo) error {
	if err := s.Set(KeyToken, token); err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.Set(KeyUserInfo, string(data))
}

// CachedUser 读取缓存的用户信息，缺失或损坏返回 nil
func CachedUser(s Store) *UserInfo {
	v, err := s.Get(KeyUserInfo)
	if err != nil {
		return nil
	}
	var user UserInfo
	if err := json.Unmarshal([]byte(v), &user); err != nil {
		return nil
	}
	return &user
}

// ClearAuth 清除认证相关键，认证失败和登出共用
func ClearAuth(s Store) error {
	return s.Del(KeyToken, KeyUserInfo)
}
