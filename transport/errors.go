package transport

import "fmt"

// StatusError 传输级失败：收到了响应但 HTTP 状态码非 2xx
// 通用副作用（提示/清会话）已由拦截器完成，调用方仍可按状态码分支
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed (%d)", e.Status)
}

// ConnectError 彻底没有收到响应：网络不通或整体超时
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("no response: %v", e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
