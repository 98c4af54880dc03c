package douyin

import "fmt"

// ==================== 错误定义 ====================

// AuthError 获取访问令牌失败
// 不在内部重试，由调用方决定下一轮周期如何处理
type AuthError struct {
	Code    int64
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("获取 token 失败: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("获取 token 失败 (code=%d): %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError 单页订单拉取失败
// 只截断当天的分页，不中断整个时间窗口的同步
type FetchError struct {
	Cursor  string
	Code    int64
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("拉取订单失败 (cursor=%s): %v", e.Cursor, e.Err)
	}
	return fmt.Sprintf("拉取订单失败 (cursor=%s, code=%d): %s", e.Cursor, e.Code, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }
