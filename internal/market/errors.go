package market

import (
	"errors"
	"fmt"
)

// SourceUnavailableError 远端行情源不可用（网络失败、限频、返回异常负载等）。
// Payload 保留提供方的原始错误信息用于排查。
type SourceUnavailableError struct {
	Provider string
	Payload  string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	if e.Payload != "" {
		return fmt.Sprintf("%s 数据源不可用: %v (payload: %s)", e.Provider, e.Err, e.Payload)
	}
	return fmt.Sprintf("%s 数据源不可用: %v", e.Provider, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// IsSourceUnavailable 判断错误链上是否存在数据源不可用错误。
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}
