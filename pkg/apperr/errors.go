package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType 错误类别
type ErrorType string

const (
	// TypeNotFound 资源不存在或不满足查询范围
	TypeNotFound ErrorType = "not_found"
	// TypePermissionDenied 无权操作或私密账号不可见
	TypePermissionDenied ErrorType = "permission_denied"
	// TypeValidation 参数校验失败
	TypeValidation ErrorType = "validation"
	// TypeUnauthorized 未登录或凭证错误
	TypeUnauthorized ErrorType = "unauthorized"
	// TypeInternal 内部错误
	TypeInternal ErrorType = "internal"
)

// Error 业务错误
type Error struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error
}

// Error 实现error接口
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap 返回被包装的错误
func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// NotFound 资源不存在
func NotFound(message string) *Error {
	return New(TypeNotFound, message, nil)
}

// PermissionDenied 无权限
func PermissionDenied(message string) *Error {
	return New(TypePermissionDenied, message, nil)
}

// Validation 参数校验失败
func Validation(message string) *Error {
	return New(TypeValidation, message, nil)
}

// Unauthorized 未认证
func Unauthorized(message string) *Error {
	return New(TypeUnauthorized, message, nil)
}

// Internal 内部错误
func Internal(message string, err error) *Error {
	return New(TypeInternal, message, err)
}

// TypeOf 获取错误类别，非业务错误视为内部错误
func TypeOf(err error) ErrorType {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeInternal
}

// IsType 判断错误类别
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// Message 返回可展示给客户端的错误信息
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// HTTPStatus 错误类别对应的HTTP状态码
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeNotFound:
		return http.StatusNotFound
	case TypePermissionDenied:
		return http.StatusForbidden
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
