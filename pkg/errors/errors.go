package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是面向前端的提示信息（前端界面是英文，消息统一用英文）
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
// 4. Retryable标记瞬时错误（如锁等待超时），客户端可安全重试整个操作
type AppError struct {
	Code      int    `json:"code"`    // 业务错误码
	Message   string `json:"message"` // 用户可见的错误提示
	Err       error  `json:"-"`       // 内部错误（不序列化）
	Retryable bool   `json:"-"`       // 是否可重试（瞬时存储错误）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewRetryable 创建可重试的AppError（瞬时存储错误）
func NewRetryable(code int, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WrapCode 以指定错误码包装底层错误
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败），不自动重试
// - 5xxxx: 服务端错误（数据库异常、锁等待超时），其中标记Retryable的可重试

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeLockTimeout   = 50003 // 行锁等待超时（瞬时错误，可重试）

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound           = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound       = 40401 // 用户不存在
	ErrCodeBookNotFound       = 40402 // 图书不存在
	ErrCodeBorrowNotFound     = 40403 // 借阅记录不存在
	ErrCodeFineNotFound       = 40404 // 罚款记录不存在
	ErrCodeMembershipNotFound = 40405 // 会员记录不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError   = 40000 // 业务错误(通用)
	ErrCodeNoCopies        = 40001 // 无可借副本
	ErrCodeBookUnavailable = 40002 // 图书已下架(软删除)
	ErrCodeAlreadyReturned = 40003 // 借阅已归还
	ErrCodeUnpaidFines     = 40004 // 存在未缴罚款,不能归还
	ErrCodeEmailDuplicate  = 40005 // 邮箱已存在
	ErrCodeWeakPassword    = 40006 // 密码强度不足
	ErrCodeFineAlreadyPaid = 40007 // 罚款已缴清
	ErrCodeDuplicateEntry  = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "Internal server error")
	ErrDatabaseError = New(ErrCodeDatabaseError, "Database error")
	ErrRedisError    = New(ErrCodeRedisError, "Cache service error")
	// 锁等待超时：持有行锁的事务未及时结束,调用方应稍后重试整个操作
	ErrLockTimeout = NewRetryable(ErrCodeLockTimeout, "Operation timed out, please try again")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "Please log in first")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "Invalid token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token expired")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "Incorrect password")
	ErrForbidden       = New(ErrCodeForbidden, "Permission denied")

	// 资源不存在
	ErrUserNotFound = New(ErrCodeUserNotFound, "User not found")

	// 注册相关
	ErrEmailDuplicate = New(ErrCodeEmailDuplicate, "Email already registered")
	ErrWeakPassword   = New(ErrCodeWeakPassword, "Password must be 8-20 characters and contain both letters and digits")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "Invalid parameters")
	ErrBindError     = New(ErrCodeBindError, "Malformed request body")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "Internal server error")
}

// IsRetryable 判断错误是否为可重试的瞬时错误
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
