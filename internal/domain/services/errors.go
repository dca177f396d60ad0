package services

import (
	"errors"
	"fmt"

	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"gorm.io/gorm"
)

// ErrorKind 服务层错误分类，决定HTTP状态码
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindPreconditionFailed
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindUnavailable
	KindConflict
	KindTooManyRequests
)

var kindStatus = map[ErrorKind]int{
	KindInternal:           code.StatusInternalServerError,
	KindInvalidInput:       code.StatusBadRequest,
	KindPreconditionFailed: code.StatusBadRequest,
	KindUnauthorized:       code.StatusUnauthorized,
	KindForbidden:          code.StatusForbidden,
	KindNotFound:           code.StatusNotFound,
	KindUnavailable:        code.StatusNotFound,
	KindConflict:           code.StatusBadRequest,
	KindTooManyRequests:    code.StatusTooManyRequests,
}

// ServiceError 服务层返回给控制器的业务错误
type ServiceError struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatus 错误对应的HTTP状态码
func (e *ServiceError) HTTPStatus() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return code.StatusInternalServerError
}

// BusinessCode 业务错误码
func (e *ServiceError) BusinessCode() int {
	return e.Code
}

// PublicMessage 返回给调用方的消息，内部错误不暴露细节
func (e *ServiceError) PublicMessage() string {
	if e.Kind == KindInternal {
		return code.GetMessage(e.Code)
	}
	return e.Message
}

func newServiceError(kind ErrorKind, errCode int, message string) *ServiceError {
	if message == "" {
		message = code.GetMessage(errCode)
	}
	return &ServiceError{Kind: kind, Code: errCode, Message: message}
}

// ErrInvalidInput 参数错误
func ErrInvalidInput(errCode int, message string) *ServiceError {
	return newServiceError(KindInvalidInput, errCode, message)
}

// ErrPreconditionFailed 前置条件不满足
func ErrPreconditionFailed(errCode int, message string) *ServiceError {
	return newServiceError(KindPreconditionFailed, errCode, message)
}

// ErrUnauthorized 未认证
func ErrUnauthorized(errCode int, message string) *ServiceError {
	return newServiceError(KindUnauthorized, errCode, message)
}

// ErrForbidden 无权操作
func ErrForbidden(message string) *ServiceError {
	return newServiceError(KindForbidden, code.ErrForbidden, message)
}

// ErrNotFound 资源不存在
func ErrNotFound(errCode int, message string) *ServiceError {
	return newServiceError(KindNotFound, errCode, message)
}

// ErrUnavailable 资源暂不可用（库存不足）
func ErrUnavailable(message string) *ServiceError {
	return newServiceError(KindUnavailable, code.ErrBloodUnavailable, message)
}

// ErrConflict 资源冲突
func ErrConflict(errCode int, message string) *ServiceError {
	return newServiceError(KindConflict, errCode, message)
}

// ErrTooManyRequests 请求过多
func ErrTooManyRequests(errCode int, message string) *ServiceError {
	return newServiceError(KindTooManyRequests, errCode, message)
}

// ErrInternal 包装未预期的底层错误
func ErrInternal(err error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Code: code.ErrDatabase, Message: "internal error", Err: err}
}

// IsKind 判断错误链中是否包含指定分类的业务错误
func IsKind(err error, kind ErrorKind) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == kind
}

// isNotFound gorm记录不存在
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
