package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind 错误分类，用于 Handler 层映射 HTTP 状态码以及批量结果中的失败原因
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindValidation      Kind = "ValidationError"
	KindAlreadyTerminal Kind = "AlreadyTerminal"
	KindStore           Kind = "StoreError"
	KindCancelled       Kind = "Cancelled"
)

// Error 带分类的业务错误
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New 创建带分类的业务错误（通常作为包级哨兵错误）
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Store 将存储层错误包装为 StoreError
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, cause: cause}
}

// KindOf 返回错误分类；无法识别的错误一律视为 StoreError
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindStore
}

// Is 判断错误是否属于指定分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
