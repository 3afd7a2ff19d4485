package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "lms-progress/pkg/errors"
	"lms-progress/pkg/response"
)

// 业务错误码：按错误分类划分，与 HTTP 状态码对应
const (
	codeValidation      = 20001
	codeNotFound        = 20004
	codeAlreadyTerminal = 20009
	codeCancelled       = 20010
	codeBodyTooLarge    = 10005
	codeBadParams       = 10001
)

// respondError 按错误分类写入响应
//
//	NotFound         → 404
//	ValidationError  → 400
//	AlreadyTerminal  → 409
//	Cancelled        → 409
//	StoreError/其他  → 500（不向调用方暴露存储细节）
func respondError(c *gin.Context, err error) {
	msg := err.Error()
	var e *pkgerrors.Error
	if errors.As(err, &e) {
		msg = e.Message
	}

	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindNotFound:
		response.NotFound(c, codeNotFound, msg)
	case pkgerrors.KindValidation:
		response.BadRequest(c, codeValidation, msg)
	case pkgerrors.KindAlreadyTerminal:
		response.Conflict(c, codeAlreadyTerminal, msg)
	case pkgerrors.KindCancelled:
		response.Conflict(c, codeCancelled, msg)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindJSON 绑定并校验请求体；失败时写入 400（超出大小限制时 413）并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, codeBadParams, "参数校验失败", err.Error())
		return false
	}
	return true
}
