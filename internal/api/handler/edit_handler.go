package handler

import (
	"github.com/gin-gonic/gin"

	"lms-progress/internal/dto"
	"lms-progress/internal/service"
	"lms-progress/pkg/response"
)

// EditHandler 管理端行内编辑 HTTP 处理器
// 每个管理员同一时间只有一个编辑中的字段，路径中用 current 指代
type EditHandler struct {
	editSvc service.InlineEditService
}

// NewEditHandler 创建 EditHandler
func NewEditHandler(editSvc service.InlineEditService) *EditHandler {
	return &EditHandler{editSvc: editSvc}
}

// Start 开始编辑某条记录的字段；已有编辑时先保存或丢弃
// POST /api/v1/admin/edits
func (h *EditHandler) Start(c *gin.Context) {
	var req dto.StartEditRequest
	if !bindJSON(c, &req) {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.editSvc.Start(c.Request.Context(), adminID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, st)
}

// Current 当前编辑状态
// GET /api/v1/admin/edits/current
func (h *EditHandler) Current(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.editSvc.State(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, st)
}

// Update 更新编辑值并重新开始自动保存计时；校验结果在状态中返回
// PUT /api/v1/admin/edits/current
func (h *EditHandler) Update(c *gin.Context) {
	var req dto.UpdateEditRequest
	if !bindJSON(c, &req) {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.editSvc.Update(c.Request.Context(), adminID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, st)
}

// Save 立即保存并结束编辑
// POST /api/v1/admin/edits/current/save
func (h *EditHandler) Save(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.editSvc.Save(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, st)
}

// Cancel 放弃编辑
// DELETE /api/v1/admin/edits/current
func (h *EditHandler) Cancel(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.editSvc.Cancel(c.Request.Context(), adminID); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
