package handler

import (
	"github.com/gin-gonic/gin"

	"lms-progress/internal/dto"
	"lms-progress/internal/service"
	"lms-progress/pkg/response"
)

// ApprovalHandler 管理端审核 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc   service.ApprovalService
	progressSvc   service.ProgressService
	curriculumSvc service.CurriculumService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalService, progressSvc service.ProgressService, curriculumSvc service.CurriculumService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc, progressSvc: progressSvc, curriculumSvc: curriculumSvc}
}

// ListPending 待审核队列（按更新时间升序）
// GET /api/v1/admin/approvals/pending
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, codeBadParams, "分页参数无效")
		return
	}

	items, total, err := h.approvalSvc.ListPending(c.Request.Context(), &page)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKPage(c, items, total, page.GetPage(), page.GetPageSize())
}

// GetCourseTracking 某门课程所有学生的进度
// GET /api/v1/admin/courses/:id/progress
func (h *ApprovalHandler) GetCourseTracking(c *gin.Context) {
	resp, err := h.curriculumSvc.GetCourseTracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetProgress 单条进度记录
// GET /api/v1/admin/progress/:id
func (h *ApprovalHandler) GetProgress(c *gin.Context) {
	resp, err := h.progressSvc.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// Approve 审核通过
// POST /api/v1/admin/progress/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.approvalSvc.Approve(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Reject 驳回，原因必填
// POST /api/v1/admin/progress/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if !bindJSON(c, &req) {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.approvalSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason, adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}
