package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"lms-progress/internal/dto"
	"lms-progress/internal/service"
	"lms-progress/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BulkPassHandler 批量通过 HTTP 处理器
// 批量通过以后台任务执行，客户端轮询任务状态
type BulkPassHandler struct {
	bulkSvc   service.BulkPassService
	exportSvc service.ExportService
}

// NewBulkPassHandler 创建 BulkPassHandler
func NewBulkPassHandler(bulkSvc service.BulkPassService, exportSvc service.ExportService) *BulkPassHandler {
	return &BulkPassHandler{bulkSvc: bulkSvc, exportSvc: exportSvc}
}

// Start 提交批量通过任务
// POST /api/v1/admin/progress/bulk-pass
func (h *BulkPassHandler) Start(c *gin.Context) {
	var req dto.BulkPassRequest
	if !bindJSON(c, &req) {
		return
	}
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	job, err := h.bulkSvc.StartBulkPass(c.Request.Context(), req.ProgressIDs, adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Response{Code: 0, Message: "success", Data: job})
}

// Get 查询任务进度与结果
// GET /api/v1/admin/progress/bulk-pass/:jobId
func (h *BulkPassHandler) Get(c *gin.Context) {
	job, err := h.bulkSvc.GetBulkPassJob(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, job)
}

// Cancel 请求取消；已开始处理的记录不回滚
// POST /api/v1/admin/progress/bulk-pass/:jobId/cancel
func (h *BulkPassHandler) Cancel(c *gin.Context) {
	job, err := h.bulkSvc.CancelBulkPassJob(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, job)
}

// Report 下载批量通过结果报告
// GET /api/v1/admin/progress/bulk-pass/:jobId/report
func (h *BulkPassHandler) Report(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportBulkPassReport(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
