package handler

import (
	"github.com/gin-gonic/gin"

	"lms-progress/internal/dto"
	"lms-progress/internal/service"
	"lms-progress/pkg/response"
)

// StudentHandler 学生端 HTTP 处理器：培养方案视图、选专业、记录学习进度
type StudentHandler struct {
	progressSvc   service.ProgressService
	curriculumSvc service.CurriculumService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(progressSvc service.ProgressService, curriculumSvc service.CurriculumService) *StudentHandler {
	return &StudentHandler{progressSvc: progressSvc, curriculumSvc: curriculumSvc}
}

// GetSemesterProgram 获取本人学期培养方案
// GET /api/v1/students/me/semesters
func (h *StudentHandler) GetSemesterProgram(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.curriculumSvc.GetSemesterProgram(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetMajorCurriculum 获取本人专业培养方案
// GET /api/v1/students/me/major
func (h *StudentHandler) GetMajorCurriculum(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.curriculumSvc.GetMajorCurriculum(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// SelectMajor 选择（或更换）专业
// PUT /api/v1/students/me/major
func (h *StudentHandler) SelectMajor(c *gin.Context) {
	var req dto.SelectMajorRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.curriculumSvc.SelectMajor(c.Request.Context(), studentID, req.MajorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListMajors 可选专业列表
// GET /api/v1/majors
func (h *StudentHandler) ListMajors(c *gin.Context) {
	majors, err := h.curriculumSvc.ListMajors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"list": majors})
}

// RecordSession 记录完成的课时
// POST /api/v1/students/me/courses/:courseId/sessions
func (h *StudentHandler) RecordSession(c *gin.Context) {
	courseID := c.Param("courseId")
	if courseID == "" {
		response.BadRequest(c, codeBadParams, "课程ID不能为空")
		return
	}

	var req dto.RecordSessionRequest
	// 请求体可为空，缺省记 1 课时
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.progressSvc.RecordSession(c.Request.Context(), studentID, courseID, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, resp)
}

// SubmitProject 提交项目链接
// POST /api/v1/students/me/courses/:courseId/projects
func (h *StudentHandler) SubmitProject(c *gin.Context) {
	courseID := c.Param("courseId")
	if courseID == "" {
		response.BadRequest(c, codeBadParams, "课程ID不能为空")
		return
	}

	var req dto.SubmitProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.progressSvc.SubmitProject(c.Request.Context(), studentID, courseID, req.Link)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, resp)
}
