package dto

// ── 批量通过 DTO ──

// 批量任务状态
const (
	BulkJobRunning   = "running"
	BulkJobCompleted = "completed"
	BulkJobCancelled = "cancelled"
)

// BulkPassRequest 批量通过请求
type BulkPassRequest struct {
	ProgressIDs []string `json:"progress_ids" binding:"required,min=1,dive,required"`
}

// BulkPassFailure 单条失败记录
type BulkPassFailure struct {
	ProgressID string `json:"progress_id"`
	Reason     string `json:"reason"`           // 错误分类：NotFound / ValidationError / StoreError / Cancelled
	Detail     string `json:"detail,omitempty"` // 可读的失败原因
}

// BulkPassResult 批量通过汇总
// SuccessCount + FailureCount = Total（按条目计）；Failures 中每个失败的 id 只出现一次
type BulkPassResult struct {
	Total        int               `json:"total"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Failures     []BulkPassFailure `json:"failures"`
}

// BulkPassJob 异步批量任务状态
type BulkPassJob struct {
	JobID           string          `json:"job_id"`
	AdminID         string          `json:"admin_id"`
	Status          string          `json:"status"`
	Current         int             `json:"current"`
	Total           int             `json:"total"`
	CancelRequested bool            `json:"cancel_requested"`
	Result          *BulkPassResult `json:"result,omitempty"`
	StartedAt       string          `json:"started_at"`
	FinishedAt      string          `json:"finished_at,omitempty"`
}
