package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"lms-progress/internal/dto"
	pkgerrors "lms-progress/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindStore, "生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 批量通过结束后导出结果报告 (.xlsx)，任务执行中不可导出
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：Sheet "汇总" 记录总数/成功/失败，Sheet "失败明细" 逐条列出失败记录
type ExportService interface {
	// ExportBulkPassReport 导出批量通过结果报告
	ExportBulkPassReport(ctx context.Context, jobID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	tracker JobTracker
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(tracker JobTracker, logger *zap.Logger) ExportService {
	return &exportService{tracker: tracker, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportBulkPassReport 导出批量通过结果
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportBulkPassReport(ctx context.Context, jobID string) (*bytes.Buffer, string, error) {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if job.Result == nil {
		return nil, "", ErrBulkJobRunning
	}

	buf, err := renderBulkPassReport(job)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("批量通过报告_%s.xlsx", jobID)
	return buf, filename, nil
}

func renderBulkPassReport(job *dto.BulkPassJob) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 汇总
	summary := "汇总"
	idx, err := f.NewSheet(summary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(summary, "A", "A", 14)
	f.SetColWidth(summary, "B", "B", 40)
	summaryRows := [][2]interface{}{
		{"任务ID", job.JobID},
		{"操作人", job.AdminID},
		{"状态", job.Status},
		{"开始时间", job.StartedAt},
		{"结束时间", job.FinishedAt},
		{"总数", job.Result.Total},
		{"成功", job.Result.SuccessCount},
		{"失败", job.Result.FailureCount},
	}
	for i, r := range summaryRows {
		f.SetCellValue(summary, cell("A", i+1), r[0])
		f.SetCellValue(summary, cell("B", i+1), r[1])
	}
	f.SetCellStyle(summary, "A1", cell("A", len(summaryRows)), headerStyle)

	// 失败明细
	detail := "失败明细"
	if _, err := f.NewSheet(detail); err != nil {
		return nil, err
	}
	f.SetColWidth(detail, "A", "A", 8)
	f.SetColWidth(detail, "B", "B", 40)
	f.SetColWidth(detail, "C", "C", 18)
	f.SetColWidth(detail, "D", "D", 50)

	for i, h := range []string{"序号", "进度记录ID", "失败分类", "详情"} {
		f.SetCellValue(detail, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detail, "A1", "D1", headerStyle)

	for i, fail := range job.Result.Failures {
		row := i + 2
		f.SetCellValue(detail, cell("A", row), i+1)
		f.SetCellValue(detail, cell("B", row), fail.ProgressID)
		f.SetCellValue(detail, cell("C", row), fail.Reason)
		f.SetCellValue(detail, cell("D", row), fail.Detail)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
