package progress

import (
	"fmt"

	"lms-progress/internal/model"
)

// Eligibility 完成条件判定结果
// MissingConditions 顺序固定：课时 → 项目 → 链接
type Eligibility struct {
	CanPass           bool     `json:"can_pass"`
	MissingConditions []string `json:"missing_conditions"`
}

// DeriveStatus 判断进度记录是否满足课程的完成条件。
// record 为 nil 表示学生尚未开始该课程，按全零计数处理。
// 管理端跟踪视图与学生端课程视图都必须调用此函数，保证判定一致。
func DeriveStatus(record *model.ProgressRecord, course *model.Course) Eligibility {
	var (
		sessions int
		projects int
		links    int
	)
	if record != nil {
		sessions = record.CompletedSessions
		projects = record.ProjectsSubmitted
		links = len(record.ProjectLinks)
	}

	missing := make([]string, 0, 3)
	if lack := course.RequiredSessions - sessions; lack > 0 {
		missing = append(missing, plural(lack, "session")+" needed")
	}
	if lack := course.RequiredProjects - projects; lack > 0 {
		missing = append(missing, plural(lack, "project")+" needed")
	}
	if links < 1 {
		missing = append(missing, "at least one project link required")
	}

	return Eligibility{
		CanPass:           len(missing) == 0,
		MissingConditions: missing,
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 more %s", noun)
	}
	return fmt.Sprintf("%d more %ss", n, noun)
}
