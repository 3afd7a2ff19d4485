package progress

import "lms-progress/internal/model"

// Badge 状态在界面上的展示信息
type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone"` // muted | info | warning | success | danger
}

// DisplayBadge 将持久化状态与视图叠加状态映射为展示信息。
// 视图为 locked 时优先显示锁定；其余按五种持久化状态逐一匹配。
// 新增状态必须在此处补充分支；display_test 会对状态机中的每个状态做覆盖检查。
func DisplayBadge(status model.ProgressStatus, view ViewStatus) Badge {
	if view == ViewLocked {
		return Badge{Label: "Locked", Tone: "muted"}
	}

	switch status {
	case "", model.StatusNotStarted:
		return Badge{Label: "Not started", Tone: "muted"}
	case model.StatusInProgress:
		return Badge{Label: "In progress", Tone: "info"}
	case model.StatusPendingApproval:
		return Badge{Label: "Awaiting approval", Tone: "warning"}
	case model.StatusCompleted:
		return Badge{Label: "Completed", Tone: "success"}
	case model.StatusRejected:
		return Badge{Label: "Rejected", Tone: "danger"}
	}
	return Badge{Label: "Unknown", Tone: "muted"}
}
