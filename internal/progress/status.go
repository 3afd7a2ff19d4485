// Package progress 实现学习进度引擎的纯逻辑部分：
// 状态机、完成条件判定（Status Deriver）与顺序解锁（Unlock Resolver）。
// 本包不访问存储，所有函数对同样的输入给出同样的输出。
package progress

import "lms-progress/internal/model"

// ValidTransitions 进度记录允许的状态迁移
//
//	not_started      → in_progress        首次计数更新
//	in_progress      → pending_approval   满足完成条件
//	pending_approval → completed          管理员通过
//	pending_approval → rejected           管理员驳回（需原因）
//	pending_approval → in_progress        计数被改回不满足完成条件
//	rejected         → in_progress        学生重新提交 / 计数变化
//	completed        终态
var ValidTransitions = map[model.ProgressStatus][]model.ProgressStatus{
	model.StatusNotStarted:      {model.StatusInProgress},
	model.StatusInProgress:      {model.StatusPendingApproval},
	model.StatusPendingApproval: {model.StatusCompleted, model.StatusRejected, model.StatusInProgress},
	model.StatusRejected:        {model.StatusInProgress},
	model.StatusCompleted:       {},
}

// CanTransition 判断 from → to 是否为合法迁移
func CanTransition(from, to model.ProgressStatus) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal completed 为唯一终态；rejected 可重新进入流程
func IsTerminal(s model.ProgressStatus) bool {
	return s == model.StatusCompleted
}

// NextStatusAfterCounters 计数（课时、项目、链接）变化后记录应处的状态。
// 不修改入参；completed 保持不变。
func NextStatusAfterCounters(current model.ProgressStatus, eligible bool) model.ProgressStatus {
	if current == "" {
		current = model.StatusNotStarted
	}

	switch current {
	case model.StatusCompleted:
		return current
	case model.StatusNotStarted, model.StatusRejected:
		current = model.StatusInProgress
	}

	switch current {
	case model.StatusInProgress:
		if eligible {
			return model.StatusPendingApproval
		}
	case model.StatusPendingApproval:
		if !eligible {
			return model.StatusInProgress
		}
	}
	return current
}

// ApplyCounterUpdate 根据记录当前计数与课程要求计算下一状态
func ApplyCounterUpdate(record *model.ProgressRecord, course *model.Course) model.ProgressStatus {
	return NextStatusAfterCounters(record.Status, DeriveStatus(record, course).CanPass)
}
