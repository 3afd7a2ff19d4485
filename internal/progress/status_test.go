package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lms-progress/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.ProgressStatus
		want     bool
	}{
		{model.StatusNotStarted, model.StatusInProgress, true},
		{model.StatusInProgress, model.StatusPendingApproval, true},
		{model.StatusPendingApproval, model.StatusCompleted, true},
		{model.StatusPendingApproval, model.StatusRejected, true},
		{model.StatusRejected, model.StatusInProgress, true},
		{model.StatusInProgress, model.StatusCompleted, false},
		{model.StatusNotStarted, model.StatusCompleted, false},
		{model.StatusCompleted, model.StatusRejected, false},
		{model.StatusCompleted, model.StatusInProgress, false},
		{model.StatusRejected, model.StatusCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StatusCompleted))
	assert.False(t, IsTerminal(model.StatusRejected))
	assert.False(t, IsTerminal(model.StatusPendingApproval))
}

func TestNextStatusAfterCounters(t *testing.T) {
	cases := []struct {
		name     string
		current  model.ProgressStatus
		eligible bool
		want     model.ProgressStatus
	}{
		{"新记录首次更新", "", false, model.StatusInProgress},
		{"未开始首次更新", model.StatusNotStarted, false, model.StatusInProgress},
		{"首次更新即满足条件", model.StatusNotStarted, true, model.StatusPendingApproval},
		{"进行中仍未满足", model.StatusInProgress, false, model.StatusInProgress},
		{"进行中满足条件", model.StatusInProgress, true, model.StatusPendingApproval},
		{"待审核保持", model.StatusPendingApproval, true, model.StatusPendingApproval},
		{"待审核退回进行中", model.StatusPendingApproval, false, model.StatusInProgress},
		{"驳回后重新提交", model.StatusRejected, false, model.StatusInProgress},
		{"驳回后重新提交且满足", model.StatusRejected, true, model.StatusPendingApproval},
		{"已完成为终态", model.StatusCompleted, false, model.StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStatusAfterCounters(tc.current, tc.eligible))
		})
	}
}

// 计数更新产生的每一步都必须是状态机允许的迁移
func TestNextStatusAfterCounters_OnlyLegalTransitions(t *testing.T) {
	for from := range ValidTransitions {
		for _, eligible := range []bool{true, false} {
			to := NextStatusAfterCounters(from, eligible)
			if to == from {
				continue
			}
			if from == model.StatusNotStarted || from == model.StatusRejected {
				assert.True(t, CanTransition(from, model.StatusInProgress))
				if to == model.StatusPendingApproval {
					assert.True(t, CanTransition(model.StatusInProgress, to))
					continue
				}
			}
			assert.True(t, CanTransition(from, to), "%s → %s", from, to)
		}
	}
}

func TestApplyCounterUpdate(t *testing.T) {
	course := &model.Course{CourseID: "c1", RequiredSessions: 5, RequiredProjects: 1}

	rec := &model.ProgressRecord{CourseID: "c1", Status: model.StatusNotStarted, CompletedSessions: 1}
	assert.Equal(t, model.StatusInProgress, ApplyCounterUpdate(rec, course))

	rec = &model.ProgressRecord{
		CourseID:          "c1",
		Status:            model.StatusInProgress,
		CompletedSessions: 5,
		ProjectsSubmitted: 1,
		ProjectLinks:      []string{"https://x.io/a"},
	}
	assert.Equal(t, model.StatusPendingApproval, ApplyCounterUpdate(rec, course))

	rec.Status = model.StatusCompleted
	rec.CompletedSessions = 0
	assert.Equal(t, model.StatusCompleted, ApplyCounterUpdate(rec, course))
}
