package progress

// ViewStatus 顺序序列中每一项的视图状态
type ViewStatus string

const (
	ViewLocked     ViewStatus = "locked"
	ViewInProgress ViewStatus = "in_progress"
	ViewCompleted  ViewStatus = "completed"
)

// Resolved 序列中一项的判定结果
type Resolved struct {
	Key    string     `json:"key"`
	Status ViewStatus `json:"status"`
}

// ResolveOrdered 对已排序的序列做一次左折叠：
// 前一项未完成时，后续所有项都为 locked；
// 前一项已完成（序列首项视为前驱已完成）时，本项为 completed 或 in_progress。
// 已解锁但未开始与已开始不作区分。
//
// 学期内课程、培养方案内学期、专业内课程三种序列共用此实现。
func ResolveOrdered[T any](items []T, key func(T) string, isComplete func(T) bool) []Resolved {
	out := make([]Resolved, 0, len(items))
	prevSatisfied := true
	for _, item := range items {
		status := ViewLocked
		if prevSatisfied {
			status = ViewInProgress
			if isComplete(item) {
				status = ViewCompleted
			}
		}
		out = append(out, Resolved{Key: key(item), Status: status})
		prevSatisfied = status == ViewCompleted
	}
	return out
}

// Resolve 同 ResolveOrdered，以 key → 状态 的形式返回
func Resolve[T any](items []T, key func(T) string, isComplete func(T) bool) map[string]ViewStatus {
	resolved := ResolveOrdered(items, key, isComplete)
	out := make(map[string]ViewStatus, len(resolved))
	for _, r := range resolved {
		out[r.Key] = r.Status
	}
	return out
}

// NewlyUnlocked 比较同一序列的两次判定，返回由 locked 变为可访问的项
func NewlyUnlocked(before, after []Resolved) []string {
	prev := make(map[string]ViewStatus, len(before))
	for _, r := range before {
		prev[r.Key] = r.Status
	}

	var unlocked []string
	for _, r := range after {
		if r.Status == ViewLocked {
			continue
		}
		if old, ok := prev[r.Key]; ok && old == ViewLocked {
			unlocked = append(unlocked, r.Key)
		}
	}
	return unlocked
}
