package progress

import (
	"sort"

	"lms-progress/internal/model"
)

// Snapshot 单个学生在一次请求内的进度投影：courseID → 记录。
// 每次调用按需构建，不跨请求共享。
type Snapshot map[string]*model.ProgressRecord

// NewSnapshot 由学生的全部进度记录构建快照
func NewSnapshot(records []model.ProgressRecord) Snapshot {
	snap := make(Snapshot, len(records))
	for i := range records {
		snap[records[i].CourseID] = &records[i]
	}
	return snap
}

// Record 返回课程对应的进度记录，不存在时为 nil
func (s Snapshot) Record(courseID string) *model.ProgressRecord {
	return s[courseID]
}

// CourseCompleted 课程是否已被管理员确认完成
func (s Snapshot) CourseCompleted(courseID string) bool {
	r := s[courseID]
	return r != nil && r.Status == model.StatusCompleted
}

// With 返回替换了某门课程记录的浅拷贝，原快照不变
func (s Snapshot) With(record *model.ProgressRecord) Snapshot {
	out := make(Snapshot, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[record.CourseID] = record
	return out
}

// ── 排序 ──
// order 只比较相对大小；相同 order 时按 ID 排序保证结果稳定

// SortCourses 按学期内顺序排序（原地）
func SortCourses(courses []model.Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Order != courses[j].Order {
			return courses[i].Order < courses[j].Order
		}
		return courses[i].CourseID < courses[j].CourseID
	})
}

// SortSemesters 按培养方案顺序排序（原地）
func SortSemesters(semesters []model.Semester) {
	sort.SliceStable(semesters, func(i, j int) bool {
		if semesters[i].Order != semesters[j].Order {
			return semesters[i].Order < semesters[j].Order
		}
		return semesters[i].SemesterID < semesters[j].SemesterID
	})
}

// SortMajorCourses 按专业培养方案顺序排序（原地）
func SortMajorCourses(mcs []model.MajorCourse) {
	sort.SliceStable(mcs, func(i, j int) bool {
		if mcs[i].Order != mcs[j].Order {
			return mcs[i].Order < mcs[j].Order
		}
		return mcs[i].CourseID < mcs[j].CourseID
	})
}

// ── 三种序列 ──

// ResolveCourses 学期内课程序列，courses 须已排序
func ResolveCourses(courses []model.Course, snap Snapshot) []Resolved {
	return ResolveOrdered(courses,
		func(c model.Course) string { return c.CourseID },
		func(c model.Course) bool { return snap.CourseCompleted(c.CourseID) },
	)
}

// SemesterCompleted 学期内全部课程均已完成；没有课程的学期视为已完成
func SemesterCompleted(courses []model.Course, snap Snapshot) bool {
	for _, c := range courses {
		if !snap.CourseCompleted(c.CourseID) {
			return false
		}
	}
	return true
}

// ResolveSemesters 培养方案内学期序列，semesters 须已排序
func ResolveSemesters(semesters []model.Semester, coursesBySemester map[string][]model.Course, snap Snapshot) []Resolved {
	return ResolveOrdered(semesters,
		func(s model.Semester) string { return s.SemesterID },
		func(s model.Semester) bool { return SemesterCompleted(coursesBySemester[s.SemesterID], snap) },
	)
}

// ResolveMajorCourses 专业课程序列（key 为 CourseID），mcs 须已排序
func ResolveMajorCourses(mcs []model.MajorCourse, snap Snapshot) []Resolved {
	return ResolveOrdered(mcs,
		func(mc model.MajorCourse) string { return mc.CourseID },
		func(mc model.MajorCourse) bool { return snap.CourseCompleted(mc.CourseID) },
	)
}
