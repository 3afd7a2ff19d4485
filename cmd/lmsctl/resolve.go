package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lms-progress/internal/dto"
	"lms-progress/internal/repository"
	"lms-progress/internal/service"
)

var flagStudentID string

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "打印学生的学期与专业培养方案视图",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagStudentID, "student", "", "学生 ID")
	_ = resolveCmd.MarkFlagRequired("student")
}

func runResolve(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	curriculum := service.NewCurriculumService(repository.NewRepository(e.db), e.logger)
	ctx := getContext()

	program, err := curriculum.GetSemesterProgram(ctx, flagStudentID)
	if err != nil {
		return err
	}
	major, err := curriculum.GetMajorCurriculum(ctx, flagStudentID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printProgram(out, program)
	printMajor(out, major)
	return nil
}

func printProgram(w io.Writer, program *dto.SemesterProgramResponse) {
	for _, s := range program.Semesters {
		fmt.Fprintf(w, "[%s] %s", s.ViewStatus, s.Name)
		if s.NeedsMajorSelection {
			fmt.Fprint(w, "  (需先选择专业)")
		}
		fmt.Fprintln(w)
		for _, c := range s.Courses {
			printCourse(w, c)
		}
	}
}

func printMajor(w io.Writer, major *dto.MajorCurriculumResponse) {
	if major.Major == nil {
		fmt.Fprintln(w, "专业: 未选择")
		return
	}
	fmt.Fprintf(w, "专业: %s\n", major.Major.Name)
	for _, c := range major.Courses {
		printCourse(w, c.CourseView)
	}
}

func printCourse(w io.Writer, c dto.CourseView) {
	sessions := 0
	if c.Progress != nil {
		sessions = c.Progress.CompletedSessions
	}
	fmt.Fprintf(w, "  %-12s %-30s %d/%d", c.Badge.Label, c.Title, sessions, c.RequiredSessions)
	if len(c.Eligibility.MissingConditions) > 0 && c.ViewStatus != "locked" {
		fmt.Fprintf(w, "  %v", c.Eligibility.MissingConditions)
	}
	fmt.Fprintln(w)
}
