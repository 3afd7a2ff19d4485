package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lms-progress/internal/repository"
	"lms-progress/internal/service"
)

var flagAdminID string

var bulkPassCmd = &cobra.Command{
	Use:   "bulk-pass <progress-id>...",
	Short: "批量审核通过进度记录（同步执行）",
	Long: `批量审核通过指定的进度记录并打印进度。

逐条执行审核通过，单条失败不影响其他记录；Ctrl-C 取消尚未开始的记录。`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBulkPass,
}

func init() {
	bulkPassCmd.Flags().StringVar(&flagAdminID, "admin", "", "执行审核的管理员 ID")
	_ = bulkPassCmd.MarkFlagRequired("admin")
}

func runBulkPass(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	repo := repository.NewRepository(e.db)
	approval := service.NewApprovalService(repo, e.logger)
	bulk := service.NewBulkPassService(approval, service.NewMemoryJobTracker(e.cfg.Progress.BulkJobTTL), &e.cfg.Progress, e.logger)

	out := cmd.OutOrStdout()
	result, err := bulk.BulkPass(getContext(), args, flagAdminID, func(current, total int) {
		fmt.Fprintf(out, "\r处理中 %d/%d", current, total)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "总数: %d  成功: %d  失败: %d\n", result.Total, result.SuccessCount, result.FailureCount)
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  %s  %s  %s\n", f.ProgressID, f.Reason, f.Detail)
	}
	if result.FailureCount > 0 {
		return fmt.Errorf("%d 条记录处理失败", result.FailureCount)
	}
	return nil
}
