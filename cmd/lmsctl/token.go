package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lms-progress/pkg/jwt"
)

var (
	flagTokenUser string
	flagTokenRole string
)

// tokenCmd 签发本地调试用的 Access Token；生产环境由认证服务签发
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发调试用 Access Token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagTokenRole != jwt.RoleAdmin && flagTokenRole != jwt.RoleStudent {
			return fmt.Errorf("role 只能是 %s 或 %s", jwt.RoleAdmin, jwt.RoleStudent)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(flagTokenUser, flagTokenRole)
		if err != nil {
			return fmt.Errorf("签发 Token 失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenUser, "user", "", "用户 ID")
	tokenCmd.Flags().StringVar(&flagTokenRole, "role", jwt.RoleStudent, "角色（admin | student）")
	_ = tokenCmd.MarkFlagRequired("user")
}
