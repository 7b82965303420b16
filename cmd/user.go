package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "账号管理",
}

var newUser struct {
	username string
	email    string
	password string
	role     string
}

// 示例：./gram-api user create --username alice --email alice@example.com --role admin
var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "创建账号，未提供--password时从终端读取",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUser.role != model.RoleUser && newUser.role != model.RoleAdmin {
			return fmt.Errorf("无效的角色: %s", newUser.role)
		}
		if err := prepare(cmd.Context()); err != nil {
			return err
		}

		password, confirm := newUser.password, newUser.password
		if password == "" {
			var err error
			if password, err = promptPassword(cmd.ErrOrStderr(), "密码: "); err != nil {
				return err
			}
			if confirm, err = promptPassword(cmd.ErrOrStderr(), "确认密码: "); err != nil {
				return err
			}
		}

		email := strings.TrimSpace(newUser.email)
		req := &dto.RegisterRequest{
			Username:  strings.TrimSpace(newUser.username),
			Email:     email,
			Email2:    email,
			Password:  password,
			Password2: confirm,
		}
		if err := utils.Validate(req); err != nil {
			return fmt.Errorf("参数错误: %s", utils.FormatValidationError(err))
		}

		resp, err := service.NewUserService().Register(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("创建账号失败: %s", apperr.Message(err))
		}
		if newUser.role == model.RoleAdmin {
			if err := database.GetDB().Model(&model.User{}).Where("id = ?", resp.User.ID).
				Update("role", model.RoleAdmin).Error; err != nil {
				return fmt.Errorf("设置角色失败: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "已创建账号 #%d %s (%s)\n", resp.User.ID, resp.User.Username, newUser.role)
		return nil
	},
}

var listUsersLimit int

// 示例：./gram-api user list --limit 20
var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "列出最近注册的账号",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeBase(); err != nil {
			return err
		}

		var users []model.User
		if err := database.GetDB().WithContext(cmd.Context()).
			Select("id, username, email, role, created_at, last_login_at").
			Order(model.NewestFirst).
			Limit(listUsersLimit).
			Find(&users).Error; err != nil {
			return fmt.Errorf("查询账号失败: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\t用户名\t邮箱\t角色\t注册时间\t最后登录")
		for _, u := range users {
			lastLogin := "-"
			if u.LastLoginAt != nil {
				lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"), lastLogin)
		}
		return w.Flush()
	},
}

func init() {
	flags := createUserCmd.Flags()
	flags.StringVar(&newUser.username, "username", "", "用户名")
	flags.StringVar(&newUser.email, "email", "", "邮箱")
	flags.StringVar(&newUser.password, "password", "", "密码")
	flags.StringVar(&newUser.role, "role", model.RoleUser, "角色 user 或 admin")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")

	listUsersCmd.Flags().IntVar(&listUsersLimit, "limit", 50, "最多显示的数量")

	userCmd.AddCommand(createUserCmd, listUsersCmd)
	rootCmd.AddCommand(userCmd)
}

// promptPassword 关闭回显读取一行密码
func promptPassword(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(raw), nil
}
