package cmd

import (
	"fmt"
	"time"

	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/spf13/cobra"
)

var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库维护",
}

// 示例：./gram-api db migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "按模型定义创建或更新数据表",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeBase(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "迁移完成，共 %d 个模型\n", len(model.Models()))
		return nil
	},
}

// 示例：./gram-api db stats
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "统计账号、作品、评论、关注与通知的数量",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeBase(); err != nil {
			return err
		}
		db := database.GetDB().WithContext(cmd.Context())
		out := cmd.OutOrStdout()

		counters := []struct {
			label string
			model interface{}
			where string
			arg   interface{}
		}{
			{"账号", &model.User{}, "", nil},
			{"私密账号", &model.Profile{}, "private_account = ?", true},
			{"作品", &model.Item{}, "", nil},
			{"话题", &model.Hashtag{}, "", nil},
			{"评论", &model.Comment{}, "", nil},
			{"关注关系", &model.UserFollow{}, "", nil},
			{"待处理关注请求", &model.FollowRequest{}, "status = ?", model.FollowRequestSent},
			{"有效通知", &model.Notification{}, "is_active = ?", true},
		}
		for _, c := range counters {
			var n int64
			query := db.Model(c.model)
			if c.where != "" {
				query = query.Where(c.where, c.arg)
			}
			if err := query.Count(&n).Error; err != nil {
				return fmt.Errorf("统计%s失败: %w", c.label, err)
			}
			fmt.Fprintf(out, "%s: %d\n", c.label, n)
		}

		since := time.Now().Add(-24 * time.Hour)
		var users, items int64
		db.Model(&model.User{}).Where("created_at >= ?", since).Count(&users)
		db.Model(&model.Item{}).Where("created_at >= ?", since).Count(&items)
		fmt.Fprintf(out, "近24小时新增账号 %d，作品 %d\n", users, items)

		if sqlDB, err := database.GetDB().DB(); err == nil {
			s := sqlDB.Stats()
			fmt.Fprintf(out, "连接池: 打开 %d 使用中 %d 空闲 %d\n", s.OpenConnections, s.InUse, s.Idle)
		}
		return nil
	},
}

func init() {
	databaseCmd.AddCommand(migrateCmd, dbStatsCmd)
	rootCmd.AddCommand(databaseCmd)
}
