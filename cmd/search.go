package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "搜索索引管理",
}

// 示例：./gram-api search reindex
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "把数据库中的用户资料全量写入Elasticsearch",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prepare(cmd.Context()); err != nil {
			return err
		}

		search := service.NewSearchService()
		if !search.Enabled() {
			return errors.New("Elasticsearch未启用")
		}

		start := time.Now()
		n, err := search.Reindex(cmd.Context())
		if err != nil {
			return fmt.Errorf("重建索引失败，已写入 %d 个文档: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "重建完成: %d 个文档，耗时 %s\n", n, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	searchCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(searchCmd)
}
