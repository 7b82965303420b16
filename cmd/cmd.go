package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/messaging"
	"github.com/nsxzhou1114/gram-api/internal/middleware"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"github.com/nsxzhou1114/gram-api/internal/router"
	"github.com/nsxzhou1114/gram-api/internal/service"
	"github.com/nsxzhou1114/gram-api/internal/task"
	"github.com/nsxzhou1114/gram-api/pkg/auth"
	"github.com/nsxzhou1114/gram-api/pkg/cache"
	"github.com/nsxzhou1114/gram-api/pkg/storage"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
	"github.com/nsxzhou1114/gram-api/pkg/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:           "gram-api",
	Short:         "图片社交API服务",
	Long:          `图片社交后端：账号与关注关系、作品与评论、点赞收藏、通知推送以及首页信息流`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件目录")
	rootCmd.AddCommand(serveCmd)
}

// Execute 命令行入口
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// step 启动时按顺序执行的初始化步骤
type step struct {
	name string
	run  func(ctx context.Context, cfg *config.Config) error
}

// runSteps 依次执行初始化步骤，任一失败即停止
func runSteps(ctx context.Context, cfg *config.Config, steps []step) error {
	for _, s := range steps {
		if err := s.run(ctx, cfg); err != nil {
			return fmt.Errorf("%s失败: %w", s.name, err)
		}
	}
	return nil
}

// initializeBase 加载配置与日志并迁移表结构，命令行工具只需要这一步
func initializeBase() error {
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := logger.Init(); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db := database.GetDB()
	if db == nil {
		return errors.New("数据库连接失败")
	}
	if err := model.InitTables(db); err != nil {
		return fmt.Errorf("迁移数据表失败: %w", err)
	}
	return nil
}

// serverSteps HTTP服务额外依赖的组件
var serverSteps = []step{
	{"初始化ID生成器", func(_ context.Context, cfg *config.Config) error {
		return utils.InitSnowflake(cfg.Snowflake.StartTime, cfg.Snowflake.MachineID)
	}},
	{"初始化缓存", func(ctx context.Context, cfg *config.Config) error {
		client := database.GetRedis()
		if cfg.JWT.Blacklist == "redis" {
			auth.SetBlacklist(auth.NewRedisBlacklist(client))
		}
		websocket.GetManager().Initialize(websocket.NewRedisMessageStore(client))
		return cache.GetManager().Initialize(ctx, client, database.GetDB())
	}},
	{"初始化媒体存储", func(_ context.Context, cfg *config.Config) error {
		store, err := storage.New(&cfg.Storage)
		if err != nil {
			return err
		}
		storage.SetDefault(store)
		return nil
	}},
	{"初始化搜索索引", func(ctx context.Context, cfg *config.Config) error {
		es := database.GetES()
		if es == nil {
			return nil
		}
		return model.InitESIndices(ctx, es, model.NewESProfile(cfg.Elasticsearch.ProfileIndex))
	}},
	{"连接消息总线", func(_ context.Context, cfg *config.Config) error {
		messaging.SetPublisher(messaging.NewPublisher(&cfg.Nats))
		return nil
	}},
}

// prepare 初始化基础组件与服务依赖，供需要完整业务逻辑的子命令使用
func prepare(ctx context.Context) error {
	if err := initializeBase(); err != nil {
		return err
	}
	return runSteps(ctx, config.GlobalConfig, serverSteps)
}

// serve 启动HTTP服务，收到退出信号后依次关闭定时任务、推送连接与HTTP服务
func serve(ctx context.Context) error {
	if err := prepare(ctx); err != nil {
		return err
	}
	cfg := config.GlobalConfig
	defer logger.Sync()
	defer messaging.GetPublisher().Close()
	defer func() {
		if err := cache.GetManager().Close(); err != nil {
			logger.Warn("关闭缓存失败", zap.Error(err))
		}
	}()

	config.WatchConfig(func(c *config.Config) {
		logger.SetLevel(c.Log.Level)
	})

	scheduler, err := task.Start(&cfg.Cron, cache.GetManager().SaveBloomFilters, scheduledReindex)
	if err != nil {
		return fmt.Errorf("启动定时任务失败: %w", err)
	}

	gin.SetMode(cfg.App.Mode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           newEngine(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	case <-ctx.Done():
	}
	logger.Info("收到退出信号，开始关闭")

	if scheduler != nil {
		scheduler.Stop()
	}
	websocket.GetManager().Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", err)
	}
	logger.Info("服务已关闭")
	return nil
}

// scheduledReindex 定时重建用户搜索索引
func scheduledReindex(ctx context.Context) error {
	search := service.NewSearchService()
	if !search.Enabled() {
		return nil
	}
	_, err := search.Reindex(ctx)
	return err
}

// newEngine 组装中间件与路由
func newEngine(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(), middleware.Cors(cfg.App.Cors))
	router.Setup(r)
	return r
}
