package task

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 秒级表达式示例
//"0 */10 * * * *"   // 每隔10分钟
//"0 0 * * * *"      // 每小时的开始
//"0 0 0 * * *"      // 每天凌晨

// jobTimeout 单次任务的超时时间
const jobTimeout = 5 * time.Minute

// Job 定时任务
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger
}

// NewScheduler 创建调度器并注册任务，表达式为空的任务跳过
func NewScheduler(log *zap.SugaredLogger, jobs ...Job) (*Scheduler, error) {
	timezone, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		timezone = time.Local
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(timezone)),
		logger: log,
	}
	for _, job := range jobs {
		if job.Spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.Spec, s.wrap(job)); err != nil {
			return nil, fmt.Errorf("注册定时任务 %s 失败: %w", job.Name, err)
		}
	}
	return s, nil
}

// wrap 为任务加上超时与日志
func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Errorf("定时任务 %s 执行失败: %v", job.Name, err)
			return
		}
		s.logger.Debugf("定时任务 %s 执行完成，耗时 %s", job.Name, time.Since(start))
	}
}

// Len 已注册的任务数
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Start 按配置启动定时任务，未启用时返回nil
func Start(cfg *config.CronConfig, bloomSave, searchReindex func(ctx context.Context) error) (*Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	s, err := NewScheduler(logger.GetSugaredLogger(),
		Job{Name: "bloom_save", Spec: cfg.BloomSaveSpec, Run: bloomSave},
		Job{Name: "search_reindex", Spec: cfg.SearchReindexSpec, Run: searchReindex},
	)
	if err != nil {
		return nil, err
	}
	s.Start()
	logger.Info("定时任务已启动", zap.Int("jobs", s.Len()))
	return s, nil
}
