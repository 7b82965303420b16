package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"go.uber.org/zap"
)

var (
	// ES 用户搜索使用的客户端，未启用或不可用时为nil
	ES    *elasticsearch.Client
	esOne sync.Once
)

// InitElasticsearch 创建客户端并检查集群信息
func InitElasticsearch(cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.URLs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("创建elasticsearch客户端失败: %w", err)
	}

	err = ping(context.Background(), "elasticsearch", func(ctx context.Context) error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("集群返回 %s", res.Status())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %w", err)
	}

	logger.Info("elasticsearch连接成功", zap.Strings("addresses", cfg.URLs))
	return client, nil
}

// GetES 获取客户端，返回nil时用户搜索使用数据库前缀查询
func GetES() *elasticsearch.Client {
	esOne.Do(func() {
		cfg := config.GlobalConfig.Elasticsearch
		if !cfg.Enabled {
			return
		}
		client, err := InitElasticsearch(&cfg)
		if err != nil {
			logger.Warn("elasticsearch不可用，使用数据库搜索", zap.Error(err))
			return
		}
		ES = client
	})
	return ES
}
