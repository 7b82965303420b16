package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// ESModel 定义支持Elasticsearch操作的模型接口
type ESModel interface {
	ESIndexName() string
	ESMapping() string
}

// Models 需要自动迁移的模型列表
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&UserFollow{},
		&FollowRequest{},
		&Item{},
		&Hashtag{},
		&ItemHashtag{},
		&ItemTag{},
		&ItemLike{},
		&ItemFavourite{},
		&Comment{},
		&CommentLike{},
		&Notification{},
	}
}

// InitTables 初始化数据库表
func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("自动迁移数据库表失败: %w", err)
	}
	return nil
}

// InitESIndices 初始化Elasticsearch索引，已存在的索引跳过
func InitESIndices(ctx context.Context, client *elasticsearch.Client, esModels ...ESModel) error {
	for _, m := range esModels {
		indexName := m.ESIndexName()

		resp, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("检查索引 %s 是否存在时出错: %w", indexName, err)
		}
		resp.Body.Close()
		if resp.StatusCode != 404 {
			continue
		}

		createResp, err := client.Indices.Create(
			indexName,
			client.Indices.Create.WithContext(ctx),
			client.Indices.Create.WithBody(strings.NewReader(m.ESMapping())),
		)
		if err != nil {
			return fmt.Errorf("创建索引 %s 失败: %w", indexName, err)
		}
		if createResp.IsError() {
			msg := createResp.String()
			createResp.Body.Close()
			return fmt.Errorf("创建索引 %s 返回错误: %s", indexName, msg)
		}
		createResp.Body.Close()
	}
	return nil
}
