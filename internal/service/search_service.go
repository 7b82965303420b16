package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/database"
	"github.com/nsxzhou1114/gram-api/internal/dto"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"github.com/nsxzhou1114/gram-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	searchResultLimit = 20
	reindexBatchSize  = 500
)

var (
	searchService     *SearchService
	searchServiceOnce sync.Once
)

// SearchService 用户搜索，启用Elasticsearch时走索引，否则按用户名前缀查询数据库
type SearchService struct {
	db       *gorm.DB
	logger   *zap.SugaredLogger
	esClient *elasticsearch.Client
	index    string
}

// NewSearchService 创建搜索服务实例
func NewSearchService() *SearchService {
	searchServiceOnce.Do(func() {
		index := ""
		if cfg := config.GetConfig(); cfg != nil {
			index = cfg.Elasticsearch.ProfileIndex
		}
		searchService = &SearchService{
			db:       database.GetDB(),
			logger:   logger.GetSugaredLogger(),
			esClient: database.GetES(),
			index:    model.NewESProfile(index).ESIndexName(),
		}
	})
	return searchService
}

// Enabled 是否启用了Elasticsearch
func (s *SearchService) Enabled() bool {
	return s.esClient != nil
}

func toESProfile(u *model.User) model.ESProfile {
	doc := model.ESProfile{ID: u.ID, Username: u.Username, Photo: model.DefaultPhoto, CreatedAt: u.CreatedAt}
	if u.Profile != nil {
		doc.Photo = u.Profile.Photo
		doc.Bio = u.Profile.Bio
	}
	return doc
}

// IndexProfile 写入或覆盖用户文档，需预加载Profile
func (s *SearchService) IndexProfile(ctx context.Context, u *model.User) error {
	if s.esClient == nil {
		return nil
	}
	doc := toESProfile(u)
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化用户文档失败: %w", err)
	}

	res, err := s.esClient.Index(
		s.index,
		bytes.NewReader(body),
		s.esClient.Index.WithContext(ctx),
		s.esClient.Index.WithDocumentID(doc.DocumentID()),
	)
	if err != nil {
		return fmt.Errorf("索引用户失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ES索引错误: %s", res.String())
	}
	return nil
}

// searchResponse ES搜索结果中用到的部分
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source model.ESProfile `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProfiles 按用户名前缀搜索用户，结果按用户名排序
func (s *SearchService) SearchProfiles(ctx context.Context, q string) ([]dto.UserBrief, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []dto.UserBrief{}, nil
	}

	if s.esClient != nil {
		ids, err := s.searchES(ctx, q)
		if err == nil {
			return s.loadBriefs(ctx, ids)
		}
		s.logger.Warnf("ES搜索失败，使用数据库查询: %v", err)
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Preload("Profile").
		Where("LOWER(username) LIKE ? ESCAPE '!'", escapeLike(strings.ToLower(q))+"%").
		Order("username ASC").Limit(searchResultLimit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("搜索用户失败: %w", err)
	}
	return toUserBriefs(users), nil
}

func (s *SearchService) searchES(ctx context.Context, q string) ([]uint, error) {
	query := map[string]interface{}{
		"size": searchResultLimit,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"username": map[string]interface{}{"query": strings.ToLower(q)},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"username.raw": "asc"},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.index),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("ES搜索错误: %s", res.String())
	}

	var result searchResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

// loadBriefs 按ids顺序加载用户摘要
func (s *SearchService) loadBriefs(ctx context.Context, ids []uint) ([]dto.UserBrief, error) {
	if len(ids) == 0 {
		return []dto.UserBrief{}, nil
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Preload("Profile").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	byID := make(map[uint]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	briefs := make([]dto.UserBrief, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			briefs = append(briefs, toUserBrief(u))
		}
	}
	return briefs, nil
}

// Reindex 全量重建用户索引，返回写入的文档数
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.esClient == nil {
		return 0, nil
	}

	indexed := 0
	var users []model.User
	result := s.db.WithContext(ctx).Preload("Profile").FindInBatches(&users, reindexBatchSize, func(tx *gorm.DB, batch int) error {
		var buf bytes.Buffer
		for i := range users {
			doc := toESProfile(&users[i])
			meta := map[string]interface{}{
				"index": map[string]interface{}{"_index": s.index, "_id": doc.DocumentID()},
			}
			if err := json.NewEncoder(&buf).Encode(meta); err != nil {
				return err
			}
			if err := json.NewEncoder(&buf).Encode(doc); err != nil {
				return err
			}
		}

		res, err := s.esClient.Bulk(&buf, s.esClient.Bulk.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("批量索引第%d批失败: %w", batch, err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("批量索引第%d批返回错误: %s", batch, res.String())
		}
		indexed += len(users)
		return nil
	})
	if result.Error != nil {
		return indexed, result.Error
	}

	s.logger.Infof("用户索引重建完成，共 %d 个文档", indexed)
	return indexed, nil
}

// escapeLike 使用!转义LIKE通配符
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
