package model

import (
	"fmt"
	"time"
)

// ESProfile Elasticsearch中的用户资料文档
type ESProfile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Photo     string    `json:"photo"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`

	index string
}

// NewESProfile 使用指定索引名创建文档
func NewESProfile(index string) *ESProfile {
	return &ESProfile{index: index}
}

// ESIndexName 索引名称
func (p *ESProfile) ESIndexName() string {
	if p.index == "" {
		return "gram_profiles"
	}
	return p.index
}

// ESMapping 索引映射，username使用edge_ngram支持前缀搜索
func (p *ESProfile) ESMapping() string {
	return `{
  "settings": {
    "analysis": {
      "analyzer": {
        "username_prefix": {
          "tokenizer": "username_edge",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "username_edge": {
          "type": "edge_ngram",
          "min_gram": 1,
          "max_gram": 50,
          "token_chars": ["letter", "digit", "punctuation", "symbol"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "long"},
      "username": {
        "type": "text",
        "analyzer": "username_prefix",
        "search_analyzer": "keyword",
        "fields": {"raw": {"type": "keyword"}}
      },
      "photo": {"type": "keyword", "index": false},
      "bio": {"type": "text"},
      "created_at": {"type": "date"}
    }
  }
}`
}

// DocumentID 文档ID
func (p *ESProfile) DocumentID() string {
	return fmt.Sprintf("%d", p.ID)
}
