package service

import (
	"bufio"
	"encoding/base64"
	"os"
	"strings"
	"sync"

	"github.com/importcjj/sensitive"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/internal/logger"
	"go.uber.org/zap"
)

var (
	textFilter     *TextFilter
	textFilterOnce sync.Once
)

// TextFilter 用户文本过滤，先清理HTML再屏蔽敏感词
type TextFilter struct {
	policy *bluemonday.Policy
	filter *sensitive.Filter
	words  int
	logger *zap.SugaredLogger
}

// NewTextFilter 创建文本过滤实例
func NewTextFilter() *TextFilter {
	textFilterOnce.Do(func() {
		textFilter = newTextFilter(logger.GetSugaredLogger())
		if cfg := config.GetConfig(); cfg != nil && cfg.App.SensitiveWordsFile != "" {
			if err := textFilter.loadWordsFromFile(cfg.App.SensitiveWordsFile); err != nil {
				textFilter.logger.Errorf("加载敏感词失败: %v", err)
			}
		}
	})
	return textFilter
}

func newTextFilter(log *zap.SugaredLogger, words ...string) *TextFilter {
	f := &TextFilter{
		policy: bluemonday.StrictPolicy(),
		filter: sensitive.New(),
		logger: log,
	}
	f.AddWords(words...)
	return f
}

// loadWordsFromFile 从文件加载敏感词，每行一个Base64编码的词
func (f *TextFilter) loadWordsFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			f.logger.Warnf("Base64解码敏感词失败: %v, 原文: %s", err, line)
			continue
		}
		words = append(words, string(decoded))
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	f.AddWords(words...)
	f.logger.Infof("已加载 %d 个敏感词", f.words)
	return nil
}

// AddWords 添加敏感词
func (f *TextFilter) AddWords(words ...string) {
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		f.filter.AddWord(w)
		f.words++
	}
}

// Clean 去除HTML标签并将敏感词替换为*
func (f *TextFilter) Clean(text string) string {
	cleaned := strings.TrimSpace(f.policy.Sanitize(text))
	if f.words == 0 || cleaned == "" {
		return cleaned
	}
	return f.filter.Replace(cleaned, '*')
}

// ContainsSensitiveWord 检测文本是否包含敏感词
func (f *TextFilter) ContainsSensitiveWord(text string) bool {
	if f.words == 0 {
		return false
	}
	ok, _ := f.filter.FindIn(text)
	return ok
}
