package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地磁盘存储
type LocalStorage struct {
	root      string
	urlPrefix string
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(root, urlPrefix string) *LocalStorage {
	return &LocalStorage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Root 存储根目录
func (s *LocalStorage) Root() string {
	return s.root
}

// Put 保存文件
func (s *LocalStorage) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	return s.urlPrefix + "/" + key, nil
}

// Delete 删除文件，文件不存在视为成功
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// path 对象名转为磁盘路径，拒绝越界路径
func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("非法的对象名: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}
