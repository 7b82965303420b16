package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nsxzhou1114/gram-api/internal/config"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
	"github.com/nsxzhou1114/gram-api/pkg/utils"
)

// Storage 媒体存储接口
type Storage interface {
	// Put 写入对象并返回访问URL，同名对象被覆盖
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete 删除对象
	Delete(ctx context.Context, key string) error
}

// File 上传的文件
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext 文件扩展名，小写且不含点
func (f *File) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// New 根据配置创建存储
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.Local.Path, cfg.Local.URLPrefix), nil
	case "cos":
		return NewCOSStorage(cfg.COS.BucketURL, cfg.COS.SecretID, cfg.COS.SecretKey)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}
}

var (
	defaultStorage Storage
	defaultMutex   sync.RWMutex
)

// SetDefault 设置全局存储
func SetDefault(s Storage) {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()
	defaultStorage = s
}

// Default 获取全局存储，未设置时为nil
func Default() Storage {
	defaultMutex.RLock()
	defer defaultMutex.RUnlock()
	return defaultStorage
}

// ReadImage 读取并校验上传的图片
func ReadImage(cfg *config.StorageConfig, header *multipart.FileHeader) (*File, error) {
	if header == nil {
		return nil, apperr.Validation("请上传图片")
	}
	if cfg.MaxFileSize > 0 && header.Size > cfg.MaxFileSize {
		return nil, apperr.Validation(fmt.Sprintf("文件大小超过限制，最大允许 %d MB", cfg.MaxFileSize/(1024*1024)))
	}

	contentType := header.Header.Get("Content-Type")
	if len(cfg.AllowedTypes) > 0 && !contains(cfg.AllowedTypes, contentType) {
		return nil, apperr.Validation(fmt.Sprintf("不支持的文件类型: %s", contentType))
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("读取文件数据失败: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, apperr.Validation("文件不是有效的图片")
	}

	return &File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// ItemImageKey 作品图片对象名 users/{owner}/{id}.{ext}
func ItemImageKey(ownerID uint, file *File) (string, error) {
	id, err := utils.GenerateIDString()
	if err != nil {
		return "", err
	}
	name := id
	if ext := file.Ext(); ext != "" {
		name += "." + ext
	}
	return fmt.Sprintf("users/%d/%s", ownerID, name), nil
}

// ProfilePhotoKey 头像对象名 users/{owner}/profile.{ext}
func ProfilePhotoKey(ownerID uint, file *File) string {
	ext := file.Ext()
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("users/%d/profile.%s", ownerID, ext)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
