package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSStorage 腾讯云COS存储
type COSStorage struct {
	client    *cos.Client
	bucketURL string
}

// NewCOSStorage 创建COS存储
func NewCOSStorage(bucketURL, secretID, secretKey string) (*COSStorage, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("解析COS URL失败: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})
	return &COSStorage{client: client, bucketURL: strings.TrimRight(bucketURL, "/")}, nil
}

// Put 上传对象
func (s *COSStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	if _, err := s.client.Object.Put(ctx, key, bytes.NewReader(data), opt); err != nil {
		return "", fmt.Errorf("上传到腾讯云失败: %w", err)
	}
	return s.bucketURL + "/" + key, nil
}

// Delete 删除对象
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("删除腾讯云对象失败: %w", err)
	}
	return nil
}
