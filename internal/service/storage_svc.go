package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"woosync_v1_202608/internal/config"
)

// ==================== 服务 ====================

// StorageService 存储快照异地备份（S3 兼容存储：S3/R2/COS）
type StorageService struct {
	client   *s3.Client
	bucket   string
	basePath string
}

// NewStorageService 创建存储服务，静态凭证 + 可选自定义端点
func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage.bucket 未配置")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("初始化存储客户端失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // R2/COS 等兼容服务要求 path-style
		}
	})

	return &StorageService{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

// UploadFile 上传本地文件，返回对象 key
func (s *StorageService) UploadFile(ctx context.Context, localPath, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("读取备份文件失败: %w", err)
	}

	objectKey := key
	if s.basePath != "" {
		objectKey = path.Join(s.basePath, key)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("上传快照失败: %w", err)
	}
	return objectKey, nil
}

// Delete 删除对象
func (s *StorageService) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("删除快照失败: %w", err)
	}
	return nil
}
