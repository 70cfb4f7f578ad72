package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Opts struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // 对外可访问的基础地址，如 https://cdn.example.com
}

// Minio 头像等静态文件的对象存储
type Minio struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinio(ctx context.Context, o Opts) (*Minio, error) {
	cli, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	public := strings.TrimRight(o.PublicURL, "/")
	if public == "" {
		scheme := "http"
		if o.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + o.Endpoint
	}
	return &Minio{client: cli, bucket: o.Bucket, publicURL: public}, nil
}

// Upload 按 <时间戳>-<原文件名> 落 key，返回公开访问 URL
func (m *Minio) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filename)
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return m.publicURL + "/" + m.bucket + "/" + url.PathEscape(key), nil
}

// Remove 按 Upload 返回的 URL 删对象；不是本存储签发的 URL（比如 Google 头像）直接跳过
func (m *Minio) Remove(ctx context.Context, rawURL string) error {
	prefix := m.publicURL + "/" + m.bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return nil
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil {
		return fmt.Errorf("unescape key: %w", err)
	}
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}
