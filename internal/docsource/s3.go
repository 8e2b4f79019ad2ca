package docsource

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"groundwork/internal/extract"
)

// S3Config carries the object storage connection settings.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Source lists documents from an S3-compatible bucket. Objects are
// keyed uploads/<orgID>/<filename>.
type S3Source struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Source(cfg S3Config) (*S3Source, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Source{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Source) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func objectKey(orgID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", orgID, filename)
}

// Put stores one uploaded document.
func (s *S3Source) Put(ctx context.Context, orgID string, doc extract.Document) error {
	orgID = strings.TrimSpace(orgID)
	name := strings.TrimSpace(doc.Filename)
	if orgID == "" {
		return fmt.Errorf("organization id is required")
	}
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	mt := doc.MimeType
	if mt == "" {
		mt = detectMime(name)
	}
	content := strings.NewReader(doc.Content)
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey(orgID, name), content, int64(len(doc.Content)), minio.PutObjectOptions{
		ContentType: mt,
	})
	return err
}

// Load fetches every usable document under the organization's prefix,
// sorted by filename so the corpus order is stable.
func (s *S3Source) Load(ctx context.Context, orgID string) ([]extract.Document, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, fmt.Errorf("organization id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := fmt.Sprintf("uploads/%s/", orgID)
	var out []extract.Document
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		mt := obj.ContentType
		if mt == "" {
			mt = detectMime(name)
		}
		if !usable(mt) {
			continue
		}
		doc, err := s.get(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, extract.Document{Filename: name, Content: doc, MimeType: mt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (s *S3Source) get(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
