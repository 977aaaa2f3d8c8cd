package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// S3Config configures s3:// destinations. Empty keys fall back to the
// default AWS credential chain.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool

	// HTTPClient replaces the SDK transport when set.
	HTTPClient *http.Client
}

// SplitS3 splits s3://bucket/key. ok is false for anything else.
func SplitS3(dest string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(dest, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	return bucket, key, true
}

// Save writes data to dest: an s3://bucket/key object or a local file.
// Local files are replaced atomically.
func Save(ctx context.Context, dest string, data []byte, cfg S3Config) error {
	bucket, key, isS3 := SplitS3(dest)
	if !isS3 {
		return writeFile(dest, data)
	}
	if bucket == "" || key == "" {
		return fmt.Errorf("%q needs both a bucket and a key", dest)
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}
	log.Printf("uploading schedule to %s", dest)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", dest, err)
	}
	return nil
}

// Load reads src, an s3://bucket/key object or a local file.
func Load(ctx context.Context, src string, cfg S3Config) ([]byte, error) {
	bucket, key, isS3 := SplitS3(src)
	if !isS3 {
		return os.ReadFile(src)
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", src, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func writeFile(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	}), nil
}
