package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	netUrl "net/url"
	"os"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal"
	"github.com/bkolar18/wedding-scraper/internal/model"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	crd "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	jsoniter "github.com/json-iterator/go"
)

// BucketClient archives assembled bundles so downstream consumers can fetch
// the full payload by key instead of carrying it through kafka.
type BucketClient interface {
	WriteBundle(bundle *model.RawScrapeBundle) (string, error)
}

type S3BucketClient struct {
	client *s3.Client
	cfg    *config.Config
}

func NewS3BucketClient(cfg *config.Config) *S3BucketClient {
	slog.Info("connecting to s3...")

	c, err := connect(cfg)
	if err != nil {
		slog.Error("failed to connect to s3.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	return &S3BucketClient{
		client: c,
		cfg:    cfg,
	}
}

func (bc *S3BucketClient) WriteBundle(bundle *model.RawScrapeBundle) (string, error) {
	u, err := netUrl.Parse(bundle.URL)
	if err != nil {
		slog.Error("failed to parse url.", slog.String("url", bundle.URL), slog.String("err", err.Error()))
		return "", err
	}
	s3Key := fmt.Sprintf("%s/%s/%s/%s", bc.cfg.S3Settings.KeyPrefix, u.Host, internal.HashURL(bundle.URL),
		"bundle.json")
	body, err := jsoniter.Marshal(bundle)
	if err != nil {
		slog.Error("marshaling failed.", slog.String("err", err.Error()))
		return "", err
	}

	_, err = bc.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: &bc.cfg.S3Settings.BucketName,
		Key:    &s3Key,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		slog.Error("failed to save bundle to s3.", slog.String("err", err.Error()))
		return "", err
	}
	slog.Debug("bundle saved to s3.")

	return s3Key, nil
}

func connect(cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsCfg.LoadDefaultConfig(context.Background(), awsCfg.WithRegion(cfg.S3Settings.Region))
	if err != nil {
		slog.Error("failed to load s3 config.", slog.String("err", err.Error()))
		return nil, err
	}

	if cfg.Env == "local" {
		s3Config.BaseEndpoint = &cfg.S3Settings.AwsBaseEndpoint // for LocalStack
		s3Config.Credentials = crd.NewStaticCredentialsProvider("test", "test", "")
		// LocalStack does not support `virtual host addressing style` that uses s3 by default.
		// For test purposes use configuration with disabled 'virtual hosted bucket addressing'.
		// Set 'local' Env variable to use this configuration.
		slog.Warn("test configuration for S3")
		return s3.NewFromConfig(s3Config, func(o *s3.Options) {
			o.UsePathStyle = true
		}), nil
	}

	return s3.NewFromConfig(s3Config), nil
}
