package adapters

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveStoreConfig configures an ArchiveStore.
type ArchiveStoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint, for MinIO/LocalStack
	Prefix   string // optional key prefix, e.g. "ledgerly/"
}

// ArchiveStore is a content-addressed S3 sink for raw statement bytes and
// event-log export snapshots, keyed by their SHA-256 hash so repeated
// archival of identical bytes is a no-op.
type ArchiveStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArchiveStore creates an S3-backed ArchiveStore.
func NewArchiveStore(ctx context.Context, cfg ArchiveStoreConfig) (*ArchiveStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("adapters: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ArchiveStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Archive uploads data under its content hash and returns "sha256:<hex>".
// A prior upload of the same bytes is detected via HeadObject and treated
// as success, not re-uploaded.
func (a *ArchiveStore) Archive(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	key := a.keyFor(digest)

	if _, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(a.bucket), Key: aws.String(key)}); err == nil {
		return "sha256:" + digest, nil
	}

	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	}); err != nil {
		return "", fmt.Errorf("adapters: s3 put: %w", err)
	}

	return "sha256:" + digest, nil
}

// Fetch retrieves previously archived bytes by their "sha256:<hex>" key.
func (a *ArchiveStore) Fetch(ctx context.Context, hash string) ([]byte, error) {
	digest, err := stripHashPrefix(hash)
	if err != nil {
		return nil, err
	}

	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(a.bucket), Key: aws.String(a.keyFor(digest))})
	if err != nil {
		return nil, fmt.Errorf("adapters: s3 get %s: %w", hash, err)
	}
	defer func() { _ = result.Body.Close() }()

	return io.ReadAll(result.Body)
}

func (a *ArchiveStore) keyFor(digest string) string {
	return a.prefix + digest + ".blob"
}

func stripHashPrefix(hash string) (string, error) {
	const prefix = "sha256:"
	if len(hash) <= len(prefix) || hash[:len(prefix)] != prefix {
		return "", fmt.Errorf("adapters: invalid hash format %q", hash)
	}
	return hash[len(prefix):], nil
}
