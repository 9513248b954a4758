package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// S3Store implements a blob store using Amazon S3 or compatible services.
// Escrowed payloads are private objects; no public ACL is ever applied.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates a new S3 blob store. Credentials are required since the
// escrow service both writes ciphertext at send time and overwrites it with
// plaintext after reconstruction.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		// Compatible services (MinIO and friends) need path-style addressing.
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Warn("No S3 credentials provided - operations will rely on the ambient AWS credential chain")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves the blob for a message from S3.
// Returns ErrBlobNotFound if the object doesn't exist.
func (b *S3Store) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	start := time.Now()
	key := b.getObjectKey(id)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			b.log.Debug("Blob not found in S3",
				slog.String("message_id", id.String()),
				slog.String("bucket", b.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrBlobNotFound
		}

		b.log.Error("Failed to get object from S3",
			slog.String("message_id", id.String()),
			slog.String("bucket", b.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Fetched blob from S3",
		slog.String("message_id", id.String()),
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes or overwrites the blob for a message in S3.
func (b *S3Store) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	key := b.getObjectKey(id)

	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	b.log.Debug("Stored blob in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.String("messageID", id.String()))

	return nil
}

// Available checks if the S3 store is accessible by attempting to head the bucket.
func (b *S3Store) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 store unavailable",
			slog.String("bucket", b.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (b *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this store.
func (b *S3Store) LocationURI() string {
	return b.locationURI
}

func (b *S3Store) getObjectKey(id interfaces.MessageID) string {
	if b.prefix == "" {
		return id.String()
	}
	return path.Join(b.prefix, id.String())
}
