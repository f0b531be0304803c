package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/claimwise/platform/pkg/common/logger"
)

// ObjectPutter is the part of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive keeps a copy of every uploaded claim document.
type S3Archive struct {
	client ObjectPutter
	bucket string
}

func NewS3Archive(client ObjectPutter, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

// ObjectKey is claims/<claim id>/<document type>/<file name>.
func ObjectKey(claimID, docType, file string) string {
	return path.Join("claims", claimID, docType, filepath.Base(file))
}

// Store uploads the file at localPath and returns its s3:// URL.
func (a *S3Archive) Store(ctx context.Context, claimID, docType, localPath string) (string, error) {
	f, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	key := ObjectKey(claimID, docType, localPath)
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
		Metadata: map[string]string{
			"claim-id":      claimID,
			"document-type": docType,
		},
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s: %w", key, a.bucket, err)
	}

	url := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	logger.Log.WithFields(map[string]interface{}{
		"claim_id":      claimID,
		"document_type": docType,
		"url":           url,
	}).Debug("Archived claim document")
	return url, nil
}

// NoopArchive is used when no bucket is configured. It stores nothing and
// returns an empty URL.
type NoopArchive struct{}

func (NoopArchive) Store(context.Context, string, string, string) (string, error) {
	return "", nil
}
