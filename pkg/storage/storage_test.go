package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestS3ArchiveStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20241115_103000_bill.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	putter := &fakePutter{}
	url, err := NewS3Archive(putter, "claim-docs").Store(context.Background(), "CLM_1", "medical_bill", path)
	require.NoError(t, err)

	assert.Equal(t, "s3://claim-docs/claims/CLM_1/medical_bill/20241115_103000_bill.pdf", url)
	assert.Equal(t, "claim-docs", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "CLM_1", putter.input.Metadata["claim-id"])
	assert.Equal(t, []byte("%PDF-1.4"), putter.body)
}

func TestS3ArchiveErrors(t *testing.T) {
	archive := NewS3Archive(&fakePutter{err: errors.New("access denied")}, "claim-docs")

	_, err := archive.Store(context.Background(), "CLM_1", "prescription", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rx.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rx"), 0o600))
	_, err = archive.Store(context.Background(), "CLM_1", "prescription", path)
	assert.ErrorContains(t, err, "access denied")
}

type fakeSender struct {
	input *sqs.SendMessageInput
}

func (f *fakeSender) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSReviewQueueEnqueue(t *testing.T) {
	sender := &fakeSender{}
	q := NewSQSReviewQueue(sender, "https://sqs.local/000000000000/claims-review")
	q.now = func() time.Time { return time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC) }

	err := q.Enqueue(context.Background(), ReviewTicket{ClaimID: "CLM_9", TotalClaimed: 30000, Reason: "High-value claim"})
	require.NoError(t, err)

	assert.Equal(t, "https://sqs.local/000000000000/claims-review", aws.ToString(sender.input.QueueUrl))
	var got ReviewTicket
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(sender.input.MessageBody)), &got))
	assert.Equal(t, "CLM_9", got.ClaimID)
	assert.Equal(t, "2024-11-15T10:00:00Z", got.QueuedAt)
	assert.Equal(t, "CLM_9", aws.ToString(sender.input.MessageAttributes["claim_id"].StringValue))
}

func TestNoops(t *testing.T) {
	url, err := NoopArchive{}.Store(context.Background(), "CLM", "prescription", "x")
	assert.NoError(t, err)
	assert.Empty(t, url)
	assert.NoError(t, NoopReviewQueue{}.Enqueue(context.Background(), ReviewTicket{}))
}
