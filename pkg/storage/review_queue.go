package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// MessageSender is the part of the SQS client the review queue uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ReviewTicket hands a claim that needs a human decision to the review team.
type ReviewTicket struct {
	ClaimID        string   `json:"claimID"`
	PolicyID       string   `json:"policyID,omitempty"`
	PatientName    string   `json:"patientName,omitempty"`
	TotalClaimed   float64  `json:"totalClaimed"`
	ApprovedAmount float64  `json:"approvedAmount"`
	Confidence     float64  `json:"confidence"`
	FraudScore     float64  `json:"fraudScore"`
	Reason         string   `json:"reason"`
	Indicators     []string `json:"indicators,omitempty"`
	QueuedAt       string   `json:"queuedAt"`
}

type SQSReviewQueue struct {
	client   MessageSender
	queueURL string
	now      func() time.Time
}

func NewSQSReviewQueue(client MessageSender, queueURL string) *SQSReviewQueue {
	return &SQSReviewQueue{client: client, queueURL: queueURL, now: time.Now}
}

// QueueURL resolves a queue name to its URL.
func QueueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	resp, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: &name})
	if err != nil {
		return "", fmt.Errorf("resolving SQS queue %s: %w", name, err)
	}
	return aws.ToString(resp.QueueUrl), nil
}

func (q *SQSReviewQueue) Enqueue(ctx context.Context, ticket ReviewTicket) error {
	if ticket.QueuedAt == "" {
		ticket.QueuedAt = q.now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ticket)
	if err != nil {
		return err
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"claim_id": {DataType: aws.String("String"), StringValue: aws.String(ticket.ClaimID)},
		},
	})
	if err != nil {
		return fmt.Errorf("enqueueing review for %s: %w", ticket.ClaimID, err)
	}
	return nil
}

type NoopReviewQueue struct{}

func (NoopReviewQueue) Enqueue(context.Context, ReviewTicket) error { return nil }
