package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/campusgate/campusgate-api/model"
)

// ReceiptService archives payment receipts in S3-compatible object storage.
// Purely additive to the ledger: the transaction is already committed when a
// receipt is written, and upload failures are logged, not surfaced.
type ReceiptService struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// ReceiptConfig holds object storage configuration
type ReceiptConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// NewReceiptService creates a receipt archival client
func NewReceiptService(config ReceiptConfig) (*ReceiptService, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &ReceiptService{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
	}, nil
}

// NewReceiptServiceFromEnv builds the service from RECEIPT_* environment
// variables, returning nil when storage is not configured.
func NewReceiptServiceFromEnv() (*ReceiptService, error) {
	accessKey := os.Getenv("RECEIPT_STORE_ACCESS_KEY")
	secretKey := os.Getenv("RECEIPT_STORE_SECRET_KEY")
	bucket := os.Getenv("RECEIPT_STORE_BUCKET")
	if accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}

	region := os.Getenv("RECEIPT_STORE_REGION")
	if region == "" {
		region = "us-east-1"
	}

	return NewReceiptService(ReceiptConfig{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    bucket,
		Region:    region,
		Endpoint:  os.Getenv("RECEIPT_STORE_ENDPOINT"),
	})
}

// receipt is the archived JSON document
type receipt struct {
	TransactionID  string    `json:"transaction_id"`
	StudentID      uint      `json:"student_id"`
	FeeRecordID    uint      `json:"fee_record_id"`
	SemesterNumber int       `json:"semester_number"`
	Amount         float64   `json:"amount"`
	Method         string    `json:"method"`
	PaidAmount     float64   `json:"paid_amount"`
	DueAmount      float64   `json:"due_amount"`
	Status         string    `json:"status"`
	PaidAt         time.Time `json:"paid_at"`
}

// StoreReceipt uploads a JSON receipt for a committed payment and returns the
// object URL.
func (s *ReceiptService) StoreReceipt(ctx context.Context, txn *model.PaymentTransaction, record *model.StudentFeeRecord) (string, error) {
	doc := receipt{
		TransactionID:  txn.TransactionID,
		StudentID:      txn.StudentID,
		FeeRecordID:    txn.FeeRecordID,
		SemesterNumber: record.SemesterNumber,
		Amount:         txn.Amount,
		Method:         string(txn.Method),
		PaidAmount:     record.PaidAmount,
		DueAmount:      record.DueAmount,
		Status:         string(record.Status),
		PaidAt:         txn.PaidAt,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}

	key := fmt.Sprintf("receipts/%d/%s.json", txn.StudentID, txn.TransactionID)
	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(bytes.NewReader(data)),
		ACL:         aws.String("private"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key), nil
}
