package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Receipt is the document archived per completed purchase payment.
type Receipt struct {
	PurchaseRequestID uint64    `json:"purchaseRequestId"`
	PropertyID        uint64    `json:"propertyId"`
	PropertyTitle     string    `json:"propertyTitle"`
	TenantName        string    `json:"tenantName"`
	PaymentID         string    `json:"paymentId"`
	OrderID           string    `json:"orderId"`
	AmountPaise       int64     `json:"amountPaise"`
	Currency          string    `json:"currency"`
	Method            string    `json:"method"`
	PaidAt            time.Time `json:"paidAt"`
}

// ReceiptStore uploads payment receipts to a GCS bucket and returns a
// tokenized public URL for each.
type ReceiptStore struct {
	client *storage.Client
	bucket string
}

func NewReceiptStore(client *storage.Client, bucket string) *ReceiptStore {
	return &ReceiptStore{client: client, bucket: bucket}
}

func (s *ReceiptStore) Store(ctx context.Context, r Receipt) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	objectPath := fmt.Sprintf("receipts/purchase-requests/%d/%s.json", r.PurchaseRequestID, uuid.NewString())
	token := uuid.NewString()
	obj := s.client.Bucket(s.bucket).Object(objectPath)
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	publicURL := fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucket, url.PathEscape(objectPath), token)
	return publicURL, nil
}
