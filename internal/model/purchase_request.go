package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseRequestStatus string

const (
	RequestPending          PurchaseRequestStatus = "PENDING"
	RequestApproved         PurchaseRequestStatus = "APPROVED"
	RequestRejected         PurchaseRequestStatus = "REJECTED"
	RequestCancelled        PurchaseRequestStatus = "CANCELLED"
	RequestPaymentPending   PurchaseRequestStatus = "PAYMENT_PENDING"
	RequestPaymentCompleted PurchaseRequestStatus = "PAYMENT_COMPLETED"
	RequestPaymentFailed    PurchaseRequestStatus = "PAYMENT_FAILED"
)

// Terminal reports whether no further transition is defined from s.
// A fresh purchase of the same property requires a new request.
func (s PurchaseRequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestCancelled, RequestPaymentCompleted, RequestPaymentFailed:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PurchaseRequest tracks a tenant's intent to buy a property through
// approval and the gateway payment handshake. Rows are never deleted;
// cancelled and failed requests stay as history.
type PurchaseRequest struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PropertyID uint64 `gorm:"column:property_id;index;not null"`
	TenantID   uint64 `gorm:"column:tenant_id;index;not null"`
	LandlordID uint64 `gorm:"column:landlord_id;index;not null"`

	// Denormalized display fields, filled at creation time.
	PropertyTitle string `gorm:"column:property_title;size:200"`
	TenantName    string `gorm:"column:tenant_name;size:200"`
	LandlordName  string `gorm:"column:landlord_name;size:200"`

	RequestDate   time.Time             `gorm:"column:request_date;not null"`
	Status        PurchaseRequestStatus `gorm:"size:32;not null"`
	ResponseDate  *time.Time            `gorm:"column:response_date"`
	ResponseNotes string                `gorm:"column:response_notes;type:text"`

	// Fixed from the property's sale price at creation, immutable after.
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:decimal(14,2);not null"`

	PaymentOrderID       string        `gorm:"column:payment_order_id;size:64;index"`
	PaymentTransactionID string        `gorm:"column:payment_transaction_id;size:64"`
	PaymentSignature     string        `gorm:"column:payment_signature;size:128"`
	PaymentStatus        PaymentStatus `gorm:"column:payment_status;size:16"`
	PaymentDate          *time.Time    `gorm:"column:payment_date"`
	InvoiceURL           string        `gorm:"column:invoice_url;size:512"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PurchaseRequest) TableName() string {
	return "property_purchase_requests"
}
