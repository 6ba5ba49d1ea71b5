package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/propertypulse/backend/internal/model"
	"github.com/propertypulse/backend/internal/razorpay"
	"github.com/propertypulse/backend/internal/repository"
	"github.com/propertypulse/backend/internal/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const autoApproveNotes = "Auto-approved for direct purchase"

// PaymentGateway is the narrow contract the state machine needs from a
// payment processor: order creation, signature-based confirmation and a
// read-only payment lookup.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	ReceiptURL(paymentID string) string
}

// ReceiptStore archives a receipt document for a completed payment and
// returns its URL. Optional; without one the gateway dashboard URL is
// used as the invoice reference.
type ReceiptStore interface {
	Store(ctx context.Context, r storage.Receipt) (string, error)
}

type PurchaseRequestService interface {
	Create(ctx context.Context, propertyID uint64, actor *model.User) (*model.PurchaseRequest, error)
	UpdateStatus(ctx context.Context, id uint64, status model.PurchaseRequestStatus, notes string, actor *model.User) (*model.PurchaseRequest, error)
	InitiatePayment(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error)
	ProcessPayment(ctx context.Context, id uint64, paymentID, signature string, actor *model.User) (*model.PurchaseRequest, error)
	Cancel(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error)
	Get(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error)
	InvoiceURL(ctx context.Context, id uint64, actor *model.User) (string, error)
	ListByTenant(ctx context.Context, tenant *model.User, page, size int) ([]model.PurchaseRequest, error)
	ListByLandlord(ctx context.Context, landlord *model.User, page, size int) ([]model.PurchaseRequest, error)
	PurchasedProperties(ctx context.Context, tenant *model.User) ([]model.Property, error)
	SoldProperties(ctx context.Context, landlord *model.User) ([]model.Property, error)
	IsPending(ctx context.Context, id uint64) (bool, error)
	IsApproved(ctx context.Context, id uint64) (bool, error)
	IsRejected(ctx context.Context, id uint64) (bool, error)
	IsCancelled(ctx context.Context, id uint64) (bool, error)
	IsPaymentCompleted(ctx context.Context, id uint64) (bool, error)
}

type purchaseRequestService struct {
	db         *gorm.DB
	requests   repository.PurchaseRequestRepository
	properties repository.PropertyRepository
	users      repository.UserRepository
	gateway    PaymentGateway
	receipts   ReceiptStore
}

func NewPurchaseRequestService(
	db *gorm.DB,
	requests repository.PurchaseRequestRepository,
	properties repository.PropertyRepository,
	users repository.UserRepository,
	gateway PaymentGateway,
	receipts ReceiptStore,
) PurchaseRequestService {
	return &purchaseRequestService{
		db:         db,
		requests:   requests,
		properties: properties,
		users:      users,
		gateway:    gateway,
		receipts:   receipts,
	}
}

func (s *purchaseRequestService) Create(ctx context.Context, propertyID uint64, actor *model.User) (*model.PurchaseRequest, error) {
	if actor == nil || actor.Role != model.RoleTenant {
		return nil, fmt.Errorf("%w: only tenants can request a purchase", ErrForbidden)
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: property %d", ErrNotFound, propertyID)
		}
		return nil, err
	}
	if !property.Available {
		return nil, fmt.Errorf("%w: property is not available for purchase", ErrInvalidState)
	}
	if !property.ForSale() {
		return nil, fmt.Errorf("%w: property is listed for rent only", ErrInvalidState)
	}
	if !property.SalePrice.IsPositive() {
		return nil, fmt.Errorf("%w: property does not have a valid sale price", ErrInvalidState)
	}

	landlordName := ""
	if landlord, err := s.users.FindByID(ctx, property.LandlordID); err == nil {
		landlordName = landlord.FullName()
	}

	now := time.Now()
	req := &model.PurchaseRequest{
		PropertyID:    property.ID,
		TenantID:      actor.ID,
		LandlordID:    property.LandlordID,
		PropertyTitle: property.Title,
		TenantName:    actor.FullName(),
		LandlordName:  landlordName,
		RequestDate:   now,
		// Direct purchase: no landlord review gate, requests start approved.
		Status:        model.RequestApproved,
		ResponseDate:  &now,
		ResponseNotes: autoApproveNotes,
		PurchasePrice: property.SalePrice,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *purchaseRequestService) UpdateStatus(ctx context.Context, id uint64, status model.PurchaseRequestStatus, notes string, actor *model.User) (*model.PurchaseRequest, error) {
	if status != model.RequestApproved && status != model.RequestRejected {
		return nil, fmt.Errorf("%w: a pending request can only be approved or rejected", ErrInvalidState)
	}
	var out *model.PurchaseRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		req, err := s.lockRequest(ctx, requests, id)
		if err != nil {
			return err
		}
		if !canActOn(req, actor) {
			return fmt.Errorf("%w: not a party to this request", ErrForbidden)
		}
		if req.Status != model.RequestPending {
			return fmt.Errorf("%w: can only update status of pending requests, current is %s", ErrInvalidState, req.Status)
		}
		now := time.Now()
		req.Status = status
		req.ResponseDate = &now
		req.ResponseNotes = notes
		if err := requests.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseRequestService) InitiatePayment(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error) {
	var out *model.PurchaseRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		req, err := s.lockRequest(ctx, requests, id)
		if err != nil {
			return err
		}
		if !canActOn(req, actor) {
			return fmt.Errorf("%w: not a party to this request", ErrForbidden)
		}
		if req.Status != model.RequestApproved {
			return fmt.Errorf("%w: can only initiate payment for approved requests, current is %s", ErrInvalidState, req.Status)
		}
		if !req.PurchasePrice.IsPositive() {
			return fmt.Errorf("%w: invalid purchase price %s", ErrInvalidState, req.PurchasePrice)
		}

		receipt := fmt.Sprintf("PROP_PUR_%d_%d", req.ID, time.Now().UnixMilli())
		notes := map[string]string{
			"propertyId":    fmt.Sprintf("%d", req.PropertyID),
			"propertyTitle": req.PropertyTitle,
			"tenantId":      fmt.Sprintf("%d", req.TenantID),
			"tenantName":    req.TenantName,
			"purchasePrice": req.PurchasePrice.String(),
		}
		order, err := s.gateway.CreateOrder(ctx, req.PurchasePrice, receipt, notes)
		if err != nil {
			return fmt.Errorf("%w: create order: %v", ErrPaymentGateway, err)
		}

		// Set exactly once; the APPROVED guard above means the field is
		// still empty here.
		req.PaymentOrderID = order.ID
		req.Status = model.RequestPaymentPending
		req.PaymentStatus = model.PaymentPending
		if err := requests.Update(ctx, req); err != nil {
			return err
		}
		log.Printf("purchase request %d: payment initiated, order %s, amount %s INR", req.ID, order.ID, req.PurchasePrice)
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseRequestService) ProcessPayment(ctx context.Context, id uint64, paymentID, signature string, actor *model.User) (*model.PurchaseRequest, error) {
	var out *model.PurchaseRequest
	// Failed attempts must still commit the PAYMENT_FAILED transition, so
	// they are captured here instead of returned from inside the
	// transaction (a returned error would roll it back).
	var failure error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		req, err := s.lockRequest(ctx, requests, id)
		if err != nil {
			return err
		}
		if !canActOn(req, actor) {
			return fmt.Errorf("%w: not a party to this request", ErrForbidden)
		}
		if req.Status != model.RequestPaymentPending {
			return fmt.Errorf("%w: can only process payment for payment pending requests, current is %s", ErrInvalidState, req.Status)
		}

		if !s.gateway.VerifySignature(req.PaymentOrderID, paymentID, signature) {
			log.Printf("purchase request %d: signature verification FAILED for payment %s, order %s", req.ID, paymentID, req.PaymentOrderID)
			req.Status = model.RequestPaymentFailed
			req.PaymentStatus = model.PaymentFailed
			if err := requests.Update(ctx, req); err != nil {
				return err
			}
			failure = fmt.Errorf("%w: signature mismatch for payment %s", ErrVerificationFailed, paymentID)
			out = req
			return nil
		}

		payment, err := s.gateway.FetchPayment(ctx, paymentID)
		if err != nil {
			req.Status = model.RequestPaymentFailed
			req.PaymentStatus = model.PaymentFailed
			if uerr := requests.Update(ctx, req); uerr != nil {
				return uerr
			}
			failure = fmt.Errorf("%w: fetch payment: %v", ErrPaymentGateway, err)
			out = req
			return nil
		}
		if expected := razorpay.ToPaise(req.PurchasePrice); payment.Amount != expected {
			log.Printf("purchase request %d: payment %s amount %d paise differs from expected %d", req.ID, paymentID, payment.Amount, expected)
		}

		invoiceURL := s.gateway.ReceiptURL(paymentID)
		if s.receipts != nil {
			u, rerr := s.receipts.Store(ctx, storage.Receipt{
				PurchaseRequestID: req.ID,
				PropertyID:        req.PropertyID,
				PropertyTitle:     req.PropertyTitle,
				TenantName:        req.TenantName,
				PaymentID:         payment.ID,
				OrderID:           req.PaymentOrderID,
				AmountPaise:       payment.Amount,
				Currency:          payment.Currency,
				Method:            payment.Method,
				PaidAt:            time.Now(),
			})
			if rerr != nil {
				req.Status = model.RequestPaymentFailed
				req.PaymentStatus = model.PaymentFailed
				if uerr := requests.Update(ctx, req); uerr != nil {
					return uerr
				}
				failure = fmt.Errorf("%w: store receipt: %v", ErrPaymentGateway, rerr)
				out = req
				return nil
			}
			invoiceURL = u
		}

		now := time.Now()
		req.Status = model.RequestPaymentCompleted
		req.PaymentStatus = model.PaymentCompleted
		req.PaymentDate = &now
		req.PaymentTransactionID = paymentID
		req.PaymentSignature = signature
		req.InvoiceURL = invoiceURL
		if err := requests.Update(ctx, req); err != nil {
			return err
		}
		// Same transaction as the status update: the property must never
		// stay purchasable once payment is confirmed.
		if err := s.properties.WithTx(tx).SetAvailable(ctx, req.PropertyID, false); err != nil {
			return err
		}
		log.Printf("purchase request %d: payment %s completed", req.ID, paymentID)
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return out, failure
	}
	return out, nil
}

func (s *purchaseRequestService) Cancel(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error) {
	var out *model.PurchaseRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		req, err := s.lockRequest(ctx, requests, id)
		if err != nil {
			return err
		}
		if !canActOn(req, actor) {
			return fmt.Errorf("%w: not a party to this request", ErrForbidden)
		}
		if req.Status == model.RequestPaymentCompleted {
			return fmt.Errorf("%w: cannot cancel a completed payment", ErrInvalidState)
		}
		// Cancellation is local only; an already-created gateway order is
		// left for external reconciliation.
		req.Status = model.RequestCancelled
		if err := requests.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseRequestService) Get(ctx context.Context, id uint64, actor *model.User) (*model.PurchaseRequest, error) {
	req, err := s.findRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canActOn(req, actor) {
		return nil, fmt.Errorf("%w: not a party to this request", ErrForbidden)
	}
	return req, nil
}

func (s *purchaseRequestService) InvoiceURL(ctx context.Context, id uint64, actor *model.User) (string, error) {
	req, err := s.Get(ctx, id, actor)
	if err != nil {
		return "", err
	}
	if req.Status != model.RequestPaymentCompleted {
		return "", fmt.Errorf("%w: invoice is only available for completed payments", ErrInvalidState)
	}
	return req.InvoiceURL, nil
}

func (s *purchaseRequestService) ListByTenant(ctx context.Context, tenant *model.User, page, size int) ([]model.PurchaseRequest, error) {
	limit, offset := pageBounds(page, size)
	return s.requests.ListByTenant(ctx, tenant.ID, limit, offset)
}

func (s *purchaseRequestService) ListByLandlord(ctx context.Context, landlord *model.User, page, size int) ([]model.PurchaseRequest, error) {
	limit, offset := pageBounds(page, size)
	return s.requests.ListByLandlord(ctx, landlord.ID, limit, offset)
}

func (s *purchaseRequestService) PurchasedProperties(ctx context.Context, tenant *model.User) ([]model.Property, error) {
	return s.properties.ListPurchasedByTenant(ctx, tenant.ID)
}

func (s *purchaseRequestService) SoldProperties(ctx context.Context, landlord *model.User) ([]model.Property, error) {
	return s.properties.ListSoldByLandlord(ctx, landlord.ID)
}

func (s *purchaseRequestService) IsPending(ctx context.Context, id uint64) (bool, error) {
	return s.hasStatus(ctx, id, model.RequestPending)
}

func (s *purchaseRequestService) IsApproved(ctx context.Context, id uint64) (bool, error) {
	return s.hasStatus(ctx, id, model.RequestApproved)
}

func (s *purchaseRequestService) IsRejected(ctx context.Context, id uint64) (bool, error) {
	return s.hasStatus(ctx, id, model.RequestRejected)
}

func (s *purchaseRequestService) IsCancelled(ctx context.Context, id uint64) (bool, error) {
	return s.hasStatus(ctx, id, model.RequestCancelled)
}

func (s *purchaseRequestService) IsPaymentCompleted(ctx context.Context, id uint64) (bool, error) {
	return s.hasStatus(ctx, id, model.RequestPaymentCompleted)
}

func (s *purchaseRequestService) hasStatus(ctx context.Context, id uint64, status model.PurchaseRequestStatus) (bool, error) {
	req, err := s.findRequest(ctx, id)
	if err != nil {
		return false, err
	}
	return req.Status == status, nil
}

func (s *purchaseRequestService) findRequest(ctx context.Context, id uint64) (*model.PurchaseRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase request %d", ErrNotFound, id)
		}
		return nil, err
	}
	return req, nil
}

func (s *purchaseRequestService) lockRequest(ctx context.Context, requests repository.PurchaseRequestRepository, id uint64) (*model.PurchaseRequest, error) {
	req, err := requests.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase request %d", ErrNotFound, id)
		}
		return nil, err
	}
	return req, nil
}

// canActOn is the closed-enum access check: admins act on anything,
// tenants on their own requests, landlords on requests against their
// properties.
func canActOn(req *model.PurchaseRequest, actor *model.User) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTenant:
		return req.TenantID == actor.ID
	case model.RoleLandlord:
		return req.LandlordID == actor.ID
	default:
		return false
	}
}

func pageBounds(page, size int) (limit, offset int) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}
