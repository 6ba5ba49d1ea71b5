package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/propertypulse/backend/internal/model"
	"github.com/propertypulse/backend/internal/razorpay"
	"github.com/propertypulse/backend/internal/repository"
	"github.com/propertypulse/backend/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGateway struct {
	orderID      string
	createErr    error
	createCalls  int
	valid        bool
	fetchErr     error
	fetchPayment *razorpay.Payment
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*razorpay.Order, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &razorpay.Order{ID: f.orderID, Amount: razorpay.ToPaise(amount), Currency: "INR", Receipt: receipt, Status: "created"}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return f.valid
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.fetchPayment != nil {
		return f.fetchPayment, nil
	}
	return &razorpay.Payment{ID: paymentID, Status: "captured", Currency: "INR"}, nil
}

func (f *fakeGateway) ReceiptURL(paymentID string) string {
	return "https://dashboard.razorpay.com/app/payments/" + paymentID
}

type fakeReceiptStore struct {
	url string
	err error
}

func (f *fakeReceiptStore) Store(ctx context.Context, r storage.Receipt) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Property{}, &model.PurchaseRequest{}))
	return db
}

type fixture struct {
	db       *gorm.DB
	gateway  *fakeGateway
	receipts *fakeReceiptStore
	svc      PurchaseRequestService
	landlord *model.User
	tenant   *model.User
	property *model.Property
}

func newFixture(t *testing.T, receipts *fakeReceiptStore) *fixture {
	t.Helper()
	db := openTestDB(t)

	landlord := &model.User{Email: "lena@example.com", FirstName: "Lena", LastName: "Marsh", Role: model.RoleLandlord}
	tenant := &model.User{Email: "tom@example.com", FirstName: "Tom", LastName: "Iyer", Role: model.RoleTenant}
	require.NoError(t, db.Create(landlord).Error)
	require.NoError(t, db.Create(tenant).Error)

	property := &model.Property{
		Title:        "2BR flat on Hill Road",
		Address:      "14 Hill Road",
		City:         "Mumbai",
		State:        "MH",
		PropertyType: model.PropertyApartment,
		ListingType:  model.ListingForSale,
		SalePrice:    decimal.NewFromInt(500000),
		Available:    true,
		Active:       true,
		LandlordID:   landlord.ID,
	}
	require.NoError(t, db.Create(property).Error)

	gateway := &fakeGateway{orderID: "order_abc", valid: true}
	var store ReceiptStore
	if receipts != nil {
		store = receipts
	}
	svc := NewPurchaseRequestService(
		db,
		repository.NewPurchaseRequestRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewUserRepository(db),
		gateway,
		store,
	)
	return &fixture{db: db, gateway: gateway, receipts: receipts, svc: svc, landlord: landlord, tenant: tenant, property: property}
}

func (f *fixture) reloadProperty(t *testing.T) *model.Property {
	t.Helper()
	var p model.Property
	require.NoError(t, f.db.First(&p, f.property.ID).Error)
	return &p
}

func (f *fixture) reloadRequest(t *testing.T, id uint64) *model.PurchaseRequest {
	t.Helper()
	var r model.PurchaseRequest
	require.NoError(t, f.db.First(&r, id).Error)
	return &r
}

func TestCreate_AutoApproves(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	assert.Equal(t, model.RequestApproved, req.Status)
	assert.Equal(t, "Auto-approved for direct purchase", req.ResponseNotes)
	assert.NotNil(t, req.ResponseDate)
	assert.True(t, req.PurchasePrice.Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, f.tenant.ID, req.TenantID)
	assert.Equal(t, f.landlord.ID, req.LandlordID)
	assert.Equal(t, "Lena Marsh", req.LandlordName)
	assert.Equal(t, "Tom Iyer", req.TenantName)
}

func TestCreate_PreconditionFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.Property)
	}{
		{"not available", func(p *model.Property) { p.Available = false }},
		{"rent only", func(p *model.Property) { p.ListingType = model.ListingForRent }},
		{"zero sale price", func(p *model.Property) { p.SalePrice = decimal.Zero }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.mutate(f.property)
			require.NoError(t, f.db.Save(f.property).Error)

			_, err := f.svc.Create(context.Background(), f.property.ID, f.tenant)
			assert.ErrorIs(t, err, ErrInvalidState)

			var count int64
			require.NoError(t, f.db.Model(&model.PurchaseRequest{}).Count(&count).Error)
			assert.Zero(t, count, "nothing should be persisted")
		})
	}
}

func TestCreate_MissingProperty(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Create(context.Background(), 9999, f.tenant)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_LandlordCannotBuy(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Create(context.Background(), f.property.ID, f.landlord)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPurchasePrice_ImmuneToLaterPriceChange(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	f.property.SalePrice = decimal.NewFromInt(750000)
	require.NoError(t, f.db.Save(f.property).Error)

	got := f.reloadRequest(t, req.ID)
	assert.True(t, got.PurchasePrice.Equal(decimal.NewFromInt(500000)))
}

func TestInitiatePayment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPaymentPending, req.Status)
	assert.Equal(t, model.PaymentPending, req.PaymentStatus)
	assert.Equal(t, "order_abc", req.PaymentOrderID)

	// Second call observes PAYMENT_PENDING and must not create a new order.
	_, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, f.gateway.createCalls)
	assert.Equal(t, "order_abc", f.reloadRequest(t, req.ID).PaymentOrderID)
}

func TestInitiatePayment_GatewayDown(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	f.gateway.createErr = errors.New("dial tcp: connection refused")
	_, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	assert.ErrorIs(t, err, ErrPaymentGateway)

	// No order was created, so the request stays APPROVED and retryable.
	got := f.reloadRequest(t, req.ID)
	assert.Equal(t, model.RequestApproved, got.Status)
	assert.Empty(t, got.PaymentOrderID)
}

func TestInitiatePayment_WrongActor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	other := &model.User{Email: "eve@example.com", FirstName: "Eve", LastName: "Koch", Role: model.RoleTenant}
	require.NoError(t, f.db.Create(other).Error)

	_, err = f.svc.InitiatePayment(ctx, req.ID, other)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProcessPayment_Success(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)

	req, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	require.NoError(t, err)

	assert.Equal(t, model.RequestPaymentCompleted, req.Status)
	assert.Equal(t, model.PaymentCompleted, req.PaymentStatus)
	assert.Equal(t, "pay_123", req.PaymentTransactionID)
	assert.Equal(t, "sig_valid", req.PaymentSignature)
	assert.NotNil(t, req.PaymentDate)
	assert.NotEmpty(t, req.InvoiceURL)

	// Completion and the availability flip are one transaction.
	assert.False(t, f.reloadProperty(t).Available)
}

func TestProcessPayment_InvalidSignature(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)

	f.gateway.valid = false
	_, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_forged", f.tenant)
	assert.ErrorIs(t, err, ErrVerificationFailed)

	got := f.reloadRequest(t, req.ID)
	assert.Equal(t, model.RequestPaymentFailed, got.Status)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	assert.Empty(t, got.InvoiceURL)
	assert.True(t, f.reloadProperty(t).Available, "property must remain available")
}

func TestProcessPayment_FetchFailureIsDurable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)

	f.gateway.fetchErr = errors.New("502 from gateway")
	_, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	assert.ErrorIs(t, err, ErrPaymentGateway)

	// The failed transition is committed before the error surfaces.
	got := f.reloadRequest(t, req.ID)
	assert.Equal(t, model.RequestPaymentFailed, got.Status)
	assert.True(t, f.reloadProperty(t).Available)
}

func TestProcessPayment_RequiresPaymentPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessPayment_ReceiptStore(t *testing.T) {
	store := &fakeReceiptStore{url: "https://firebasestorage.googleapis.com/v0/b/receipts/o/r.json?alt=media&token=t"}
	f := newFixture(t, store)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)

	req, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	require.NoError(t, err)
	assert.Equal(t, store.url, req.InvoiceURL)
}

func TestProcessPayment_ReceiptStoreFailure(t *testing.T) {
	store := &fakeReceiptStore{err: errors.New("bucket gone")}
	f := newFixture(t, store)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.Equal(t, model.RequestPaymentFailed, f.reloadRequest(t, req.ID).Status)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	req, err = f.svc.Cancel(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, model.RequestCancelled, req.Status)
}

func TestCancel_CompletedPayment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, req.ID, f.tenant)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, model.RequestPaymentCompleted, f.reloadRequest(t, req.ID).Status)
}

func TestUpdateStatus_OnlyFromPending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	// Auto-approved requests are past PENDING.
	_, err = f.svc.UpdateStatus(ctx, req.ID, model.RequestRejected, "changed my mind", f.landlord)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateStatus_PendingRequest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.PurchaseRequest{}).Where("id = ?", req.ID).
		Updates(map[string]any{"status": model.RequestPending, "response_date": nil, "response_notes": ""}).Error)

	got, err := f.svc.UpdateStatus(ctx, req.ID, model.RequestRejected, "sold elsewhere", f.landlord)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, got.Status)
	assert.Equal(t, "sold elsewhere", got.ResponseNotes)
	assert.NotNil(t, got.ResponseDate)
}

func TestUpdateStatus_RejectsOtherTargets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, req.ID, model.RequestPaymentCompleted, "", f.landlord)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestInvoiceURL(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	_, err = f.svc.InvoiceURL(ctx, req.ID, f.tenant)
	assert.ErrorIs(t, err, ErrInvalidState)

	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	req, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	require.NoError(t, err)

	url, err := f.svc.InvoiceURL(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestPredicatesAndLists(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	req, err := f.svc.Create(ctx, f.property.ID, f.tenant)
	require.NoError(t, err)

	approved, err := f.svc.IsApproved(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, approved)
	pending, err := f.svc.IsPending(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	byTenant, err := f.svc.ListByTenant(ctx, f.tenant, 0, 20)
	require.NoError(t, err)
	require.Len(t, byTenant, 1)
	byLandlord, err := f.svc.ListByLandlord(ctx, f.landlord, 0, 20)
	require.NoError(t, err)
	require.Len(t, byLandlord, 1)

	req, err = f.svc.InitiatePayment(ctx, req.ID, f.tenant)
	require.NoError(t, err)
	_, err = f.svc.ProcessPayment(ctx, req.ID, "pay_123", "sig_valid", f.tenant)
	require.NoError(t, err)

	completed, err := f.svc.IsPaymentCompleted(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, completed)

	purchased, err := f.svc.PurchasedProperties(ctx, f.tenant)
	require.NoError(t, err)
	require.Len(t, purchased, 1)
	assert.Equal(t, f.property.ID, purchased[0].ID)

	sold, err := f.svc.SoldProperties(ctx, f.landlord)
	require.NoError(t, err)
	require.Len(t, sold, 1)
}
