package repository

import (
	"context"

	"github.com/propertypulse/backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	FindByID(ctx context.Context, id uint64) (*model.PurchaseRequest, error)
	// FindByIDForUpdate takes a row lock so state transitions on the same
	// request are serialized. Must run inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.PurchaseRequest, error)
	Update(ctx context.Context, req *model.PurchaseRequest) error
	ListByTenant(ctx context.Context, tenantID uint64, limit, offset int) ([]model.PurchaseRequest, error)
	ListByLandlord(ctx context.Context, landlordID uint64, limit, offset int) ([]model.PurchaseRequest, error)
	WithTx(tx *gorm.DB) PurchaseRequestRepository
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *purchaseRequestRepository) FindByID(ctx context.Context, id uint64) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *purchaseRequestRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.PurchaseRequest, error) {
	q := r.db.WithContext(ctx)
	// sqlite has no SELECT ... FOR UPDATE; its single-writer lock already
	// serializes the transaction.
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var req model.PurchaseRequest
	if err := q.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *purchaseRequestRepository) Update(ctx context.Context, req *model.PurchaseRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *purchaseRequestRepository) ListByTenant(ctx context.Context, tenantID uint64, limit, offset int) ([]model.PurchaseRequest, error) {
	var list []model.PurchaseRequest
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *purchaseRequestRepository) ListByLandlord(ctx context.Context, landlordID uint64, limit, offset int) ([]model.PurchaseRequest, error) {
	var list []model.PurchaseRequest
	err := r.db.WithContext(ctx).
		Where("landlord_id = ?", landlordID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *purchaseRequestRepository) WithTx(tx *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: tx}
}
