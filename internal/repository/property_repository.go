package repository

import (
	"context"

	"github.com/propertypulse/backend/internal/model"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Property, error)
	SetAvailable(ctx context.Context, id uint64, available bool) error
	ListPurchasedByTenant(ctx context.Context, tenantID uint64) ([]model.Property, error)
	ListSoldByLandlord(ctx context.Context, landlordID uint64) ([]model.Property, error)
	WithTx(tx *gorm.DB) PropertyRepository
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) FindByID(ctx context.Context, id uint64) (*model.Property, error) {
	var p model.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) SetAvailable(ctx context.Context, id uint64, available bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Property{}).
		Where("id = ?", id).
		Update("is_available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *propertyRepository) ListPurchasedByTenant(ctx context.Context, tenantID uint64) ([]model.Property, error) {
	var list []model.Property
	err := r.db.WithContext(ctx).
		Joins("JOIN property_purchase_requests pr ON pr.property_id = properties.id").
		Where("pr.tenant_id = ? AND pr.status = ?", tenantID, model.RequestPaymentCompleted).
		Order("properties.id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *propertyRepository) ListSoldByLandlord(ctx context.Context, landlordID uint64) ([]model.Property, error) {
	var list []model.Property
	err := r.db.WithContext(ctx).
		Joins("JOIN property_purchase_requests pr ON pr.property_id = properties.id").
		Where("pr.landlord_id = ? AND pr.status = ?", landlordID, model.RequestPaymentCompleted).
		Order("properties.id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *propertyRepository) WithTx(tx *gorm.DB) PropertyRepository {
	return &propertyRepository{db: tx}
}
