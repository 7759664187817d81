package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
)

type ServiceItemRepository interface {
	Create(ctx context.Context, item *models.ServiceItem) error
	GetByID(ctx context.Context, id uint) (*models.ServiceItem, error)
	GetActive(ctx context.Context, id uint) (*models.ServiceItem, error)
	// ListActive filters by category when it is not empty.
	ListActive(ctx context.Context, category string) ([]models.ServiceItem, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.ServiceItem, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
}

type GormServiceItemRepository struct {
	db *gorm.DB
}

func NewGormServiceItemRepository(db *gorm.DB) *GormServiceItemRepository {
	return &GormServiceItemRepository{db: db}
}

func (r *GormServiceItemRepository) Create(ctx context.Context, item *models.ServiceItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *GormServiceItemRepository) GetByID(ctx context.Context, id uint) (*models.ServiceItem, error) {
	var item models.ServiceItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *GormServiceItemRepository) GetActive(ctx context.Context, id uint) (*models.ServiceItem, error) {
	var item models.ServiceItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.ServiceItemActive).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *GormServiceItemRepository) ListActive(ctx context.Context, category string) ([]models.ServiceItem, error) {
	var items []models.ServiceItem
	q := r.db.WithContext(ctx).Where("status = ?", models.ServiceItemActive)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormServiceItemRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.ServiceItem, error) {
	var items []models.ServiceItem
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormServiceItemRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.ServiceItem{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
