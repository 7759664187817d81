package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error)
	// GetForParty returns the order only when owner is its user or its assigned therapist.
	GetForParty(ctx context.Context, id uint, owner models.Actor) (*models.Order, error)
	// ListForParty returns newest orders first, optionally filtered by status.
	ListForParty(
		ctx context.Context,
		owner models.Actor,
		status *models.OrderStatus,
		limit, offset int,
	) ([]models.Order, int64, error)
	// UpdateStatusIf moves the order to `to` only if it belongs to owner and is
	// currently in one of `from`. It reports whether a row changed.
	UpdateStatusIf(
		ctx context.Context,
		id uint,
		owner models.Actor,
		from []models.OrderStatus,
		to models.OrderStatus,
	) (bool, error)
	// MarkPaid records a successful payment unless one is already recorded.
	MarkPaid(ctx context.Context, id uint, method, transactionID string, paidAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uint) (bool, error)
	MarkRefunded(ctx context.Context, id uint, userID uint) (bool, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrderRepository) GetForParty(ctx context.Context, id uint, owner models.Actor) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Therapist").
		Where("id = ?", id).
		Where(models.PartyColumn(owner.Role)+" = ?", owner.ID).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrderRepository) ListForParty(
	ctx context.Context,
	owner models.Actor,
	status *models.OrderStatus,
	limit, offset int,
) ([]models.Order, int64, error) {
	var (
		orders []models.Order
		total  int64
	)

	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where(models.PartyColumn(owner.Role)+" = ?", owner.ID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	err := q.Preload("User").
		Preload("Therapist").
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) UpdateStatusIf(
	ctx context.Context,
	id uint,
	owner models.Actor,
	from []models.OrderStatus,
	to models.OrderStatus,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where(models.PartyColumn(owner.Role)+" = ?", owner.ID).
		Where("status IN ?", from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) MarkPaid(
	ctx context.Context,
	id uint,
	method, transactionID string,
	paidAt time.Time,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where("payment_status IN ?", []models.PaymentStatus{models.PaymentStatusUnpaid, models.PaymentStatusFailed}).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"payment_method": method,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) MarkPaymentFailed(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusUnpaid).
		Update("payment_status", models.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormOrderRepository) MarkRefunded(ctx context.Context, id uint, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND payment_status = ?", id, userID, models.PaymentStatusPaid).
		Update("payment_status", models.PaymentStatusRefunded)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
