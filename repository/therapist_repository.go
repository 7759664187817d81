package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kendall-kelly/home-therapy-api/models"
)

type TherapistRepository interface {
	Create(ctx context.Context, therapist *models.Therapist) error
	GetByID(ctx context.Context, id uint) (*models.Therapist, error)
	// GetActive returns the therapist only when its status is active.
	GetActive(ctx context.Context, id uint) (*models.Therapist, error)
	GetBySubject(ctx context.Context, subject string) (*models.Therapist, error)
	GetByLinkedUser(ctx context.Context, userID uint) (*models.Therapist, error)
	// ListActive orders by rating, then by completed service count.
	ListActive(ctx context.Context, keyword string, limit, offset int) ([]models.Therapist, int64, error)
	// LockByID reads the row with a write lock held until the transaction ends.
	LockByID(ctx context.Context, id uint) (*models.Therapist, error)
	IncrementServiceCount(ctx context.Context, id uint) error
	UpdateRating(ctx context.Context, id uint, rating float64) error
	UpdateStatus(ctx context.Context, id uint, status models.TherapistStatus) error
	UpdateAvatar(ctx context.Context, id uint, avatarKey string) error
	ReplaceServiceItems(ctx context.Context, id uint, items []models.ServiceItem) error
}

type GormTherapistRepository struct {
	db *gorm.DB
}

func NewGormTherapistRepository(db *gorm.DB) *GormTherapistRepository {
	return &GormTherapistRepository{db: db}
}

func (r *GormTherapistRepository) Create(ctx context.Context, therapist *models.Therapist) error {
	return translate(r.db.WithContext(ctx).Create(therapist).Error)
}

func (r *GormTherapistRepository) GetByID(ctx context.Context, id uint) (*models.Therapist, error) {
	var t models.Therapist
	err := r.db.WithContext(ctx).
		Preload("ServiceItems", "status = ?", models.ServiceItemActive).
		First(&t, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormTherapistRepository) GetActive(ctx context.Context, id uint) (*models.Therapist, error) {
	var t models.Therapist
	err := r.db.WithContext(ctx).
		Preload("ServiceItems", "status = ?", models.ServiceItemActive).
		Where("id = ? AND status = ?", id, models.TherapistStatusActive).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormTherapistRepository) GetBySubject(ctx context.Context, subject string) (*models.Therapist, error) {
	var t models.Therapist
	if err := r.db.WithContext(ctx).Where("auth_subject = ?", subject).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormTherapistRepository) GetByLinkedUser(ctx context.Context, userID uint) (*models.Therapist, error) {
	var t models.Therapist
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormTherapistRepository) ListActive(
	ctx context.Context,
	keyword string,
	limit, offset int,
) ([]models.Therapist, int64, error) {
	var (
		therapists []models.Therapist
		total      int64
	)

	q := r.db.WithContext(ctx).
		Model(&models.Therapist{}).
		Where("status = ?", models.TherapistStatusActive)
	if keyword != "" {
		like := "%" + keyword + "%"
		q = q.Where("name LIKE ? OR specialty LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("rating DESC").Order("service_count DESC").Order("id ASC").Find(&therapists).Error; err != nil {
		return nil, 0, err
	}

	return therapists, total, nil
}

func (r *GormTherapistRepository) LockByID(ctx context.Context, id uint) (*models.Therapist, error) {
	var t models.Therapist
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormTherapistRepository) IncrementServiceCount(ctx context.Context, id uint) error {
	return r.updateColumn(ctx, id, "service_count", gorm.Expr("service_count + ?", 1))
}

func (r *GormTherapistRepository) UpdateRating(ctx context.Context, id uint, rating float64) error {
	return r.updateColumn(ctx, id, "rating", rating)
}

func (r *GormTherapistRepository) UpdateStatus(ctx context.Context, id uint, status models.TherapistStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GormTherapistRepository) UpdateAvatar(ctx context.Context, id uint, avatarKey string) error {
	return r.updateColumn(ctx, id, "avatar_key", avatarKey)
}

func (r *GormTherapistRepository) ReplaceServiceItems(ctx context.Context, id uint, items []models.ServiceItem) error {
	therapist := models.Therapist{ID: id}
	return r.db.WithContext(ctx).Model(&therapist).Association("ServiceItems").Replace(items)
}

func (r *GormTherapistRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Therapist{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
