package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
)

// RatingStats summarises the feedback of one therapist
type RatingStats struct {
	Average float64
	Count   int64
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	GetForUser(ctx context.Context, id uint, userID uint) (*models.Feedback, error)
	ExistsForOrder(ctx context.Context, orderID uint) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context, therapistID uint) (RatingStats, error)
	ListByTherapist(ctx context.Context, therapistID uint, limit, offset int) ([]models.Feedback, int64, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Feedback, int64, error)
}

type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return translate(r.db.WithContext(ctx).Create(feedback).Error)
}

func (r *GormFeedbackRepository) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var f models.Feedback
	if err := r.db.WithContext(ctx).Preload("User").First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *GormFeedbackRepository) GetForUser(ctx context.Context, id uint, userID uint) (*models.Feedback, error) {
	var f models.Feedback
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *GormFeedbackRepository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormFeedbackRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormFeedbackRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Feedback{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormFeedbackRepository) Stats(ctx context.Context, therapistID uint) (RatingStats, error) {
	var row struct {
		Average sql.NullFloat64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("therapist_id = ?", therapistID).
		Scan(&row).Error
	if err != nil {
		return RatingStats{}, err
	}
	return RatingStats{Average: row.Average.Float64, Count: row.Count}, nil
}

func (r *GormFeedbackRepository) ListByTherapist(
	ctx context.Context,
	therapistID uint,
	limit, offset int,
) ([]models.Feedback, int64, error) {
	return r.list(ctx, "therapist_id", therapistID, limit, offset)
}

func (r *GormFeedbackRepository) ListByUser(
	ctx context.Context,
	userID uint,
	limit, offset int,
) ([]models.Feedback, int64, error) {
	return r.list(ctx, "user_id", userID, limit, offset)
}

func (r *GormFeedbackRepository) list(
	ctx context.Context,
	column string,
	id uint,
	limit, offset int,
) ([]models.Feedback, int64, error) {
	var (
		feedbacks []models.Feedback
		total     int64
	)

	q := r.db.WithContext(ctx).Model(&models.Feedback{}).Where(column+" = ?", id)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Preload("User").Order("created_at DESC").Order("id DESC").Find(&feedbacks).Error; err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}
