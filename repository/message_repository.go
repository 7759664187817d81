package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// ListByOrder returns messages oldest first.
	ListByOrder(ctx context.Context, orderID uint, limit, offset int) ([]models.Message, int64, error)
	// MarkOrderRead flips every unread message of the order addressed to receiver.
	MarkOrderRead(ctx context.Context, orderID uint, receiver models.Actor) (int64, error)
	MarkRead(ctx context.Context, id uint, receiver models.Actor) (bool, error)
	CountUnread(ctx context.Context, receiver models.Actor) (int64, error)
	// LatestPerOrder returns, for every order the participant has messages on,
	// the most recent message. Newest conversations come first.
	LatestPerOrder(ctx context.Context, participant models.Actor, limit, offset int) ([]models.Message, int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(message).Error)
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *GormMessageRepository) ListByOrder(
	ctx context.Context,
	orderID uint,
	limit, offset int,
) ([]models.Message, int64, error) {
	var (
		messages []models.Message
		total    int64
	)

	q := r.db.WithContext(ctx).Model(&models.Message{}).Where("order_id = ?", orderID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("created_at ASC").Order("id ASC").Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *GormMessageRepository) MarkOrderRead(ctx context.Context, orderID uint, receiver models.Actor) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("order_id = ? AND receiver_id = ? AND receiver_role = ? AND is_read = ?", orderID, receiver.ID, receiver.Role, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, id uint, receiver models.Actor) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND receiver_id = ? AND receiver_role = ? AND is_read = ?", id, receiver.ID, receiver.Role, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormMessageRepository) CountUnread(ctx context.Context, receiver models.Actor) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND receiver_role = ? AND is_read = ?", receiver.ID, receiver.Role, false).
		Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) LatestPerOrder(
	ctx context.Context,
	participant models.Actor,
	limit, offset int,
) ([]models.Message, int64, error) {
	var (
		messages []models.Message
		total    int64
	)

	latest := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("MAX(id)").
		Where("(sender_id = ? AND sender_role = ?) OR (receiver_id = ? AND receiver_role = ?)",
			participant.ID, participant.Role, participant.ID, participant.Role).
		Group("order_id")

	q := r.db.WithContext(ctx).Model(&models.Message{}).Where("id IN (?)", latest)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("created_at DESC").Order("id DESC").Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}
