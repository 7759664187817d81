package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

const maxFeedbackTags = 10

// FeedbackInput is a new review
type FeedbackInput struct {
	Rating  float64
	Content string
	Tags    []string
}

// FeedbackUpdate changes only the fields that are set
type FeedbackUpdate struct {
	Rating  *float64
	Content *string
	Tags    *[]string
}

// FeedbackService records reviews and keeps therapist ratings in step with them
type FeedbackService struct {
	store  *repository.Store
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewFeedbackService creates a feedback service over store
func NewFeedbackService(store *repository.Store, events EventPublisher, log *zap.Logger) *FeedbackService {
	return &FeedbackService{
		store:  store,
		events: events,
		log:    log.Named("feedback"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateFeedback reviews a completed order owned by the user. An order takes
// one review; the therapist's rating is recomputed in the same transaction.
func (s *FeedbackService) CreateFeedback(ctx context.Context, userID, orderID uint, in FeedbackInput) (*models.Feedback, error) {
	if !models.ValidRating(in.Rating) {
		return nil, validationf("rating must be between %.0f and %.0f", models.MinRating, models.MaxRating)
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	var (
		feedback *models.Feedback
		order    *models.Order
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		found, err := tx.Orders.GetForParty(ctx, orderID, models.Actor{ID: userID, Role: models.RoleUser})
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("order not found or not completed")
		}
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if found.Status != models.OrderStatusCompleted {
			return notFound("order not found or not completed")
		}
		order = found

		if _, err := tx.Therapists.LockByID(ctx, order.TherapistID); err != nil {
			return fmt.Errorf("failed to lock therapist: %w", err)
		}

		exists, err := tx.Feedbacks.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing feedback: %w", err)
		}
		if exists {
			return conflict("order already has feedback")
		}

		feedback = &models.Feedback{
			OrderID:     order.ID,
			UserID:      userID,
			TherapistID: order.TherapistID,
			Rating:      in.Rating,
			Content:     strings.TrimSpace(in.Content),
			Tags:        datatypes.JSONSlice[string](tags),
		}
		if err := tx.Feedbacks.Create(ctx, feedback); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflict("order already has feedback")
			}
			return fmt.Errorf("failed to create feedback: %w", err)
		}

		return recomputeRating(ctx, tx, order.TherapistID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventFeedbackCreated, order, feedback.ID)
	return feedback, nil
}

// UpdateFeedback edits the user's own review
func (s *FeedbackService) UpdateFeedback(ctx context.Context, userID, feedbackID uint, in FeedbackUpdate) (*models.Feedback, error) {
	fields := map[string]any{}
	if in.Rating != nil {
		if !models.ValidRating(*in.Rating) {
			return nil, validationf("rating must be between %.0f and %.0f", models.MinRating, models.MaxRating)
		}
		fields["rating"] = *in.Rating
	}
	if in.Content != nil {
		fields["content"] = strings.TrimSpace(*in.Content)
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = datatypes.JSONSlice[string](tags)
	}
	if len(fields) == 0 {
		return nil, validationf("nothing to update")
	}

	var feedback *models.Feedback
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := s.ownFeedback(ctx, tx, userID, feedbackID)
		if err != nil {
			return err
		}

		if _, err := tx.Therapists.LockByID(ctx, existing.TherapistID); err != nil {
			return fmt.Errorf("failed to lock therapist: %w", err)
		}
		if err := tx.Feedbacks.Update(ctx, existing.ID, fields); err != nil {
			return fmt.Errorf("failed to update feedback: %w", err)
		}
		if err := recomputeRating(ctx, tx, existing.TherapistID); err != nil {
			return err
		}

		feedback, err = tx.Feedbacks.GetByID(ctx, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishForFeedback(ctx, EventFeedbackUpdated, feedback)
	return feedback, nil
}

// DeleteFeedback removes the user's own review
func (s *FeedbackService) DeleteFeedback(ctx context.Context, userID, feedbackID uint) error {
	var deleted *models.Feedback
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		existing, err := s.ownFeedback(ctx, tx, userID, feedbackID)
		if err != nil {
			return err
		}

		if _, err := tx.Therapists.LockByID(ctx, existing.TherapistID); err != nil {
			return fmt.Errorf("failed to lock therapist: %w", err)
		}
		if err := tx.Feedbacks.Delete(ctx, existing.ID); err != nil {
			return fmt.Errorf("failed to delete feedback: %w", err)
		}
		deleted = existing
		return recomputeRating(ctx, tx, existing.TherapistID)
	})
	if err != nil {
		return err
	}

	s.publishForFeedback(ctx, EventFeedbackDeleted, deleted)
	return nil
}

// GetFeedback returns one review
func (s *FeedbackService) GetFeedback(ctx context.Context, feedbackID uint) (*models.Feedback, error) {
	feedback, err := s.store.Feedbacks.GetByID(ctx, feedbackID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("feedback not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	return feedback, nil
}

// ListTherapistFeedbacks returns a therapist's reviews, newest first
func (s *FeedbackService) ListTherapistFeedbacks(
	ctx context.Context,
	therapistID uint,
	page utils.Pagination,
) ([]models.Feedback, int64, error) {
	if _, err := s.store.Therapists.GetByID(ctx, therapistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, notFound("therapist not found")
		}
		return nil, 0, fmt.Errorf("failed to load therapist: %w", err)
	}

	feedbacks, total, err := s.store.Feedbacks.ListByTherapist(ctx, therapistID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedbacks, total, nil
}

// ListUserFeedbacks returns the reviews a user has written, newest first
func (s *FeedbackService) ListUserFeedbacks(
	ctx context.Context,
	userID uint,
	page utils.Pagination,
) ([]models.Feedback, int64, error) {
	feedbacks, total, err := s.store.Feedbacks.ListByUser(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedbacks, total, nil
}

func (s *FeedbackService) ownFeedback(ctx context.Context, tx *repository.Store, userID, feedbackID uint) (*models.Feedback, error) {
	feedback, err := tx.Feedbacks.GetForUser(ctx, feedbackID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("feedback not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	return feedback, nil
}

func (s *FeedbackService) publishForFeedback(ctx context.Context, eventType string, feedback *models.Feedback) {
	order, err := s.store.Orders.GetByID(ctx, feedback.OrderID)
	if err != nil {
		s.log.Warn("failed to load order for feedback event", zap.Uint("feedback_id", feedback.ID), zap.Error(err))
		return
	}
	s.publish(ctx, eventType, order, feedback.ID)
}

func (s *FeedbackService) publish(ctx context.Context, eventType string, order *models.Order, feedbackID uint) {
	event := newOrderEvent(eventType, order, s.now())
	event.FeedbackID = feedbackID
	publishAfterCommit(ctx, s.events, s.log, event)
}

// recomputeRating sets the therapist's rating to the mean of its current
// feedback rounded to one decimal, or back to the default when none is left
func recomputeRating(ctx context.Context, tx *repository.Store, therapistID uint) error {
	stats, err := tx.Feedbacks.Stats(ctx, therapistID)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	rating := models.DefaultTherapistRating
	if stats.Count > 0 {
		rating = roundRating(stats.Average)
	}

	if err := tx.Therapists.UpdateRating(ctx, therapistID, rating); err != nil {
		return fmt.Errorf("failed to update therapist rating: %w", err)
	}
	return nil
}

func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > maxFeedbackTags {
		return nil, validationf("at most %d tags are allowed", maxFeedbackTags)
	}
	return out, nil
}
