package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

const (
	maxMessageLength     = 2000
	msgOrderAccessDenied = "order not found or access denied"
)

// MessageService carries per-order conversations between a user and the assigned therapist
type MessageService struct {
	store  *repository.Store
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewMessageService creates a messaging service over store
func NewMessageService(store *repository.Store, events EventPublisher, log *zap.Logger) *MessageService {
	return &MessageService{
		store:  store,
		events: events,
		log:    log.Named("messages"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage posts content on an order's thread. The receiver is always the
// other party of the order.
func (s *MessageService) SendMessage(ctx context.Context, actor models.Actor, orderID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, validationf("content must be at most %d characters", maxMessageLength)
	}

	sender := partyOf(actor)
	order, err := s.participantOrder(ctx, s.store, sender, orderID)
	if err != nil {
		return nil, err
	}

	receiver := order.Counterpart(sender)
	message := &models.Message{
		OrderID:      order.ID,
		SenderID:     sender.ID,
		SenderRole:   sender.Role,
		ReceiverID:   receiver.ID,
		ReceiverRole: receiver.Role,
		Content:      content,
	}
	if err := s.store.Messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	event := newOrderEvent(EventMessageSent, order, s.now())
	event.MessageID = message.ID
	publishAfterCommit(ctx, s.events, s.log, event)

	return message, nil
}

// GetMessageHistory returns an order's thread oldest first and marks the
// messages addressed to the caller as read
func (s *MessageService) GetMessageHistory(
	ctx context.Context,
	actor models.Actor,
	orderID uint,
	page utils.Pagination,
) ([]models.Message, int64, error) {
	reader := partyOf(actor)

	var (
		messages []models.Message
		total    int64
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.participantOrder(ctx, tx, reader, orderID); err != nil {
			return err
		}

		if _, err := tx.Messages.MarkOrderRead(ctx, orderID, reader); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}

		var err error
		messages, total, err = tx.Messages.ListByOrder(ctx, orderID, page.Limit(), page.Offset())
		if err != nil {
			return fmt.Errorf("failed to list messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// GetConversationList returns the latest message of every order thread the
// caller takes part in, most recent first
func (s *MessageService) GetConversationList(
	ctx context.Context,
	actor models.Actor,
	page utils.Pagination,
) ([]models.Message, int64, error) {
	messages, total, err := s.store.Messages.LatestPerOrder(ctx, partyOf(actor), page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	return messages, total, nil
}

// GetUnreadCount counts messages addressed to the caller that are still unread
func (s *MessageService) GetUnreadCount(ctx context.Context, actor models.Actor) (int64, error) {
	count, err := s.store.Messages.CountUnread(ctx, partyOf(actor))
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkMessageRead marks one message addressed to the caller as read
func (s *MessageService) MarkMessageRead(ctx context.Context, actor models.Actor, messageID uint) (*models.Message, error) {
	receiver := partyOf(actor)

	message, err := s.store.Messages.GetByID(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if message.ReceiverID != receiver.ID || message.ReceiverRole != receiver.Role {
		return nil, notFound("message not found")
	}

	if !message.IsRead {
		if _, err := s.store.Messages.MarkRead(ctx, message.ID, receiver); err != nil {
			return nil, fmt.Errorf("failed to mark message read: %w", err)
		}
		message.IsRead = true
	}
	return message, nil
}

// participantOrder loads the order only if actor is one of its two parties
func (s *MessageService) participantOrder(
	ctx context.Context,
	store *repository.Store,
	actor models.Actor,
	orderID uint,
) (*models.Order, error) {
	order, err := store.Orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(msgOrderAccessDenied)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !order.IsParty(actor) {
		return nil, notFound(msgOrderAccessDenied)
	}
	return order, nil
}
