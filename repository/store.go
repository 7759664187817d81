package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle.
// Inside Transaction every repository is bound to the same transaction.
type Store struct {
	db *gorm.DB

	Users        UserRepository
	Therapists   TherapistRepository
	ServiceItems ServiceItemRepository
	Orders       OrderRepository
	Feedbacks    FeedbackRepository
	Messages     MessageRepository
}

// NewStore wires the GORM repositories over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewGormUserRepository(db),
		Therapists:   NewGormTherapistRepository(db),
		ServiceItems: NewGormServiceItemRepository(db),
		Orders:       NewGormOrderRepository(db),
		Feedbacks:    NewGormFeedbackRepository(db),
		Messages:     NewGormMessageRepository(db),
	}
}

// Transaction runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Tables lists the tables visible to the connection
func (s *Store) Tables() ([]string, error) {
	return s.db.Migrator().GetTables()
}
