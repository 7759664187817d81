package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// Service categories offered in the catalog
var serviceCategories = map[string]bool{
	"classic": true,
	"special": true,
	"custom":  true,
}

// ServiceItemInput describes a new catalog package
type ServiceItemInput struct {
	Name        string
	Description string
	Duration    int
	Price       float64
	Category    string
}

// ServiceItemUpdate changes only the fields that are set
type ServiceItemUpdate struct {
	Name        *string
	Description *string
	Duration    *int
	Price       *float64
	Category    *string
}

// TherapistInput registers a therapist profile
type TherapistInput struct {
	Name            string
	Phone           string
	IDCard          string
	Age             int
	Certification   string
	ExperienceYears int
	Specialty       string
	Introduction    string
	// AuthSubject lets the therapist log in with their own identity
	AuthSubject string
	// UserID links the profile to an existing user account
	UserID *uint
	Active bool
}

// CatalogService serves the therapist directory and the service catalog
type CatalogService struct {
	store  *repository.Store
	images ImageService
	log    *zap.Logger
}

// NewCatalogService creates a catalog service. images resolves and stores
// therapist avatars.
func NewCatalogService(store *repository.Store, images ImageService, log *zap.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		images: images,
		log:    log.Named("catalog"),
	}
}

// ListTherapists returns active therapists, best rated first
func (s *CatalogService) ListTherapists(ctx context.Context, keyword string, page utils.Pagination) ([]models.Therapist, int64, error) {
	therapists, total, err := s.store.Therapists.ListActive(ctx, strings.TrimSpace(keyword), page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list therapists: %w", err)
	}
	for i := range therapists {
		s.withAvatarURL(ctx, &therapists[i])
	}
	return therapists, total, nil
}

// GetTherapist returns an active therapist with the packages it offers
func (s *CatalogService) GetTherapist(ctx context.Context, therapistID uint) (*models.Therapist, error) {
	therapist, err := s.store.Therapists.GetActive(ctx, therapistID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("therapist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist: %w", err)
	}
	s.withAvatarURL(ctx, therapist)
	return therapist, nil
}

// GetMyTherapistProfile returns the calling therapist's own profile in any status
func (s *CatalogService) GetMyTherapistProfile(ctx context.Context, therapistID uint) (*models.Therapist, error) {
	therapist, err := s.store.Therapists.GetByID(ctx, therapistID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("therapist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist: %w", err)
	}
	s.withAvatarURL(ctx, therapist)
	return therapist, nil
}

// UploadAvatar stores a new avatar for the therapist and drops the old one
func (s *CatalogService) UploadAvatar(ctx context.Context, therapistID uint, fileHeader *multipart.FileHeader) (*models.Therapist, error) {
	therapist, err := s.GetMyTherapistProfile(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.UploadImage(ctx, fmt.Sprintf("therapists/%d", therapistID), fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, validationf("%s", uploadErr.Message)
		}
		return nil, err
	}

	if err := s.store.Therapists.UpdateAvatar(ctx, therapistID, key); err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	if old := therapist.AvatarKey; old != "" && old != key {
		if err := s.images.DeleteImage(ctx, old); err != nil {
			s.log.Warn("failed to delete previous avatar", zap.Uint("therapist_id", therapistID), zap.Error(err))
		}
	}

	therapist.AvatarKey = key
	s.withAvatarURL(ctx, therapist)
	return therapist, nil
}

// ListServiceItems returns bookable packages, optionally of one category
func (s *CatalogService) ListServiceItems(ctx context.Context, category string) ([]models.ServiceItem, error) {
	items, err := s.store.ServiceItems.ListActive(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list service items: %w", err)
	}
	return items, nil
}

// GetServiceItem returns a bookable package
func (s *CatalogService) GetServiceItem(ctx context.Context, itemID uint) (*models.ServiceItem, error) {
	item, err := s.store.ServiceItems.GetActive(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("service item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service item: %w", err)
	}
	return item, nil
}

// CreateServiceItem adds an active package to the catalog
func (s *CatalogService) CreateServiceItem(ctx context.Context, in ServiceItemInput) (*models.ServiceItem, error) {
	item := &models.ServiceItem{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Status:      models.ServiceItemActive,
	}
	if err := validateServiceItem(item); err != nil {
		return nil, err
	}

	if err := s.store.ServiceItems.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create service item: %w", err)
	}
	return item, nil
}

// UpdateServiceItem edits a package. Existing orders keep their snapshot.
func (s *CatalogService) UpdateServiceItem(ctx context.Context, itemID uint, in ServiceItemUpdate) (*models.ServiceItem, error) {
	item, err := s.store.ServiceItems.GetByID(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("service item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service item: %w", err)
	}

	fields := map[string]any{}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
		fields["name"] = item.Name
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
		fields["description"] = item.Description
	}
	if in.Duration != nil {
		item.Duration = *in.Duration
		fields["duration"] = item.Duration
	}
	if in.Price != nil {
		item.Price = *in.Price
		fields["price"] = item.Price
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
		fields["category"] = item.Category
	}
	if len(fields) == 0 {
		return nil, validationf("nothing to update")
	}
	if err := validateServiceItem(item); err != nil {
		return nil, err
	}

	if err := s.store.ServiceItems.Update(ctx, itemID, fields); err != nil {
		return nil, fmt.Errorf("failed to update service item: %w", err)
	}
	return s.store.ServiceItems.GetByID(ctx, itemID)
}

// DeactivateServiceItem withdraws a package from booking
func (s *CatalogService) DeactivateServiceItem(ctx context.Context, itemID uint) error {
	err := s.store.ServiceItems.Update(ctx, itemID, map[string]any{"status": models.ServiceItemDisabled})
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("service item not found")
	}
	if err != nil {
		return fmt.Errorf("failed to deactivate service item: %w", err)
	}
	return nil
}

// AssignServices replaces the packages a therapist offers
func (s *CatalogService) AssignServices(ctx context.Context, therapistID uint, itemIDs []uint) (*models.Therapist, error) {
	ids := uniqueIDs(itemIDs)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Therapists.LockByID(ctx, therapistID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("therapist not found")
			}
			return fmt.Errorf("failed to load therapist: %w", err)
		}

		items, err := tx.ServiceItems.ListByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load service items: %w", err)
		}
		if len(items) != len(ids) {
			return validationf("unknown service item in list")
		}

		if err := tx.Therapists.ReplaceServiceItems(ctx, therapistID, items); err != nil {
			return fmt.Errorf("failed to assign services: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetMyTherapistProfile(ctx, therapistID)
}

// SetTherapistStatus approves, suspends or reinstates a therapist
func (s *CatalogService) SetTherapistStatus(ctx context.Context, therapistID uint, status models.TherapistStatus) (*models.Therapist, error) {
	if !status.Valid() {
		return nil, validationf("invalid therapist status")
	}

	err := s.store.Therapists.UpdateStatus(ctx, therapistID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("therapist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update therapist status: %w", err)
	}

	s.log.Info("therapist status changed",
		zap.Uint("therapist_id", therapistID),
		zap.Int("status", int(status)),
	)
	return s.GetMyTherapistProfile(ctx, therapistID)
}

// CreateTherapist registers a therapist profile, pending review unless Active is set
func (s *CatalogService) CreateTherapist(ctx context.Context, in TherapistInput) (*models.Therapist, error) {
	therapist := &models.Therapist{
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		IDCard:          strings.TrimSpace(in.IDCard),
		Age:             in.Age,
		Certification:   strings.TrimSpace(in.Certification),
		ExperienceYears: in.ExperienceYears,
		Specialty:       strings.TrimSpace(in.Specialty),
		Introduction:    strings.TrimSpace(in.Introduction),
		UserID:          in.UserID,
		Status:          models.TherapistStatusPending,
	}
	if subject := strings.TrimSpace(in.AuthSubject); subject != "" {
		therapist.AuthSubject = &subject
	}
	if in.Active {
		therapist.Status = models.TherapistStatusActive
	}

	switch {
	case therapist.Name == "":
		return nil, validationf("name is required")
	case therapist.Phone == "":
		return nil, validationf("phone is required")
	case therapist.Age < 0 || therapist.ExperienceYears < 0:
		return nil, validationf("age and experience_years must not be negative")
	}

	if in.UserID != nil {
		if _, err := s.store.Users.GetByID(ctx, *in.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, validationf("linked user does not exist")
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
	}

	if err := s.store.Therapists.Create(ctx, therapist); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("therapist with this phone or login already exists")
		}
		return nil, fmt.Errorf("failed to create therapist: %w", err)
	}
	return therapist, nil
}

func (s *CatalogService) withAvatarURL(ctx context.Context, therapist *models.Therapist) {
	if therapist.AvatarKey == "" {
		return
	}
	url, err := s.images.GetImageURL(ctx, therapist.AvatarKey)
	if err != nil {
		s.log.Warn("failed to resolve avatar URL", zap.Uint("therapist_id", therapist.ID), zap.Error(err))
		return
	}
	therapist.AvatarURL = url
}

func validateServiceItem(item *models.ServiceItem) error {
	switch {
	case item.Name == "":
		return validationf("name is required")
	case item.Duration <= 0:
		return validationf("duration must be greater than 0")
	case item.Price < 0:
		return validationf("price must not be negative")
	case !serviceCategories[item.Category]:
		return validationf("category must be one of classic, special, custom")
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
