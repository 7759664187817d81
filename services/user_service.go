package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
)

// RegisterInput is the profile a caller submits when signing up
type RegisterInput struct {
	Username string
	Phone    string
	Email    string
}

// ProfileUpdate changes only the fields that are set
type ProfileUpdate struct {
	Username  *string
	Phone     *string
	Email     *string
	AvatarURL *string
}

// UserService manages user profiles and maps token subjects to actors
type UserService struct {
	store    *repository.Store
	userInfo UserInfoFetcher
	log      *zap.Logger
}

// NewUserService creates a user service. userInfo may be nil when no
// identity provider profile lookup is available.
func NewUserService(store *repository.Store, userInfo UserInfoFetcher, log *zap.Logger) *UserService {
	return &UserService{
		store:    store,
		userInfo: userInfo,
		log:      log.Named("users"),
	}
}

// Register creates the profile for the token subject. Missing name and email
// are filled from the identity provider when one is configured.
func (s *UserService) Register(ctx context.Context, subject, accessToken string, in RegisterInput) (*models.User, error) {
	if subject == "" {
		return nil, validationf("token subject is required")
	}

	if _, err := s.store.Users.GetBySubject(ctx, subject); err == nil {
		return nil, conflict("user already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &models.User{
		AuthSubject: subject,
		Username:    strings.TrimSpace(in.Username),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		Status:      1,
		Role:        models.RoleUser,
	}

	if (user.Username == "" || user.Email == "") && s.userInfo != nil && accessToken != "" {
		info, err := s.userInfo.GetUserInfo(ctx, accessToken)
		if err != nil {
			s.log.Warn("failed to fetch user info", zap.String("subject", subject), zap.Error(err))
		} else {
			if user.Username == "" {
				user.Username = info.Name
			}
			if user.Email == "" {
				user.Email = info.Email
			}
			if user.AvatarURL == "" {
				user.AvatarURL = info.Picture
			}
		}
	}

	if user.Phone == "" {
		return nil, validationf("phone is required")
	}
	if err := validateEmail(user.Email); err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = user.Phone
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("phone number already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// GetProfile returns a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UpdateProfile edits the caller's own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	fields := map[string]any{}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, validationf("username must not be empty")
		}
		fields["username"] = username
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return nil, validationf("phone must not be empty")
		}
		fields["phone"] = phone
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if len(fields) == 0 {
		return nil, validationf("nothing to update")
	}

	err := s.store.Users.Update(ctx, userID, fields)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("user not found")
	case errors.Is(err, repository.ErrDuplicate):
		return nil, conflict("phone number already in use")
	case err != nil:
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// ResolveActor maps a token subject and its role claim to the identity the
// services act for. ok is false when the subject has no usable account.
// Therapists are found by their own subject first, then through the user
// account explicitly linked to the profile.
func (s *UserService) ResolveActor(ctx context.Context, subject string, role models.Role) (models.Actor, bool, error) {
	if role == models.RoleTherapist {
		return s.resolveTherapist(ctx, subject)
	}

	user, err := s.store.Users.GetBySubject(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Actor{}, false, nil
	}
	if err != nil {
		return models.Actor{}, false, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != 1 {
		return models.Actor{}, false, nil
	}
	return user.Actor(), true, nil
}

func (s *UserService) resolveTherapist(ctx context.Context, subject string) (models.Actor, bool, error) {
	therapist, err := s.store.Therapists.GetBySubject(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		user, userErr := s.store.Users.GetBySubject(ctx, subject)
		if errors.Is(userErr, repository.ErrNotFound) {
			return models.Actor{}, false, nil
		}
		if userErr != nil {
			return models.Actor{}, false, fmt.Errorf("failed to load user: %w", userErr)
		}
		therapist, err = s.store.Therapists.GetByLinkedUser(ctx, user.ID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return models.Actor{}, false, nil
	}
	if err != nil {
		return models.Actor{}, false, fmt.Errorf("failed to load therapist: %w", err)
	}
	if therapist.Status == models.TherapistStatusSuspended {
		return models.Actor{}, false, nil
	}

	return models.Actor{ID: therapist.ID, Role: models.RoleTherapist}, true, nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return validationf("invalid email address")
	}
	return nil
}
