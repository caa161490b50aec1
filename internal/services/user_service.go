package services

import (
	"context"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

type ProfileUpdate = database.ProfileUpdate

const (
	maxBioLength   = 500
	maxMoodLength  = 100
	maxInterests   = 20
	maxHandleRunes = 50
)

type UserService struct {
	store database.Store
	now   Clock
}

func NewUserService(store database.Store, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{store: store, now: o.now}
}

// CreateUser registers an account. Signup flows call this after verifying
// the email address.
func (s *UserService) CreateUser(ctx context.Context, email, handle string, realName *string) (*User, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"anonymous_handle": handle,
		"operation":        "create_user",
	})

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	handle = strings.TrimSpace(handle)
	if handle == "" || utf8.RuneCountInString(handle) > maxHandleRunes {
		return nil, errors.NewValidationError("anonymous_handle", "handle must be between 1 and 50 characters")
	}

	user := &User{
		ID:              uuid.New().String(),
		Email:           email,
		AnonymousHandle: handle,
		RealName:        trimmedOrNil(realName),
		Interests:       database.StringList{},
		Level:           1,
		CreatedAt:       s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		logger.WithError(err).Warn("Failed to create user")
		return nil, storeError("create user", "user", err)
	}

	logger.WithField("user_id", user.ID).Info("Successfully created user")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeError("get user", "user", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of p
func (s *UserService) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*User, error) {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"user_id":   userID,
		"operation": "update_profile",
	})

	if err := validateProfile(&p); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUserProfile(ctx, userID, p, s.now())
	if err != nil {
		logger.WithError(err).Error("Failed to update profile")
		return nil, storeError("update profile", "user", err)
	}

	logger.Debug("Profile updated")
	return user, nil
}

// validateProfile trims p in place and enforces field limits
func validateProfile(p *ProfileUpdate) error {
	if p.Bio != nil {
		bio := strings.TrimSpace(*p.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return errors.NewValidationError("bio", "bio must be at most 500 characters")
		}
		p.Bio = &bio
	}
	if p.MoodStatus != nil {
		mood := strings.TrimSpace(*p.MoodStatus)
		if utf8.RuneCountInString(mood) > maxMoodLength {
			return errors.NewValidationError("mood_status", "mood status must be at most 100 characters")
		}
		p.MoodStatus = &mood
	}
	if p.Interests != nil {
		cleaned := make(database.StringList, 0, len(p.Interests))
		seen := map[string]bool{}
		for _, interest := range p.Interests {
			interest = strings.TrimSpace(interest)
			key := strings.ToLower(interest)
			if interest == "" || seen[key] {
				continue
			}
			seen[key] = true
			cleaned = append(cleaned, interest)
		}
		if len(cleaned) > maxInterests {
			return errors.NewValidationError("interests", "at most 20 interests are allowed")
		}
		p.Interests = cleaned
	}
	if p.ProfilePhotoURL != nil {
		raw := strings.TrimSpace(*p.ProfilePhotoURL)
		if raw != "" {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return errors.NewValidationError("profile_photo_url", "profile photo url must be an http(s) url")
			}
		}
		p.ProfilePhotoURL = &raw
	}
	return nil
}
