// Package profile updates profile basics and assembles the signed-in
// user's view together with its completeness.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
	"github.com/redmonkez12/matcha/internal/validation"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

type UpdateProfileInput struct {
	Gender     string `json:"gender" validate:"required,max=50"`
	Preference string `json:"preference" validate:"required,max=50"`
	Bio        string `json:"bio" validate:"required,min=10,max=500"`
}

// Me is everything the client needs to render the onboarding state.
type Me struct {
	UserID            uuid.UUID       `json:"user_id"`
	Email             string          `json:"email"`
	EmailVerified     bool            `json:"email_verified"`
	Profile           *domain.Profile `json:"profile"`
	Tags              []domain.Tag    `json:"tags"`
	Photos            []domain.Photo  `json:"photos"`
	Completeness      Completeness    `json:"completeness"`
	IsProfileComplete bool            `json:"is_profile_complete"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*domain.Profile, error) {
	in.Gender = strings.TrimSpace(in.Gender)
	in.Preference = strings.TrimSpace(in.Preference)
	in.Bio = strings.TrimSpace(in.Bio)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if err := s.store.Profiles().UpdateBasics(ctx, userID, in.Gender, in.Preference, in.Bio); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.store.Profiles().GetByUserID(ctx, userID)
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (*Me, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	me := &Me{UserID: user.ID, Email: user.Email, EmailVerified: user.EmailVerified}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.Profiles().GetByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		me.Profile = p
		return nil
	})
	g.Go(func() error {
		tags, err := s.store.Tags().ListForUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}
		me.Tags = tags
		return nil
	})
	g.Go(func() error {
		photos, err := s.store.Photos().ListForUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load photos: %w", err)
		}
		me.Photos = photos
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if me.Tags == nil {
		me.Tags = []domain.Tag{}
	}
	if me.Photos == nil {
		me.Photos = []domain.Photo{}
	}

	me.Completeness = Evaluate(me.Profile, me.Tags, me.Photos)
	me.IsProfileComplete = me.Completeness.IsProfileComplete
	return me, nil
}
