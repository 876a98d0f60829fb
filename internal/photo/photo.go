// Package photo manages each user's photo collection: at most
// domain.MaxPhotosPerUser images with exactly one primary while non-empty.
package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/store"
)

// BlobStore holds the image bytes behind a photo URL.
type BlobStore interface {
	Put(ctx context.Context, ownerID uuid.UUID, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type Upload struct {
	Data        []byte
	ContentType string
	// Filename is the client's name for the file, kept for logs only.
	Filename string
}

// validate checks size and that the sniffed content agrees with the
// declared type.
func (u Upload) validate() error {
	if len(u.Data) == 0 {
		return domain.NewValidationError("file", "file is empty")
	}
	if len(u.Data) > domain.MaxPhotoBytes {
		return domain.NewValidationError("file", "file exceeds the 5 MB limit")
	}
	if !allowedTypes[u.ContentType] {
		return domain.NewValidationError("file", "only JPEG, PNG and WebP images are allowed")
	}
	if !mimetype.Detect(u.Data).Is(u.ContentType) {
		return domain.NewValidationError("file", "file content does not match its declared type")
	}
	return nil
}

type Service struct {
	store  store.Store
	blobs  BlobStore
	logger *logging.Logger
	now    func() time.Time
}

func NewService(st store.Store, blobs BlobStore, logger *logging.Logger) *Service {
	return &Service{store: st, blobs: blobs, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Photo, error) {
	return s.store.Photos().ListForUser(ctx, userID)
}

// Upload stores the image and records it. The first photo becomes primary.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, up Upload) (*domain.Photo, error) {
	if err := up.validate(); err != nil {
		return nil, err
	}

	count, err := s.store.Photos().Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count photos: %w", err)
	}
	if count >= domain.MaxPhotosPerUser {
		return nil, &domain.CapacityError{Limit: domain.MaxPhotosPerUser}
	}

	url, err := s.blobs.Put(ctx, userID, up.Data, up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	var photo *domain.Photo
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Users().Lock(ctx, userID); err != nil {
			return err
		}

		count, err := tx.Photos().Count(ctx, userID)
		if err != nil {
			return err
		}
		if count >= domain.MaxPhotosPerUser {
			return &domain.CapacityError{Limit: domain.MaxPhotosPerUser}
		}

		photo = &domain.Photo{
			ID:        uuid.New(),
			UserID:    userID,
			URL:       url,
			IsPrimary: count == 0,
			SortOrder: count,
			CreatedAt: s.now().UTC(),
		}
		return tx.Photos().Create(ctx, photo)
	})
	if err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), url); derr != nil {
			s.logger.WithError(derr).Warn("failed to remove orphaned photo blob", "url", url)
		}
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	s.logger.Info("photo uploaded",
		"user_id", userID,
		"photo_id", photo.ID,
		"filename", up.Filename,
		"bytes", len(up.Data),
	)
	return photo, nil
}

// SetPrimary makes photoID the user's only primary photo.
func (s *Service) SetPrimary(ctx context.Context, userID, photoID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Users().Lock(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Photos().GetOwned(ctx, userID, photoID); err != nil {
			return err
		}
		return tx.Photos().SetPrimary(ctx, userID, photoID)
	})
}

// Delete removes the photo. When it was primary the earliest remaining
// photo is promoted. The blob is removed after the record is gone.
func (s *Service) Delete(ctx context.Context, userID, photoID uuid.UUID) error {
	var removed *domain.Photo
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Users().Lock(ctx, userID); err != nil {
			return err
		}

		p, err := tx.Photos().GetOwned(ctx, userID, photoID)
		if err != nil {
			return err
		}
		if err := tx.Photos().Delete(ctx, userID, photoID); err != nil {
			return err
		}
		if p.IsPrimary {
			if err := tx.Photos().PromoteOldest(ctx, userID); err != nil {
				return err
			}
		}
		removed = p
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, removed.URL); err != nil {
		s.logger.WithError(err).Warn("failed to remove photo blob", "url", removed.URL)
	}
	return nil
}
