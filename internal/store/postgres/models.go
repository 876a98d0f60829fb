package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/matcha/internal/domain"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              uuid.UUID  `bun:"id,pk,type:uuid"`
	Email           string     `bun:"email,notnull"`
	PasswordHash    string     `bun:"password_hash,notnull"`
	EmailVerified   bool       `bun:"email_verified,notnull"`
	EmailVerifiedAt *time.Time `bun:"email_verified_at"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}

type profileModel struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID     uuid.UUID `bun:"user_id,pk,type:uuid"`
	FirstName  string    `bun:"first_name,notnull"`
	LastName   string    `bun:"last_name,notnull"`
	Username   string    `bun:"username,notnull"`
	Gender     *string   `bun:"gender"`
	Preference *string   `bun:"preference"`
	Bio        *string   `bun:"bio"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

type secretTokenModel struct {
	bun.BaseModel `bun:"table:secret_tokens,alias:st"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID     uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	Purpose    string     `bun:"purpose,notnull"`
	TokenHash  []byte     `bun:"token_hash,notnull"`
	ExpiresAt  time.Time  `bun:"expires_at,notnull"`
	ConsumedAt *time.Time `bun:"consumed_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
}

type tagModel struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Name       string `bun:"name,notnull"`
	Normalized string `bun:"normalized,notnull"`
}

type userTagModel struct {
	bun.BaseModel `bun:"table:user_tags,alias:ut"`

	UserID    uuid.UUID `bun:"user_id,pk,type:uuid"`
	TagID     int64     `bun:"tag_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type photoModel struct {
	bun.BaseModel `bun:"table:photos,alias:ph"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	URL       string    `bun:"url,notnull"`
	IsPrimary bool      `bun:"is_primary,notnull"`
	SortOrder int       `bun:"sort_order,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:              m.ID,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		EmailVerified:   m.EmailVerified,
		EmailVerifiedAt: m.EmailVerifiedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (m *profileModel) toDomain() *domain.Profile {
	return &domain.Profile{
		UserID:     m.UserID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Username:   m.Username,
		Gender:     m.Gender,
		Preference: m.Preference,
		Bio:        m.Bio,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (m *secretTokenModel) toDomain() *domain.SecretToken {
	return &domain.SecretToken{
		ID:         m.ID,
		UserID:     m.UserID,
		Purpose:    domain.TokenPurpose(m.Purpose),
		TokenHash:  m.TokenHash,
		ExpiresAt:  m.ExpiresAt,
		ConsumedAt: m.ConsumedAt,
		CreatedAt:  m.CreatedAt,
	}
}

func (m *tagModel) toDomain() domain.Tag {
	return domain.Tag{ID: m.ID, Name: m.Name, Normalized: m.Normalized}
}

func (m *photoModel) toDomain() domain.Photo {
	return domain.Photo{
		ID:        m.ID,
		UserID:    m.UserID,
		URL:       m.URL,
		IsPrimary: m.IsPrimary,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
	}
}
