// Package tag manages the global interest-tag registry and the links
// between users and tags.
package tag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/store"
)

// SearchLimit caps Search results.
const SearchLimit = 10

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,29}$`)

func strip(input string) string {
	return strings.TrimPrefix(strings.TrimSpace(input), "#")
}

// Normalize trims input, strips one leading '#' and lower-cases it. The
// result must be 2-30 characters of [a-z0-9_-] starting with [a-z0-9].
func Normalize(input string) (string, error) {
	key := strings.ToLower(strip(input))
	if !keyPattern.MatchString(key) {
		return "", domain.NewValidationError("tags",
			fmt.Sprintf("invalid tag %q: use 2-30 letters, digits, '_' or '-', starting with a letter or digit", strings.TrimSpace(input)))
	}
	return key, nil
}

// DisplayName is the stored name for a new tag: '#' plus the original casing.
func DisplayName(input string) string {
	return "#" + strip(input)
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Attach links every tag in raw to the user, creating missing tags. Blank
// entries are dropped; the rest is validated before anything is written.
func (s *Service) Attach(ctx context.Context, userID uuid.UUID, raw []string) ([]domain.Tag, error) {
	type candidate struct{ key, name string }

	seen := make(map[string]struct{}, len(raw))
	candidates := make([]candidate, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		key, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, candidate{key: key, name: DisplayName(r)})
	}
	if len(candidates) == 0 {
		return nil, domain.NewValidationError("tags", "no tags provided")
	}

	var linked []domain.Tag
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		for _, c := range candidates {
			t, err := tx.Tags().GetOrCreate(ctx, c.key, c.name)
			if err != nil {
				return err
			}
			if err := tx.Tags().Link(ctx, userID, t.ID); err != nil {
				return err
			}
		}

		var err error
		linked, err = tx.Tags().ListForUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach tags: %w", err)
	}

	return linked, nil
}

// Detach unlinks the tag from the user. Unlinked or unknown tags are a no-op.
func (s *Service) Detach(ctx context.Context, userID uuid.UUID, raw string) error {
	key, err := Normalize(raw)
	if err != nil {
		return err
	}
	return s.store.Tags().Unlink(ctx, userID, key)
}

// Search returns up to SearchLimit tags whose key starts with prefix.
// Prefixes that normalize to nothing yield no results.
func (s *Service) Search(ctx context.Context, prefix string) ([]domain.Tag, error) {
	key := strings.ToLower(strip(prefix))
	if key == "" {
		return []domain.Tag{}, nil
	}
	if len(key) > 30 {
		return []domain.Tag{}, nil
	}
	return s.store.Tags().Search(ctx, key, SearchLimit)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	return s.store.Tags().ListForUser(ctx, userID)
}
