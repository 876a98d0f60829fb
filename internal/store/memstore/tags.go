package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
)

type tagRepository struct {
	s *Store
}

func (r *tagRepository) GetOrCreate(_ context.Context, normalized, name string) (*domain.Tag, error) {
	defer r.s.lock()()

	if t, ok := r.s.data.tags[normalized]; ok {
		return &t, nil
	}
	r.s.data.tagSeq++
	t := domain.Tag{ID: r.s.data.tagSeq, Name: name, Normalized: normalized}
	r.s.data.tags[normalized] = t
	return &t, nil
}

func (r *tagRepository) Link(_ context.Context, userID uuid.UUID, tagID int64) error {
	defer r.s.lock()()

	set, ok := r.s.data.userTags[userID]
	if !ok {
		set = make(map[int64]struct{})
		r.s.data.userTags[userID] = set
	}
	set[tagID] = struct{}{}
	return nil
}

func (r *tagRepository) Unlink(_ context.Context, userID uuid.UUID, normalized string) error {
	defer r.s.lock()()

	t, ok := r.s.data.tags[normalized]
	if !ok {
		return nil
	}
	delete(r.s.data.userTags[userID], t.ID)
	return nil
}

func (r *tagRepository) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	defer r.s.lock()()

	set := r.s.data.userTags[userID]
	tags := make([]domain.Tag, 0, len(set))
	for _, t := range r.s.data.tags {
		if _, ok := set[t.ID]; ok {
			tags = append(tags, t)
		}
	}
	sortByName(tags)
	return tags, nil
}

func (r *tagRepository) Search(_ context.Context, prefix string, limit int) ([]domain.Tag, error) {
	defer r.s.lock()()

	tags := make([]domain.Tag, 0)
	for _, t := range r.s.data.tags {
		if strings.HasPrefix(t.Normalized, prefix) {
			tags = append(tags, t)
		}
	}
	sortByName(tags)
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

func sortByName(tags []domain.Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
}
