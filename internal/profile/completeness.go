package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/redmonkez12/matcha/internal/domain"
)

// MinBioLength is the shortest trimmed bio that counts toward completeness.
const MinBioLength = 10

// Completeness reports which onboarding steps a profile has satisfied.
type Completeness struct {
	Basics            bool `json:"basics"`
	Tags              bool `json:"tags"`
	Photos            bool `json:"photos"`
	IsProfileComplete bool `json:"is_profile_complete"`
}

// Evaluate derives completeness from current state. It has no side effects
// and its result is never stored.
func Evaluate(p *domain.Profile, tags []domain.Tag, photos []domain.Photo) Completeness {
	c := Completeness{
		Basics: hasBasics(p),
		Tags:   len(tags) > 0,
		Photos: hasPrimaryPhoto(photos),
	}
	c.IsProfileComplete = c.Basics && c.Tags && c.Photos
	return c
}

func hasBasics(p *domain.Profile) bool {
	if p == nil {
		return false
	}
	return nonBlank(p.Gender) && nonBlank(p.Preference) &&
		p.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*p.Bio)) >= MinBioLength
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func hasPrimaryPhoto(photos []domain.Photo) bool {
	primaries := 0
	for _, p := range photos {
		if p.IsPrimary {
			primaries++
		}
	}
	return len(photos) > 0 && primaries == 1
}
