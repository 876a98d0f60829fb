package domain

// Tag is global and deduplicated by Normalized. Name keeps the casing of
// whoever used the tag first, with a leading '#'.
type Tag struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
}
