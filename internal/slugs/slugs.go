// Package slugs derives URL slugs and finds a free one.
package slugs

import (
	"context"
	"strconv"

	"github.com/gosimple/slug"

	"github.com/Skotchmaster/portfolio/internal/apperr"
)

const (
	maxLength   = 96
	maxAttempts = 100
)

func Make(s string) string {
	out := slug.Make(s)
	if len(out) > maxLength {
		out = out[:maxLength]
		for len(out) > 0 && (out[len(out)-1] == '-' || out[len(out)-1] == '_') {
			out = out[:len(out)-1]
		}
	}
	return out
}

func Valid(s string) bool {
	return len(s) <= maxLength && slug.IsSlug(s)
}

// TakenFunc reports whether slug belongs to a row other than the one being
// written.
type TakenFunc func(ctx context.Context, slug string) (bool, error)

// Resolve picks the slug for a create or update. An explicit slug must be
// free as given; a slug derived from title gets -2, -3, ... appended until
// one is free.
func Resolve(ctx context.Context, explicit, title string, taken TakenFunc) (string, error) {
	if explicit != "" {
		if !Valid(explicit) {
			return "", apperr.Invalid("slug", "must contain only lowercase letters, digits and dashes")
		}
		used, err := taken(ctx, explicit)
		if err != nil {
			return "", err
		}
		if used {
			return "", apperr.Conflict("Slug already in use")
		}
		return explicit, nil
	}

	base := Make(title)
	if base == "" {
		return "", apperr.Invalid("title", "must contain at least one letter or digit")
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = base + "-" + strconv.Itoa(attempt)
		}
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("Could not generate a unique slug")
}
