package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugMaxLen = 160

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugify lower-cases s, drops diacritics and joins alphanumeric runs with "-".
func slugify(s string) string {
	folded, _, err := transform.String(stripMarks, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(s))
	}
	var b strings.Builder
	dash := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.TrimRight(out[:slugMaxLen], "-")
	}
	return out
}

// uniqueSlug returns base, or base-2, base-3 ... until taken reports false.
func uniqueSlug(ctx context.Context, base, fallback string, taken func(context.Context, string) (bool, error)) (string, error) {
	if base == "" {
		base = fallback
	}
	candidate := base
	for i := 2; i < 1000; i++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > slugMaxLen {
			trimmed = strings.TrimRight(trimmed[:slugMaxLen-len(suffix)], "-")
		}
		candidate = trimmed + suffix
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
