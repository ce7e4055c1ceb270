package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Wisuda Santri 2025":          "wisuda-santri-2025",
		"  Juara 1 Lomba MTQ!  ":      "juara-1-lomba-mtq",
		"Kegiatan Ramadhan -- Pondok": "kegiatan-ramadhan-pondok",
		"Café Ilmu & Dzikir":          "cafe-ilmu-dzikir",
		"":                            "",
		"!!!":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), in)
	}
	assert.LessOrEqual(t, len(slugify(strings.Repeat("a", 300))), slugMaxLen)
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"wisuda": true, "wisuda-2": true}
	lookup := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	slug, err := uniqueSlug(context.Background(), "wisuda", "berita", lookup)
	require.NoError(t, err)
	assert.Equal(t, "wisuda-3", slug)

	slug, err = uniqueSlug(context.Background(), "", "berita", lookup)
	require.NoError(t, err)
	assert.Equal(t, "berita", slug)
}
