package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	rel, err := store.Save("gallery", ".PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "gallery/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.Equal(t, "/media/"+rel, store.PublicURL(rel))

	f, err := store.Open(rel)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	_, err = store.Open("../secret")
	assert.Error(t, err)

	rel, err := store.Save("../../logos", ".jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "logos/"))
}
