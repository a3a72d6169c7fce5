package scope

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedExtractStripRoundTrip(t *testing.T) {
	names := []string{"Period 1", "", "[[nested]]", "]]odd[[", "Класс 7Б", "a]]b"}
	tokens := []string{"AbC12", "zzzzz", "00000"}

	for _, name := range names {
		for _, token := range tokens {
			embedded := Embed(name, token)

			got, ok := Extract(embedded)
			require.True(t, ok, "extract %q", embedded)
			assert.Equal(t, token, got)
			assert.Equal(t, name, Strip(embedded))
		}
	}
}

func TestExtractStripIdentityOnPlainNames(t *testing.T) {
	for _, name := range []string{"Period 1", "", "[x]]y", " [[AbC12]]lead space", "]]AbC12[["} {
		_, ok := Extract(name)
		assert.False(t, ok, "extract %q", name)
		assert.Equal(t, name, Strip(name))
	}
}

func TestMalformedPrefixHasNoToken(t *testing.T) {
	for _, name := range []string{"[[AbC12", "[[", "[[AbC12]Period"} {
		_, ok := Extract(name)
		assert.False(t, ok, "extract %q", name)
		assert.Equal(t, name, Strip(name))
	}
}

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token := GenerateToken()
		require.Len(t, token, TokenLength)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
		}
		seen[token] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestScopeTokenIsIdempotent(t *testing.T) {
	source := NewMemorySource("")
	s := New(source)

	first, err := s.Token()
	require.NoError(t, err)
	second, err := s.Token()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.Saves())

	// A fresh Scope over the same storage sees the same token.
	again, err := New(source).Token()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, source.Saves())
}

func TestFileSourcePersistsToken(t *testing.T) {
	dir := t.TempDir()

	token, err := New(NewFileSource(dir)).Token()
	require.NoError(t, err)

	reloaded, err := New(NewFileSource(dir)).Token()
	require.NoError(t, err)
	assert.Equal(t, token, reloaded)
	assert.FileExists(t, filepath.Join(dir, StorageKey))
}

func TestValidToken(t *testing.T) {
	for _, token := range []string{"AbC12", "0", strings.Repeat("z", MaxTokenLength), GenerateToken()} {
		assert.True(t, ValidToken(token), token)
	}
	for _, token := range []string{"", "ab]]cd", "[[ab", "Ab C1", "tök", "a-b", strings.Repeat("z", MaxTokenLength+1)} {
		assert.False(t, ValidToken(token), token)
	}
}

func TestFileSourceRejectsEditedToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StorageKey), []byte("ab]]cd\n"), 0o600))

	_, err := NewFileSource(dir).Load()
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = New(NewFileSource(dir)).Token()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopeTokenRejectsInvalidStoredToken(t *testing.T) {
	source := NewMemorySource("ab]]cd")

	_, err := New(source).Token()
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 0, source.Saves())
}

func TestBelongsToCurrent(t *testing.T) {
	s := New(NewMemorySource("AbC12"))

	assert.True(t, s.BelongsToCurrent("[[AbC12]]Period 1"))
	assert.False(t, s.BelongsToCurrent("[[XyZ99]]Period 1"))
	assert.False(t, s.BelongsToCurrent("Period 1"))
	assert.False(t, s.BelongsToCurrent("[[]]Period 1"))
}

func TestFilterByScopePreservesOrder(t *testing.T) {
	type class struct{ name string }
	items := []class{
		{"[[AbC12]]Period 1"},
		{"[[XyZ99]]Period 2"},
		{"Period 3"},
		{"[[AbC12]]Period 4"},
		{"[[AbC12"},
		{"[[AbC12]]Period 6"},
	}

	s := New(NewMemorySource("AbC12"))
	kept, err := Filter(s, items, func(c class) string { return c.name })
	require.NoError(t, err)

	require.Len(t, kept, 3)
	assert.Equal(t, "[[AbC12]]Period 1", kept[0].name)
	assert.Equal(t, "[[AbC12]]Period 4", kept[1].name)
	assert.Equal(t, "[[AbC12]]Period 6", kept[2].name)

	assert.Empty(t, FilterByScope(items, func(c class) string { return c.name }, "nobody"))
}
