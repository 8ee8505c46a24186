package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
	"Mann Co. Supply Crate Key": "5021;6",
	"# Retired Key": "5081;6",
	"Burning Flames Team Captain": "378;5;u13",
	"Tour of Duty Ticket": "725;6"
}`

func TestParseCatalog(t *testing.T) {
	items, err := ParseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, Item{Key: "# Retired Key", SKU: "5081;6"}, items[0])
	assert.Equal(t, "Tour of Duty Ticket", items[3].Key)

	_, err = ParseCatalog([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)
}

func TestSkippable(t *testing.T) {
	tests := []struct {
		item     Item
		expected bool
	}{
		{Item{Key: "Mann Co. Supply Crate Key", SKU: "5021;6"}, false},
		{Item{Key: "#Mann Co. Supply Crate Key", SKU: "5021;6"}, true},
		{Item{Key: "Burning Flames Team Captain", SKU: "378;5;u13"}, true},
		{Item{Key: "Strange Rocket Launcher", SKU: "18;11"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.item.Key, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.Skippable())
		})
	}
}

func TestScannable(t *testing.T) {
	items, err := ParseCatalog([]byte(sampleCatalog))
	require.NoError(t, err)

	scannable := Scannable(items)
	require.Len(t, scannable, 2)
	assert.Equal(t, "Mann Co. Supply Crate Key", scannable[0].Key)
	assert.Equal(t, "Tour of Duty Ticket", scannable[1].Key)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	items, err := FileSource{Path: path}.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Items(context.Background())
	assert.Error(t, err)
}

type blobFunc func(ctx context.Context, branch, path string) ([]byte, error)

func (f blobFunc) Blob(ctx context.Context, branch, path string) ([]byte, error) {
	return f(ctx, branch, path)
}

func TestRepoSource(t *testing.T) {
	var gotBranch, gotPath string
	source := RepoSource{
		Store: blobFunc(func(_ context.Context, branch, path string) ([]byte, error) {
			gotBranch, gotPath = branch, path
			return []byte(sampleCatalog), nil
		}),
		Branch: "main",
		Path:   "items.json",
	}

	items, err := source.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, "main", gotBranch)
	assert.Equal(t, "items.json", gotPath)

	source.Store = blobFunc(func(context.Context, string, string) ([]byte, error) {
		return nil, ErrBlobNotFound
	})
	_, err = source.Items(context.Background())
	assert.True(t, errors.Is(err, ErrBlobNotFound))
}
