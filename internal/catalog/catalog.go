package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Item is one tradeable item of the catalog
type Item struct {
	Key string `json:"key"` // Display name, used as the stats key
	SKU string `json:"sku"` // Marketplace identifier, e.g. "5021;6"
}

// Skippable reports whether the item is excluded from scanning. Keys starting
// with "#" are commented out and unusual-effect SKUs (";u") are never scored.
func (i Item) Skippable() bool {
	return strings.HasPrefix(i.Key, "#") || strings.Contains(i.SKU, ";u")
}

// Source provides the item catalog
type Source interface {
	Items(ctx context.Context) ([]Item, error)
}

// ParseCatalog decodes an items.json document mapping item names to SKUs.
// The items are returned sorted by key.
func ParseCatalog(data []byte) ([]Item, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for key, sku := range raw {
		items = append(items, Item{Key: key, SKU: sku})
	}
	sort.Slice(items, func(a, b int) bool { return items[a].Key < items[b].Key })
	return items, nil
}

// Scannable filters out the skippable items
func Scannable(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.Skippable() {
			out = append(out, item)
		}
	}
	return out
}

// FileSource reads the catalog from a local items.json
type FileSource struct {
	Path string
}

// Items implements Source
func (f FileSource) Items(ctx context.Context) ([]Item, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	items, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Catalog loaded from file",
		slog.String("path", f.Path),
		slog.Int("items", len(items)),
	)
	return items, nil
}

// BlobReader reads a file from a branch of a repository
type BlobReader interface {
	Blob(ctx context.Context, branch, path string) ([]byte, error)
}

// RepoSource reads the catalog from a repository file
type RepoSource struct {
	Store  BlobReader
	Branch string
	Path   string
}

// Items implements Source
func (r RepoSource) Items(ctx context.Context) ([]Item, error) {
	data, err := r.Store.Blob(ctx, r.Branch, r.Path)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s@%s: %w", r.Path, r.Branch, err)
	}
	return ParseCatalog(data)
}
