package publish

import (
	"context"
	"fmt"

	"itemliquidity/internal/liquidity"
	"itemliquidity/pkg/contracts/domain"
)

// FileUpdater creates or replaces a file on a repository branch
type FileUpdater interface {
	UpdateFile(ctx context.Context, branch, path, message string, content []byte) error
}

// GitHubPublisher commits the stats document to a repository file
type GitHubPublisher struct {
	Store   FileUpdater
	Branch  string
	Path    string
	Message string
}

// Name implements Publisher
func (p GitHubPublisher) Name() string { return "github" }

// Publish implements Publisher
func (p GitHubPublisher) Publish(ctx context.Context, stats domain.StatsSet) error {
	if p.Store == nil {
		return fmt.Errorf("github publisher has no repository")
	}
	content, err := liquidity.EncodeStats(stats)
	if err != nil {
		return err
	}
	return p.Store.UpdateFile(ctx, p.Branch, p.Path, p.Message, content)
}
