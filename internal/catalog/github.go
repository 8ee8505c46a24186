package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"

	apierrors "itemliquidity/internal/errors"
)

// ErrBlobNotFound is returned when a path is missing from the branch tree
var ErrBlobNotFound = errors.New("blob not found")

// NewGitHubClient returns an API client authenticated with a personal access token.
// An empty token gives an anonymous client.
func NewGitHubClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// GitHubStore reads and writes files of one repository through the git data API
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	logger *slog.Logger
}

// NewGitHubStore creates a store for owner/repo
func NewGitHubStore(client *github.Client, owner, repo string, logger *slog.Logger) (*GitHubStore, error) {
	if client == nil {
		return nil, errors.New("github client is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q/%q", owner, repo)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubStore{
		client: client,
		owner:  owner,
		repo:   repo,
		logger: logger.With(slog.String("component", "github_store"), slog.String("repo", owner+"/"+repo)),
	}, nil
}

// Blob returns the content of path on branch. The branch head is resolved, its
// tree is listed (recursively when path is nested) and the matching blob is
// fetched by sha.
func (s *GitHubStore) Blob(ctx context.Context, branch, path string) ([]byte, error) {
	ref, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "heads/"+branch)
	if err != nil {
		return nil, s.networkError("resolve branch "+branch, err)
	}

	tree, _, err := s.client.Git.GetTree(ctx, s.owner, s.repo, ref.GetObject().GetSHA(), strings.Contains(path, "/"))
	if err != nil {
		return nil, s.networkError("list tree of "+branch, err)
	}

	var sha string
	for _, entry := range tree.Entries {
		if entry.GetPath() == path {
			sha = entry.GetSHA()
			break
		}
	}
	if sha == "" {
		return nil, fmt.Errorf("%s on %s: %w", path, branch, ErrBlobNotFound)
	}

	blob, _, err := s.client.Git.GetBlob(ctx, s.owner, s.repo, sha)
	if err != nil {
		return nil, s.networkError("fetch blob "+sha, err)
	}

	content := []byte(blob.GetContent())
	if blob.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(blob.GetContent())
		if err != nil {
			return nil, fmt.Errorf("decode blob %s: %w", sha, err)
		}
		content = decoded
	}

	s.logger.DebugContext(ctx, "Blob fetched",
		slog.String("branch", branch),
		slog.String("path", path),
		slog.Int("bytes", len(content)),
	)
	return content, nil
}

// UpdateFile replaces the content of path on branch with a single commit.
// A missing file is created.
func (s *GitHubStore) UpdateFile(ctx context.Context, branch, path, message string, content []byte) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}

	current, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && current != nil:
		opts.SHA = current.SHA
		if _, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts); err != nil {
			return s.networkError("update "+path, err)
		}
	case isNotFound(err):
		if _, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts); err != nil {
			return s.networkError("create "+path, err)
		}
	case err != nil:
		return s.networkError("get contents of "+path, err)
	default:
		return fmt.Errorf("%s is a directory", path)
	}

	s.logger.InfoContext(ctx, "File committed",
		slog.String("path", path),
		slog.String("message", message),
		slog.Int("bytes", len(content)),
	)
	return nil
}

// networkError tags a failed API call with the repository it targeted
func (s *GitHubStore) networkError(action string, err error) error {
	return apierrors.NewNetworkError(action, err).WithContext("repo", s.owner+"/"+s.repo)
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
