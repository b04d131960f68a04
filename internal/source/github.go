// Package source fetches documents from external locations so the CLI can
// ingest them without a local file. Currently GitHub repositories.
package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Document is a fetched file ready for ingestion. Name doubles as the
// display name registered for the document and carries the owner/repo
// prefix so documents from different repositories cannot collide.
type Document struct {
	Name    string
	Content []byte
}

// GitHub fetches markdown documents from a repository path, which may be
// a directory (recursed) or a single file.
type GitHub struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
}

// NewGitHub creates a fetcher for the given repository and base path.
// Requests are rate-limit aware; setting GITHUB_TOKEN raises the API
// quota from 60 to 5000 requests per hour.
func NewGitHub(owner, repo, basePath string) (*GitHub, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("creating rate-limited client: %w", err)
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return &GitHub{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}, nil
}

// List returns the repository path of every markdown file under the base
// path, recursing into subdirectories. A base path naming a single
// markdown file lists just that file.
func (g *GitHub) List(ctx context.Context) ([]string, error) {
	return g.listRecursive(ctx, g.basePath)
}

func (g *GitHub) listRecursive(ctx context.Context, repoPath string) ([]string, error) {
	file, dir, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, repoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", repoPath, err)
	}

	if file != nil {
		if strings.HasSuffix(file.GetName(), ".md") {
			return []string{repoPath}, nil
		}
		return nil, nil
	}

	var docs []string
	for _, item := range dir {
		name := item.GetName()
		if name == "" {
			continue
		}

		switch item.GetType() {
		case "file":
			if strings.HasSuffix(name, ".md") {
				docs = append(docs, path.Join(repoPath, name))
			}
		case "dir":
			subDocs, err := g.listRecursive(ctx, path.Join(repoPath, name))
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}
	return docs, nil
}

// Fetch downloads one file by its repository path, as returned by List.
func (g *GitHub) Fetch(ctx context.Context, repoPath string) (Document, error) {
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, repoPath, nil)
	if err != nil {
		return Document{}, fmt.Errorf("fetching %s: %w", repoPath, err)
	}
	if fileContent == nil || fileContent.Content == nil {
		return Document{}, fmt.Errorf("no file content returned for %s", repoPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return Document{}, fmt.Errorf("decoding content of %s: %w", repoPath, err)
	}

	return Document{
		Name:    path.Join(g.owner, g.repo, repoPath),
		Content: content,
	}, nil
}
