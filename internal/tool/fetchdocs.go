package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

var repoSlugPattern = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

// FetchDocsTool pulls documentation files straight from a GitHub repository
// via raw.githubusercontent.com.
type FetchDocsTool struct {
	client *http.Client
}

func NewFetchDocsTool() *FetchDocsTool {
	return &FetchDocsTool{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (t *FetchDocsTool) Name() string { return "fetch_docs" }
func (t *FetchDocsTool) Description() string {
	return "Fetch a documentation file from a GitHub repository (README.md by default)."
}

func (t *FetchDocsTool) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "repo",
			Type:        "string",
			Description: "Repository slug in owner/name form, e.g. spf13/cobra",
			Required:    true,
		},
		{
			Name:        "path",
			Type:        "string",
			Description: "File path within the repository (default: README.md)",
			Default:     "README.md",
		},
		{
			Name:        "branch",
			Type:        "string",
			Description: "Branch to fetch from (default: main)",
			Default:     "main",
		},
	}
}

func (t *FetchDocsTool) Execute(ctx context.Context, params map[string]any) Result {
	repo := stringParam(params, "repo", "")
	path := stringParam(params, "path", "README.md")
	branch := stringParam(params, "branch", "main")

	if !repoSlugPattern.MatchString(repo) {
		return Errorf("invalid repository slug: %s (expected owner/name)", repo)
	}

	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", repo, branch, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Errorf("build request: %v", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Errorf("fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Errorf("fetch %s/%s failed with status %d", repo, path, resp.StatusCode)
	}

	const maxDocSize = 512 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocSize))
	if err != nil {
		return Errorf("read response: %v", err)
	}

	return Result{
		Status:  StatusSuccess,
		Content: string(body),
		Metadata: map[string]any{
			"repo":   repo,
			"path":   path,
			"branch": branch,
			"bytes":  len(body),
		},
	}
}
