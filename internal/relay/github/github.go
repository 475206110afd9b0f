// Package github implements relay.Provider against the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	gh "github.com/google/go-github/v68/github"

	"github.com/rhinohq/gitrelay/internal/relay"
)

// Config holds the settings needed to create a GitHub provider.
type Config struct {
	// Token is a personal access token. May be empty; unauthenticated
	// calls then hit the public API rate limits.
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise or tests).
	// Leave empty for api.github.com.
	BaseURL string
}

// Provider relays calls to GitHub.
//
// Pattern: Strategy -- implements relay.Provider.
type Provider struct {
	client *gh.Client
}

// NewProvider returns a Provider backed by the given configuration.
func NewProvider(cfg Config) (*Provider, error) {
	client := gh.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating github provider: base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &Provider{client: client}, nil
}

// BranchExists reports whether the branch lookup returned HTTP 200. Any
// non-200 status counts as absent.
func (p *Provider) BranchExists(ctx context.Context, repo, branch string) (bool, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return false, err
	}

	_, resp, err := p.client.Repositories.GetBranch(ctx, owner, name, branch, 0)
	if err != nil {
		if resp != nil {
			return false, nil
		}
		return false, &relay.Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to check branch existence",
		}
	}
	return resp.StatusCode == http.StatusOK, nil
}

// PullRequest fetches PR metadata and the raw diff. The diff is a second
// round trip against the same resource with the diff media type.
func (p *Provider) PullRequest(ctx context.Context, repo string, number int) (*relay.PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	pr, resp, err := p.client.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, &relay.Error{Code: http.StatusNotFound, Message: "Pull Request not found"}
		}
		return nil, apiError(resp, "Unexpected error occurred")
	}

	diff, resp, err := p.client.PullRequests.GetRaw(ctx, owner, name, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return nil, apiError(resp, "Failed to get PR diff")
	}

	return &relay.PullRequest{
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		SourceBranch: pr.GetHead().GetRef(),
		SourceRepo:   pr.GetHead().GetRepo().GetFullName(),
		Diff:         diff,
	}, nil
}

// FileContent fetches a file at the given branch, decodes the base64 payload
// and rejects anything that is not valid UTF-8 text.
func (p *Provider) FileContent(ctx context.Context, repo, path, branch string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	fc, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, path, &gh.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		return "", apiError(resp, fmt.Sprintf("Failed to fetch file content from %s branch", branch))
	}

	if fc == nil || fc.Content == nil {
		return "", &relay.Error{
			Code:    http.StatusInternalServerError,
			Message: "No content found in the response",
		}
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", &relay.Error{
			Code:    http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to decode content of %s", path),
		}
	}

	if !utf8.ValidString(content) {
		return "", &relay.BinaryFileError{Path: path}
	}

	return content, nil
}

// Issue fetches issue metadata.
func (p *Provider) Issue(ctx context.Context, repo string, number int) (*relay.Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	issue, resp, err := p.client.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return nil, apiError(resp, "Failed to fetch issue info")
	}

	return &relay.Issue{
		Title:       issue.GetTitle(),
		Description: issue.GetBody(),
	}, nil
}

// CreateComment posts an issue comment on the pull request. The upstream must
// answer 201 exactly; any other status is surfaced as-is.
func (p *Provider) CreateComment(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, resp, err := p.client.Issues.CreateComment(ctx, owner, name, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return apiError(resp, "Failed to create comment")
	}
	if resp.StatusCode != http.StatusCreated {
		return &relay.Error{Code: resp.StatusCode, Message: "Failed to create comment"}
	}
	return nil
}

// Tree resolves the branch head to a commit SHA, then lists the recursive
// tree for that SHA and partitions entries by type.
func (p *Provider) Tree(ctx context.Context, repo, branch string) (*relay.Tree, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	commit, resp, err := p.client.Repositories.GetCommit(ctx, owner, name, branch, nil)
	if err != nil {
		return nil, apiError(resp, "Failed to get latest commit")
	}

	sha := commit.GetSHA()
	if sha == "" {
		return nil, &relay.Error{Code: http.StatusNotFound, Message: "Latest commit SHA not found"}
	}

	tree, resp, err := p.client.Git.GetTree(ctx, owner, name, sha, true)
	if err != nil {
		return nil, apiError(resp, "Failed to get repository tree")
	}

	out := &relay.Tree{Directories: []string{}, Files: []string{}}
	for _, entry := range tree.Entries {
		switch entry.GetType() {
		case "tree":
			out.Directories = append(out.Directories, entry.GetPath())
		case "blob":
			out.Files = append(out.Files, entry.GetPath())
		}
	}
	return out, nil
}

// apiError maps an upstream failure to a status-carrying relay error. With no
// response at all the call never completed, which surfaces as a 500.
func apiError(resp *gh.Response, msg string) error {
	if resp != nil {
		return &relay.Error{Code: resp.StatusCode, Message: msg}
	}
	return &relay.Error{Code: http.StatusInternalServerError, Message: msg}
}

func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &relay.Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid or missing repo_full_name",
		}
	}
	return parts[0], parts[1], nil
}
