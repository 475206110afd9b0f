// Package gitlab implements relay.Provider against the GitLab v4 API.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rhinohq/gitrelay/internal/relay"
)

// Config holds the settings needed to create a GitLab provider.
type Config struct {
	// Token is a personal or project access token. May be empty;
	// unauthenticated calls then only reach public projects.
	Token string
	// BaseURL is the instance base URL (e.g. "https://gitlab.example.com").
	// Leave empty for gitlab.com.
	BaseURL string
}

// Provider relays calls to GitLab. The repo argument of every method is the
// project identifier: a numeric ID or a namespace/name path, which the client
// percent-encodes itself.
//
// Pattern: Strategy -- implements relay.Provider.
type Provider struct {
	client *gl.Client
}

// NewProvider returns a Provider backed by the given configuration.
func NewProvider(cfg Config) (*Provider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "https://gitlab.com"
	}

	// The relay never retries upstream calls; one request in, one
	// round trip out.
	client, err := gl.NewClient(
		cfg.Token,
		gl.WithBaseURL(base),
		gl.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab provider: new client: %w", err)
	}

	return &Provider{client: client}, nil
}

// BranchExists reports whether the branch lookup returned HTTP 200. Any
// non-200 status counts as absent.
func (p *Provider) BranchExists(ctx context.Context, repo, branch string) (bool, error) {
	_, resp, err := p.client.Branches.GetBranch(repo, branch, gl.WithContext(ctx))
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

// PullRequest fetches MR metadata, then the per-file diffs from the changes
// sub-resource, concatenated with newline separators.
func (p *Provider) PullRequest(ctx context.Context, repo string, number int) (*relay.PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(repo, int64(number), nil, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(resp, "Failed to fetch MR info")
	}

	// Large MRs span several pages of diffs; collect them all so the
	// concatenation covers every changed file.
	opts := &gl.ListMergeRequestDiffsOptions{
		ListOptions: gl.ListOptions{PerPage: 100},
	}
	var parts []string
	for {
		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(repo, int64(number), opts, gl.WithContext(ctx))
		if err != nil {
			return nil, apiError(resp, "Failed to fetch MR diffs")
		}
		for _, d := range diffs {
			parts = append(parts, d.Diff)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return &relay.PullRequest{
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Diff:         strings.Join(parts, "\n"),
	}, nil
}

// FileContent fetches the raw file at the given branch. The bytes are passed
// through as-is; no decoding and no text check on this side.
func (p *Provider) FileContent(ctx context.Context, repo, path, branch string) (string, error) {
	raw, resp, err := p.client.RepositoryFiles.GetRawFile(repo, path, &gl.GetRawFileOptions{
		Ref: gl.Ptr(branch),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", apiError(resp, "Failed to fetch file content")
	}
	return string(raw), nil
}

// Issue fetches issue metadata by its project-local iid.
func (p *Provider) Issue(ctx context.Context, repo string, number int) (*relay.Issue, error) {
	issue, resp, err := p.client.Issues.GetIssue(repo, int64(number), gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(resp, "Failed to fetch issue info")
	}

	return &relay.Issue{
		Title:       issue.Title,
		Description: issue.Description,
	}, nil
}

// CreateComment posts a note on the merge request. The upstream must answer
// 201 exactly; any other status is surfaced as-is.
func (p *Provider) CreateComment(ctx context.Context, repo string, number int, body string) error {
	_, resp, err := p.client.Notes.CreateMergeRequestNote(repo, int64(number), &gl.CreateMergeRequestNoteOptions{
		Body: gl.Ptr(body),
	}, gl.WithContext(ctx))
	if err != nil {
		return apiError(resp, "Failed to create comment")
	}
	if resp.StatusCode != http.StatusCreated {
		return &relay.Error{Code: resp.StatusCode, Message: "Failed to create comment"}
	}
	return nil
}

// Tree lists the recursive repository tree for the branch and partitions
// entries by type.
func (p *Provider) Tree(ctx context.Context, repo, branch string) (*relay.Tree, error) {
	nodes, resp, err := p.client.Repositories.ListTree(repo, &gl.ListTreeOptions{
		Ref:       gl.Ptr(branch),
		Recursive: gl.Ptr(true),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(resp, "Failed to get repository structure")
	}

	out := &relay.Tree{Directories: []string{}, Files: []string{}}
	for _, node := range nodes {
		switch node.Type {
		case "tree":
			out.Directories = append(out.Directories, node.Path)
		case "blob":
			out.Files = append(out.Files, node.Path)
		}
	}
	return out, nil
}

// apiError maps an upstream failure to a status-carrying relay error. With no
// response at all the call never completed, which surfaces as a 500.
func apiError(resp *gl.Response, msg string) error {
	if resp != nil {
		return &relay.Error{Code: resp.StatusCode, Message: msg}
	}
	return &relay.Error{Code: http.StatusInternalServerError, Message: msg}
}
