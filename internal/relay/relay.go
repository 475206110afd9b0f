// Package relay defines the provider-neutral core of the gitrelay services:
// the Provider interface both upstreams implement, the payload types the
// endpoint handlers reshape into responses, and default-branch resolution.
package relay

import (
	"context"
	"fmt"
	"net/http"
)

// Error is a provider call outcome that maps directly onto an outward
// {code, message} error body. Code mirrors the upstream HTTP status unless
// the call never reached the provider.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// BinaryFileError reports file content that decoded successfully but is not
// valid UTF-8 text. Only the GitHub provider produces it; GitLab raw fetches
// are passed through untouched.
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("Cannot display content of %s, it may be a binary file", e.Path)
}

// PullRequest is the normalized view of a pull/merge request plus its diff.
// SourceRepo is only set by GitHub; TargetBranch only by GitLab.
type PullRequest struct {
	Title        string
	Description  string
	SourceBranch string
	SourceRepo   string
	TargetBranch string
	Diff         string
}

// Issue is the normalized view of an issue.
type Issue struct {
	Title       string
	Description string
}

// Tree partitions a recursive repository listing into directory and file
// paths, each in the order the provider returned them.
type Tree struct {
	Directories []string
	Files       []string
}

// BranchChecker probes for the existence of a single branch.
type BranchChecker interface {
	BranchExists(ctx context.Context, repo, branch string) (bool, error)
}

// Provider is implemented once per hosting platform. The repo argument is the
// platform's repository identifier: "owner/name" for GitHub, a numeric ID or
// namespace/name path for GitLab.
//
// Pattern: Strategy -- swap the git platform without changing the relay
// handlers.
type Provider interface {
	BranchChecker

	PullRequest(ctx context.Context, repo string, number int) (*PullRequest, error)
	FileContent(ctx context.Context, repo, path, branch string) (string, error)
	Issue(ctx context.Context, repo string, number int) (*Issue, error)
	CreateComment(ctx context.Context, repo string, number int, body string) error
	Tree(ctx context.Context, repo, branch string) (*Tree, error)
}

// ResolveBranch determines the effective branch for a request. An explicit
// branch is trusted as-is, no existence check. Otherwise "main" and "master"
// are probed in that order; probe results are never cached.
func ResolveBranch(ctx context.Context, bc BranchChecker, repo, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	for _, name := range []string{"main", "master"} {
		ok, err := bc.BranchExists(ctx, repo, name)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
	}

	return "", &Error{
		Code:    http.StatusNotFound,
		Message: "No main or master branch found",
	}
}
