package server

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/rhinohq/gitrelay/internal/config"
	"github.com/rhinohq/gitrelay/internal/relay"
)

// stubProvider is a canned relay.Provider for handler tests. Every method
// bumps its own counter so tests can assert exactly which upstream calls a
// request triggered.
type stubProvider struct {
	branches map[string]bool

	pr         *relay.PullRequest
	prErr      error
	content    string
	contentErr error
	issue      *relay.Issue
	issueErr   error
	commentErr error
	tree       *relay.Tree
	treeErr    error

	probeCalls   int
	prCalls      int
	fileCalls    int
	issueCalls   int
	commentCalls int
	treeCalls    int

	lastRepo    string
	lastNumber  int
	lastPath    string
	lastBranch  string
	lastComment string
}

func (s *stubProvider) totalCalls() int {
	return s.probeCalls + s.prCalls + s.fileCalls + s.issueCalls + s.commentCalls + s.treeCalls
}

func (s *stubProvider) BranchExists(_ context.Context, repo, branch string) (bool, error) {
	s.probeCalls++
	s.lastRepo = repo
	return s.branches[branch], nil
}

func (s *stubProvider) PullRequest(_ context.Context, repo string, number int) (*relay.PullRequest, error) {
	s.prCalls++
	s.lastRepo = repo
	s.lastNumber = number
	return s.pr, s.prErr
}

func (s *stubProvider) FileContent(_ context.Context, repo, path, branch string) (string, error) {
	s.fileCalls++
	s.lastRepo = repo
	s.lastPath = path
	s.lastBranch = branch
	return s.content, s.contentErr
}

func (s *stubProvider) Issue(_ context.Context, repo string, number int) (*relay.Issue, error) {
	s.issueCalls++
	s.lastRepo = repo
	s.lastNumber = number
	return s.issue, s.issueErr
}

func (s *stubProvider) CreateComment(_ context.Context, repo string, number int, body string) error {
	s.commentCalls++
	s.lastRepo = repo
	s.lastNumber = number
	s.lastComment = body
	return s.commentErr
}

func (s *stubProvider) Tree(_ context.Context, repo, branch string) (*relay.Tree, error) {
	s.treeCalls++
	s.lastRepo = repo
	s.lastBranch = branch
	return s.tree, s.treeErr
}

const testAPIKey = "sekret"

func testConfig() *config.Config {
	return &config.Config{
		Addr:         ":5000",
		APIKey:       testAPIKey,
		GitHubToken:  "gh-token",
		GitLabToken:  "gl-token",
		GitLabDomain: "gitlab.com",
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newGitHubTestServer(cfg *config.Config, p relay.Provider) *Server {
	return newServer(cfg, quietLogger(), p, (*Server).githubRoutes)
}

func newGitLabTestServer(cfg *config.Config, p relay.Provider) *Server {
	return newServer(cfg, quietLogger(), p, (*Server).gitlabRoutes)
}
