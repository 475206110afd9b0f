package server

import (
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rhinohq/gitrelay/internal/relay"
)

type prContentResponse struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	SourceBranch string `json:"source_branch"`
	SourceRepo   string `json:"source_repo"`
	CodeChanges  string `json:"code_changes"`
}

type submitPRCommentRequest struct {
	RepoFullName string      `json:"repo_full_name"`
	PRNumber     json.Number `json:"pr_number"`
	CommentBody  string      `json:"comment_body"`
}

func (s *Server) handlePRContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo := q.Get("repo_full_name")
	prNumber := q.Get("pr_number")
	if repo == "" || prNumber == "" {
		writeError(w, http.StatusBadRequest, "Missing repo_full_name or pr_number")
		return
	}
	number, err := strconv.Atoi(prNumber)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pr_number")
		return
	}

	pr, err := s.provider.PullRequest(r.Context(), repo, number)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prContentResponse{
		Title:        pr.Title,
		Body:         pr.Description,
		SourceBranch: pr.SourceBranch,
		SourceRepo:   pr.SourceRepo,
		CodeChanges:  pr.Diff,
	})
}

func (s *Server) handleGitHubFileContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo := q.Get("repo_full_name")
	path := q.Get("file_path")
	if repo == "" || path == "" {
		writeError(w, http.StatusBadRequest, "Missing repo_full_name or file_path")
		return
	}

	branch, err := relay.ResolveBranch(r.Context(), s.provider, repo, q.Get("branch_name"))
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	content, err := s.provider.FileContent(r.Context(), repo, path, branch)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileContentResponse{Content: content})
}

func (s *Server) handleGitHubIssueInfo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo := q.Get("repo_full_name")
	issueNumber := q.Get("issue_number")
	if repo == "" || issueNumber == "" {
		writeError(w, http.StatusBadRequest, "Missing repo_full_name or issue_number")
		return
	}
	number, err := strconv.Atoi(issueNumber)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid issue_number")
		return
	}

	issue, err := s.provider.Issue(r.Context(), repo, number)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, issueInfoResponse{
		Title:       issue.Title,
		Description: issue.Description,
	})
}

func (s *Server) handleSubmitPRComment(w http.ResponseWriter, r *http.Request) {
	if s.cfg.GitHubToken == "" {
		writeError(w, http.StatusUnauthorized, "GitHub access token is not set")
		return
	}

	var req submitPRCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RepoFullName == "" || req.PRNumber == "" || req.CommentBody == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	number, err := strconv.Atoi(req.PRNumber.String())
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid pr_number")
		return
	}

	if err := s.provider.CreateComment(r.Context(), req.RepoFullName, number, req.CommentBody); err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Comment created successfully"})
}

func (s *Server) handleGitHubRepoStructure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo := q.Get("repo_full_name")
	if !isValidRepoFormat(repo) {
		writeError(w, http.StatusBadRequest, "Invalid or missing repo_full_name")
		return
	}

	branch, err := relay.ResolveBranch(r.Context(), s.provider, repo, q.Get("branch_name"))
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	tree, err := s.provider.Tree(r.Context(), repo, branch)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repoStructureResponse{
		Directories: tree.Directories,
		Files:       tree.Files,
	})
}

// isValidRepoFormat reports whether s is exactly "owner/name" with both
// segments non-empty.
func isValidRepoFormat(s string) bool {
	parts := strings.Split(s, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
