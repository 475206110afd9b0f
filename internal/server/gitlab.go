package server

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/rhinohq/gitrelay/internal/relay"
)

type mrContentResponse struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Diffs        string `json:"diffs"`
}

type submitMRCommentRequest struct {
	ProjectID   projectID   `json:"project_id"`
	MRIID       json.Number `json:"mr_iid"`
	CommentBody string      `json:"comment_body"`
}

// projectID accepts both forms GitLab allows: a numeric project ID or a
// namespace/name path string.
type projectID string

func (p *projectID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = projectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = projectID(n.String())
	return nil
}

func (s *Server) handleMRContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project_id")
	mrIID := q.Get("mr_iid")
	if project == "" || mrIID == "" {
		writeError(w, http.StatusBadRequest, "Missing project_id or mr_iid")
		return
	}
	iid, err := strconv.Atoi(mrIID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mr_iid")
		return
	}

	mr, err := s.provider.PullRequest(r.Context(), project, iid)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mrContentResponse{
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Diffs:        mr.Diff,
	})
}

func (s *Server) handleGitLabFileContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project_id")
	path := q.Get("file_path")
	if project == "" || path == "" {
		writeError(w, http.StatusBadRequest, "Missing project_id or file_path")
		return
	}

	branch, err := relay.ResolveBranch(r.Context(), s.provider, project, q.Get("branch_name"))
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	content, err := s.provider.FileContent(r.Context(), project, path, branch)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileContentResponse{Content: content})
}

func (s *Server) handleGitLabIssueInfo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project_id")
	issueIID := q.Get("issue_iid")
	if project == "" || issueIID == "" {
		writeError(w, http.StatusBadRequest, "Missing project_id or issue_iid")
		return
	}
	iid, err := strconv.Atoi(issueIID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid issue_iid")
		return
	}

	issue, err := s.provider.Issue(r.Context(), project, iid)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, issueInfoResponse{
		Title:       issue.Title,
		Description: issue.Description,
	})
}

func (s *Server) handleSubmitMRComment(w http.ResponseWriter, r *http.Request) {
	if s.cfg.GitLabToken == "" {
		writeError(w, http.StatusUnauthorized, "GitLab access token is not set")
		return
	}

	var req submitMRCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProjectID == "" || req.MRIID == "" || req.CommentBody == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	iid, err := strconv.Atoi(req.MRIID.String())
	if err != nil || iid <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid mr_iid")
		return
	}

	if err := s.provider.CreateComment(r.Context(), string(req.ProjectID), iid, req.CommentBody); err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Comment created successfully"})
}

func (s *Server) handleGitLabRepoStructure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project_id")
	if project == "" {
		writeError(w, http.StatusBadRequest, "Missing project_id")
		return
	}

	branch, err := relay.ResolveBranch(r.Context(), s.provider, project, q.Get("branch_name"))
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	tree, err := s.provider.Tree(r.Context(), project, branch)
	if err != nil {
		s.relayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repoStructureResponse{
		Directories: tree.Directories,
		Files:       tree.Files,
	})
}
