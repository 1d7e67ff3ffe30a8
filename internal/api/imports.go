package api

import (
	"net/http"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

// SubmissionPage é a página do log de submissões do principal.
type SubmissionPage struct {
	Data   []*models.SubmissionLogPublic `json:"data"`
	Limit  int                           `json:"limit"`
	Offset int                           `json:"offset"`
	Total  int64                         `json:"total"`
}

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	snap, err := s.deps.Imports.ListImports(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	imp, err := s.deps.Imports.GetImport(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, imp)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	limit := parseIntParam(r, "limit", defaultLimit, maxLimit)
	offset := parseIntParam(r, "offset", 0, 0)

	entries, total, err := s.deps.Submissions.ListForPrincipal(p, limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.SubmissionLogPublic{}
	}
	respondJSON(w, http.StatusOK, SubmissionPage{Data: entries, Limit: limit, Offset: offset, Total: total})
}
