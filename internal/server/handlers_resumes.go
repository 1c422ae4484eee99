package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/oatmeal/resume-builder/internal/db"
	"github.com/oatmeal/resume-builder/internal/export"
	"github.com/oatmeal/resume-builder/internal/server/middleware"
	"github.com/oatmeal/resume-builder/internal/types"
)

// ResumeStore is the subset of db.DB the resume handlers need. An interface
// so handler tests can run against a fake.
type ResumeStore interface {
	CreateResume(ctx context.Context, userID uuid.UUID, title string, data json.RawMessage) (uuid.UUID, error)
	GetResume(ctx context.Context, resumeID uuid.UUID) (*db.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID) ([]db.Resume, error)
	UpdateResume(ctx context.Context, resumeID uuid.UUID, title string, data json.RawMessage) error
	DeleteResume(ctx context.Context, resumeID uuid.UUID) error
}

// resumeResponse converts a db row to the API shape.
func resumeResponse(r *db.Resume) types.ResumeResponse {
	return types.ResumeResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Data:      r.Data,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ownedResume loads a resume and checks it belongs to the user. Not-found
// and not-yours produce the same error.
func (s *Server) ownedResume(r *http.Request, userID uuid.UUID) (*db.Resume, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "must be a valid uuid"}
	}

	resume, err := s.resumes.GetResume(r.Context(), id)
	if err != nil {
		return nil, &ErrServiceUnavailable{Cause: err}
	}
	if resume == nil || resume.UserID != userID {
		return nil, &ErrResumeNotFound{ResumeID: id}
	}
	return resume, nil
}

// handleCreateResume creates a resume document for the authenticated user.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.CreateResumeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := s.resumes.CreateResume(r.Context(), userID, req.Title, req.Data)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to create resume")
		return
	}

	resume, err := s.resumes.GetResume(r.Context(), id)
	if err != nil || resume == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to load created resume")
		return
	}

	s.jsonResponse(w, http.StatusCreated, resumeResponse(resume))
}

// handleListResumes lists the authenticated user's resumes.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	resumes, err := s.resumes.ListResumes(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to list resumes")
		return
	}

	out := make([]types.ResumeResponse, 0, len(resumes))
	for i := range resumes {
		out = append(out, resumeResponse(&resumes[i]))
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// handleGetResume returns one resume owned by the authenticated user.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	resume, err := s.ownedResume(r, userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, resumeResponse(resume))
}

// handleUpdateResume replaces a resume's title and document.
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	resume, err := s.ownedResume(r, userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	var req types.UpdateResumeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.resumes.UpdateResume(r.Context(), resume.ID, req.Title, req.Data); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to update resume")
		return
	}

	updated, err := s.resumes.GetResume(r.Context(), resume.ID)
	if err != nil || updated == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to load updated resume")
		return
	}

	s.jsonResponse(w, http.StatusOK, resumeResponse(updated))
}

// handleDeleteResume removes a resume owned by the authenticated user.
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	resume, err := s.ownedResume(r, userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	if err := s.resumes.DeleteResume(r.Context(), resume.ID); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to delete resume")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleResumePDF renders a resume to PDF. PDF export costs no coins.
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	resume, err := s.ownedResume(r, userID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	html, err := export.RenderHTML(resume.Data)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Resume data is not renderable")
		return
	}

	pdf, err := export.PrintPDF(r.Context(), html)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "PDF rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resume.Title+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
