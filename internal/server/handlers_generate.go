package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oatmeal/resume-builder/internal/generate"
	"github.com/oatmeal/resume-builder/internal/quota"
	"github.com/oatmeal/resume-builder/internal/server/middleware"
	"github.com/oatmeal/resume-builder/internal/types"
)

var validate = validator.New()

// debitFeature charges the user for one feature use before any work
// happens. Returns false after writing the response if the user is out of
// coins or the store failed. A debited unit is not refunded if the feature
// later fails; the failure response tells the user to retry.
func (s *Server) debitFeature(w http.ResponseWriter, r *http.Request, userID uuid.UUID, feature quota.Feature) bool {
	result, err := s.coins.Consume(r.Context(), userID.String(), feature)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "Failed to deduct coins")
		return false
	}
	if !result.Success {
		s.jsonResponse(w, http.StatusForbidden, map[string]any{
			"error":    result.Message,
			"reason":   ReasonInsufficientCoins,
			"coins":    result.Balance,
			"reset_at": result.ResetAt,
		})
		return false
	}
	return true
}

// decodeAndValidate reads a JSON request body and runs struct validation,
// writing the error response itself on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, extractValidationErrors(err))
		return false
	}
	return true
}

// handleSummary generates professional summaries for a job title.
// Costs resume_ai coins.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.SummaryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !s.debitFeature(w, r, userID, quota.FeatureResumeAI) {
		return
	}

	options, err := s.generator.Summary(r.Context(), req.JobTitle)
	if err != nil {
		s.generationError(w, "summary", err)
		return
	}

	resp := types.SummaryResponse{Options: make([]types.SummaryOption, 0, len(options))}
	for _, o := range options {
		resp.Options = append(resp.Options, types.SummaryOption{
			ExperienceLevel: o.ExperienceLevel,
			Summary:         o.Summary,
		})
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleExperience generates bullet points for a work-history entry.
// Costs resume_ai coins.
func (s *Server) handleExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.ExperienceRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !s.debitFeature(w, r, userID, quota.FeatureResumeAI) {
		return
	}

	description, err := s.generator.ExperienceDescription(r.Context(), generate.ExperienceInput{
		Position: req.Position,
		Company:  req.Company,
	})
	if err != nil {
		s.generationError(w, "experience", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.DescriptionResponse{Description: description})
}

// handleEducation generates a description for an education entry.
// Costs resume_ai coins.
func (s *Server) handleEducation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.EducationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if !s.debitFeature(w, r, userID, quota.FeatureResumeAI) {
		return
	}

	description, err := s.generator.EducationDescription(r.Context(), generate.EducationInput{
		Degree:      req.Degree,
		Institution: req.Institution,
	})
	if err != nil {
		s.generationError(w, "education", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.DescriptionResponse{Description: description})
}

// handleCoverLetter generates a cover letter from a stored resume and a job
// description. Costs cover_letter coins.
func (s *Server) handleCoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.CoverLetterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if (req.JobDescription == "") == (req.JobURL == "") {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Exactly one of job_description or job_url is required")
		return
	}
	if !s.debitFeature(w, r, userID, quota.FeatureCoverLetter) {
		return
	}

	resumeContent, jobDescription, err := s.loadGenerationInputs(r.Context(), userID, req.ResumeID, req.JobDescription, req.JobURL)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	letter, err := s.generator.CoverLetter(r.Context(), generate.CoverLetterInput{
		ResumeContent:  resumeContent,
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: jobDescription,
	})
	if err != nil {
		s.generationError(w, "cover-letter", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.CoverLetterResponse{CoverLetter: letter})
}

// handleATSCheck scores a stored resume against a job description.
// Costs ats_check coins.
func (s *Server) handleATSCheck(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, ReasonUnauthorized, "Unauthorized")
		return
	}

	var req types.ATSCheckRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if (req.JobDescription == "") == (req.JobURL == "") {
		s.errorResponse(w, http.StatusBadRequest, ReasonValidation, "Exactly one of job_description or job_url is required")
		return
	}
	if !s.debitFeature(w, r, userID, quota.FeatureATSCheck) {
		return
	}

	resumeContent, jobDescription, err := s.loadGenerationInputs(r.Context(), userID, req.ResumeID, req.JobDescription, req.JobURL)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	result, err := s.generator.ATSCheck(r.Context(), resumeContent, jobDescription)
	if err != nil {
		s.generationError(w, "ats-check", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.ATSCheckResponse{
		MatchScore:      result.MatchScore,
		MatchedKeywords: result.MatchedKeywords,
		MissingKeywords: result.MissingKeywords,
		Suggestions:     result.Suggestions,
	})
}

// loadGenerationInputs gathers the resume text and job description for the
// cover letter and ATS features. The resume load and the posting fetch are
// independent I/O, so they run concurrently.
func (s *Server) loadGenerationInputs(ctx context.Context, userID uuid.UUID, resumeID, jobDescription, jobURL string) (string, string, error) {
	id, err := uuid.Parse(resumeID)
	if err != nil {
		return "", "", &ErrValidation{Field: "resume_id", Message: "must be a valid uuid"}
	}

	var resumeContent string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resume, err := s.resumes.GetResume(gctx, id)
		if err != nil {
			return &ErrServiceUnavailable{Cause: err}
		}
		if resume == nil || resume.UserID != userID {
			return &ErrResumeNotFound{ResumeID: id}
		}
		content, err := generate.FormatResume(resume.Data)
		if err != nil {
			return &ErrValidation{Field: "resume_id", Message: "resume data is not parseable"}
		}
		resumeContent = content
		return nil
	})

	if jobURL != "" {
		g.Go(func() error {
			posting, err := s.fetcher.FetchPosting(gctx, jobURL)
			if err != nil {
				return &ErrServiceUnavailable{Cause: err}
			}
			jobDescription = posting.Text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return resumeContent, jobDescription, nil
}

// generationError maps an LLM failure to a retryable 503. The debited coin
// is not refunded.
func (s *Server) generationError(w http.ResponseWriter, feature string, err error) {
	log.Printf("[AI] %s generation failed (unit already debited): %v", feature, err)
	s.errorResponse(w, http.StatusServiceUnavailable, ReasonServiceUnavailable, "AI service temporarily unavailable, please try again")
}
