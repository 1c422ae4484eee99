package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oatmeal/resume-builder/internal/llm"
)

// CoverLetterInput carries everything the cover letter prompt needs. The
// resume content comes pre-formatted via FormatResume; JobDescription is
// either pasted by the user or extracted from a posting URL.
type CoverLetterInput struct {
	ResumeContent  string
	JobTitle       string
	CompanyName    string
	JobDescription string
}

type coverLetterResponse struct {
	CoverLetter string `json:"cover_letter"`
}

const coverLetterPromptTemplate = `You are writing a cover letter on behalf of the candidate below.

Candidate resume:
%s

Target role: %s
Target company: %s

Job description:
%s

Write a compelling, professional cover letter of 3-4 paragraphs. Draw
specific connections between the candidate's experience and the job
requirements. Do not invent experience the resume does not contain. Address
it to the hiring manager and close with a call to action.

Return ONLY a JSON object with exactly one field:
- "cover_letter": the full letter text`

// CoverLetter generates a tailored cover letter from a resume and a job
// description.
func (s *Service) CoverLetter(ctx context.Context, in CoverLetterInput) (string, error) {
	if in.ResumeContent == "" {
		return "", fmt.Errorf("resume content is required")
	}
	if in.JobDescription == "" {
		return "", fmt.Errorf("job description is required")
	}

	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	prompt := fmt.Sprintf(coverLetterPromptTemplate, in.ResumeContent, in.JobTitle, in.CompanyName, in.JobDescription)
	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("cover letter generation failed: %w", err)
	}

	if err := validateAgainst(coverLetterSchema, raw); err != nil {
		return "", fmt.Errorf("cover letter generation: %w", err)
	}

	var resp coverLetterResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse cover letter response: %w", err)
	}
	return resp.CoverLetter, nil
}
