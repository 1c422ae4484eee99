package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oatmeal/resume-builder/internal/llm"
)

// ATSResult is the outcome of matching a resume against a job description.
type ATSResult struct {
	MatchScore      int      `json:"match_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}

const atsPromptTemplate = `You are an applicant tracking system analyzing how well a resume
matches a job description.

Resume:
%s

Job description:
%s

Analyze the match and return ONLY a JSON object with exactly these fields:
- "match_score": integer 0-100, overall fit
- "matched_keywords": array of keywords from the job description found in the resume
- "missing_keywords": array of important keywords from the job description absent from the resume
- "suggestions": array of 3-5 concrete improvements to raise the score

Be strict about keywords: only count a keyword as matched if the resume
demonstrates it, not merely mentions an adjacent term.`

// ATSCheck scores a resume against a job description and reports matched
// and missing keywords with improvement suggestions.
func (s *Service) ATSCheck(ctx context.Context, resumeContent, jobDescription string) (*ATSResult, error) {
	if resumeContent == "" {
		return nil, fmt.Errorf("resume content is required")
	}
	if jobDescription == "" {
		return nil, fmt.Errorf("job description is required")
	}

	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	prompt := fmt.Sprintf(atsPromptTemplate, resumeContent, jobDescription)
	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("ATS analysis failed: %w", err)
	}

	if err := validateAgainst(atsSchema, raw); err != nil {
		return nil, fmt.Errorf("ATS analysis: %w", err)
	}

	var result ATSResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse ATS response: %w", err)
	}
	return &result, nil
}
