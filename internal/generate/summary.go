package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oatmeal/resume-builder/internal/llm"
)

// SummaryOption is one generated professional summary at a given
// experience level. The client shows all three and lets the user pick.
type SummaryOption struct {
	ExperienceLevel string `json:"experience_level"`
	Summary         string `json:"summary"`
}

const summaryPromptTemplate = `Job Title: %s

Based on the job title above, generate 3 professional resume summaries,
one for each experience level: Fresher, Mid-Level, and Senior.

Each summary should be 3-4 sentences, written in the first person without
using "I", and should highlight skills and impact appropriate to the level.

Return ONLY a JSON array of 3 objects, each with exactly these fields:
- "experience_level": one of "Fresher", "Mid-Level", "Senior"
- "summary": the summary text`

// Summary generates three professional summaries for a job title, one per
// experience level.
func (s *Service) Summary(ctx context.Context, jobTitle string) ([]SummaryOption, error) {
	if jobTitle == "" {
		return nil, fmt.Errorf("job title is required")
	}

	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	prompt := fmt.Sprintf(summaryPromptTemplate, jobTitle)
	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	if err := validateAgainst(summarySchema, raw); err != nil {
		return nil, fmt.Errorf("summary generation: %w", err)
	}

	var options []SummaryOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return options, nil
}
