package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oatmeal/resume-builder/internal/llm"
)

// ExperienceInput describes one work-history entry to write bullet points for.
type ExperienceInput struct {
	Position string `json:"position"`
	Company  string `json:"company"`
}

// EducationInput describes one education entry to write a description for.
type EducationInput struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
}

// activityResponse is the JSON envelope the model returns for both
// experience and education descriptions.
type activityResponse struct {
	Activities string `json:"activities"`
}

const experiencePromptTemplate = `Position: %s
Company: %s

Write 3-5 resume bullet points describing accomplishments and
responsibilities for the position above. Use strong action verbs and
quantify impact where plausible. Format as HTML list items inside a <ul>
element so they can be inserted into a rich-text editor.

Return ONLY a JSON object with exactly one field:
- "activities": the HTML string`

const educationPromptTemplate = `Degree: %s
Institution: %s

Write a 2-3 sentence resume description for the education entry above,
covering relevant coursework, achievements, or focus areas. Format as HTML
suitable for a rich-text editor.

Return ONLY a JSON object with exactly one field:
- "activities": the HTML string`

// ExperienceDescription generates bullet-point copy for a work-history entry.
func (s *Service) ExperienceDescription(ctx context.Context, in ExperienceInput) (string, error) {
	if in.Position == "" {
		return "", fmt.Errorf("position is required")
	}

	prompt := fmt.Sprintf(experiencePromptTemplate, in.Position, in.Company)
	return s.activities(ctx, prompt)
}

// EducationDescription generates descriptive copy for an education entry.
func (s *Service) EducationDescription(ctx context.Context, in EducationInput) (string, error) {
	if in.Degree == "" {
		return "", fmt.Errorf("degree is required")
	}

	prompt := fmt.Sprintf(educationPromptTemplate, in.Degree, in.Institution)
	return s.activities(ctx, prompt)
}

func (s *Service) activities(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("description generation failed: %w", err)
	}

	if err := validateAgainst(activitySchema, raw); err != nil {
		return "", fmt.Errorf("description generation: %w", err)
	}

	var resp activityResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to parse description response: %w", err)
	}
	return resp.Activities, nil
}
