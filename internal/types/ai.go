package types

// SummaryRequest asks for professional summaries for a job title.
type SummaryRequest struct {
	JobTitle string `json:"job_title" validate:"required,min=1"`
}

// SummaryOption is one generated summary at a given experience level.
type SummaryOption struct {
	ExperienceLevel string `json:"experience_level"`
	Summary         string `json:"summary"`
}

// SummaryResponse carries the generated summary options.
type SummaryResponse struct {
	Options []SummaryOption `json:"options"`
}

// ExperienceRequest asks for bullet-point copy for a work-history entry.
type ExperienceRequest struct {
	Position string `json:"position" validate:"required,min=1"`
	Company  string `json:"company,omitempty"`
}

// EducationRequest asks for descriptive copy for an education entry.
type EducationRequest struct {
	Degree      string `json:"degree" validate:"required,min=1"`
	Institution string `json:"institution,omitempty"`
}

// DescriptionResponse carries generated rich-text copy.
type DescriptionResponse struct {
	Description string `json:"description"`
}

// CoverLetterRequest asks for a cover letter from a stored resume and a job
// description. Exactly one of JobDescription or JobURL must be set.
type CoverLetterRequest struct {
	ResumeID       string `json:"resume_id" validate:"required,uuid"`
	JobTitle       string `json:"job_title,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	JobURL         string `json:"job_url,omitempty"`
}

// CoverLetterResponse carries the generated letter.
type CoverLetterResponse struct {
	CoverLetter string `json:"cover_letter"`
}

// ATSCheckRequest asks for an ATS match analysis of a stored resume against
// a job description. Exactly one of JobDescription or JobURL must be set.
type ATSCheckRequest struct {
	ResumeID       string `json:"resume_id" validate:"required,uuid"`
	JobDescription string `json:"job_description,omitempty"`
	JobURL         string `json:"job_url,omitempty"`
}

// ATSCheckResponse carries the match analysis.
type ATSCheckResponse struct {
	MatchScore      int      `json:"match_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}
