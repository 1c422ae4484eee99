package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// resumeContent mirrors the structured resume document stored in the
// resumes table. Fields the client never filled in simply render empty.
type resumeContent struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	JobTitle  string `json:"jobTitle"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Summary   string `json:"summary"`

	Experience []struct {
		Position    string `json:"position"`
		Company     string `json:"company"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Description string `json:"description"`
	} `json:"experience"`

	Education []struct {
		Degree      string `json:"degree"`
		Institution string `json:"institution"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Description string `json:"description"`
	} `json:"education"`

	Skills []struct {
		Name string `json:"name"`
	} `json:"skills"`

	Projects []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"projects"`
}

// FormatResume flattens a stored resume document into the plain-text block
// the prompts embed. Unknown fields are ignored; an unparsable document is
// an error so a prompt never ships with silently missing content.
func FormatResume(data json.RawMessage) (string, error) {
	var r resumeContent
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("failed to parse resume data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s %s\n", r.FirstName, r.LastName)
	fmt.Fprintf(&b, "Job Title: %s\n", r.JobTitle)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	fmt.Fprintf(&b, "Phone: %s\n", r.Phone)
	fmt.Fprintf(&b, "Address: %s\n", r.Address)
	fmt.Fprintf(&b, "Summary: %s\n", r.Summary)

	b.WriteString("\nExperience:\n")
	if len(r.Experience) == 0 {
		b.WriteString("No experience listed\n")
	}
	for _, exp := range r.Experience {
		end := exp.EndDate
		if end == "" {
			end = "Present"
		}
		fmt.Fprintf(&b, "- %s at %s (%s - %s)\n  %s\n", exp.Position, exp.Company, exp.StartDate, end, exp.Description)
	}

	b.WriteString("\nEducation:\n")
	if len(r.Education) == 0 {
		b.WriteString("No education listed\n")
	}
	for _, edu := range r.Education {
		end := edu.EndDate
		if end == "" {
			end = "Present"
		}
		fmt.Fprintf(&b, "- %s at %s (%s - %s)\n  %s\n", edu.Degree, edu.Institution, edu.StartDate, end, edu.Description)
	}

	b.WriteString("\nSkills:\n")
	if len(r.Skills) == 0 {
		b.WriteString("No skills listed\n")
	}
	for _, skill := range r.Skills {
		fmt.Fprintf(&b, "- %s\n", skill.Name)
	}

	if len(r.Projects) > 0 {
		b.WriteString("\nProjects:\n")
		for _, proj := range r.Projects {
			fmt.Fprintf(&b, "- %s: %s\n", proj.Name, proj.Description)
		}
	}

	return b.String(), nil
}
