// Package export renders stored resumes to HTML and prints them to PDF
// through a headless browser. The HTML output matches what the editor
// shows so the downloaded PDF looks like the on-screen preview.
package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// resumeData is the template input parsed from a stored resume document.
// Description fields hold editor-produced HTML and render unescaped.
type resumeData struct {
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	JobTitle  string        `json:"jobTitle"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Address   string        `json:"address"`
	Summary   string        `json:"summary"`
	ThemeColor string       `json:"themeColor"`
	Experience []experience `json:"experience"`
	Education  []education  `json:"education"`
	Skills     []skill      `json:"skills"`
}

type experience struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type skill struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// TemplateError reports a failure rendering the resume template.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

var resumeTemplate = template.Must(template.New("resume").Funcs(template.FuncMap{
	// Editor descriptions are trusted rich text authored in-app.
	"richtext": func(s string) template.HTML { return template.HTML(s) },
	"orPresent": func(s string) string {
		if s == "" {
			return "Present"
		}
		return s
	},
}).Parse(resumeHTML))

// RenderHTML renders a stored resume document to a standalone HTML page.
func RenderHTML(data json.RawMessage) (string, error) {
	var r resumeData
	if err := json.Unmarshal(data, &r); err != nil {
		return "", &TemplateError{Message: "failed to parse resume data", Cause: err}
	}
	if r.ThemeColor == "" {
		r.ThemeColor = "#2563eb"
	}

	var b strings.Builder
	if err := resumeTemplate.Execute(&b, r); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return b.String(), nil
}
