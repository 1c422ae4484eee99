// Package ingest retrieves job postings from the web so the cover letter
// and ATS features can work from a URL instead of pasted text. Plain HTTP
// plus HTML extraction covers most job boards; JavaScript-rendered pages
// fall back to a headless browser.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a plain HTTP fetch of a posting page.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies us to job boards. Some boards serve an empty
// shell to unknown agents; a browser-like string gets the real page.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeBuilder/1.0)"

// Posting is a job posting reduced to the text the prompts need.
type Posting struct {
	URL   string
	Title string
	Text  string
}

// Error wraps a failure to retrieve or parse a posting URL.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingest error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("ingest error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Fetcher retrieves and extracts job postings.
type Fetcher struct {
	client    *http.Client
	userAgent string
	// renderPage renders a URL in a headless browser. Swappable for tests.
	renderPage func(ctx context.Context, url string) (string, error)
}

// NewFetcher creates a posting fetcher with default timeouts.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		renderPage: renderWithBrowser,
	}
}

// FetchPosting retrieves a job posting page and extracts its description
// text. Pages whose initial HTML carries too little text are re-fetched
// through a headless browser before extraction.
func (f *Fetcher) FetchPosting(ctx context.Context, urlStr string) (*Posting, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	html, err := f.fetchHTML(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	title, text, err := extractPosting(html)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}

	// Short extracted text means a JavaScript-rendered page.
	if shouldRender(text) && f.renderPage != nil {
		rendered, renderErr := f.renderPage(ctx, urlStr)
		if renderErr == nil {
			if rTitle, rText, extractErr := extractPosting(rendered); extractErr == nil && len(rText) > len(text) {
				title, text = rTitle, rText
			}
		}
		// Browser failures fall through to whatever the plain fetch got.
	}

	if strings.TrimSpace(text) == "" {
		return nil, &Error{URL: urlStr, Message: "no readable content found"}
	}

	return &Posting{URL: urlStr, Title: title, Text: text}, nil
}

func (f *Fetcher) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	return string(body), nil
}

// postingSelectors are tried in order; the first match wins. Job-board
// specific selectors come before generic page-structure ones.
var postingSelectors = []string{
	".job-description",
	".job-content",
	"#job-description",
	"#job-content",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
	".content",
	"#content",
}

// extractPosting pulls the title and description text out of a posting page.
func extractPosting(html string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	title = strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var content *goquery.Selection
	for _, selector := range postingSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	return title, cleanWhitespace(content.Text()), nil
}

// cleanWhitespace trims each line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
