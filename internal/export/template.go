package export

// resumeHTML is the print layout. A4-friendly margins, theme color pulled
// from the document so the PDF matches the editor preview.
const resumeHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 14mm 16mm; }
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; color: #1f2937; margin: 0; }
  h1 { font-size: 22px; margin: 0; text-align: center; color: {{.ThemeColor}}; }
  .job-title { text-align: center; font-size: 13px; margin: 2px 0; }
  .contact { text-align: center; font-size: 10px; color: #6b7280; margin-bottom: 10px; }
  hr { border: none; border-top: 2px solid {{.ThemeColor}}; margin: 8px 0; }
  h2 { font-size: 13px; color: {{.ThemeColor}}; text-align: center; margin: 12px 0 6px; text-transform: uppercase; letter-spacing: 1px; }
  .entry { margin-bottom: 8px; }
  .entry-head { display: flex; justify-content: space-between; font-weight: bold; }
  .entry-sub { font-style: italic; color: #4b5563; }
  .dates { color: #6b7280; font-weight: normal; }
  .skills { display: flex; flex-wrap: wrap; gap: 4px 16px; }
  .skill { width: 45%; }
  ul { margin: 4px 0; padding-left: 18px; }
</style>
</head>
<body>
<h1>{{.FirstName}} {{.LastName}}</h1>
<div class="job-title">{{.JobTitle}}</div>
<div class="contact">{{.Email}}{{if .Phone}} &middot; {{.Phone}}{{end}}{{if .Address}} &middot; {{.Address}}{{end}}</div>
<hr>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
{{if .Experience}}
<h2>Professional Experience</h2>
{{range .Experience}}
<div class="entry">
  <div class="entry-head"><span>{{.Position}}</span><span class="dates">{{.StartDate}} - {{orPresent .EndDate}}</span></div>
  <div class="entry-sub">{{.Company}}</div>
  <div>{{richtext .Description}}</div>
</div>
{{end}}
{{end}}
{{if .Education}}
<h2>Education</h2>
{{range .Education}}
<div class="entry">
  <div class="entry-head"><span>{{.Degree}}</span><span class="dates">{{.StartDate}} - {{orPresent .EndDate}}</span></div>
  <div class="entry-sub">{{.Institution}}</div>
  <div>{{richtext .Description}}</div>
</div>
{{end}}
{{end}}
{{if .Skills}}
<h2>Skills</h2>
<div class="skills">
{{range .Skills}}<div class="skill">{{.Name}}</div>{{end}}
</div>
{{end}}
</body>
</html>`
