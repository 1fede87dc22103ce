package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type batchAssignedEmailData struct {
	baseEmailData
	AdvisorName string
	Assigned    int
	Deficit     int
}

type runSummaryEmailData struct {
	baseEmailData
	Destinations   int
	TotalRequested int
	TotalAssigned  int
	TotalDeficit   int
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
