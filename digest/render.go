// Package digest assembles sections into a digest, renders it and runs the daily job
package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"dailydigest/models"

	"github.com/samber/lo"
)

const footer = "More updates soon!"

//go:embed templates/*.tmpl
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/digest.html.tmpl"))

// Visible drops disabled sections, keeping the configured order
func Visible(d models.Digest) []models.Section {
	return lo.Filter(d.Sections, func(s models.Section, _ int) bool {
		return s.Reason != models.ReasonDisabled
	})
}

// RenderText renders the plain text digest that is saved to disk and mailed
func RenderText(d models.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", d.Title, d.Date.Format(models.LongDateLayout))

	for _, section := range Visible(d) {
		fmt.Fprintf(&b, "\n%s\n%s\n", section.Title, strings.Repeat("-", utf8.RuneCountInString(section.Title)))

		if !section.OK() {
			b.WriteString(section.Placeholder() + "\n")
			continue
		}

		for i, entry := range section.Entries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, entry.Title)
			if entry.Link != "" {
				fmt.Fprintf(&b, "   %s\n", entry.Link)
			}
		}
		for _, line := range section.Lines {
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + footer + "\n")
	return b.String()
}

type page struct {
	Title    string
	LongDate string
	Sections []models.Section
}

// RenderHTML renders the HTML page used for index.html and the mail alternative
func RenderHTML(d models.Digest) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, page{
		Title:    d.Title,
		LongDate: d.Date.Format(models.LongDateLayout),
		Sections: Visible(d),
	})
	if err != nil {
		return "", fmt.Errorf("error rendering html digest: %w", err)
	}
	return buf.String(), nil
}
