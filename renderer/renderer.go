// Package renderer renders folio reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// RenderHoldings renders a holdings snapshot.
func RenderHoldings(h *Holdings) string {
	partials := map[string]string{
		"holdings_rows":    "holdings_rows.md",
		"failures_section":  "failures.md",
	}
	return renderTemplate("holdings", "holdings.md", partials, h)
}

// RenderGains renders gain records, one table per period.
func RenderGains(g *Gains) string {
	partials := map[string]string{
		"gains_period": "gains_period.md",
	}
	return renderTemplate("gains", "gains.md", partials, g)
}

// RenderAudit renders what was not applied as is.
func RenderAudit(a *Audit) string {
	partials := map[string]string{
		"audit_unmapped":   "audit_unmapped.md",
		"audit_ignored":    "audit_ignored.md",
		"audit_suppressed": "audit_suppressed.md",
		"failures_section": "failures.md",
	}
	return renderTemplate("audit", "audit.md", partials, a)
}

// RenderBenchmark renders the portfolio against its benchmark.
func RenderBenchmark(b *Comparison) string {
	return renderTemplate("benchmark", "benchmark.md", nil, b)
}

// renderTemplate renders a main template that depends on partial templates,
// keyed by the name the main template uses for them.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
