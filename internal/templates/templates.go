// Package templates renders the markdown documents the server writes into a
// project: the development plan and the project document skeletons.
package templates

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed files/*.md.tmpl
var templateFS embed.FS

// Name identifies one embedded template.
type Name string

const (
	// Plan is the development plan skeleton created on start.
	Plan Name = "plan.md.tmpl"
	// NonePlaceholder marks a document slot deliberately left empty.
	NonePlaceholder Name = "doc_none.md.tmpl"

	// Architecture templates.
	Arc42                 Name = "arc42.md.tmpl"
	FreestyleArchitecture Name = "architecture_freestyle.md.tmpl"
	// Requirements templates.
	EARS                  Name = "ears.md.tmpl"
	FreestyleRequirements Name = "requirements_freestyle.md.tmpl"
	// Design templates.
	Comprehensive   Name = "comprehensive.md.tmpl"
	FreestyleDesign Name = "design_freestyle.md.tmpl"
)

// PlanData fills the development plan template.
type PlanData struct {
	ProjectName string
	Branch      string
	Workflow    string
	CreatedAt   string
}

// PlaceholderData fills the none-placeholder for a document slot.
type PlaceholderData struct {
	Slot     string // capitalized slot name, e.g. "Architecture"
	PlanFile string // path the agent should use instead
}

// DocData fills the document skeleton templates.
type DocData struct {
	ProjectName string
	Date        string
}

// Renderer renders embedded templates by name.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template set.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "files/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name Name, data any) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, string(name), data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return sb.String(), nil
}
