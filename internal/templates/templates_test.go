package templates

import (
	"strings"
	"testing"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func TestRenderPlan(t *testing.T) {
	r := newRenderer(t)

	result, err := r.Render(Plan, PlanData{
		ProjectName: "widget",
		Branch:      "feature/retry",
		Workflow:    "epcc",
		CreatedAt:   "2026-08-25",
	})
	if err != nil {
		t.Fatalf("Render(Plan) failed: %v", err)
	}

	checks := []string{
		"# Development Plan — widget (feature/retry)",
		"Workflow: epcc",
		"2026-08-25",
		"## Tasks",
		"## Decision Log",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("plan output missing %q", check)
		}
	}
}

func TestRenderNonePlaceholder(t *testing.T) {
	r := newRenderer(t)

	result, err := r.Render(NonePlaceholder, PlaceholderData{
		Slot:     "Architecture",
		PlanFile: ".stepwise/plans/development-plan-main.md",
	})
	if err != nil {
		t.Fatalf("Render(NonePlaceholder) failed: %v", err)
	}
	if !strings.Contains(result, "# Architecture") {
		t.Error("placeholder missing slot heading")
	}
	if !strings.Contains(result, ".stepwise/plans/development-plan-main.md") {
		t.Error("placeholder missing plan file path")
	}
}

func TestRenderDocSkeletons(t *testing.T) {
	r := newRenderer(t)

	data := DocData{ProjectName: "widget", Date: "2026-08-25"}
	cases := []struct {
		name    Name
		heading string
	}{
		{Arc42, "## 1. Introduction and Goals"},
		{FreestyleArchitecture, "## Components"},
		{EARS, "## Event-Driven"},
		{FreestyleRequirements, "## Must Have"},
		{Comprehensive, "## Alternatives Considered"},
		{FreestyleDesign, "## Open Questions"},
	}
	for _, tc := range cases {
		t.Run(string(tc.name), func(t *testing.T) {
			result, err := r.Render(tc.name, data)
			if err != nil {
				t.Fatalf("Render(%s) failed: %v", tc.name, err)
			}
			if !strings.Contains(result, "widget") {
				t.Errorf("%s output missing project name", tc.name)
			}
			if !strings.Contains(result, tc.heading) {
				t.Errorf("%s output missing %q", tc.name, tc.heading)
			}
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := newRenderer(t)
	if _, err := r.Render("nonexistent.md.tmpl", nil); err == nil {
		t.Fatal("Render of unknown template should fail")
	}
}

func TestRenderEmptyData(t *testing.T) {
	r := newRenderer(t)

	// Zero values still produce the document structure.
	result, err := r.Render(Plan, PlanData{})
	if err != nil {
		t.Fatalf("Render(Plan, empty) failed: %v", err)
	}
	if !strings.Contains(result, "## Decision Log") {
		t.Error("empty plan should still contain section headers")
	}
}
