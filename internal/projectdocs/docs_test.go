package projectdocs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/templates"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewManager(r)
}

func planPathFor(project string) string {
	return filepath.Join(config.PlansDir(project), "development-plan-main.md")
}

func allTemplates() map[Slot]string {
	return map[Slot]string{
		SlotArchitecture: "arc42",
		SlotRequirements: "ears",
		SlotDesign:       "comprehensive",
	}
}

func TestSetupFromTemplates(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	created, err := m.Setup(project, planPathFor(project), allTemplates())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	for _, slot := range SlotOrder {
		path, ok := created[slot]
		if !ok {
			t.Fatalf("no artifact reported for %s", slot)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("artifact %s unreadable: %v", slot, err)
		}
		if !strings.Contains(string(data), filepath.Base(project)) {
			t.Errorf("%s artifact missing project name", slot)
		}
	}

	ok, missing := IsSetUp(project)
	if !ok {
		t.Errorf("IsSetUp = false, missing %v", missing)
	}
}

func TestSetupNonePlaceholder(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	inputs := allTemplates()
	inputs[SlotDesign] = NoneInput

	created, err := m.Setup(project, planPathFor(project), inputs)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	data, err := os.ReadFile(created[SlotDesign])
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "development plan") {
		t.Error("placeholder should point at the development plan")
	}
	if !strings.Contains(content, ".stepwise/plans/development-plan-main.md") {
		t.Errorf("placeholder missing plan path, got:\n%s", content)
	}
}

func TestSetupLinksExistingFile(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	source := filepath.Join(project, "docs", "arch.adoc")
	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(source, []byte("= Architecture\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	inputs := allTemplates()
	inputs[SlotArchitecture] = "docs/arch.adoc"

	created, err := m.Setup(project, planPathFor(project), inputs)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	artifact := created[SlotArchitecture]
	if filepath.Base(artifact) != "architecture.adoc" {
		t.Errorf("artifact = %s, want architecture.adoc (extension preserved)", filepath.Base(artifact))
	}
	info, err := os.Lstat(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("artifact should be a symlink")
	}
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("symlink unreadable: %v", err)
	}
	if string(data) != "= Architecture\n" {
		t.Errorf("symlink content = %q", data)
	}
}

func TestSetupLinksDirectory(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	source := filepath.Join(project, "docs", "adr")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}

	inputs := allTemplates()
	inputs[SlotDesign] = "docs/adr"

	created, err := m.Setup(project, planPathFor(project), inputs)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if filepath.Base(created[SlotDesign]) != "design" {
		t.Errorf("directory artifact = %s, want design (no extension)", filepath.Base(created[SlotDesign]))
	}
	info, err := os.Stat(created[SlotDesign])
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("design artifact should resolve to a directory")
	}
}

func TestSetupSameSourceTwoSlots(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	source := filepath.Join(project, "README.md")
	if err := os.WriteFile(source, []byte("# readme\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	inputs := map[Slot]string{
		SlotArchitecture: "README.md",
		SlotRequirements: "README.md",
		SlotDesign:       NoneInput,
	}
	created, err := m.Setup(project, planPathFor(project), inputs)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if created[SlotArchitecture] == created[SlotRequirements] {
		t.Error("slots sharing a source should still get independent artifacts")
	}
	for _, slot := range []Slot{SlotArchitecture, SlotRequirements} {
		data, err := os.ReadFile(created[slot])
		if err != nil || string(data) != "# readme\n" {
			t.Errorf("%s artifact unreadable: %v", slot, err)
		}
	}
}

func TestSetupReplacesPreviousArtifact(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	// First: template (.md). Then: link to an .adoc. Only the link must
	// remain.
	if _, err := m.Setup(project, planPathFor(project), allTemplates()); err != nil {
		t.Fatal(err)
	}

	source := filepath.Join(project, "arch.adoc")
	if err := os.WriteFile(source, []byte("= Arch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inputs := allTemplates()
	inputs[SlotArchitecture] = "arch.adoc"
	if _, err := m.Setup(project, planPathFor(project), inputs); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(config.DocsDir(project))
	if err != nil {
		t.Fatal(err)
	}
	var archArtifacts []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "architecture") {
			archArtifacts = append(archArtifacts, entry.Name())
		}
	}
	if len(archArtifacts) != 1 || archArtifacts[0] != "architecture.adoc" {
		t.Errorf("architecture artifacts = %v, want [architecture.adoc]", archArtifacts)
	}
}

func TestSetupIdempotent(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	if _, err := m.Setup(project, planPathFor(project), allTemplates()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Setup(project, planPathFor(project), allTemplates()); err != nil {
		t.Fatalf("second Setup: %v", err)
	}

	entries, err := os.ReadDir(config.DocsDir(project))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("docs dir = %v, want exactly one artifact per slot", names)
	}
}

func TestSetupRejectsTraversal(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	inputs := allTemplates()
	inputs[SlotRequirements] = "../outside.md"

	_, err := m.Setup(project, planPathFor(project), inputs)
	var traversal *PathTraversalError
	if !errors.As(err, &traversal) {
		t.Fatalf("error = %v, want PathTraversalError", err)
	}

	// Validation failed, so nothing may have been written.
	if _, err := os.Stat(config.DocsDir(project)); !os.IsNotExist(err) {
		t.Error("failed setup should not create the docs dir")
	}
}

func TestSetupRejectsMissingPath(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	inputs := allTemplates()
	inputs[SlotDesign] = "docs/not-there.md"

	_, err := m.Setup(project, planPathFor(project), inputs)
	var notFound *PathNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want PathNotFoundError", err)
	}
}

func TestSetupRejectsUnknownTemplate(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	inputs := allTemplates()
	inputs[SlotArchitecture] = "c4model"

	_, err := m.Setup(project, planPathFor(project), inputs)
	var unknown *UnknownTemplateError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownTemplateError", err)
	}
	if len(unknown.Valid) == 0 {
		t.Error("UnknownTemplateError should list valid template ids")
	}
}

func TestSetupValidatesBeforeMutating(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()

	// Architecture is valid, design is not: nothing at all may be written.
	inputs := map[Slot]string{
		SlotArchitecture: "arc42",
		SlotRequirements: "ears",
		SlotDesign:       "../escape.md",
	}
	if _, err := m.Setup(project, planPathFor(project), inputs); err == nil {
		t.Fatal("Setup should fail")
	}
	if _, ok := Artifact(project, SlotArchitecture); ok {
		t.Error("architecture artifact written despite failed validation")
	}
}

func TestSubstitutions(t *testing.T) {
	m := newManager(t)
	project := t.TempDir()
	plan := planPathFor(project)

	subs := Substitutions(project, plan)
	if got := subs[VarArchitectureDoc]; got != filepath.Join(".stepwise", "docs", "architecture.md") {
		t.Errorf("unset slot substitution = %s, want conventional path", got)
	}
	if got := subs[VarPlanFile]; got != filepath.Join(".stepwise", "plans", "development-plan-main.md") {
		t.Errorf("$PLAN_FILE = %s", got)
	}

	// After setup with a linked .adoc, the variable must track the real
	// artifact.
	source := filepath.Join(project, "arch.adoc")
	if err := os.WriteFile(source, []byte("= A\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inputs := allTemplates()
	inputs[SlotArchitecture] = "arch.adoc"
	if _, err := m.Setup(project, plan, inputs); err != nil {
		t.Fatal(err)
	}
	subs = Substitutions(project, plan)
	if got := subs[VarArchitectureDoc]; got != filepath.Join(".stepwise", "docs", "architecture.adoc") {
		t.Errorf("$ARCHITECTURE_DOC = %s, want the .adoc artifact", got)
	}
}

func TestDetectCandidates(t *testing.T) {
	project := t.TempDir()

	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(project, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("ARCHITECTURE.md", "# arch")
	write("docs/design/design-cache.md", "# design")
	write("docs/requirements-v2.md", "# reqs")

	got := DetectCandidates(project)
	if len(got[SlotArchitecture]) == 0 || got[SlotArchitecture][0] != "ARCHITECTURE.md" {
		t.Errorf("architecture candidates = %v", got[SlotArchitecture])
	}
	if len(got[SlotDesign]) == 0 {
		t.Errorf("design candidates = %v", got[SlotDesign])
	}
	if len(got[SlotRequirements]) == 0 {
		t.Errorf("requirements candidates = %v", got[SlotRequirements])
	}
}

func TestDetectCandidatesEmptyProject(t *testing.T) {
	got := DetectCandidates(t.TempDir())
	if len(got) != 0 {
		t.Errorf("empty project should yield no candidates, got %v", got)
	}
}
