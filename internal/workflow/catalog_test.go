package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stepwise-mcp/stepwise/internal/config"
)

const customYAML = `
name: custom-flow
description: project-local workflow
domain: code
initial_state: work
states:
  work:
    default_instructions: Do the work.
    transitions:
      - trigger: done
        to: finished
  finished:
    default_instructions: Wrap up.
`

func TestCatalogDefaultDomain(t *testing.T) {
	c := NewCatalog(nil)
	for _, def := range c.ListBuiltIn() {
		if def.Domain != "code" {
			t.Errorf("default filter leaked %s (domain %s)", def.Name, def.Domain)
		}
	}
	if len(c.ListBuiltIn()) == 0 {
		t.Error("default filter loaded nothing")
	}
}

func TestCatalogUnloadedBuiltIn(t *testing.T) {
	c := NewCatalog([]string{"code"})
	unloaded := map[string]bool{}
	for _, def := range c.UnloadedBuiltIn() {
		unloaded[def.Name] = true
	}
	if !unloaded["greenfield"] || !unloaded["slides"] {
		t.Errorf("expected out-of-domain builtins in unloaded set, got %v", unloaded)
	}
	if unloaded["waterfall"] {
		t.Error("waterfall should be loaded under the code filter")
	}
}

func TestCatalogResolveOverlay(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	// A project-local workflow shadowing a built-in name.
	shadow := `
name: epcc
initial_state: solo
states:
  solo:
    default_instructions: Shadowed epcc.
`
	writeWorkflowFile(t, project, "epcc.yaml", shadow)
	writeWorkflowFile(t, project, "custom-flow.yaml", customYAML)

	resolved := c.ResolveForProject(project)

	if entry := resolved["epcc"]; entry.Source != SourceProject {
		t.Errorf("epcc source = %s, want project (local wins)", entry.Source)
	} else if entry.Definition.InitialState != "solo" {
		t.Errorf("epcc initial = %s, want the shadowing definition", entry.Definition.InitialState)
	}
	if entry := resolved["custom-flow"]; entry.Source != SourceProject {
		t.Errorf("custom-flow source = %s, want project", entry.Source)
	}
	if entry := resolved["waterfall"]; entry.Source != SourceBuiltIn {
		t.Errorf("waterfall source = %s, want built-in", entry.Source)
	}
}

func TestCatalogProjectLocalIgnoresDomainFilter(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	officeLocal := `
name: local-office
domain: office
initial_state: work
states:
  work:
    default_instructions: Office work.
`
	writeWorkflowFile(t, project, "local-office.yaml", officeLocal)

	resolved := c.ResolveForProject(project)
	if _, ok := resolved["local-office"]; !ok {
		t.Error("installed workflow should resolve regardless of domain filter")
	}
}

func TestCatalogSkipsInvalidFiles(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	writeWorkflowFile(t, project, "broken.yaml", "states: [not a workflow")
	writeWorkflowFile(t, project, "custom-flow.yaml", customYAML)

	resolved := c.ResolveForProject(project)
	if _, ok := resolved["custom-flow"]; !ok {
		t.Error("valid workflow should survive a broken sibling file")
	}
}

func TestCatalogGetNotFound(t *testing.T) {
	c := NewCatalog([]string{"code"})
	_, err := c.Get(t.TempDir(), "no-such-flow")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if len(nf.Available) == 0 {
		t.Error("NotFoundError should name the available workflows")
	}
}

func TestCatalogInstall(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	// Warm the cache first so Install must invalidate it.
	if _, ok := c.ResolveForProject(project)["custom-flow"]; ok {
		t.Fatal("custom-flow should not resolve before install")
	}

	def, err := c.Install(project, []byte(customYAML), "")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if def.Name != "custom-flow" {
		t.Errorf("installed name = %s, want custom-flow", def.Name)
	}
	if _, err := os.Stat(filepath.Join(config.WorkflowsDir(project), "custom-flow.yaml")); err != nil {
		t.Errorf("installed file missing: %v", err)
	}
	if _, ok := c.ResolveForProject(project)["custom-flow"]; !ok {
		t.Error("install should invalidate the cache and resolve the new workflow")
	}
}

func TestCatalogInstallRename(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	def, err := c.Install(project, []byte(customYAML), "renamed")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if def.Name != "renamed" {
		t.Errorf("installed name = %s, want renamed", def.Name)
	}
	got, err := c.Get(project, "renamed")
	if err != nil {
		t.Fatalf("Get(renamed) failed: %v", err)
	}
	if got.InitialState != "work" {
		t.Errorf("renamed workflow lost its body: initial = %s", got.InitialState)
	}
	// The file on disk must declare the new name, not the source's.
	reloaded, err := ParseFile(filepath.Join(config.WorkflowsDir(project), "renamed.yaml"))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Name != "renamed" {
		t.Errorf("file name = %s, want renamed", reloaded.Name)
	}
}

func TestCatalogInstallInvalid(t *testing.T) {
	c := NewCatalog([]string{"code"})
	if _, err := c.Install(t.TempDir(), []byte("initial_state: nowhere"), ""); err == nil {
		t.Error("Install of invalid definition should fail")
	}
}

func TestCatalogLegacyMigration(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	legacy := config.LegacyWorkflowPath(project)
	if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(legacy, []byte(customYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved := c.ResolveForProject(project)
	if entry, ok := resolved["custom-flow"]; !ok || entry.Source != SourceProject {
		t.Fatalf("legacy workflow not migrated into resolution: %+v", resolved)
	}
	if _, err := os.Stat(filepath.Join(config.WorkflowsDir(project), "custom-flow.yaml")); err != nil {
		t.Errorf("migrated file missing: %v", err)
	}
	if _, err := os.Stat(legacy); err != nil {
		t.Errorf("legacy file should stay in place: %v", err)
	}

	// Second resolution must not rewrite the migrated file.
	migrated := filepath.Join(config.WorkflowsDir(project), "custom-flow.yaml")
	if err := os.WriteFile(migrated, []byte(customYAML+"\n# local edit\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(project)
	c.ResolveForProject(project)
	data, err := os.ReadFile(migrated)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == customYAML {
		t.Error("re-migration overwrote an existing target")
	}
}

func TestCatalogLegacyMigrationUnnamed(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})

	legacy := config.LegacyWorkflowPath(project)
	if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
		t.Fatal(err)
	}
	// Unparseable legacy content still migrates, under the fallback name.
	if err := os.WriteFile(legacy, []byte("not: [valid workflow"), 0o644); err != nil {
		t.Fatal(err)
	}

	c.ResolveForProject(project)
	if _, err := os.Stat(filepath.Join(config.WorkflowsDir(project), "custom.yaml")); err != nil {
		t.Errorf("fallback-named migration target missing: %v", err)
	}
}

func TestCatalogWatcherInvalidates(t *testing.T) {
	project := t.TempDir()
	c := NewCatalog([]string{"code"})
	if err := c.Watch(); err != nil {
		t.Skipf("watcher unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if _, err := c.Install(project, []byte(customYAML), ""); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	c.ResolveForProject(project) // warm cache; install registered the dir

	// Edit the file behind the catalog's back.
	path := filepath.Join(config.WorkflowsDir(project), "custom-flow.yaml")
	edited := `
name: custom-flow
description: edited on disk
initial_state: work
states:
  work:
    default_instructions: Edited instructions.
`
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	// The watcher delivers asynchronously; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		def, err := c.Get(project, "custom-flow")
		if err == nil && def.Description == "edited on disk" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher did not invalidate cache after external edit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func writeWorkflowFile(t *testing.T, project, name, content string) {
	t.Helper()
	dir := config.WorkflowsDir(project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
