// Package projectdocs manages the three long-lived document slots a project
// can provide to its workflows: architecture, requirements, and design. A
// slot is filled from a rendered template, linked to an existing file in the
// project, or deliberately marked empty. Artifacts live under
// .stepwise/docs/ and instruction text refers to them through substitution
// variables.
package projectdocs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/templates"
)

// Slot is one document slot.
type Slot string

const (
	SlotArchitecture Slot = "architecture"
	SlotRequirements Slot = "requirements"
	SlotDesign       Slot = "design"
)

// SlotOrder fixes the order slots are validated and written in.
var SlotOrder = []Slot{SlotArchitecture, SlotRequirements, SlotDesign}

// NoneInput marks a slot deliberately empty.
const NoneInput = "none"

// Substitution variable names, as they appear in instruction text.
const (
	VarArchitectureDoc = "$ARCHITECTURE_DOC"
	VarRequirementsDoc = "$REQUIREMENTS_DOC"
	VarDesignDoc       = "$DESIGN_DOC"
	VarPlanFile        = "$PLAN_FILE"
)

var slotVariables = map[Slot]string{
	SlotArchitecture: VarArchitectureDoc,
	SlotRequirements: VarRequirementsDoc,
	SlotDesign:       VarDesignDoc,
}

// slotTemplates maps per-slot template ids to embedded templates.
var slotTemplates = map[Slot]map[string]templates.Name{
	SlotArchitecture: {
		"arc42":     templates.Arc42,
		"freestyle": templates.FreestyleArchitecture,
	},
	SlotRequirements: {
		"ears":      templates.EARS,
		"freestyle": templates.FreestyleRequirements,
	},
	SlotDesign: {
		"comprehensive": templates.Comprehensive,
		"freestyle":     templates.FreestyleDesign,
	},
}

// TemplateIDs returns the template ids available for a slot, sorted.
func TemplateIDs(slot Slot) []string {
	ids := make([]string, 0, len(slotTemplates[slot]))
	for id := range slotTemplates[slot] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Manager creates and inspects document artifacts.
type Manager struct {
	renderer *templates.Renderer
}

// NewManager builds a Manager rendering skeletons with the given renderer.
func NewManager(renderer *templates.Renderer) *Manager {
	return &Manager{renderer: renderer}
}

type actionKind int

const (
	actionTemplate actionKind = iota
	actionNone
	actionLink
)

// action is one validated, not-yet-executed slot mutation.
type action struct {
	slot   Slot
	kind   actionKind
	tmpl   templates.Name
	source string // absolute link source, actionLink only
	isDir  bool
}

// Setup fills all three slots at once. Every input is validated before any
// filesystem change, so a bad design input cannot leave architecture
// half-written. planPath is where the none-placeholder points the agent.
// Returns the created artifact path per slot.
func (m *Manager) Setup(projectPath, planPath string, inputs map[Slot]string) (map[Slot]string, error) {
	actions := make([]action, 0, len(SlotOrder))
	for _, slot := range SlotOrder {
		input, ok := inputs[slot]
		if !ok || input == "" {
			return nil, fmt.Errorf("projectdocs: %s input is required", slot)
		}
		act, err := m.classify(projectPath, slot, input)
		if err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}

	docsDir := config.DocsDir(projectPath)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("projectdocs: create docs dir: %w", err)
	}

	created := make(map[Slot]string, len(actions))
	for _, act := range actions {
		path, err := m.apply(projectPath, planPath, act)
		if err != nil {
			return nil, err
		}
		created[act.slot] = path
	}
	return created, nil
}

// classify decides what an input means for a slot without touching the
// filesystem state of the docs dir.
func (m *Manager) classify(projectPath string, slot Slot, input string) (action, error) {
	if input == NoneInput {
		return action{slot: slot, kind: actionNone}, nil
	}
	if tmpl, ok := slotTemplates[slot][input]; ok {
		return action{slot: slot, kind: actionTemplate, tmpl: tmpl}, nil
	}

	// Anything else is a path into the project.
	source := input
	if !filepath.IsAbs(source) {
		source = filepath.Join(projectPath, source)
	}
	source = filepath.Clean(source)

	inside, err := pathInside(projectPath, source)
	if err != nil {
		return action{}, fmt.Errorf("projectdocs: resolve %q: %w", input, err)
	}
	if !inside {
		return action{}, &PathTraversalError{Slot: slot, Input: input}
	}

	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		// A plain word that is neither a template nor a file reads as a
		// template typo; a path-looking input reads as a bad path.
		if !strings.ContainsAny(input, "/.") {
			return action{}, &UnknownTemplateError{Slot: slot, Input: input, Valid: TemplateIDs(slot)}
		}
		return action{}, &PathNotFoundError{Slot: slot, Input: input}
	}
	if err != nil {
		return action{}, fmt.Errorf("projectdocs: stat %q: %w", input, err)
	}

	return action{slot: slot, kind: actionLink, source: source, isDir: info.IsDir()}, nil
}

// apply executes one validated action: clear the slot, then create its new
// artifact.
func (m *Manager) apply(projectPath, planPath string, act action) (string, error) {
	docsDir := config.DocsDir(projectPath)
	if err := clearSlot(docsDir, act.slot); err != nil {
		return "", err
	}

	switch act.kind {
	case actionTemplate:
		content, err := m.renderer.Render(act.tmpl, templates.DocData{
			ProjectName: filepath.Base(projectPath),
			Date:        timeNow().Format("2006-01-02"),
		})
		if err != nil {
			return "", fmt.Errorf("projectdocs: render %s: %w", act.slot, err)
		}
		path := filepath.Join(docsDir, string(act.slot)+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("projectdocs: write %s: %w", path, err)
		}
		return path, nil

	case actionNone:
		rel := planPath
		if r, err := filepath.Rel(projectPath, planPath); err == nil {
			rel = r
		}
		content, err := m.renderer.Render(templates.NonePlaceholder, templates.PlaceholderData{
			Slot:     titleCase(string(act.slot)),
			PlanFile: rel,
		})
		if err != nil {
			return "", fmt.Errorf("projectdocs: render placeholder: %w", err)
		}
		path := filepath.Join(docsDir, string(act.slot)+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("projectdocs: write %s: %w", path, err)
		}
		return path, nil

	case actionLink:
		// Keep the source's extension on the artifact so tooling still
		// recognizes the format. Directories get none.
		name := string(act.slot)
		if !act.isDir {
			name += filepath.Ext(act.source)
		}
		path := filepath.Join(docsDir, name)
		target := act.source
		if rel, err := filepath.Rel(docsDir, act.source); err == nil {
			target = rel
		}
		if err := os.Symlink(target, path); err != nil {
			return "", fmt.Errorf("projectdocs: link %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("projectdocs: unknown action kind %d", act.kind)
}

// clearSlot removes every artifact currently occupying a slot, whatever its
// extension. Rerunning setup replaces rather than accumulates.
func clearSlot(docsDir string, slot Slot) error {
	entries, err := os.ReadDir(docsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("projectdocs: read docs dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if base != string(slot) {
			continue
		}
		if err := os.Remove(filepath.Join(docsDir, name)); err != nil {
			return fmt.Errorf("projectdocs: clear %s: %w", name, err)
		}
	}
	return nil
}

// Artifact returns the current artifact path for a slot, if one exists.
func Artifact(projectPath string, slot Slot) (string, bool) {
	docsDir := config.DocsDir(projectPath)
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == string(slot) {
			return filepath.Join(docsDir, name), true
		}
	}
	return "", false
}

// IsSetUp reports whether every slot has an artifact, and which are missing.
func IsSetUp(projectPath string) (bool, []Slot) {
	var missing []Slot
	for _, slot := range SlotOrder {
		if _, ok := Artifact(projectPath, slot); !ok {
			missing = append(missing, slot)
		}
	}
	return len(missing) == 0, missing
}

// Substitutions returns the variable map applied to instruction text.
// Slots without an artifact map to their conventional path so text stays
// coherent even before setup. Paths are project-relative.
func Substitutions(projectPath, planPath string) map[string]string {
	subs := make(map[string]string, len(SlotOrder)+1)
	for _, slot := range SlotOrder {
		path, ok := Artifact(projectPath, slot)
		if !ok {
			path = filepath.Join(config.DocsDir(projectPath), string(slot)+".md")
		}
		if rel, err := filepath.Rel(projectPath, path); err == nil {
			path = rel
		}
		subs[slotVariables[slot]] = path
	}
	planRel := planPath
	if rel, err := filepath.Rel(projectPath, planPath); err == nil {
		planRel = rel
	}
	subs[VarPlanFile] = planRel
	return subs
}

// pathInside reports whether candidate stays under root after cleaning.
func pathInside(root, candidate string) (bool, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absRoot, absCandidate)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
