// Package plan manages the per-conversation development plan: a markdown
// file in the project the agent treats as working memory for the current
// piece of work. One plan per branch.
package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/conversation"
	"github.com/stepwise-mcp/stepwise/internal/templates"
)

// Manager creates and removes plan files.
type Manager struct {
	renderer *templates.Renderer
}

// NewManager builds a Manager rendering plans with the given renderer.
func NewManager(renderer *templates.Renderer) *Manager {
	return &Manager{renderer: renderer}
}

// Path returns where the plan for a checkout lives. Pure; the file may not
// exist.
func Path(projectPath, branch string) string {
	name := "development-plan-" + conversation.Slugify(branch) + ".md"
	return filepath.Join(config.PlansDir(projectPath), name)
}

// EnsureExists creates the plan file from the template if it is not already
// there. An existing plan is never overwritten: it may hold real work.
func (m *Manager) EnsureExists(projectPath, branch, workflowName string) (string, error) {
	path := Path(projectPath, branch)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("plan: create plans dir: %w", err)
	}

	content, err := m.renderer.Render(templates.Plan, templates.PlanData{
		ProjectName: filepath.Base(projectPath),
		Branch:      branch,
		Workflow:    workflowName,
		CreatedAt:   timeNow().Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("plan: render: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("plan: write %s: %w", path, err)
	}
	return path, nil
}

// Delete removes the plan file. A plan that is already gone is not an
// error; reset must stay idempotent.
func (m *Manager) Delete(projectPath, branch string) error {
	err := os.Remove(Path(projectPath, branch))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("plan: delete: %w", err)
	}
	return nil
}
