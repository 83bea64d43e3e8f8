package config

import "path/filepath"

// Project-local layout. Everything the server writes inside a project lives
// under one dot-directory at the project root.
const (
	// StepwiseDirName is the project-local state directory.
	StepwiseDirName = ".stepwise"
	// WorkflowsDirName holds installed workflow definitions.
	WorkflowsDirName = "workflows"
	// PlansDirName holds per-branch plan documents.
	PlansDirName = "plans"
	// DocsDirName holds architecture, requirements and design artifacts.
	DocsDirName = "docs"
	// LegacyWorkflowFile is the pre-catalog single-workflow location.
	LegacyWorkflowFile = "workflow.yaml"
)

// StepwiseDir returns the project-local state directory.
func StepwiseDir(projectPath string) string {
	return filepath.Join(projectPath, StepwiseDirName)
}

// WorkflowsDir returns the directory of project-local workflow definitions.
func WorkflowsDir(projectPath string) string {
	return filepath.Join(StepwiseDir(projectPath), WorkflowsDirName)
}

// PlansDir returns the directory of plan documents.
func PlansDir(projectPath string) string {
	return filepath.Join(StepwiseDir(projectPath), PlansDirName)
}

// DocsDir returns the directory of project document artifacts.
func DocsDir(projectPath string) string {
	return filepath.Join(StepwiseDir(projectPath), DocsDirName)
}

// LegacyWorkflowPath returns the old single-file workflow location, still
// honored through migration.
func LegacyWorkflowPath(projectPath string) string {
	return filepath.Join(StepwiseDir(projectPath), LegacyWorkflowFile)
}
