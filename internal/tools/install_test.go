package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stepwise-mcp/stepwise/internal/config"
)

func TestInstallWorkflowTool_Handle_InlineYAML(t *testing.T) {
	env := newToolEnv(t)
	tool := NewInstallWorkflowTool(env.catalog, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": gatedWorkflowYAML,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Workflow Installed: gated") {
		t.Error("result should announce the installed workflow")
	}
	if !strings.Contains(text, "inline YAML") {
		t.Error("result should report the inline source")
	}

	installed := filepath.Join(config.WorkflowsDir(env.project), "gated.yaml")
	if _, err := os.Stat(installed); err != nil {
		t.Errorf("installed file should exist: %v", err)
	}
}

func TestInstallWorkflowTool_Handle_FromFile(t *testing.T) {
	env := newToolEnv(t)
	source := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(source, []byte(gatedWorkflowYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewInstallWorkflowTool(env.catalog, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": source,
		"name":   "gated-copy",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "Workflow Installed: gated-copy") {
		t.Error("result should use the override name")
	}
}

func TestInstallWorkflowTool_Handle_InvalidYAML(t *testing.T) {
	env := newToolEnv(t)
	tool := NewInstallWorkflowTool(env.catalog, env.engine, env.cfg)

	broken := strings.Replace(gatedWorkflowYAML, "to: review", "to: nowhere", 1)
	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": broken,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an invalid definition")
	}
	if !strings.Contains(getResultText(result), "nothing was installed") {
		t.Error("error should state that nothing was written")
	}
}

func TestInstallWorkflowTool_Handle_MissingFile(t *testing.T) {
	env := newToolEnv(t)
	tool := NewInstallWorkflowTool(env.catalog, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"source": "/no/such/workflow.yaml",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an unreadable path")
	}
}
