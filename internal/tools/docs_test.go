package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupProjectDocsTool_Handle_Templates(t *testing.T) {
	env := newToolEnv(t)
	tool := NewSetupProjectDocsTool(env.docs, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"architecture": "arc42",
		"requirements": "ears",
		"design":       "none",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Project Documents Ready") {
		t.Error("result should announce the setup")
	}
	if !strings.Contains(text, "$ARCHITECTURE_DOC") {
		t.Error("result should list the substitution variables")
	}

	docsDir := filepath.Join(env.project, ".stepwise", "docs")
	for _, name := range []string{"architecture.md", "requirements.md", "design.md"} {
		if _, err := os.Stat(filepath.Join(docsDir, name)); err != nil {
			t.Errorf("artifact %s should exist: %v", name, err)
		}
	}
}

func TestSetupProjectDocsTool_Handle_LinksExistingFile(t *testing.T) {
	env := newToolEnv(t)
	existing := filepath.Join(env.project, "docs", "arch.adoc")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("= Architecture\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewSetupProjectDocsTool(env.docs, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"architecture": "docs/arch.adoc",
		"requirements": "none",
		"design":       "none",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	// The link keeps the original extension.
	link := filepath.Join(env.project, ".stepwise", "docs", "architecture.adoc")
	if _, err := os.Lstat(link); err != nil {
		t.Errorf("symlink should exist: %v", err)
	}
}

func TestSetupProjectDocsTool_Handle_RejectsTraversal(t *testing.T) {
	env := newToolEnv(t)
	tool := NewSetupProjectDocsTool(env.docs, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"architecture": "../outside.md",
		"requirements": "none",
		"design":       "none",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a traversal path")
	}
	if !strings.Contains(getResultText(result), "outside the project root") {
		t.Error("error should explain the project boundary")
	}
}

func TestSetupProjectDocsTool_Handle_UnknownTemplate(t *testing.T) {
	env := newToolEnv(t)
	tool := NewSetupProjectDocsTool(env.docs, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"architecture": "c4model",
		"requirements": "none",
		"design":       "none",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an unknown template")
	}
	text := getResultText(result)
	if !strings.Contains(text, "arc42") {
		t.Error("error should list the valid templates")
	}
}

func TestSetupProjectDocsTool_Handle_MissingSlot(t *testing.T) {
	env := newToolEnv(t)
	tool := NewSetupProjectDocsTool(env.docs, env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"architecture": "arc42",
		"requirements": "ears",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result with a slot missing")
	}
}
