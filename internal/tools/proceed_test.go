package tools

import (
	"context"
	"strings"
	"testing"
)

func TestProceedToPhaseTool_Handle_Success(t *testing.T) {
	env := newToolEnv(t)
	env.startEPCC(t)
	tool := NewProceedToPhaseTool(env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "exploration_complete",
		"current_phase": "explore",
		"review_state":  "not-required",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Phase Transition: explore → plan") {
		t.Error("result should announce the transition")
	}
	if !strings.Contains(text, "## Instructions") {
		t.Error("result should carry the new phase's instructions")
	}
}

func TestProceedToPhaseTool_Handle_StalePhase(t *testing.T) {
	env := newToolEnv(t)
	env.startEPCC(t)
	tool := NewProceedToPhaseTool(env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "plan_complete",
		"current_phase": "plan",
		"review_state":  "not-required",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a stale reported phase")
	}
	text := getResultText(result)
	if !strings.Contains(text, "whats_next") {
		t.Error("error should tell the caller to re-sync with whats_next")
	}
	if !strings.Contains(text, `"explore"`) {
		t.Error("error should name the actual phase")
	}
}

func TestProceedToPhaseTool_Handle_UnknownTrigger(t *testing.T) {
	env := newToolEnv(t)
	env.startEPCC(t)
	tool := NewProceedToPhaseTool(env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "ship_it",
		"current_phase": "explore",
		"review_state":  "not-required",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an unknown trigger")
	}
	if !strings.Contains(getResultText(result), "`exploration_complete`") {
		t.Error("error should list the valid triggers")
	}
}

func TestProceedToPhaseTool_Handle_InvalidReviewState(t *testing.T) {
	env := newToolEnv(t)
	env.startEPCC(t)
	tool := NewProceedToPhaseTool(env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "exploration_complete",
		"current_phase": "explore",
		"review_state":  "done",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for an invalid review state")
	}
}

func TestProceedToPhaseTool_Handle_ReviewGate(t *testing.T) {
	env := newToolEnv(t)
	if _, err := env.catalog.Install(env.project, []byte(gatedWorkflowYAML), ""); err != nil {
		t.Fatalf("setup: install gated workflow: %v", err)
	}
	if _, err := env.engine.Start(startGated(env)); err != nil {
		t.Fatalf("setup: start gated: %v", err)
	}
	tool := NewProceedToPhaseTool(env.engine, env.cfg)

	result, err := tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "submit",
		"current_phase": "draft",
		"review_state":  "pending",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result while the review is pending")
	}
	text := getResultText(result)
	if !strings.Contains(text, "**security**") {
		t.Error("error should list the security perspective")
	}
	if !strings.Contains(text, "conduct_review") {
		t.Error("error should point at conduct_review")
	}

	// With the review performed the same transition goes through.
	result, err = tool.Handle(context.Background(), request(map[string]interface{}{
		"trigger":       "submit",
		"current_phase": "draft",
		"review_state":  "performed",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success after review, got: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "draft → review") {
		t.Error("result should announce the gated transition")
	}
}
