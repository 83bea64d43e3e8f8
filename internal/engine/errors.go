package engine

import (
	"fmt"
	"strings"

	"github.com/stepwise-mcp/stepwise/internal/projectdocs"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// NotStartedError reports that no conversation exists for a checkout yet.
type NotStartedError struct {
	ProjectPath string
	Branch      string
}

func (e *NotStartedError) Error() string {
	return fmt.Sprintf("no development conversation for %s on branch %q; call start_development first",
		e.ProjectPath, e.Branch)
}

// UnknownPhaseError reports a stored phase the workflow no longer declares,
// usually after the definition was edited underneath a running conversation.
type UnknownPhaseError struct {
	Workflow string
	Phase    string
}

func (e *UnknownPhaseError) Error() string {
	return fmt.Sprintf("conversation is in phase %q, which workflow %q does not declare; the definition may have changed — reset_development starts over",
		e.Phase, e.Workflow)
}

// PhaseMismatchError reports that the caller's belief about the current
// phase is stale. The remedy is always the same: ask whats_next.
type PhaseMismatchError struct {
	Reported string
	Actual   string
}

func (e *PhaseMismatchError) Error() string {
	return fmt.Sprintf("you reported phase %q but the conversation is in %q; call whats_next to re-sync",
		e.Reported, e.Actual)
}

// NoSuchTransitionError reports a trigger the current phase does not offer.
type NoSuchTransitionError struct {
	Workflow string
	Phase    string
	Trigger  string
	Valid    []string
}

func (e *NoSuchTransitionError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("phase %q has no transition %q (it is a terminal phase)", e.Phase, e.Trigger)
	}
	return fmt.Sprintf("phase %q has no transition %q; valid triggers: %s",
		e.Phase, e.Trigger, strings.Join(e.Valid, ", "))
}

// ReviewRequiredError blocks a transition until its review perspectives have
// been addressed.
type ReviewRequiredError struct {
	TargetPhase  string
	Perspectives []workflow.ReviewPerspective
}

func (e *ReviewRequiredError) Error() string {
	roles := make([]string, 0, len(e.Perspectives))
	for _, p := range e.Perspectives {
		roles = append(roles, p.Role)
	}
	return fmt.Sprintf("transition to %q requires review from: %s; call conduct_review, then retry with review_state performed",
		e.TargetPhase, strings.Join(roles, ", "))
}

// DocumentationRequiredError blocks start_development for workflows that
// need the document slots filled first.
type DocumentationRequiredError struct {
	Workflow   string
	Missing    []projectdocs.Slot
	Candidates map[projectdocs.Slot][]string
}

func (e *DocumentationRequiredError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, slot := range e.Missing {
		names = append(names, string(slot))
	}
	return fmt.Sprintf("workflow %q requires project documentation; missing: %s — run setup_project_docs first",
		e.Workflow, strings.Join(names, ", "))
}

// WorkflowConflictError reports a start against a checkout that already runs
// a different workflow. Switching means resetting.
type WorkflowConflictError struct {
	Existing  string
	Requested string
}

func (e *WorkflowConflictError) Error() string {
	return fmt.Sprintf("this checkout already runs workflow %q; reset_development before starting %q",
		e.Existing, e.Requested)
}
