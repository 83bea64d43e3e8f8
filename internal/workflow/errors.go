package workflow

import (
	"fmt"
	"strings"
)

// NotFoundError reports a workflow name that resolved to nothing for a
// project, along with what would have resolved.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("workflow %q not found (no workflows available)", e.Name)
	}
	return fmt.Sprintf("workflow %q not found, available: %s", e.Name, strings.Join(e.Available, ", "))
}

// UnknownInitialStateError reports an initial_state naming no declared phase.
type UnknownInitialStateError struct {
	Workflow     string
	InitialState string
}

func (e *UnknownInitialStateError) Error() string {
	return fmt.Sprintf("workflow %q: initial_state %q is not a declared phase", e.Workflow, e.InitialState)
}

// UnknownTargetStateError reports a transition pointing at no declared phase.
type UnknownTargetStateError struct {
	Workflow string
	Phase    string
	Trigger  string
	Target   string
}

func (e *UnknownTargetStateError) Error() string {
	return fmt.Sprintf("workflow %q: phase %q transition %q targets undeclared phase %q",
		e.Workflow, e.Phase, e.Trigger, e.Target)
}

// MissingDefaultInstructionsError reports a phase with empty
// default_instructions.
type MissingDefaultInstructionsError struct {
	Workflow string
	Phase    string
}

func (e *MissingDefaultInstructionsError) Error() string {
	return fmt.Sprintf("workflow %q: phase %q has no default_instructions", e.Workflow, e.Phase)
}

// DuplicateTriggerError reports two transitions out of one phase sharing a
// trigger name.
type DuplicateTriggerError struct {
	Workflow string
	Phase    string
	Trigger  string
}

func (e *DuplicateTriggerError) Error() string {
	return fmt.Sprintf("workflow %q: phase %q declares trigger %q more than once", e.Workflow, e.Phase, e.Trigger)
}
