// Package workflow defines the state-machine model a conversation moves
// through: named phases, triggered transitions between them, and the
// instruction text handed to the agent at each step. Definitions are loaded
// from YAML, validated once, and treated as immutable afterwards.
package workflow

import "sort"

// Definition is one complete workflow state machine.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Domain tags the workflow for catalog filtering (code, architecture,
	// office). Free-form; the safe default filter loads only code.
	Domain string `yaml:"domain,omitempty"`

	// RequiresDocumentation makes start_development fail until the project
	// document slots are set up.
	RequiresDocumentation bool `yaml:"requires_documentation,omitempty"`

	InitialState string           `yaml:"initial_state"`
	Metadata     Metadata         `yaml:"metadata,omitempty"`
	States       map[string]Phase `yaml:"states"`
}

// Metadata is presentation-only guidance shown when listing workflows. It
// never influences engine behavior.
type Metadata struct {
	Complexity string   `yaml:"complexity,omitempty"`
	BestFor    []string `yaml:"best_for,omitempty"`
	UseCases   []string `yaml:"use_cases,omitempty"`
	Examples   []string `yaml:"examples,omitempty"`
}

// Phase is a single state of the machine.
type Phase struct {
	Description string `yaml:"description,omitempty"`

	// DefaultInstructions is what the agent should do while in this phase.
	// Required for every phase: it is the continue text and the base of
	// the composition rule for inbound transitions.
	DefaultInstructions string `yaml:"default_instructions"`

	Transitions []Transition `yaml:"transitions,omitempty"`
}

// Transition is one legal move out of a phase.
type Transition struct {
	Trigger string `yaml:"trigger"`
	To      string `yaml:"to"`

	// Instructions, when set, replaces the target phase's defaults
	// entirely. AdditionalInstructions is appended to the defaults
	// instead. Setting neither hands out the target defaults alone.
	Instructions           string `yaml:"instructions,omitempty"`
	AdditionalInstructions string `yaml:"additional_instructions,omitempty"`

	Reason             string              `yaml:"transition_reason,omitempty"`
	ReviewPerspectives []ReviewPerspective `yaml:"review_perspectives,omitempty"`
}

// ReviewPerspective asks for the transition to be reviewed from one role's
// point of view before it may be taken.
type ReviewPerspective struct {
	Role   string `yaml:"role"`
	Prompt string `yaml:"prompt"`
}

// PhaseNames returns all phase names in sorted order.
func (d *Definition) PhaseNames() []string {
	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Phase looks up a phase by name.
func (d *Definition) Phase(name string) (Phase, bool) {
	p, ok := d.States[name]
	return p, ok
}

// HasPhase reports whether name is a phase of this workflow.
func (d *Definition) HasPhase(name string) bool {
	_, ok := d.States[name]
	return ok
}

// Transition looks up the transition with the given trigger out of phase.
func (d *Definition) Transition(phase, trigger string) (Transition, bool) {
	p, ok := d.States[phase]
	if !ok {
		return Transition{}, false
	}
	for _, tr := range p.Transitions {
		if tr.Trigger == trigger {
			return tr, true
		}
	}
	return Transition{}, false
}

// Triggers returns the triggers leaving phase, in declaration order.
func (d *Definition) Triggers(phase string) []string {
	p, ok := d.States[phase]
	if !ok {
		return nil
	}
	triggers := make([]string, 0, len(p.Transitions))
	for _, tr := range p.Transitions {
		triggers = append(triggers, tr.Trigger)
	}
	return triggers
}
