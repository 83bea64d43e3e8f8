package workflow

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a workflow definition from YAML bytes. The
// returned definition is ready for the engine: every phase has instructions,
// every transition targets a declared phase, and triggers are unique per
// phase.
func Parse(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("workflow: definition is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("workflow: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile loads and validates a definition from a file path.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("workflow: %s: %w", path, err)
	}
	return def, nil
}

// Validate checks the definition's structural invariants. Phases are visited
// in sorted order so the first reported problem is deterministic.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow: name is required")
	}
	if len(d.States) == 0 {
		return fmt.Errorf("workflow %q: at least one state is required", d.Name)
	}
	if d.InitialState == "" {
		return fmt.Errorf("workflow %q: initial_state is required", d.Name)
	}
	if !d.HasPhase(d.InitialState) {
		return &UnknownInitialStateError{Workflow: d.Name, InitialState: d.InitialState}
	}

	for _, name := range d.PhaseNames() {
		phase := d.States[name]
		if phase.DefaultInstructions == "" {
			return &MissingDefaultInstructionsError{Workflow: d.Name, Phase: name}
		}
		seen := make(map[string]bool, len(phase.Transitions))
		for _, tr := range phase.Transitions {
			if tr.Trigger == "" {
				return fmt.Errorf("workflow %q: phase %q has a transition without a trigger", d.Name, name)
			}
			if seen[tr.Trigger] {
				return &DuplicateTriggerError{Workflow: d.Name, Phase: name, Trigger: tr.Trigger}
			}
			seen[tr.Trigger] = true
			if !d.HasPhase(tr.To) {
				return &UnknownTargetStateError{Workflow: d.Name, Phase: name, Trigger: tr.Trigger, Target: tr.To}
			}
			for _, p := range tr.ReviewPerspectives {
				if p.Role == "" {
					return fmt.Errorf("workflow %q: phase %q transition %q has a review perspective without a role",
						d.Name, name, tr.Trigger)
				}
			}
		}
	}
	return nil
}

// Marshal renders the definition back to YAML, for install and for serving
// definitions as resources.
func Marshal(def *Definition) ([]byte, error) {
	data, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode definition: %w", err)
	}
	return data, nil
}
