// Package engine is the single authority for what should happen next in a
// development conversation. It resolves workflows, walks their transitions,
// gates them behind reviews, and keeps the persisted phase in step with what
// the calling agent believes.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepwise-mcp/stepwise/internal/conversation"
	"github.com/stepwise-mcp/stepwise/internal/log"
	"github.com/stepwise-mcp/stepwise/internal/plan"
	"github.com/stepwise-mcp/stepwise/internal/projectdocs"
	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// Commit behaviour values a conversation can be started with.
const (
	CommitPerStep  = "step"
	CommitPerPhase = "phase"
	CommitAtEnd    = "end"
	CommitNone     = "none"
)

// ParseCommitBehaviour validates a commit behaviour string, defaulting the
// empty string to committing once at the end.
func ParseCommitBehaviour(s string) (string, error) {
	switch s {
	case "":
		return CommitAtEnd, nil
	case CommitPerStep, CommitPerPhase, CommitAtEnd, CommitNone:
		return s, nil
	default:
		return "", fmt.Errorf("invalid commit behaviour %q (want %s, %s, %s or %s)",
			s, CommitPerStep, CommitPerPhase, CommitAtEnd, CommitNone)
	}
}

// Engine wires the workflow catalog, the conversation store and the document
// managers into the transition operations the tools expose.
type Engine struct {
	catalog *workflow.Catalog
	store   *conversation.Store
	plans   *plan.Manager
	docs    *projectdocs.Manager
}

// New builds an Engine over its collaborators.
func New(catalog *workflow.Catalog, store *conversation.Store, plans *plan.Manager, docs *projectdocs.Manager) *Engine {
	return &Engine{catalog: catalog, store: store, plans: plans, docs: docs}
}

// StartRequest describes a start_development call after the tool layer has
// resolved project path and branch.
type StartRequest struct {
	ProjectPath     string `json:"project_path"`
	Branch          string `json:"branch"`
	Workflow        string `json:"workflow"`
	RequireReviews  bool   `json:"require_reviews"`
	CommitBehaviour string `json:"commit_behaviour"`
}

// StartResult is what starting (or re-entering) a conversation yields.
type StartResult struct {
	State        *conversation.State
	Definition   *workflow.Definition
	Created      bool
	PlanPath     string
	Instructions string
}

// Start creates the conversation for a checkout, or returns the existing one
// unchanged. A second start with the same workflow is a no-op re-entry; a
// different workflow is a conflict that requires an explicit reset first.
func (e *Engine) Start(req StartRequest) (*StartResult, error) {
	def, err := e.catalog.Get(req.ProjectPath, req.Workflow)
	if err != nil {
		return nil, err
	}

	if def.RequiresDocumentation {
		ok, missing := projectdocs.IsSetUp(req.ProjectPath)
		if !ok {
			return nil, &DocumentationRequiredError{
				Workflow:   def.Name,
				Missing:    missing,
				Candidates: projectdocs.DetectCandidates(req.ProjectPath),
			}
		}
	}

	behaviour, err := ParseCommitBehaviour(req.CommitBehaviour)
	if err != nil {
		return nil, err
	}

	planPath, err := e.plans.EnsureExists(req.ProjectPath, req.Branch, def.Name)
	if err != nil {
		return nil, err
	}

	id := conversation.ID(req.ProjectPath, req.Branch)
	st, created, err := e.store.GetOrCreate(conversation.State{
		ID:              id,
		ProjectPath:     req.ProjectPath,
		Branch:          req.Branch,
		Workflow:        def.Name,
		CurrentPhase:    def.InitialState,
		RequireReviews:  req.RequireReviews,
		CommitBehaviour: behaviour,
		PlanFilePath:    planPath,
	})
	if err != nil {
		return nil, err
	}
	if !created && st.Workflow != def.Name {
		return nil, &WorkflowConflictError{Existing: st.Workflow, Requested: def.Name}
	}

	phase, ok := def.Phase(st.CurrentPhase)
	if !ok {
		return nil, &UnknownPhaseError{Workflow: def.Name, Phase: st.CurrentPhase}
	}

	result := &StartResult{
		State:        st,
		Definition:   def,
		Created:      created,
		PlanPath:     planPath,
		Instructions: e.render(st, phase.DefaultInstructions),
	}
	e.audit(st.ID, "start_development", req, result.Instructions, st.CurrentPhase)
	return result, nil
}

// NextResult carries the guidance for continuing in the current phase.
type NextResult struct {
	State        *conversation.State
	Description  string
	Instructions string
	Transitions  []workflow.Transition
}

// WhatsNext returns the current phase's default instructions. It never
// advances the conversation.
func (e *Engine) WhatsNext(projectPath, branch string) (*NextResult, error) {
	st, _, phase, err := e.resolve(projectPath, branch)
	if err != nil {
		return nil, err
	}

	result := &NextResult{
		State:        st,
		Description:  phase.Description,
		Instructions: e.render(st, phase.DefaultInstructions),
		Transitions:  phase.Transitions,
	}
	e.audit(st.ID, "whats_next", map[string]string{"project_path": projectPath, "branch": branch},
		result.Instructions, st.CurrentPhase)
	return result, nil
}

// ProceedRequest describes an explicit transition attempt.
type ProceedRequest struct {
	ProjectPath   string      `json:"project_path"`
	Branch        string      `json:"branch"`
	Trigger       string      `json:"trigger"`
	ReportedPhase string      `json:"current_phase"`
	Review        ReviewState `json:"review_state"`
}

// ProceedResult reports a completed transition.
type ProceedResult struct {
	State          *conversation.State
	From           string
	To             string
	SelfTransition bool
	Reason         string
	Instructions   string
}

// Proceed fires a named trigger from the phase the caller believes it is in.
// The stored phase only changes after the review gate passes, and the write
// is conditional on the phase not having moved underneath us.
func (e *Engine) Proceed(req ProceedRequest) (*ProceedResult, error) {
	st, def, _, err := e.resolve(req.ProjectPath, req.Branch)
	if err != nil {
		return nil, err
	}
	if req.ReportedPhase != st.CurrentPhase {
		return nil, &PhaseMismatchError{Reported: req.ReportedPhase, Actual: st.CurrentPhase}
	}

	tr, ok := def.Transition(st.CurrentPhase, req.Trigger)
	if !ok {
		return nil, &NoSuchTransitionError{
			Workflow: def.Name,
			Phase:    st.CurrentPhase,
			Trigger:  req.Trigger,
			Valid:    def.Triggers(st.CurrentPhase),
		}
	}

	if !gateOpen(tr, st.RequireReviews, req.Review) {
		return nil, &ReviewRequiredError{TargetPhase: tr.To, Perspectives: tr.ReviewPerspectives}
	}

	from := st.CurrentPhase
	self := tr.To == st.CurrentPhase
	if !self {
		moved, err := e.store.UpdatePhaseFrom(st.ID, from, tr.To)
		if err != nil {
			return nil, err
		}
		if !moved {
			return nil, e.staleLoser(st.ID, def, req)
		}
		st.CurrentPhase = tr.To
	}

	result := &ProceedResult{
		State:          st,
		From:           from,
		To:             tr.To,
		SelfTransition: self,
		Reason:         tr.Reason,
		Instructions:   e.render(st, composeInstructions(def, tr, self)),
	}
	e.audit(st.ID, "proceed_to_phase", req, result.Instructions, st.CurrentPhase)
	return result, nil
}

// staleLoser builds the error for a transition that lost a concurrent write
// race. The fresh state decides which error the caller sees.
func (e *Engine) staleLoser(id string, def *workflow.Definition, req ProceedRequest) error {
	fresh, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return &NotStartedError{ProjectPath: req.ProjectPath, Branch: req.Branch}
		}
		return err
	}
	if _, ok := def.Transition(fresh.CurrentPhase, req.Trigger); !ok {
		return &NoSuchTransitionError{
			Workflow: def.Name,
			Phase:    fresh.CurrentPhase,
			Trigger:  req.Trigger,
			Valid:    def.Triggers(fresh.CurrentPhase),
		}
	}
	return &PhaseMismatchError{Reported: req.ReportedPhase, Actual: fresh.CurrentPhase}
}

// ReviewResult lists the perspectives to apply before entering a phase.
type ReviewResult struct {
	State        *conversation.State
	TargetPhase  string
	Required     bool
	Perspectives []workflow.ReviewPerspective
}

// ConductReview gathers the review perspectives declared on transitions from
// the current phase into targetPhase. It mutates nothing; the verdict is the
// caller's to reach.
func (e *Engine) ConductReview(projectPath, branch, targetPhase string) (*ReviewResult, error) {
	st, def, phase, err := e.resolve(projectPath, branch)
	if err != nil {
		return nil, err
	}
	if !def.HasPhase(targetPhase) {
		return nil, &UnknownPhaseError{Workflow: def.Name, Phase: targetPhase}
	}

	var perspectives []workflow.ReviewPerspective
	for _, tr := range phase.Transitions {
		if tr.To == targetPhase {
			perspectives = append(perspectives, tr.ReviewPerspectives...)
		}
	}

	result := &ReviewResult{
		State:        st,
		TargetPhase:  targetPhase,
		Required:     st.RequireReviews && len(perspectives) > 0,
		Perspectives: perspectives,
	}
	e.audit(st.ID, "conduct_review",
		map[string]string{"target_phase": targetPhase}, "", st.CurrentPhase)
	return result, nil
}

// ResumeResult is the read-only snapshot handed back after a restart.
type ResumeResult struct {
	State        *conversation.State
	Definition   *workflow.Definition
	Description  string
	Instructions string
	Transitions  []workflow.Transition
	PlanPath     string
	DocsReady    bool
	MissingDocs  []projectdocs.Slot
	Recent       []conversation.Interaction
}

// recentInteractions caps the audit tail included in a resume snapshot.
const recentInteractions = 5

// Resume re-fetches conversation state without touching it, so a caller that
// lost its context can reattach.
func (e *Engine) Resume(projectPath, branch string) (*ResumeResult, error) {
	st, def, phase, err := e.resolve(projectPath, branch)
	if err != nil {
		return nil, err
	}

	ready, missing := projectdocs.IsSetUp(st.ProjectPath)
	result := &ResumeResult{
		State:        st,
		Definition:   def,
		Description:  phase.Description,
		Instructions: e.render(st, phase.DefaultInstructions),
		Transitions:  phase.Transitions,
		PlanPath:     e.planPath(st),
		DocsReady:    ready,
		MissingDocs:  missing,
	}
	// The audit tail is context, not state; failing to read it does not
	// fail the resume.
	if rows, err := e.store.Interactions(st.ID, false); err == nil {
		if len(rows) > recentInteractions {
			rows = rows[len(rows)-recentInteractions:]
		}
		result.Recent = rows
	}
	e.audit(st.ID, "resume_workflow",
		map[string]string{"project_path": projectPath, "branch": branch}, "", st.CurrentPhase)
	return result, nil
}

// ResetOutcome reports what a reset removed, kept, and could not touch.
type ResetOutcome struct {
	Workflow            string
	Phase               string
	ConversationDeleted bool
	InteractionsFlagged int
	PlanDeleted         bool
	Warnings            []string
}

// Reset wipes the conversation for a checkout: the state row goes, the audit
// rows stay flagged, the plan file is removed. Sub-steps that fail are
// reported as warnings rather than aborting the rest.
func (e *Engine) Reset(projectPath, branch, reason string) (*ResetOutcome, error) {
	id := conversation.ID(projectPath, branch)
	st, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return nil, &NotStartedError{ProjectPath: projectPath, Branch: branch}
		}
		return nil, err
	}

	e.audit(id, "reset_development", map[string]string{"reason": reason}, "", st.CurrentPhase)

	outcome := &ResetOutcome{Workflow: st.Workflow, Phase: st.CurrentPhase}

	res, err := e.store.Reset(id)
	if err != nil {
		return nil, err
	}
	outcome.ConversationDeleted = res.ConversationDeleted
	outcome.InteractionsFlagged = res.InteractionsFlagged

	if err := e.plans.Delete(projectPath, branch); err != nil {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("plan file not removed: %v", err))
	} else {
		outcome.PlanDeleted = true
	}

	log.Info("conversation reset",
		log.Conversation(id), "workflow", st.Workflow, "phase", st.CurrentPhase,
		"interactions_flagged", outcome.InteractionsFlagged)
	return outcome, nil
}

// RecordAudit appends an interaction row for a tool call handled outside the
// engine's own operations, catalog and document tools mostly. Best-effort
// like every audit write; the conversation may not exist yet.
func (e *Engine) RecordAudit(projectPath, branch, tool string, input any) {
	e.audit(conversation.ID(projectPath, branch), tool, input, "", "")
}

// resolve loads the conversation for a checkout together with its workflow
// definition and current phase.
func (e *Engine) resolve(projectPath, branch string) (*conversation.State, *workflow.Definition, workflow.Phase, error) {
	id := conversation.ID(projectPath, branch)
	st, err := e.store.Get(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return nil, nil, workflow.Phase{}, &NotStartedError{ProjectPath: projectPath, Branch: branch}
		}
		return nil, nil, workflow.Phase{}, err
	}

	def, err := e.catalog.Get(st.ProjectPath, st.Workflow)
	if err != nil {
		return nil, nil, workflow.Phase{}, err
	}

	phase, ok := def.Phase(st.CurrentPhase)
	if !ok {
		return nil, nil, workflow.Phase{}, &UnknownPhaseError{Workflow: def.Name, Phase: st.CurrentPhase}
	}
	return st, def, phase, nil
}

// render expands document variables in instruction text for a conversation.
func (e *Engine) render(st *conversation.State, text string) string {
	return substitute(text, projectdocs.Substitutions(st.ProjectPath, e.planPath(st)))
}

func (e *Engine) planPath(st *conversation.State) string {
	if st.PlanFilePath != "" {
		return st.PlanFilePath
	}
	return plan.Path(st.ProjectPath, st.Branch)
}

// audit appends one interaction row. Losing an audit row is acceptable;
// failing the operation over it is not.
func (e *Engine) audit(conversationID, tool string, input, output any, phase string) {
	inJSON, err := json.Marshal(input)
	if err != nil {
		inJSON = []byte("{}")
	}
	outJSON, err := json.Marshal(output)
	if err != nil {
		outJSON = []byte(`""`)
	}
	if err := e.store.RecordInteraction(conversation.Interaction{
		ConversationID: conversationID,
		ToolName:       tool,
		InputJSON:      string(inJSON),
		OutputJSON:     string(outJSON),
		Phase:          phase,
	}); err != nil {
		log.Warn("audit write failed", log.Conversation(conversationID), "tool", tool, log.Err(err))
	}
}
