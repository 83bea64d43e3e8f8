package engine

import (
	"fmt"

	"github.com/stepwise-mcp/stepwise/internal/workflow"
)

// ReviewState is the caller's claim about review progress for the
// transition it is attempting.
type ReviewState string

const (
	ReviewNotRequired ReviewState = "not-required"
	ReviewPending     ReviewState = "pending"
	ReviewPerformed   ReviewState = "performed"
)

// ParseReviewState validates a review state string. The empty string maps
// to not-required so callers outside reviewed workflows never have to think
// about it.
func ParseReviewState(s string) (ReviewState, error) {
	switch ReviewState(s) {
	case "":
		return ReviewNotRequired, nil
	case ReviewNotRequired, ReviewPending, ReviewPerformed:
		return ReviewState(s), nil
	default:
		return "", fmt.Errorf("invalid review state %q (want %s, %s or %s)",
			s, ReviewNotRequired, ReviewPending, ReviewPerformed)
	}
}

// gateOpen decides whether a transition may proceed under the conversation's
// review policy. Reviews gate nothing when the policy is off or the
// transition names no perspectives; otherwise the caller must have performed
// the review.
func gateOpen(tr workflow.Transition, requireReviews bool, state ReviewState) bool {
	if !requireReviews || len(tr.ReviewPerspectives) == 0 {
		return true
	}
	return state == ReviewPerformed
}
