// Package domain holds the pure share-lifecycle logic: timeline derivation
// and the authorization policy. No I/O, no service dependencies.
package domain

import (
	"github.com/landonvance1/BookSharingApp/internal/model"
)

// StepKind distinguishes ordered happy-path steps from terminal outcomes,
// so "completed" comparisons are only ever made on the ordered kind.
type StepKind int

const (
	StepHappyPath StepKind = iota
	StepTerminalSuccess
	StepTerminalDisputed
	StepTerminalDeclined
)

// Step is one display row of the share timeline.
type Step struct {
	Status      model.ShareStatus
	Kind        StepKind
	Label       string
	Description string
	// ActionLabel names the button advancing out of this step, empty when
	// no action exists (HomeSafe and terminal branches).
	ActionLabel string
	Completed   bool
	Current     bool
}

// IsTerminal reports whether the step closes the timeline.
func (s Step) IsTerminal() bool {
	return s.Kind != StepHappyPath
}

type stepDef struct {
	status      model.ShareStatus
	label       string
	description string
	actionLabel string
}

var happySteps = []stepDef{
	{model.StatusRequested, "Requested", "Borrower has requested this book", "Mark as Ready"},
	{model.StatusReady, "Ready", "Book is ready for pickup", "Mark as Picked Up"},
	{model.StatusPickedUp, "Picked Up", "Book has been picked up", "Mark as Returned"},
	{model.StatusReturned, "Returned", "Book has been returned", "Confirm Home Safe"},
	{model.StatusHomeSafe, "Home Safe", "Book is safely returned to owner", ""},
}

// DeriveTimeline computes the ordered step list for a share.
//
// Declined shares collapse to [Requested, Declined]. Disputed shares keep the
// happy-path prefix up to the status held at dispute time, then close with a
// Disputed step. Everything else renders the full five steps, with progress
// conveyed by the Completed/Current flags rather than list membership.
func DeriveTimeline(share *model.Share) []Step {
	if share.Status == model.StatusDeclined {
		requested := happyStep(0)
		requested.Completed = true
		return []Step{
			requested,
			{
				Status:      model.StatusDeclined,
				Kind:        StepTerminalDeclined,
				Label:       "Declined",
				Description: "Owner declined this request",
				Current:     true,
			},
		}
	}

	if share.IsDisputed || share.Status == model.StatusDisputed {
		// Status is frozen at dispute time. A server that reports Disputed in
		// the status field itself gives us no happy-path position, so the
		// whole pre-terminal prefix is shown.
		prefixEnd := share.Status.HappyPathIndex()
		if prefixEnd < 0 {
			prefixEnd = model.StatusReturned.HappyPathIndex()
		}
		steps := make([]Step, 0, prefixEnd+2)
		for i := 0; i <= prefixEnd; i++ {
			s := happyStep(i)
			s.Completed = true
			steps = append(steps, s)
		}
		steps = append(steps, Step{
			Status:      model.StatusDisputed,
			Kind:        StepTerminalDisputed,
			Label:       "Disputed",
			Description: "This share is under dispute",
			Current:     true,
		})
		return steps
	}

	steps := make([]Step, 0, len(happySteps))
	for i := range happySteps {
		s := happyStep(i)
		s.Completed = share.Status > s.Status
		s.Current = share.Status == s.Status
		if s.Status == model.StatusHomeSafe {
			s.Kind = StepTerminalSuccess
		}
		steps = append(steps, s)
	}
	return steps
}

// ActionLabel returns the label of the action that advances out of status,
// false when that status has no advancing action.
func ActionLabel(status model.ShareStatus) (string, bool) {
	idx := status.HappyPathIndex()
	if idx < 0 || happySteps[idx].actionLabel == "" {
		return "", false
	}
	return happySteps[idx].actionLabel, true
}

func happyStep(i int) Step {
	d := happySteps[i]
	return Step{
		Status:      d.status,
		Kind:        StepHappyPath,
		Label:       d.label,
		Description: d.description,
		ActionLabel: d.actionLabel,
	}
}
