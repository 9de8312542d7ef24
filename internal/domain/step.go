package domain

import "fmt"

// Step is one of the five ordered verification steps. The zero value is not
// a valid step; use ParseStep at API boundaries.
type Step int

const (
	StepProfile Step = iota + 1
	StepEmail
	StepPhone
	StepID
	StepAddress
)

// StepOrder is the canonical sequence of verification steps. Completion is
// expected to advance through this list front to back.
var StepOrder = []Step{StepProfile, StepEmail, StepPhone, StepID, StepAddress}

func (s Step) String() string {
	switch s {
	case StepProfile:
		return "profile"
	case StepEmail:
		return "email"
	case StepPhone:
		return "phone"
	case StepID:
		return "id"
	case StepAddress:
		return "address"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Label is the human-readable name shown in remediation prompts.
func (s Step) Label() string {
	switch s {
	case StepProfile:
		return "Complete your profile"
	case StepEmail:
		return "Verify your email"
	case StepPhone:
		return "Verify your phone number"
	case StepID:
		return "Verify your identity"
	case StepAddress:
		return "Verify your address"
	default:
		return s.String()
	}
}

// Index returns the step's zero-based position in the canonical order.
func (s Step) Index() int {
	return int(s) - 1
}

// Prev returns the immediately preceding step and false for the first step.
func (s Step) Prev() (Step, bool) {
	if s <= StepProfile || s > StepAddress {
		return 0, false
	}
	return s - 1, true
}

// Next returns the immediately following step and false for the terminal step.
func (s Step) Next() (Step, bool) {
	if s < StepProfile || s >= StepAddress {
		return 0, false
	}
	return s + 1, true
}

// Skippable reports whether the step offers a "skip for now" escape hatch.
// Only the email and identity-document steps do.
func (s Step) Skippable() bool {
	return s == StepEmail || s == StepID
}

func (s Step) Valid() bool {
	return s >= StepProfile && s <= StepAddress
}

func ParseStep(v string) (Step, error) {
	switch v {
	case "profile":
		return StepProfile, nil
	case "email":
		return StepEmail, nil
	case "phone":
		return StepPhone, nil
	case "id":
		return StepID, nil
	case "address":
		return StepAddress, nil
	default:
		return 0, fmt.Errorf("unknown verification step: %q", v)
	}
}

// StepStatus is the tri-state completion status of a single step. A skipped
// step does not satisfy any action requirement; it only records that the user
// chose to defer the step.
type StepStatus string

const (
	StatusIncomplete StepStatus = "incomplete"
	StatusSkipped    StepStatus = "skipped"
	StatusVerified   StepStatus = "verified"
)

func ParseStepStatus(v string) (StepStatus, error) {
	switch StepStatus(v) {
	case StatusIncomplete, StatusSkipped, StatusVerified:
		return StepStatus(v), nil
	default:
		return "", fmt.Errorf("unknown step status: %q", v)
	}
}

// Action is a gated marketplace action.
type Action int

const (
	ActionRent Action = iota + 1
	ActionList
)

func (a Action) String() string {
	switch a {
	case ActionRent:
		return "rent"
	case ActionList:
		return "list"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

func (a Action) Valid() bool {
	return a == ActionRent || a == ActionList
}

func ParseAction(v string) (Action, error) {
	switch v {
	case "rent":
		return ActionRent, nil
	case "list":
		return ActionList, nil
	default:
		return 0, fmt.Errorf("unknown action: %q", v)
	}
}

// RequiredSteps returns the subset of steps an action requires, in canonical
// order. Renting only needs a profile and a verified email; listing an item
// requires the full chain.
func (a Action) RequiredSteps() []Step {
	switch a {
	case ActionRent:
		return []Step{StepProfile, StepEmail}
	case ActionList:
		return []Step{StepProfile, StepEmail, StepPhone, StepID, StepAddress}
	default:
		return nil
	}
}
