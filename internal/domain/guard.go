package domain

// GuardOutcome is the access decision for a gated action.
type GuardOutcome string

const (
	// OutcomeAuthRequired means no authenticated user was presented.
	OutcomeAuthRequired GuardOutcome = "auth_required"
	// OutcomeGranted means every required step is verified.
	OutcomeGranted GuardOutcome = "granted"
	// OutcomeBlocked means at least one required step is outstanding; the
	// decision carries a remediation plan.
	OutcomeBlocked GuardOutcome = "blocked"
)

// Requirement is one row of a remediation prompt: a required step, its
// current status, and whether it is the one the user should resolve next.
type Requirement struct {
	Step   Step       `json:"-"`
	Name   string     `json:"step"`
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
	Next   bool       `json:"next"`
}

// Decision is the guard's full answer for one (user, action) pair.
type Decision struct {
	Outcome      GuardOutcome  `json:"outcome"`
	Action       string        `json:"action"`
	Requirements []Requirement `json:"requirements,omitempty"`
	// NextStep names the first incomplete required step. Empty when the
	// outcome is not blocked, or when every requirement turns out to be
	// verified already (the client falls back to the dashboard).
	NextStep string `json:"next_step,omitempty"`
}

// Evaluate decides whether a user may perform an action. It is pure and
// total: every input maps to exactly one outcome and no branch errors.
// A nil user yields OutcomeAuthRequired; an action outside the known set
// yields OutcomeBlocked, never Granted, since its requirement list would
// otherwise be empty and vacuously satisfied.
func Evaluate(user *User, action Action) Decision {
	if user == nil {
		return Decision{Outcome: OutcomeAuthRequired, Action: action.String()}
	}
	if !action.Valid() {
		return Decision{Outcome: OutcomeBlocked, Action: action.String()}
	}

	required := action.RequiredSteps()
	state := user.Verification

	if state.Satisfies(action) {
		return Decision{Outcome: OutcomeGranted, Action: action.String()}
	}

	next, ok := state.FirstIncomplete(required)
	reqs := make([]Requirement, 0, len(required))
	for _, s := range required {
		reqs = append(reqs, Requirement{
			Step:   s,
			Name:   s.String(),
			Label:  s.Label(),
			Status: state.Status(s),
			Next:   ok && s == next,
		})
	}

	d := Decision{
		Outcome:      OutcomeBlocked,
		Action:       action.String(),
		Requirements: reqs,
	}
	if ok {
		d.NextStep = next.String()
	}
	return d
}

// GateOutcome tells a client what to do when it lands on a step page.
type GateOutcome string

const (
	// GateProceed means the step's form should be rendered and submissions
	// accepted.
	GateProceed GateOutcome = "proceed"
	// GateRedirectBack means an earlier prerequisite is outstanding.
	GateRedirectBack GateOutcome = "redirect_back"
	// GateRedirectForward means the step is already resolved; move on.
	GateRedirectForward GateOutcome = "redirect_forward"
)

// GateResult is the gate's answer for one (state, step) pair. RedirectTo is
// set for both redirect outcomes; an empty RedirectTo on a forward redirect
// means the dashboard (the terminal step has nowhere further to go).
type GateResult struct {
	Outcome    GateOutcome `json:"outcome"`
	Step       string      `json:"step"`
	RedirectTo string      `json:"redirect_to,omitempty"`
}

// Gate applies the uniform step-entry rule: redirect back when the immediate
// prerequisite is not verified, redirect forward when the step itself is
// already verified, otherwise proceed. A skipped step proceeds: the user
// deferred it, so re-entering presents the form again. This is what keeps
// the verified set prefix-closed.
func Gate(state VerificationState, step Step) GateResult {
	if prev, ok := step.Prev(); ok && !state.Verified(prev) {
		return GateResult{
			Outcome:    GateRedirectBack,
			Step:       step.String(),
			RedirectTo: prev.String(),
		}
	}

	if state.Verified(step) {
		res := GateResult{Outcome: GateRedirectForward, Step: step.String()}
		if next, ok := step.Next(); ok {
			res.RedirectTo = next.String()
		}
		return res
	}

	return GateResult{Outcome: GateProceed, Step: step.String()}
}
