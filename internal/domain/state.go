package domain

// VerificationState holds the per-step status for one user. It is a plain
// value; the ordering invariant (verified steps form a prefix of StepOrder)
// is enforced by the gate logic, not by this type.
type VerificationState struct {
	Profile StepStatus `json:"profile"`
	Email   StepStatus `json:"email"`
	Phone   StepStatus `json:"phone"`
	ID      StepStatus `json:"id"`
	Address StepStatus `json:"address"`
}

// NewVerificationState returns a state with every step incomplete.
func NewVerificationState() VerificationState {
	return VerificationState{
		Profile: StatusIncomplete,
		Email:   StatusIncomplete,
		Phone:   StatusIncomplete,
		ID:      StatusIncomplete,
		Address: StatusIncomplete,
	}
}

// Status returns the status of a single step.
func (v VerificationState) Status(s Step) StepStatus {
	switch s {
	case StepProfile:
		return v.Profile
	case StepEmail:
		return v.Email
	case StepPhone:
		return v.Phone
	case StepID:
		return v.ID
	case StepAddress:
		return v.Address
	default:
		return StatusIncomplete
	}
}

// WithStatus returns a copy of the state with one step's status replaced.
func (v VerificationState) WithStatus(s Step, st StepStatus) VerificationState {
	switch s {
	case StepProfile:
		v.Profile = st
	case StepEmail:
		v.Email = st
	case StepPhone:
		v.Phone = st
	case StepID:
		v.ID = st
	case StepAddress:
		v.Address = st
	}
	return v
}

// Verified reports whether a step has been fully verified. Skipped does not
// count.
func (v VerificationState) Verified(s Step) bool {
	return v.Status(s) == StatusVerified
}

// Complete reports whether every step in the chain is verified.
func (v VerificationState) Complete() bool {
	for _, s := range StepOrder {
		if !v.Verified(s) {
			return false
		}
	}
	return true
}

// Satisfies reports whether the state meets every requirement of an action.
func (v VerificationState) Satisfies(a Action) bool {
	for _, s := range a.RequiredSteps() {
		if !v.Verified(s) {
			return false
		}
	}
	return true
}

// FirstIncomplete returns the first unverified step among required, in
// canonical order, and false when all are verified. This is the guard's
// tie-break rule: remediation always targets the earliest outstanding step.
func (v VerificationState) FirstIncomplete(required []Step) (Step, bool) {
	for _, s := range required {
		if !v.Verified(s) {
			return s, true
		}
	}
	return 0, false
}

// IsPrefix reports whether the set of verified steps forms a leading
// contiguous run of the canonical order. Skips break the prefix once a later
// step is verified past them.
func (v VerificationState) IsPrefix() bool {
	seenGap := false
	for _, s := range StepOrder {
		if v.Verified(s) {
			if seenGap {
				return false
			}
		} else {
			seenGap = true
		}
	}
	return true
}
