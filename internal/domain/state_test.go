package domain_test

import (
	"testing"

	"github.com/peerrent/verification/internal/domain"
)

// stateWith marks the first n steps verified.
func stateWith(n int) domain.VerificationState {
	s := domain.NewVerificationState()
	for i := 0; i < n && i < len(domain.StepOrder); i++ {
		s = s.WithStatus(domain.StepOrder[i], domain.StatusVerified)
	}
	return s
}

func TestPrefixInvariantThroughChain(t *testing.T) {
	// Walking the chain in order, gated at every step, only ever produces
	// prefix states.
	state := domain.NewVerificationState()
	for _, step := range domain.StepOrder {
		gate := domain.Gate(state, step)
		if gate.Outcome != domain.GateProceed {
			t.Fatalf("step %s should proceed, got %s", step, gate.Outcome)
		}
		state = state.WithStatus(step, domain.StatusVerified)
		if !state.IsPrefix() {
			t.Fatalf("state after completing %s is not a prefix: %+v", step, state)
		}
	}
	if !state.Complete() {
		t.Error("full chain should be complete")
	}
}

func TestIsPrefix(t *testing.T) {
	for n := 0; n <= 5; n++ {
		if !stateWith(n).IsPrefix() {
			t.Errorf("first-%d state should be a prefix", n)
		}
	}

	// A gap breaks the prefix.
	gapped := domain.NewVerificationState().
		WithStatus(domain.StepProfile, domain.StatusVerified).
		WithStatus(domain.StepPhone, domain.StatusVerified)
	if gapped.IsPrefix() {
		t.Error("profile+phone without email should not be a prefix")
	}

	// A skip followed by later verification also breaks it.
	skipped := domain.NewVerificationState().
		WithStatus(domain.StepProfile, domain.StatusVerified).
		WithStatus(domain.StepEmail, domain.StatusSkipped).
		WithStatus(domain.StepPhone, domain.StatusVerified)
	if skipped.IsPrefix() {
		t.Error("verified step past a skipped one should not be a prefix")
	}
}

func TestSatisfies(t *testing.T) {
	// rent needs profile+email regardless of the rest.
	if stateWith(1).Satisfies(domain.ActionRent) {
		t.Error("profile alone should not satisfy rent")
	}
	if !stateWith(2).Satisfies(domain.ActionRent) {
		t.Error("profile+email should satisfy rent")
	}
	if stateWith(4).Satisfies(domain.ActionList) {
		t.Error("four steps should not satisfy list")
	}
	if !stateWith(5).Satisfies(domain.ActionList) {
		t.Error("all five steps should satisfy list")
	}

	// A skipped email never satisfies.
	s := stateWith(1).WithStatus(domain.StepEmail, domain.StatusSkipped)
	if s.Satisfies(domain.ActionRent) {
		t.Error("skipped email should not satisfy rent")
	}
}

func TestFirstIncompleteTieBreak(t *testing.T) {
	// profile done, email and phone outstanding: email wins, never phone.
	s := stateWith(1)
	next, ok := s.FirstIncomplete(domain.ActionList.RequiredSteps())
	if !ok || next != domain.StepEmail {
		t.Errorf("expected email as first incomplete, got %v (ok=%v)", next, ok)
	}

	none, ok := stateWith(5).FirstIncomplete(domain.ActionList.RequiredSteps())
	if ok {
		t.Errorf("complete state should have no incomplete step, got %v", none)
	}
}
