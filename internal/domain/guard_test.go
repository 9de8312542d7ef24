package domain_test

import (
	"reflect"
	"testing"

	"github.com/peerrent/verification/internal/domain"
)

func userWith(state domain.VerificationState) *domain.User {
	return &domain.User{ID: 1, Email: "user@example.com", Verification: state}
}

func TestEvaluateAuthRequired(t *testing.T) {
	d := domain.Evaluate(nil, domain.ActionRent)
	if d.Outcome != domain.OutcomeAuthRequired {
		t.Errorf("nil user: expected auth_required, got %s", d.Outcome)
	}
	if len(d.Requirements) != 0 {
		t.Error("auth_required decision should carry no requirements")
	}
}

func TestEvaluateGranted(t *testing.T) {
	d := domain.Evaluate(userWith(stateWith(2)), domain.ActionRent)
	if d.Outcome != domain.OutcomeGranted {
		t.Errorf("expected granted, got %s", d.Outcome)
	}

	d = domain.Evaluate(userWith(stateWith(5)), domain.ActionList)
	if d.Outcome != domain.OutcomeGranted {
		t.Errorf("expected granted for complete list, got %s", d.Outcome)
	}
}

func TestEvaluateBlockedTieBreak(t *testing.T) {
	// profile verified, email and phone not: remediation targets email.
	d := domain.Evaluate(userWith(stateWith(1)), domain.ActionList)
	if d.Outcome != domain.OutcomeBlocked {
		t.Fatalf("expected blocked, got %s", d.Outcome)
	}
	if d.NextStep != "email" {
		t.Errorf("expected next step email, got %q", d.NextStep)
	}

	if len(d.Requirements) != 5 {
		t.Fatalf("list remediation should show all 5 requirements, got %d", len(d.Requirements))
	}
	for _, req := range d.Requirements {
		wantNext := req.Name == "email"
		if req.Next != wantNext {
			t.Errorf("requirement %s: expected next=%v, got %v", req.Name, wantNext, req.Next)
		}
	}
}

func TestEvaluateShowsSkippedStatus(t *testing.T) {
	state := stateWith(1).WithStatus(domain.StepEmail, domain.StatusSkipped)
	d := domain.Evaluate(userWith(state), domain.ActionRent)
	if d.Outcome != domain.OutcomeBlocked {
		t.Fatalf("expected blocked, got %s", d.Outcome)
	}
	var found bool
	for _, req := range d.Requirements {
		if req.Name == "email" {
			found = true
			if req.Status != domain.StatusSkipped {
				t.Errorf("email requirement should report skipped, got %s", req.Status)
			}
		}
	}
	if !found {
		t.Error("email requirement missing from remediation")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	user := userWith(stateWith(3))
	first := domain.Evaluate(user, domain.ActionList)
	for i := 0; i < 10; i++ {
		if d := domain.Evaluate(user, domain.ActionList); !reflect.DeepEqual(d, first) {
			t.Fatalf("evaluation %d differs: %+v vs %+v", i, d, first)
		}
	}
}

func TestEvaluateUnknownActionBlocked(t *testing.T) {
	// An action outside the known set has no requirement list; it must not
	// fall through to Granted, even for a fully verified user.
	user := userWith(stateWith(5))
	if d := domain.Evaluate(user, domain.Action(0)); d.Outcome != domain.OutcomeBlocked {
		t.Errorf("unknown action should be blocked, got %s", d.Outcome)
	}
	if d := domain.Evaluate(nil, domain.Action(99)); d.Outcome != domain.OutcomeAuthRequired {
		t.Errorf("nil user still yields auth_required, got %s", d.Outcome)
	}
}

func TestGateRedirectBack(t *testing.T) {
	// Every step except the first redirects back when its predecessor is
	// unverified.
	empty := domain.NewVerificationState()
	for i, step := range domain.StepOrder {
		got := domain.Gate(empty, step)
		if i == 0 {
			if got.Outcome != domain.GateProceed {
				t.Errorf("profile on empty state should proceed, got %s", got.Outcome)
			}
			continue
		}
		if got.Outcome != domain.GateRedirectBack {
			t.Errorf("%s on empty state should redirect back, got %s", step, got.Outcome)
			continue
		}
		if got.RedirectTo != domain.StepOrder[i-1].String() {
			t.Errorf("%s should redirect to %s, got %s", step, domain.StepOrder[i-1], got.RedirectTo)
		}
	}
}

func TestGateRedirectForward(t *testing.T) {
	for i, step := range domain.StepOrder {
		state := stateWith(i + 1) // step itself verified
		got := domain.Gate(state, step)
		if got.Outcome != domain.GateRedirectForward {
			t.Errorf("%s already verified should redirect forward, got %s", step, got.Outcome)
			continue
		}
		if step == domain.StepAddress {
			if got.RedirectTo != "" {
				t.Errorf("terminal step should redirect to dashboard (empty), got %q", got.RedirectTo)
			}
		} else if got.RedirectTo != domain.StepOrder[i+1].String() {
			t.Errorf("%s should redirect to %s, got %s", step, domain.StepOrder[i+1], got.RedirectTo)
		}
	}
}

func TestGateSkippedProceeds(t *testing.T) {
	// Re-entering a skipped step presents the form again rather than
	// bouncing forward.
	state := stateWith(1).WithStatus(domain.StepEmail, domain.StatusSkipped)
	got := domain.Gate(state, domain.StepEmail)
	if got.Outcome != domain.GateProceed {
		t.Errorf("skipped email should proceed, got %s", got.Outcome)
	}

	// And the step after it still redirects back.
	got = domain.Gate(state, domain.StepPhone)
	if got.Outcome != domain.GateRedirectBack || got.RedirectTo != "email" {
		t.Errorf("phone behind skipped email should redirect back to email, got %+v", got)
	}
}
