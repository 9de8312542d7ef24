package domain

// DisplayState is the visual state of one step in the wizard's progress
// strip.
type DisplayState string

const (
	DisplayCompleted DisplayState = "completed"
	DisplayCurrent   DisplayState = "current"
	DisplayUpcoming  DisplayState = "upcoming"
)

// ProgressEntry describes one segment of the progress strip. Connected is
// true when the connecting segment leading into this step should render
// filled. Traversed distinguishes "the user moved past this step" from
// "this step is verified": a skipped step that the user has passed is
// traversed but not verified, and the two signals are reported separately
// instead of being folded into one boolean.
type ProgressEntry struct {
	Step      string       `json:"step"`
	Label     string       `json:"label"`
	Status    StepStatus   `json:"status"`
	Display   DisplayState `json:"display"`
	Traversed bool         `json:"traversed"`
	Connected bool         `json:"connected"`
}

// Progress computes the wizard chrome for all five steps given the current
// step. Used by the layout renderer on the client; computed here so the
// ordering rules live next to the state machine they describe.
func Progress(state VerificationState, current Step) []ProgressEntry {
	entries := make([]ProgressEntry, 0, len(StepOrder))
	for _, s := range StepOrder {
		e := ProgressEntry{
			Step:      s.String(),
			Label:     s.Label(),
			Status:    state.Status(s),
			Traversed: s.Index() < current.Index(),
		}

		switch {
		case state.Verified(s):
			e.Display = DisplayCompleted
		case s == current:
			e.Display = DisplayCurrent
		default:
			e.Display = DisplayUpcoming
		}

		// A connector fills when its destination is verified or lies
		// behind the current position.
		e.Connected = state.Verified(s) || e.Traversed

		entries = append(entries, e)
	}
	return entries
}
