package wizard

import (
	"errors"
	"time"

	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

var (
	ErrLastStep    = errors.New("already on the last step")
	ErrNotLastStep = errors.New("submission is only possible from the last step")
	ErrSubmitting  = errors.New("a submission is already in progress")
)

const (
	Forward  = 1
	Backward = -1
)

// State is one user's wizard session.
type State struct {
	UserID     string        `json:"user_id"`
	Step       int           `json:"step"`
	Direction  int           `json:"direction"`
	Draft      profile.Draft `json:"draft"`
	Submitting bool          `json:"submitting"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func NewState(userID string) *State {
	return &State{UserID: userID, Direction: Forward}
}

// Wizard drives a State through an ordered list of steps. Each step only
// validates its own fields against the shared profile schema.
type Wizard struct {
	steps  []Step
	schema *profile.Schema
}

func New(steps []Step, schema *profile.Schema) *Wizard {
	return &Wizard{steps: steps, schema: schema}
}

func (w *Wizard) Steps() []Step {
	return w.steps
}

// Current returns the step the state is on, clamping stale indexes.
func (w *Wizard) Current(s *State) Step {
	return w.steps[w.index(s)]
}

func (w *Wizard) IsLast(s *State) bool {
	return w.index(s) == len(w.steps)-1
}

func (w *Wizard) index(s *State) int {
	switch {
	case s.Step < 0:
		return 0
	case s.Step >= len(w.steps):
		return len(w.steps) - 1
	}
	return s.Step
}

// Validate checks the given fields of the draft, or the whole draft when no
// fields are given. It returns nil when the draft passes.
func (w *Wizard) Validate(s *State, fields ...string) profile.FieldErrors {
	_, errs := w.schema.Check(profile.Encode(s.Draft), fields...)
	return errs
}

// Advance moves to the next step when the current step's fields are valid.
// On failure the state is left untouched and the field errors are returned.
func (w *Wizard) Advance(s *State) (profile.FieldErrors, error) {
	if w.IsLast(s) {
		return nil, ErrLastStep
	}
	if errs := w.Validate(s, w.Current(s).Fields...); errs != nil {
		return errs, nil
	}
	s.Step = w.index(s) + 1
	s.Direction = Forward
	return nil, nil
}

// Retreat moves to the previous step without validating.
func (w *Wizard) Retreat(s *State) {
	if w.index(s) == 0 {
		s.Step = 0
		return
	}
	s.Step = w.index(s) - 1
	s.Direction = Backward
}

// Update merges a partial JSON object onto the draft.
func (w *Wizard) Update(s *State, patch []byte) error {
	return s.Draft.Patch(patch)
}

// ReadyToSubmit checks that the state is on the last step and that the whole
// draft is valid.
func (w *Wizard) ReadyToSubmit(s *State) (profile.FieldErrors, error) {
	if s.Submitting {
		return nil, ErrSubmitting
	}
	if !w.IsLast(s) {
		return nil, ErrNotLastStep
	}
	return w.Validate(s), nil
}
