package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

func newTestWizard() *Wizard {
	return New(DefaultSteps(), profile.ProfileSchema(profile.DefaultMaxAvatarSize))
}

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()
	require.Len(t, steps, 5)

	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"about", "expertise", "idea", "cofounder", "logistics"}, ids)
	assert.Equal(t, []string{"has_idea", "idea_description", "idea_stage"}, steps[2].Fields)
}

func TestParseStepsRejectsBadDefinitions(t *testing.T) {
	tests := map[string]string{
		"empty":           "steps: []",
		"missing id":      "steps:\n  - fields: [username]",
		"duplicate step":  "steps:\n  - id: a\n    fields: [username]\n  - id: a\n    fields: [bio]",
		"no fields":       "steps:\n  - id: a",
		"unknown field":   "steps:\n  - id: a\n    fields: [shoe_size]",
		"duplicate field": "steps:\n  - id: a\n    fields: [bio]\n  - id: b\n    fields: [bio]",
		"not yaml":        "steps: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSteps([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestAdvanceValidatesOnlyCurrentStep(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")

	// Later steps hold invalid data that must not block the first step.
	require.NoError(t, w.Update(st, []byte(`{"years_experience": "abc"}`)))
	st.Direction = Backward
	before := *st

	errs, err := w.Advance(st)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.ElementsMatch(t, []string{"username", "full_name"}, errs.Fields())
	assert.Equal(t, before, *st, "failed advance leaves the state untouched")

	require.NoError(t, w.Update(st, []byte(`{"username": "ada", "full_name": "Ada Lovelace"}`)))
	errs, err = w.Advance(st)
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, Forward, st.Direction)

	errs, err = w.Advance(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"years_experience"}, errs.Fields())
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, Forward, st.Direction)
	assert.Equal(t, "ada", st.Draft.Username)
	assert.Equal(t, profile.NumericText("abc"), st.Draft.YearsExperience)
}

func TestRetreatNeverValidates(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")
	st.Step = 2
	require.NoError(t, w.Update(st, []byte(`{"username": "x"}`)))

	w.Retreat(st)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, Backward, st.Direction)

	w.Retreat(st)
	w.Retreat(st)
	assert.Equal(t, 0, st.Step, "retreat at the first step is a no-op")
}

func TestToggleHasIdeaKeepsDescription(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")
	st.Step = 2

	require.NoError(t, w.Update(st, []byte(`{"has_idea": true, "idea_description": "Engines", "idea_stage": "Idea"}`)))
	require.NoError(t, w.Update(st, []byte(`{"has_idea": false}`)))
	require.NoError(t, w.Update(st, []byte(`{"has_idea": true}`)))

	assert.Equal(t, "Engines", st.Draft.IdeaDescription)
	assert.Equal(t, "Idea", st.Draft.IdeaStage)

	errs, err := w.Advance(st)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestIdeaStepRequiresDetailsOnlyWithAnIdea(t *testing.T) {
	w := newTestWizard()

	st := NewState("user-1")
	st.Step = 2
	errs, err := w.Advance(st)
	require.NoError(t, err)
	assert.Nil(t, errs)

	st = NewState("user-1")
	st.Step = 2
	require.NoError(t, w.Update(st, []byte(`{"has_idea": true}`)))
	errs, err = w.Advance(st)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idea_description", "idea_stage"}, errs.Fields())
}

func TestAdvanceOnLastStep(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")
	st.Step = len(w.Steps()) - 1

	_, err := w.Advance(st)
	assert.ErrorIs(t, err, ErrLastStep)
	assert.True(t, w.IsLast(st))
}

func TestReadyToSubmit(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")

	_, err := w.ReadyToSubmit(st)
	assert.ErrorIs(t, err, ErrNotLastStep)

	st.Step = len(w.Steps()) - 1
	errs, err := w.ReadyToSubmit(st)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"username", "full_name"}, errs.Fields())

	require.NoError(t, w.Update(st, []byte(`{"username": "ada", "full_name": "Ada Lovelace"}`)))
	errs, err = w.ReadyToSubmit(st)
	require.NoError(t, err)
	assert.Nil(t, errs)

	st.Submitting = true
	_, err = w.ReadyToSubmit(st)
	assert.ErrorIs(t, err, ErrSubmitting)
}

func TestCurrentClampsStaleIndex(t *testing.T) {
	w := newTestWizard()
	st := NewState("user-1")
	st.Step = 42
	assert.Equal(t, "logistics", w.Current(st).ID)

	st.Step = -3
	assert.Equal(t, "about", w.Current(st).ID)
}
