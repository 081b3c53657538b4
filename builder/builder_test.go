package builder

import (
	"testing"

	"github.com/formfold/formfold/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAddSectionDefaults(t *testing.T) {
	f := AddSection(model.Form{})
	require.Len(t, f.Sections, 1)
	assert.Equal(t, "New Section 1", f.Sections[0].Title)
	assert.Equal(t, 0, f.Sections[0].Order)

	f = AddSection(f)
	require.Len(t, f.Sections, 2)
	assert.Equal(t, "New Section 2", f.Sections[1].Title)
	assert.Equal(t, 1, f.Sections[1].Order)
}

func TestAddQuestionDefaults(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})

	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	require.Len(t, f.Sections[0].Questions, 1)

	q := f.Sections[0].Questions[0]
	assert.Equal(t, model.TypeShortText, q.Type)
	assert.False(t, q.Required)
	assert.Zero(t, q.ID)
	assert.Regexp(t, `^TEMP_\d+$`, q.TempID)
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)

	snapshot := f.Clone()

	_, err = UpdateQuestion(f, 0, 0, QuestionPatch{Text: ptr("changed")})
	require.NoError(t, err)
	_, err = DeleteQuestion(f, 0, 0)
	require.NoError(t, err)
	_, err = DeleteSection(f, 0)
	require.NoError(t, err)
	_ = AddSection(f)

	assert.Equal(t, snapshot, f)
}

// The question keeps its temp id through type and options updates, so a
// logic rule created against it stays valid across the whole edit.
func TestUpdateQuestionPreservesIdentity(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	tempID := f.Sections[0].Questions[0].TempID

	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{Type: ptr(model.TypeRadio)})
	require.NoError(t, err)
	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{
		Options: []model.Option{{Text: "Yes"}, {Text: "No"}},
	})
	require.NoError(t, err)

	q := f.Sections[0].Questions[0]
	assert.Equal(t, tempID, q.TempID)
	assert.Equal(t, model.TypeRadio, q.Type)
	require.Len(t, q.Options, 2)
	assert.Equal(t, 1, q.Options[1].Order)
}

// Switching type leaves previously entered options in place; resetting
// is the caller's explicit choice.
func TestUpdateQuestionTypeKeepsOptions(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{
		Type:    ptr(model.TypeRadio),
		Options: []model.Option{{Text: "Yes"}, {Text: "No"}},
	})
	require.NoError(t, err)

	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{Type: ptr(model.TypeSlider)})
	require.NoError(t, err)
	assert.Len(t, f.Sections[0].Questions[0].Options, 2)
}

func TestUpdateQuestionClearConfig(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{
		Type:   ptr(model.TypeSlider),
		Config: model.SliderConfig{Min: 0, Max: 10, Step: 2},
	})
	require.NoError(t, err)
	require.NotNil(t, f.Sections[0].Questions[0].Config)

	// type changes alone never touch config, clearing is explicit
	f, err = UpdateQuestion(f, 0, 0, QuestionPatch{
		Type:        ptr(model.TypeShortText),
		ClearConfig: true,
	})
	require.NoError(t, err)
	assert.Nil(t, f.Sections[0].Questions[0].Config)
}

func TestUpdateQuestionRejectsUnknownType(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)

	_, err = UpdateQuestion(f, 0, 0, QuestionPatch{Type: ptr(model.QuestionType("hologram"))})
	assert.Error(t, err)
}

func TestDeleteSectionLeavesDanglingRules(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	target := f.Sections[0].Questions[0].Ref()

	f = AddSection(f)
	f, err = AddQuestion(f, 1, ids)
	require.NoError(t, err)
	f, err = SetLogicRule(f, 1, 0, &model.Condition{
		Question: target, Operator: model.OpEquals, Value: "Yes",
	})
	require.NoError(t, err)

	f, err = DeleteSection(f, 0)
	require.NoError(t, err)

	// deletion does not cascade-repair the reference
	require.Len(t, f.Sections, 1)
	require.NotNil(t, f.Sections[0].Questions[0].Logic)
	assert.Equal(t, target, f.Sections[0].Questions[0].Logic.Question)
	_, ok := model.ResolveRef(&f, target)
	assert.False(t, ok)
}

func TestDeleteQuestionReordersRemaining(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	for i := 0; i < 3; i++ {
		var err error
		f, err = AddQuestion(f, 0, ids)
		require.NoError(t, err)
	}

	f, err := DeleteQuestion(f, 0, 1)
	require.NoError(t, err)
	require.Len(t, f.Sections[0].Questions, 2)
	assert.Equal(t, 0, f.Sections[0].Questions[0].Order)
	assert.Equal(t, 1, f.Sections[0].Questions[1].Order)
}

func TestSetLogicRuleClear(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})
	f, err := AddQuestion(f, 0, ids)
	require.NoError(t, err)
	f, err = AddQuestion(f, 0, ids)
	require.NoError(t, err)

	f, err = SetLogicRule(f, 0, 1, &model.Condition{
		Question: f.Sections[0].Questions[0].Ref(),
		Operator: model.OpEquals,
		Value:    "x",
	})
	require.NoError(t, err)
	require.NotNil(t, f.Sections[0].Questions[1].Logic)

	f, err = SetLogicRule(f, 0, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, f.Sections[0].Questions[1].Logic)
}

func TestOutOfRangeFailsLoudly(t *testing.T) {
	ids := NewAllocator()
	f := AddSection(model.Form{})

	_, err := UpdateSection(f, 3, SectionPatch{Title: ptr("x")})
	assert.Error(t, err)
	_, err = DeleteSection(f, -1)
	assert.Error(t, err)
	_, err = AddQuestion(f, 1, ids)
	assert.Error(t, err)
	_, err = UpdateQuestion(f, 0, 0, QuestionPatch{})
	assert.Error(t, err)
	_, err = DeleteQuestion(f, 0, 2)
	assert.Error(t, err)
	_, err = SetLogicRule(f, 0, 0, nil)
	assert.Error(t, err)
}
