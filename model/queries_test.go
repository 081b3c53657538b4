package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSectionForm() Form {
	return Form{
		Title: "Survey",
		Sections: []Section{
			{Title: "S0", Questions: []Question{
				{ID: 1, Text: "q0", Type: TypeRadio},
				{TempID: "TEMP_100", Text: "q1", Type: TypeShortText},
			}},
			{Title: "S1", Questions: []Question{
				{ID: 3, Text: "q2", Type: TypeCheckbox},
			}},
		},
	}
}

func TestQuestionsBefore(t *testing.T) {
	f := twoSectionForm()

	before, err := QuestionsBefore(&f, 1, 0)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, "q0", before[0].Text)
	assert.Equal(t, "q1", before[1].Text)

	before, err = QuestionsBefore(&f, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, before)

	before, err = QuestionsBefore(&f, 0, 1)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "q0", before[0].Text)
}

func TestQuestionsBeforeNeverIncludesSelfOrLater(t *testing.T) {
	f := twoSectionForm()

	for si, s := range f.Sections {
		for qi, q := range s.Questions {
			before, err := QuestionsBefore(&f, si, qi)
			require.NoError(t, err)
			for _, b := range before {
				assert.NotEqual(t, q.Ref(), b.Ref())
			}
		}
	}
}

func TestQuestionsBeforeOutOfRange(t *testing.T) {
	f := twoSectionForm()

	_, err := QuestionsBefore(&f, 5, 0)
	assert.Error(t, err)

	_, err = QuestionsBefore(&f, 0, 7)
	assert.Error(t, err)

	_, err = QuestionsBefore(&f, -1, 0)
	assert.Error(t, err)
}

func TestResolveRef(t *testing.T) {
	f := twoSectionForm()

	q, ok := ResolveRef(&f, "3")
	require.True(t, ok)
	assert.Equal(t, "q2", q.Text)

	q, ok = ResolveRef(&f, "TEMP_100")
	require.True(t, ok)
	assert.Equal(t, "q1", q.Text)

	_, ok = ResolveRef(&f, "999")
	assert.False(t, ok)
}

func TestRef(t *testing.T) {
	assert.Equal(t, QuestionRef("42"), Question{ID: 42}.Ref())
	assert.Equal(t, QuestionRef("TEMP_7"), Question{TempID: "TEMP_7"}.Ref())
}

func TestCloneIsDeep(t *testing.T) {
	f := twoSectionForm()
	f.Invitees = []string{"a@example.com"}
	f.Sections[0].Questions[0].Options = []Option{{Text: "Yes"}, {Text: "No"}}
	f.Sections[0].Questions[1].Logic = &Condition{Question: "1", Operator: OpEquals, Value: "Yes"}

	clone := f.Clone()
	clone.Sections[0].Title = "changed"
	clone.Sections[0].Questions[0].Options[0].Text = "changed"
	clone.Sections[0].Questions[1].Logic.Value = "No"
	clone.Invitees[0] = "b@example.com"

	assert.Equal(t, "S0", f.Sections[0].Title)
	assert.Equal(t, "Yes", f.Sections[0].Questions[0].Options[0].Text)
	assert.Equal(t, "Yes", f.Sections[0].Questions[1].Logic.Value)
	assert.Equal(t, "a@example.com", f.Invitees[0])
}
