package builder

import (
	"testing"

	"github.com/formfold/formfold/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapRefs(t *testing.T) {
	f := model.Form{
		Sections: []model.Section{
			{Questions: []model.Question{
				{TempID: "TEMP_1", Text: "color"},
				{TempID: "TEMP_2", Text: "why", Logic: &model.Condition{
					Question: "TEMP_1", Operator: model.OpEquals, Value: "Blue",
				}},
				{ID: 9, Text: "old", Logic: &model.Condition{
					Question: "3", Operator: model.OpEquals, Value: "x",
				}},
			}},
		},
	}

	out := RemapRefs(f, map[string]int{"TEMP_1": 41, "TEMP_2": 42})

	q0 := out.Sections[0].Questions[0]
	assert.Equal(t, 41, q0.ID)
	assert.Empty(t, q0.TempID)

	q1 := out.Sections[0].Questions[1]
	assert.Equal(t, 42, q1.ID)
	assert.Equal(t, model.RefForID(41), q1.Logic.Question)

	// already-persisted rows are untouched
	q2 := out.Sections[0].Questions[2]
	assert.Equal(t, 9, q2.ID)
	assert.Equal(t, model.QuestionRef("3"), q2.Logic.Question)

	// input document unchanged
	assert.Equal(t, "TEMP_1", f.Sections[0].Questions[0].TempID)
	assert.Equal(t, model.QuestionRef("TEMP_1"), f.Sections[0].Questions[1].Logic.Question)
}

func TestAllocatorUnique(t *testing.T) {
	ids := NewAllocator()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := ids.Next()
		require.Regexp(t, `^TEMP_\d+$`, id)
		require.False(t, seen[id], "duplicate temp id %s", id)
		seen[id] = true
	}
}
