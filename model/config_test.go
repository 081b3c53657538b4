package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigByType(t *testing.T) {
	cfg, err := DecodeConfig(TypeSlider, json.RawMessage(`{"min":0,"max":10,"step":2}`))
	require.NoError(t, err)
	assert.Equal(t, SliderConfig{Min: 0, Max: 10, Step: 2}, cfg)

	cfg, err = DecodeConfig(TypeRating, json.RawMessage(`{"max_stars":5}`))
	require.NoError(t, err)
	assert.Equal(t, RatingConfig{MaxStars: 5}, cfg)

	cfg, err = DecodeConfig(TypeMatrix, json.RawMessage(`{"rows":["Speed","Price"]}`))
	require.NoError(t, err)
	assert.Equal(t, MatrixConfig{Rows: []string{"Speed", "Price"}}, cfg)

	// types without a config variant drop whatever is there
	cfg, err = DecodeConfig(TypeShortText, json.RawMessage(`{"min":0,"max":10}`))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = DecodeConfig(TypeSlider, nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestQuestionJSONRoundTrip(t *testing.T) {
	q := Question{
		TempID:   "TEMP_1",
		Text:     "Rate us",
		Type:     TypeRating,
		Required: true,
		Config:   RatingConfig{MaxStars: 7},
		Logic:    &Condition{Question: "4", Operator: OpNotEquals, Value: "No"},
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var back Question
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)
}

func TestQuestionJSONWireNames(t *testing.T) {
	data := []byte(`{
		"text": "Pick one",
		"question_type": "radio",
		"is_required": true,
		"order": 3,
		"options": [{"text":"Yes","order":0},{"text":"No","order":1}],
		"logic_rule": {"question_ref":"12","operator":"equals","value":"Yes"}
	}`)

	var q Question
	require.NoError(t, json.Unmarshal(data, &q))
	assert.Equal(t, TypeRadio, q.Type)
	assert.True(t, q.Required)
	require.Len(t, q.Options, 2)
	require.NotNil(t, q.Logic)
	assert.Equal(t, QuestionRef("12"), q.Logic.Question)
	assert.Equal(t, OpEquals, q.Logic.Operator)
}
