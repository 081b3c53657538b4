package routes

import (
	"testing"
	"time"

	"github.com/formfold/formfold/model"
	"github.com/stretchr/testify/assert"
)

func TestResultsCSV(t *testing.T) {
	f := &model.Form{Sections: []model.Section{
		{Questions: []model.Question{
			{ID: 1, Text: "Name", Type: model.TypeShortText},
			{ID: 2, Text: "Rating", Type: model.TypeRating},
		}},
		{Questions: []model.Question{
			{ID: 3, Text: "Comments", Type: model.TypeLongText},
		}},
	}}

	at := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	results := []resultRow{
		{ID: 10, CreatedAt: at, Answers: map[string]string{
			"1": "Ada", "2": "5", "3": "great",
		}},
		{ID: 11, CreatedAt: at.Add(time.Minute), Answers: map[string]string{
			"1": "Bob",
		}},
	}

	records := ResultsCSV(f, results)
	assert.Equal(t, [][]string{
		{"Response ID", "Submitted At", "Name", "Rating", "Comments"},
		{"10", "2024-05-02 09:30:00", "Ada", "5", "great"},
		{"11", "2024-05-02 09:31:00", "Bob", "", ""},
	}, records)
}

func TestResultsCSVNoResponses(t *testing.T) {
	f := &model.Form{Sections: []model.Section{
		{Questions: []model.Question{{ID: 1, Text: "Name", Type: model.TypeShortText}}},
	}}

	records := ResultsCSV(f, nil)
	assert.Equal(t, [][]string{{"Response ID", "Submitted At", "Name"}}, records)
}
