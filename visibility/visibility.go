// Package visibility evaluates logic rules against a partial answer set.
// Evaluation is a pure function of (document, answers): it never mutates
// the answer map, so hiding a question keeps its previous answer around
// and a later re-show restores it.
package visibility

import (
	"fmt"
	"strings"

	"github.com/formfold/formfold/model"
)

// IsVisible reports whether a question should currently be shown.
// A question without a rule is always visible. The target's answer is
// treated as a comma-separated list so checkbox answers match on
// membership; a missing answer (including one orphaned by deletion of
// the target question) evaluates as empty. Unknown operators fail open:
// they never hide content.
func IsVisible(q model.Question, answers map[model.QuestionRef]string) bool {
	if q.Logic == nil {
		return true
	}

	raw := answers[q.Logic.Question]
	want := strings.TrimSpace(q.Logic.Value)

	matched := false
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == want {
			matched = true
			break
		}
	}

	switch q.Logic.Operator {
	case model.OpEquals:
		return matched
	case model.OpNotEquals:
		return !matched
	default:
		return true
	}
}

// VisibleQuestions is the render plan: every question currently shown,
// in document order.
func VisibleQuestions(f *model.Form, answers map[model.QuestionRef]string) []model.Question {
	var out []model.Question
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if IsVisible(q, answers) {
				out = append(out, q)
			}
		}
	}
	return out
}

// ValidateSubmission enforces required questions at submit time. Only
// currently visible questions count: a hidden required question must
// not block submission. Messages are user-facing; empty means valid.
func ValidateSubmission(f *model.Form, answers map[model.QuestionRef]string) []string {
	var problems []string
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if !q.Required || !IsVisible(q, answers) {
				continue
			}
			if strings.TrimSpace(answers[q.Ref()]) == "" {
				problems = append(problems, fmt.Sprintf("%q is required", q.Text))
			}
		}
	}
	return problems
}
