package builder

import (
	"fmt"

	"github.com/formfold/formfold/model"
)

// ValidateForSave runs the authoring guards a document must pass before
// it may be persisted. The returned messages are user-facing; an empty
// slice means the form may be saved.
//
// The email-question guard is structural: it scans the whole document
// regardless of what would be visible at fill time.
func ValidateForSave(f model.Form) []string {
	var problems []string

	if f.NotifyRespondent && !hasRequiredEmailQuestion(f) {
		problems = append(problems,
			"respondent confirmation emails need at least one required email question")
	}

	if !f.IsPublic && len(f.Invitees) == 0 {
		problems = append(problems,
			"a private form needs at least one invitee")
	}

	// Logic targets must resolve to a question strictly earlier in
	// document order.
	seen := map[model.QuestionRef]bool{}
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.Logic != nil && !seen[q.Logic.Question] {
				problems = append(problems, fmt.Sprintf(
					"question %q has a logic rule that does not reference an earlier question", q.Text))
			}
			seen[q.Ref()] = true
		}
	}

	return problems
}

func hasRequiredEmailQuestion(f model.Form) bool {
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.Type == model.TypeEmail && q.Required {
				return true
			}
		}
	}
	return false
}
