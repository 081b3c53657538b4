package model

import "fmt"

// QuestionsBefore returns every question strictly before the given
// position in document reading order: all questions of earlier sections,
// then earlier questions of the same section. These are the only legal
// targets for that question's logic rule, which keeps the dependency
// graph acyclic by construction.
func QuestionsBefore(f *Form, sectionIndex, questionIndex int) ([]Question, error) {
	if sectionIndex < 0 || sectionIndex >= len(f.Sections) {
		return nil, fmt.Errorf("section index %d out of range [0,%d)", sectionIndex, len(f.Sections))
	}
	section := f.Sections[sectionIndex]
	if questionIndex < 0 || questionIndex > len(section.Questions) {
		return nil, fmt.Errorf("question index %d out of range [0,%d]", questionIndex, len(section.Questions))
	}

	var before []Question
	for si := 0; si < sectionIndex; si++ {
		before = append(before, f.Sections[si].Questions...)
	}
	before = append(before, section.Questions[:questionIndex]...)
	return before, nil
}

// ResolveRef looks a question up by server id first, then by temp id.
// The bool result is false for dangling references, e.g. after the
// target question was deleted.
func ResolveRef(f *Form, ref QuestionRef) (Question, bool) {
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.ID != 0 && RefForID(q.ID) == ref {
				return q, true
			}
		}
	}
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.TempID != "" && QuestionRef(q.TempID) == ref {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (f Form) Clone() Form {
	out := f
	if f.ExpiryAt != nil {
		t := *f.ExpiryAt
		out.ExpiryAt = &t
	}
	if f.Invitees != nil {
		out.Invitees = append([]string(nil), f.Invitees...)
	}
	if f.Sections != nil {
		out.Sections = make([]Section, len(f.Sections))
		for i, s := range f.Sections {
			out.Sections[i] = s.clone()
		}
	}
	return out
}

func (s Section) clone() Section {
	out := s
	if s.Questions != nil {
		out.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			out.Questions[i] = q.clone()
		}
	}
	return out
}

func (q Question) clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]Option(nil), q.Options...)
	}
	if m, ok := q.Config.(MatrixConfig); ok {
		out.Config = MatrixConfig{Rows: append([]string(nil), m.Rows...)}
	}
	if q.Logic != nil {
		c := *q.Logic
		out.Logic = &c
	}
	return out
}
