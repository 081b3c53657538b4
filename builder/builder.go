// Package builder is the authoring-side mutation protocol: every
// operation takes a Form value and returns a fresh one, leaving the
// input untouched. Out-of-range indices are programmer errors and are
// reported, never silently ignored.
package builder

import (
	"fmt"

	"github.com/formfold/formfold/model"
)

// SectionPatch merges into a section; nil fields are left unchanged.
type SectionPatch struct {
	Title       *string
	Description *string
}

// QuestionPatch merges into a question; nil fields are left unchanged.
// A non-nil empty Options slice replaces the options with none, and
// ClearConfig removes the config outright.
// Changing Type does not clear Options or Config: an accidental type
// toggle must not destroy entered data, callers reset explicitly.
type QuestionPatch struct {
	Text        *string
	HelpText    *string
	Type        *model.QuestionType
	Required    *bool
	Options     []model.Option
	Config      model.Config
	ClearConfig bool
}

// AddSection appends a section with a generated default title.
func AddSection(f model.Form) model.Form {
	f = f.Clone()
	f.Sections = append(f.Sections, model.Section{
		Title: fmt.Sprintf("New Section %d", len(f.Sections)+1),
		Order: len(f.Sections),
	})
	return f
}

func UpdateSection(f model.Form, sectionIndex int, patch SectionPatch) (model.Form, error) {
	if err := checkSection(f, sectionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	s := &f.Sections[sectionIndex]
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	return f, nil
}

// DeleteSection removes the section and all its questions. Logic rules
// elsewhere that target a removed question are left dangling on purpose;
// the visibility engine tolerates them.
func DeleteSection(f model.Form, sectionIndex int) (model.Form, error) {
	if err := checkSection(f, sectionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	f.Sections = append(f.Sections[:sectionIndex], f.Sections[sectionIndex+1:]...)
	for i := range f.Sections {
		f.Sections[i].Order = i
	}
	return f, nil
}

// AddQuestion appends a short_text question with a fresh temp id.
func AddQuestion(f model.Form, sectionIndex int, ids *Allocator) (model.Form, error) {
	if err := checkSection(f, sectionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	s := &f.Sections[sectionIndex]
	s.Questions = append(s.Questions, model.Question{
		TempID: ids.Next(),
		Text:   "New Question",
		Type:   model.TypeShortText,
		Order:  len(s.Questions),
	})
	return f, nil
}

func UpdateQuestion(f model.Form, sectionIndex, questionIndex int, patch QuestionPatch) (model.Form, error) {
	if err := checkQuestion(f, sectionIndex, questionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	q := &f.Sections[sectionIndex].Questions[questionIndex]
	if patch.Text != nil {
		q.Text = *patch.Text
	}
	if patch.HelpText != nil {
		q.HelpText = *patch.HelpText
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return model.Form{}, fmt.Errorf("unknown question type %q", *patch.Type)
		}
		q.Type = *patch.Type
	}
	if patch.Required != nil {
		q.Required = *patch.Required
	}
	if patch.Options != nil {
		q.Options = append([]model.Option(nil), patch.Options...)
		for i := range q.Options {
			q.Options[i].Order = i
		}
	}
	if patch.ClearConfig {
		q.Config = nil
	} else if patch.Config != nil {
		q.Config = patch.Config
	}
	return f, nil
}

// DeleteQuestion removes one question, with the same dangling-reference
// tolerance as DeleteSection.
func DeleteQuestion(f model.Form, sectionIndex, questionIndex int) (model.Form, error) {
	if err := checkQuestion(f, sectionIndex, questionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	s := &f.Sections[sectionIndex]
	s.Questions = append(s.Questions[:questionIndex], s.Questions[questionIndex+1:]...)
	for i := range s.Questions {
		s.Questions[i].Order = i
	}
	return f, nil
}

// SetLogicRule sets or clears the question's single condition. The target
// is expected to come from model.QuestionsBefore for that position; that
// constraint is checked again at save time, not here.
func SetLogicRule(f model.Form, sectionIndex, questionIndex int, cond *model.Condition) (model.Form, error) {
	if err := checkQuestion(f, sectionIndex, questionIndex); err != nil {
		return model.Form{}, err
	}
	f = f.Clone()
	q := &f.Sections[sectionIndex].Questions[questionIndex]
	if cond == nil {
		q.Logic = nil
	} else {
		c := *cond
		q.Logic = &c
	}
	return f, nil
}

func checkSection(f model.Form, sectionIndex int) error {
	if sectionIndex < 0 || sectionIndex >= len(f.Sections) {
		return fmt.Errorf("section index %d out of range [0,%d)", sectionIndex, len(f.Sections))
	}
	return nil
}

func checkQuestion(f model.Form, sectionIndex, questionIndex int) error {
	if err := checkSection(f, sectionIndex); err != nil {
		return err
	}
	n := len(f.Sections[sectionIndex].Questions)
	if questionIndex < 0 || questionIndex >= n {
		return fmt.Errorf("question index %d out of range [0,%d)", questionIndex, n)
	}
	return nil
}
