package builder

import (
	"github.com/formfold/formfold/model"
)

// RemapRefs replaces temp ids with the server ids assigned by a save,
// rewriting question identities and every logic rule that referenced a
// temp id in the same pass. Questions and rules not covered by the map
// are left alone.
func RemapRefs(f model.Form, ids map[string]int) model.Form {
	f = f.Clone()
	for si := range f.Sections {
		qs := f.Sections[si].Questions
		for qi := range qs {
			q := &qs[qi]
			if id, ok := ids[q.TempID]; ok {
				q.ID = id
				q.TempID = ""
			}
			if q.Logic != nil {
				if id, ok := ids[string(q.Logic.Question)]; ok {
					q.Logic.Question = model.RefForID(id)
				}
			}
		}
	}
	return f
}
