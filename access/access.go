// Package access derives the capability an actor holds over a form.
package access

import "github.com/formfold/formfold/model"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

// Resolve applies the first-match-wins rule: creator is owner; an
// explicit collaborator record wins next, even on a public form; a
// public form grants any authenticated actor view-and-submit; anyone
// else gets nothing.
//
// collabRole is the actor's collaborator record slug, empty when there
// is none. actorID zero means unauthenticated.
func Resolve(f *model.Form, actorID int, collabRole string) Role {
	if actorID != 0 && f.CreatorID == actorID {
		return RoleOwner
	}
	switch Role(collabRole) {
	case RoleOwner, RoleEditor, RoleViewer:
		return Role(collabRole)
	}
	if f.IsPublic && actorID != 0 {
		return RoleViewer
	}
	return RoleNone
}

// ResultsRole is Resolve without the public-form default: submitted
// responses stay restricted to the creator and explicit collaborators
// even when the form itself is public.
func ResultsRole(f *model.Form, actorID int, collabRole string) Role {
	if actorID != 0 && f.CreatorID == actorID {
		return RoleOwner
	}
	switch Role(collabRole) {
	case RoleOwner, RoleEditor, RoleViewer:
		return Role(collabRole)
	}
	return RoleNone
}

// CanEdit gates every builder mutation entry point. Viewers still see
// content; the rendering layer disables controls rather than hiding them.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

func (r Role) CanShare() bool {
	return r == RoleOwner
}

func (r Role) CanDelete() bool {
	return r == RoleOwner
}

// CanView covers both rendering modes: editing and read-only.
func (r Role) CanView() bool {
	return r != RoleNone
}
