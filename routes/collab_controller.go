package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/formfold/formfold/access"
	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/httpx"
	"github.com/formfold/formfold/log"
	"github.com/formfold/formfold/model"
	"github.com/formfold/formfold/routes/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type collaborator struct {
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	InvitedAt time.Time `json:"invited_at"`
}

// requireOwner loads the form and refuses anyone but its owner; sharing
// is an owner-only capability.
func requireOwner(w http.ResponseWriter, r *http.Request, app app.App) (model.Form, bool) {
	formID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return model.Form{}, false
	}

	form, err := loadForm(r.Context(), app.DB, formID)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.LogNotFound(w, "share_form", formID)
		return model.Form{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.share_form.load", err)
		return model.Form{}, false
	}

	role, err := roleFor(r.Context(), app.DB, &form, middlewares.UserID(r))
	if err != nil {
		httpx.LogInternalError(w, "db.share_form.role", err)
		return model.Form{}, false
	}
	if !role.CanShare() {
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "share_form.role")
		return model.Form{}, false
	}
	return form, true
}

func ListCollaborators(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT c.user_id, u.username, u.email, c.role, c.invited_at
			FROM form_collaborator c
			INNER JOIN user u ON (u.id = c.user_id)
			WHERE c.form_id = ?
			ORDER BY c.invited_at`,
			form.ID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_collaborators", err)
			return
		}
		defer rows.Close()

		collaborators := []collaborator{}
		for rows.Next() {
			c := collaborator{}
			err = rows.Scan(&c.UserID, &c.Username, &c.Email, &c.Role, &c.InvitedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_collaborators.scan", err)
				return
			}
			collaborators = append(collaborators, c)
		}

		render.JSON(w, r, map[string]any{
			"collaborators": collaborators,
		})
	}
}

func InviteCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		body := struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		switch access.Role(body.Role) {
		case access.RoleEditor, access.RoleViewer:
			// assignable roles; ownership is not transferable here
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
				"invite_collaborator.role", "unknown role %q", body.Role)
			return
		}

		var userID int
		err := app.QueryRowContext(r.Context(),
			`SELECT id FROM user WHERE email = ?`, body.Email,
		).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
				"invite_collaborator.user", "no account for %q", body.Email)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.invite_collaborator.user", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO form_collaborator (form_id, user_id, role)
			VALUES (?, ?, ?)
			ON CONFLICT (form_id, user_id) DO UPDATE SET role = excluded.role`,
			form.ID, userID, body.Role,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.invite_collaborator", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"user_id": userID,
			"role":    body.Role,
		})
	}
}

func RemoveCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.userID")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form_collaborator
			WHERE form_id = ? AND user_id = ?`,
			form.ID, userID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.remove_collaborator", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.remove_collaborator.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "remove_collaborator", userID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListInvitees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		render.JSON(w, r, map[string]any{
			"invitees": append([]string{}, form.Invitees...),
		})
	}
}

func AddInvitees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		body := struct {
			Emails []string `json:"emails"`
		}{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := insertInvitees(r.Context(), app.DB, form.ID, body.Emails); err != nil {
			httpx.LogInternalError(w, "db.add_invitees", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func RemoveInvitee(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := requireOwner(w, r, app)
		if !ok {
			return
		}

		body := struct {
			Email string `json:"email"`
		}{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form_invitee
			WHERE form_id = ? AND email = ?`,
			form.ID, body.Email,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.remove_invitee", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.remove_invitee.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "remove_invitee", body.Email)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
