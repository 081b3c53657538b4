package routes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/builder"
	"github.com/formfold/formfold/httpx"
	"github.com/formfold/formfold/log"
	"github.com/formfold/formfold/model"
	"github.com/formfold/formfold/routes/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if problems := builder.ValidateForSave(form); len(problems) > 0 {
			httpx.LogValidation(w, r, "form.validate", problems)
			return
		}

		userID := middlewares.UserID(r)
		if form.Slug == "" {
			form.Slug = uuid.NewString()
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var formID int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO form (
				creator_id, title, description, is_public, slug,
				is_active, expiry_at, inactive_message,
				primary_color, background_color, logo_image, logo_alignment, background_image,
				notify_creator, notify_respondent, email_subject, email_body,
				allow_multiple_responses
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			userID, form.Title, form.Description, form.IsPublic, form.Slug,
			form.IsActive, nullTime(form.ExpiryAt), form.InactiveMessage,
			form.PrimaryColor, form.BackgroundColor, form.LogoImage, form.LogoAlignment, form.BackgroundImage,
			form.NotifyCreator, form.NotifyRespondent, form.EmailSubject, form.EmailBody,
			form.AllowMultipleResponses,
		).Scan(&formID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}
		form.ID = formID

		tempIDs := map[string]int{}
		for si, s := range form.Sections {
			var sectionID int
			err = tx.QueryRowContext(r.Context(), `
				INSERT INTO section (form_id, title, description, ord)
				VALUES (?, ?, ?, ?)
				RETURNING id`,
				formID, s.Title, s.Description, si,
			).Scan(&sectionID)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_form.sections", err)
				return
			}
			form.Sections[si].ID = sectionID

			for qi, q := range s.Questions {
				questionID, err := insertQuestion(r.Context(), tx, sectionID, qi, q, tempIDs)
				if err != nil {
					httpx.LogInternalError(w, "db.insert_form.questions", err)
					return
				}
				form.Sections[si].Questions[qi].ID = questionID
			}
		}

		if _, err = rewriteLogicRules(r.Context(), tx, form, tempIDs); err != nil {
			httpx.LogInternalError(w, "db.insert_form.logic", err)
			return
		}

		if err = insertInvitees(r.Context(), tx, formID, form.Invitees); err != nil {
			httpx.LogInternalError(w, "db.insert_form.invitees", err)
			return
		}

		if err = tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.insert_form.commit", err)
			return
		}

		// The id map lets the authoring client remap its in-memory
		// document before the next rule edit.
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":           formID,
			"question_ids": tempIDs,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middlewares.UserID(r)

		rows, err := app.QueryContext(r.Context(), `
			SELECT DISTINCT
				f.id, f.version, f.title, f.description, f.is_public, f.is_active, f.slug,
				CASE WHEN f.creator_id = ? THEN 'owner' ELSE IFNULL(c.role, 'none') END
			FROM form f
			LEFT OUTER JOIN form_collaborator c ON (c.form_id = f.id AND c.user_id = ?)
			WHERE f.creator_id = ? OR c.user_id IS NOT NULL
			ORDER BY f.id`,
			userID, userID, userID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			var slug sql.NullString
			err = rows.Scan(&f.ID, &f.Version, &f.Title, &f.Description, &f.IsPublic, &f.IsActive, &slug, &f.MyRole)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			f.Slug = slug.String
			forms = append(forms, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := loadForm(r.Context(), app.DB, formID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		userID := middlewares.UserID(r)
		role, err := roleFor(r.Context(), app.DB, &form, userID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.role", err)
			return
		}
		if !role.CanView() {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "get_form.role")
			return
		}

		form.MyRole = string(role)
		if !role.CanEdit() {
			// read-only renditions do not include the allowlist
			form.Invitees = nil
		}
		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form := model.Form{}
		err = render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		form.ID = formID

		if problems := builder.ValidateForSave(form); len(problems) > 0 {
			httpx.LogValidation(w, r, "form.validate", problems)
			return
		}

		current, err := loadForm(r.Context(), app.DB, formID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.load", err)
			return
		}

		userID := middlewares.UserID(r)
		role, err := roleFor(r.Context(), app.DB, &current, userID)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.role", err)
			return
		}
		if !role.CanEdit() {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "update_form.role")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		tempIDs, err := reconcileSections(r, tx, formID, &form)
		if errors.Is(err, errForeignRow) {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"update_form.foreign_row", "%s", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.sections", err)
			return
		}

		if _, err = rewriteLogicRules(r.Context(), tx, form, tempIDs); err != nil {
			httpx.LogInternalError(w, "db.update_form.logic", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `DELETE FROM form_invitee WHERE form_id = ?`, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.invitees", err)
			return
		}
		if err = insertInvitees(r.Context(), tx, formID, form.Invitees); err != nil {
			httpx.LogInternalError(w, "db.update_form.invitees", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE form
			SET
				title = ?, description = ?, is_public = ?,
				is_active = ?, expiry_at = ?, inactive_message = ?,
				primary_color = ?, background_color = ?,
				logo_image = ?, logo_alignment = ?, background_image = ?,
				notify_creator = ?, notify_respondent = ?,
				email_subject = ?, email_body = ?,
				allow_multiple_responses = ?,
				updated_at = CURRENT_TIMESTAMP,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			form.Title, form.Description, form.IsPublic,
			form.IsActive, nullTime(form.ExpiryAt), form.InactiveMessage,
			form.PrimaryColor, form.BackgroundColor,
			form.LogoImage, form.LogoAlignment, form.BackgroundImage,
			form.NotifyCreator, form.NotifyRespondent,
			form.EmailSubject, form.EmailBody,
			form.AllowMultipleResponses,
			formID,
			form.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		// optimistic lock: a concurrent editor bumped the version first
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_form.verify.conflict")
			return
		}

		if err = tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.update_form.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":           formID,
			"question_ids": tempIDs,
		})
	}
}

// errForeignRow marks a document that references section or question
// rows belonging to another form; such a save is refused outright.
var errForeignRow = errors.New("row does not belong to this form")

// reconcileSections merges the incoming document into the stored one:
// rows keep their ids when the client sent them back, rows the client
// dropped are deleted, new rows are inserted and their temp ids mapped.
// Every incoming id must belong to formID before anything is touched.
func reconcileSections(r *http.Request, tx *sql.Tx, formID int, form *model.Form) (map[string]int, error) {
	ctx := r.Context()
	tempIDs := map[string]int{}

	existing, err := ownedIDs(ctx, tx, `SELECT id FROM section WHERE form_id = ?`, formID)
	if err != nil {
		return nil, err
	}
	incomingSections := map[int]bool{}
	for _, s := range form.Sections {
		if s.ID == 0 {
			continue
		}
		if !existing[s.ID] {
			return nil, fmt.Errorf("%w: section %d", errForeignRow, s.ID)
		}
		incomingSections[s.ID] = true
	}
	for id := range existing {
		if incomingSections[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM section WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}

	for si := range form.Sections {
		s := &form.Sections[si]
		if s.ID != 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE section SET title = ?, description = ?, ord = ?
				WHERE id = ? AND form_id = ?`,
				s.Title, s.Description, si, s.ID, formID,
			)
			if err != nil {
				return nil, err
			}
		} else {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO section (form_id, title, description, ord)
				VALUES (?, ?, ?, ?)
				RETURNING id`,
				formID, s.Title, s.Description, si,
			).Scan(&s.ID)
			if err != nil {
				return nil, err
			}
		}

		if err := reconcileQuestions(ctx, tx, s, si, tempIDs); err != nil {
			return nil, err
		}
	}
	return tempIDs, nil
}

// ownedIDs collects the id column of a one-parameter query into a set.
func ownedIDs(ctx context.Context, tx *sql.Tx, query string, arg any) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := map[int]bool{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func reconcileQuestions(ctx context.Context, tx *sql.Tx, s *model.Section, sectionOrd int, tempIDs map[string]int) error {
	existing, err := ownedIDs(ctx, tx, `SELECT id FROM question WHERE section_id = ?`, s.ID)
	if err != nil {
		return err
	}
	incoming := map[int]bool{}
	for _, q := range s.Questions {
		if q.ID == 0 {
			continue
		}
		if !existing[q.ID] {
			return fmt.Errorf("%w: question %d", errForeignRow, q.ID)
		}
		incoming[q.ID] = true
	}
	for id := range existing {
		if incoming[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id); err != nil {
			return err
		}
	}

	for qi := range s.Questions {
		q := &s.Questions[qi]
		if q.ID == 0 {
			id, err := insertQuestion(ctx, tx, s.ID, qi, *q, tempIDs)
			if err != nil {
				return err
			}
			q.ID = id
			q.TempID = ""
			continue
		}

		config, err := model.EncodeConfig(q.Config)
		if err != nil {
			return err
		}
		logic, err := encodeLogic(q.Logic)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE question
			SET text = ?, help_text = ?, question_type = ?, is_required = ?,
				ord = ?, config = ?, logic_rule = ?
			WHERE id = ? AND section_id = ?`,
			q.Text, q.HelpText, q.Type, q.Required,
			qi, string(config), logic,
			q.ID, s.ID,
		)
		if err != nil {
			return err
		}

		// options have no inbound references, recreating them is safe
		if _, err := tx.ExecContext(ctx, `DELETE FROM option WHERE question_id = ?`, q.ID); err != nil {
			return err
		}
		for oi, opt := range q.Options {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO option (question_id, text, ord) VALUES (?, ?, ?)`,
				q.ID, opt.Text, oi,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func insertInvitees(ctx context.Context, tx querier, formID int, emails []string) error {
	for _, email := range emails {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO form_invitee (form_id, email) VALUES (?, ?)
			ON CONFLICT (form_id, email) DO NOTHING`,
			formID, email,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := loadForm(r.Context(), app.DB, formID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "delete_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.load", err)
			return
		}

		role, err := roleFor(r.Context(), app.DB, &form, middlewares.UserID(r))
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.role", err)
			return
		}
		if !role.CanDelete() {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "delete_form.role")
			return
		}

		res, err := app.ExecContext(r.Context(), `DELETE FROM form WHERE id = ?`, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formID)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
