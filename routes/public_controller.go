package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/httpx"
	"github.com/formfold/formfold/log"
	"github.com/formfold/formfold/mail"
	"github.com/formfold/formfold/model"
	"github.com/formfold/formfold/routes/middlewares"
	"github.com/formfold/formfold/visibility"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// PublicGetForm serves the respondent-facing snapshot, by numeric id or
// by slug. Closed forms are still served so the client can show the
// inactive message; private forms are denied to uninvited actors here,
// at the collaborator boundary.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "id")

		formID, err := strconv.Atoi(key)
		if err != nil {
			err = app.QueryRowContext(r.Context(),
				`SELECT id FROM form WHERE slug = ?`, key,
			).Scan(&formID)
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "get_form", key)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, "db.get_form.slug", err)
				return
			}
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
		if !form.IsPublic && !role.CanView() && !isInvitee(r, app, formID, userID) {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "get_form.private")
			return
		}

		form.MyRole = string(role)
		form.HasResponded, err = hasResponded(r.Context(), app.DB, formID, userID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.responded", err)
			return
		}
		form.Invitees = nil

		render.JSON(w, r, form)
	}
}

func isInvitee(r *http.Request, app app.App, formID, userID int) bool {
	if userID == 0 {
		return false
	}
	var one int
	err := app.QueryRowContext(r.Context(), `
		SELECT 1 FROM form_invitee i
		INNER JOIN user u ON (u.email = i.email)
		WHERE i.form_id = ? AND u.id = ?`,
		formID, userID,
	).Scan(&one)
	return err == nil
}

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		response := model.Response{}
		err = render.DecodeJSON(r.Body, &response)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		response.FormID = formID

		form, err := loadForm(r.Context(), app.DB, formID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "submit_response", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.submit_response.form", err)
			return
		}

		if !form.IsActive || (form.ExpiryAt != nil && time.Now().After(*form.ExpiryAt)) {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "submit_response.closed",
				"this form is no longer accepting responses")
			return
		}

		userID := middlewares.UserID(r)
		if !form.IsPublic {
			role, err := roleFor(r.Context(), app.DB, &form, userID)
			if err != nil {
				httpx.LogInternalError(w, "db.submit_response.role", err)
				return
			}
			if !role.CanView() && !isInvitee(r, app, formID, userID) {
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "submit_response.private")
				return
			}
		}

		if !form.AllowMultipleResponses {
			responded, err := hasResponded(r.Context(), app.DB, formID, userID)
			if err != nil {
				httpx.LogInternalError(w, "db.submit_response.responded", err)
				return
			}
			if responded {
				httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "submit_response.repeat",
					"you have already responded to this form")
				return
			}
		}

		// required questions only count while visible
		answers := response.AnswerMap()
		if problems := visibility.ValidateSubmission(&form, answers); len(problems) > 0 {
			httpx.LogValidation(w, r, "submit_response.validate", problems)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var respondent any
		if userID != 0 {
			respondent = userID
		}
		var responseID int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO response (form_id, respondent_id, created_at)
			VALUES (?, ?, ?)
			RETURNING id`,
			formID, respondent, time.Now(),
		).Scan(&responseID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		known := map[int]bool{}
		for _, s := range form.Sections {
			for _, q := range s.Questions {
				known[q.ID] = true
			}
		}
		for _, a := range response.Answers {
			// answers may only reference persisted questions of this form
			questionID, err := strconv.Atoi(string(a.Question))
			if err != nil || !known[questionID] {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel,
					"submit_response.answer_ref", "unknown question reference %q", a.Question)
				return
			}
			_, err = tx.ExecContext(r.Context(), `
				INSERT INTO answer (response_id, question_id, value)
				VALUES (?, ?, ?)`,
				responseID, questionID, a.Value,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers", err)
				return
			}
		}

		if err = tx.Commit(); err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		notifyResponse(r, app, form, response, userID)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": responseID,
		})
	}
}

// notifyResponse sends the opted-in emails. Failures are logged and
// never fail the submission.
func notifyResponse(r *http.Request, app app.App, form model.Form, response model.Response, userID int) {
	if app.Mailer == nil {
		return
	}

	var creatorEmail, accountEmail string
	if form.CreatorID != 0 {
		app.QueryRowContext(r.Context(),
			`SELECT email FROM user WHERE id = ?`, form.CreatorID,
		).Scan(&creatorEmail)
	}
	if userID != 0 {
		app.QueryRowContext(r.Context(),
			`SELECT email FROM user WHERE id = ?`, userID,
		).Scan(&accountEmail)
	}
	respondentEmail := mail.RespondentEmail(&form, response, accountEmail)

	if form.NotifyCreator && creatorEmail != "" {
		resultsURL := app.BaseURL + "/forms/" + strconv.Itoa(form.ID) + "/results"
		subject, body := mail.CreatorNotification(form, resultsURL)
		if err := app.Mailer.Send([]string{creatorEmail}, respondentEmail, subject, body); err != nil {
			log.Warnf("mail.notify_creator: %s", err)
		}
	}

	if form.NotifyRespondent && respondentEmail != "" {
		subject, body := mail.RespondentReceipt(form)
		if err := app.Mailer.Send([]string{respondentEmail}, creatorEmail, subject, body); err != nil {
			log.Warnf("mail.notify_respondent: %s", err)
		}
	}
}

// Upload stores a file and returns its opaque URL. Used for theming
// images and file_upload answers alike.
func Upload(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_file")
			return
		}
		defer file.Close()

		url, err := app.Uploads.Save(r.Context(), header.Filename,
			header.Header.Get("Content-Type"), file, header.Size)
		if err != nil {
			httpx.LogInternalError(w, "storage.save", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"url": url,
		})
	}
}
