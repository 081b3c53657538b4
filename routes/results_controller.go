package routes

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
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

type resultRow struct {
	ID         int               `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Respondent string            `json:"respondent,omitempty"`
	Answers    map[string]string `json:"answers"`
}

func collectResults(r *http.Request, app app.App, formID int) ([]resultRow, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT r.id, r.created_at, IFNULL(u.username, ''), a.question_id, a.value
		FROM response r
		LEFT OUTER JOIN user u ON (u.id = r.respondent_id)
		LEFT OUTER JOIN answer a ON (a.response_id = r.id)
		WHERE r.form_id = ?
		ORDER BY r.id`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []resultRow{}
	for rows.Next() {
		var id int
		var createdAt time.Time
		var respondent string
		var questionID sql.NullInt64
		var value sql.NullString
		if err := rows.Scan(&id, &createdAt, &respondent, &questionID, &value); err != nil {
			return nil, err
		}

		last := len(results) - 1
		if last < 0 || results[last].ID != id {
			results = append(results, resultRow{
				ID:         id,
				CreatedAt:  createdAt,
				Respondent: respondent,
				Answers:    map[string]string{},
			})
			last++
		}
		if questionID.Valid {
			results[last].Answers[strconv.Itoa(int(questionID.Int64))] = value.String
		}
	}
	return results, rows.Err()
}

func loadFormForResults(w http.ResponseWriter, r *http.Request, app app.App) (model.Form, bool) {
	formID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return model.Form{}, false
	}

	form, err := loadForm(r.Context(), app.DB, formID)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.LogNotFound(w, "get_results", formID)
		return model.Form{}, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_results.form", err)
		return model.Form{}, false
	}

	userID := middlewares.UserID(r)
	collabRole, err := collabRoleFor(r.Context(), app.DB, form.ID, userID)
	if err != nil {
		httpx.LogInternalError(w, "db.get_results.role", err)
		return model.Form{}, false
	}
	// public forms do not make their responses public
	if !access.ResultsRole(&form, userID, collabRole).CanView() {
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "get_results.role")
		return model.Form{}, false
	}
	return form, true
}

func GetFormResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadFormForResults(w, r, app)
		if !ok {
			return
		}

		results, err := collectResults(r, app, form.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_results", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": results,
		})
	}
}

// ExportResultsCSV streams one row per response: id, submission time,
// then one column per question in document order.
func ExportResultsCSV(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadFormForResults(w, r, app)
		if !ok {
			return
		}

		results, err := collectResults(r, app, form.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.export_results", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="form_%d_responses.csv"`, form.ID))

		out := csv.NewWriter(w)
		for _, record := range ResultsCSV(&form, results) {
			if err := out.Write(record); err != nil {
				log.Errorf("export_results.write: %s", err)
				return
			}
		}
		out.Flush()
	}
}

// ResultsCSV renders the export table for a form's responses.
func ResultsCSV(f *model.Form, results []resultRow) [][]string {
	header := []string{"Response ID", "Submitted At"}
	var questions []model.Question
	for _, s := range f.Sections {
		questions = append(questions, s.Questions...)
	}
	for _, q := range questions {
		header = append(header, q.Text)
	}

	records := [][]string{header}
	for _, res := range results {
		row := []string{strconv.Itoa(res.ID), res.CreatedAt.Format("2006-01-02 15:04:05")}
		for _, q := range questions {
			row = append(row, res.Answers[strconv.Itoa(q.ID)])
		}
		records = append(records, row)
	}
	return records
}
