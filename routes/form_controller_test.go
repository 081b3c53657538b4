package routes

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/config"
	"github.com/formfold/formfold/database"
	"github.com/formfold/formfold/model"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestApp(t *testing.T) app.App {
	t.Helper()
	cfg := config.Config{
		DBUrl: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return app.App{DB: db, Config: cfg}
}

func seedForm(t *testing.T, a app.App, title string) (formID, sectionID int) {
	t.Helper()
	require.NoError(t, a.QueryRow(
		`INSERT INTO form (title) VALUES (?) RETURNING id`, title,
	).Scan(&formID))
	require.NoError(t, a.QueryRow(
		`INSERT INTO section (form_id, title) VALUES (?, ?) RETURNING id`, formID, "S",
	).Scan(&sectionID))
	return
}

func seedQuestion(t *testing.T, a app.App, sectionID int, text string) (questionID int) {
	t.Helper()
	require.NoError(t, a.QueryRow(
		`INSERT INTO question (section_id, text, question_type) VALUES (?, ?, ?) RETURNING id`,
		sectionID, text, model.TypeShortText,
	).Scan(&questionID))
	return
}

// A document claiming a section of another form must not reach that
// form's rows through the update reconciliation.
func TestReconcileRejectsForeignSection(t *testing.T) {
	a := openTestApp(t)
	myForm, _ := seedForm(t, a, "mine")
	_, victimSection := seedForm(t, a, "victim")
	seedQuestion(t, a, victimSection, "keep me")

	r := httptest.NewRequest("PUT", "/", nil)
	tx, err := a.BeginTx(r.Context(), nil)
	require.NoError(t, err)

	doc := model.Form{ID: myForm, Sections: []model.Section{
		{ID: victimSection, Title: "stolen"},
	}}
	_, err = reconcileSections(r, tx, myForm, &doc)
	require.ErrorIs(t, err, errForeignRow)
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, a.QueryRow(
		`SELECT COUNT(*) FROM question WHERE section_id = ?`, victimSection,
	).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestReconcileRejectsForeignQuestion(t *testing.T) {
	a := openTestApp(t)
	myForm, mySection := seedForm(t, a, "mine")
	_, victimSection := seedForm(t, a, "victim")
	victimQuestion := seedQuestion(t, a, victimSection, "target")

	r := httptest.NewRequest("PUT", "/", nil)
	tx, err := a.BeginTx(r.Context(), nil)
	require.NoError(t, err)

	doc := model.Form{ID: myForm, Sections: []model.Section{
		{ID: mySection, Title: "S", Questions: []model.Question{
			{ID: victimQuestion, Text: "hijacked", Type: model.TypeShortText},
		}},
	}}
	_, err = reconcileSections(r, tx, myForm, &doc)
	require.ErrorIs(t, err, errForeignRow)
	require.NoError(t, tx.Rollback())

	var text string
	require.NoError(t, a.QueryRow(
		`SELECT text FROM question WHERE id = ?`, victimQuestion,
	).Scan(&text))
	assert.Equal(t, "target", text)
}

func TestSubmitResponseRejectsForeignAnswerRef(t *testing.T) {
	a := openTestApp(t)
	myForm, mySection := seedForm(t, a, "mine")
	seedQuestion(t, a, mySection, "name")
	_, otherSection := seedForm(t, a, "other")
	foreignQuestion := seedQuestion(t, a, otherSection, "theirs")

	body := fmt.Sprintf(`{"answers":[{"question_ref":"%d","value":"x"}]}`, foreignQuestion)
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", strconv.Itoa(myForm))
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	SubmitResponse(a)(w, r)
	assert.Equal(t, 400, w.Code)

	var n int
	require.NoError(t, a.QueryRow(`SELECT COUNT(*) FROM answer`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, a.QueryRow(`SELECT COUNT(*) FROM response`).Scan(&n))
	assert.Equal(t, 0, n)
}
