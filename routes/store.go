package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formfold/formfold/access"
	"github.com/formfold/formfold/builder"
	"github.com/formfold/formfold/model"
)

// querier is satisfied by *sql.DB and *sql.Tx so document assembly can
// run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loadForm assembles the whole document snapshot: form row, sections,
// questions, options and the invitee allowlist. Array order is document
// order; the ord columns are write-only bookkeeping.
func loadForm(ctx context.Context, db querier, formID int) (model.Form, error) {
	f := model.Form{}
	var creatorID sql.NullInt64
	var creatorName, slug sql.NullString
	var expiry sql.NullTime
	err := db.QueryRowContext(ctx, `
		SELECT
			f.id, f.version, f.title, f.description,
			f.creator_id, u.username, f.is_public, f.slug,
			f.is_active, f.expiry_at, f.inactive_message,
			f.primary_color, f.background_color,
			f.logo_image, f.logo_alignment, f.background_image,
			f.notify_creator, f.notify_respondent,
			f.email_subject, f.email_body, f.allow_multiple_responses
		FROM form f
		LEFT OUTER JOIN user u ON (u.id = f.creator_id)
		WHERE f.id = ?`,
		formID,
	).Scan(
		&f.ID, &f.Version, &f.Title, &f.Description,
		&creatorID, &creatorName, &f.IsPublic, &slug,
		&f.IsActive, &expiry, &f.InactiveMessage,
		&f.PrimaryColor, &f.BackgroundColor,
		&f.LogoImage, &f.LogoAlignment, &f.BackgroundImage,
		&f.NotifyCreator, &f.NotifyRespondent,
		&f.EmailSubject, &f.EmailBody, &f.AllowMultipleResponses,
	)
	if err != nil {
		return model.Form{}, err
	}
	f.CreatorID = int(creatorID.Int64)
	f.CreatorUsername = creatorName.String
	f.Slug = slug.String
	if expiry.Valid {
		t := expiry.Time
		f.ExpiryAt = &t
	}

	sectionIdx := map[int]int{}
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, ord
		FROM section
		WHERE form_id = ?
		ORDER BY ord, id`,
		formID,
	)
	if err != nil {
		return model.Form{}, err
	}
	defer rows.Close()
	f.Sections = []model.Section{}
	for rows.Next() {
		s := model.Section{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Order); err != nil {
			return model.Form{}, err
		}
		s.Questions = []model.Question{}
		sectionIdx[s.ID] = len(f.Sections)
		f.Sections = append(f.Sections, s)
	}
	if err := rows.Err(); err != nil {
		return model.Form{}, err
	}

	questionIdx := map[int][2]int{}
	qrows, err := db.QueryContext(ctx, `
		SELECT q.id, q.section_id, q.text, q.help_text, q.question_type,
			q.is_required, q.ord, q.config, q.logic_rule
		FROM question q
		INNER JOIN section s ON (s.id = q.section_id)
		WHERE s.form_id = ?
		ORDER BY s.ord, q.ord, q.id`,
		formID,
	)
	if err != nil {
		return model.Form{}, err
	}
	defer qrows.Close()
	for qrows.Next() {
		q := model.Question{}
		var sectionID int
		var config string
		var logic sql.NullString
		err := qrows.Scan(&q.ID, &sectionID, &q.Text, &q.HelpText, &q.Type,
			&q.Required, &q.Order, &config, &logic)
		if err != nil {
			return model.Form{}, err
		}
		q.Config, err = model.DecodeConfig(q.Type, json.RawMessage(config))
		if err != nil {
			return model.Form{}, fmt.Errorf("question %d config: %w", q.ID, err)
		}
		if logic.Valid && logic.String != "" {
			cond := model.Condition{}
			if err := json.Unmarshal([]byte(logic.String), &cond); err != nil {
				return model.Form{}, fmt.Errorf("question %d logic_rule: %w", q.ID, err)
			}
			q.Logic = &cond
		}
		si, ok := sectionIdx[sectionID]
		if !ok {
			continue
		}
		questionIdx[q.ID] = [2]int{si, len(f.Sections[si].Questions)}
		f.Sections[si].Questions = append(f.Sections[si].Questions, q)
	}
	if err := qrows.Err(); err != nil {
		return model.Form{}, err
	}

	orows, err := db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.ord
		FROM option o
		INNER JOIN question q ON (q.id = o.question_id)
		INNER JOIN section s ON (s.id = q.section_id)
		WHERE s.form_id = ?
		ORDER BY o.ord, o.id`,
		formID,
	)
	if err != nil {
		return model.Form{}, err
	}
	defer orows.Close()
	for orows.Next() {
		o := model.Option{}
		var questionID int
		if err := orows.Scan(&o.ID, &questionID, &o.Text, &o.Order); err != nil {
			return model.Form{}, err
		}
		pos, ok := questionIdx[questionID]
		if !ok {
			continue
		}
		q := &f.Sections[pos[0]].Questions[pos[1]]
		q.Options = append(q.Options, o)
	}
	if err := orows.Err(); err != nil {
		return model.Form{}, err
	}

	irows, err := db.QueryContext(ctx, `
		SELECT email FROM form_invitee WHERE form_id = ? ORDER BY email`,
		formID,
	)
	if err != nil {
		return model.Form{}, err
	}
	defer irows.Close()
	for irows.Next() {
		var email string
		if err := irows.Scan(&email); err != nil {
			return model.Form{}, err
		}
		f.Invitees = append(f.Invitees, email)
	}
	return f, irows.Err()
}

// collabRoleFor returns the actor's collaborator record slug for the
// form, empty when there is none.
func collabRoleFor(ctx context.Context, db querier, formID, userID int) (string, error) {
	if userID == 0 {
		return "", nil
	}
	var role string
	err := db.QueryRowContext(ctx, `
		SELECT role FROM form_collaborator
		WHERE form_id = ? AND user_id = ?`,
		formID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return role, err
}

// roleFor resolves the actor's effective capability over a form.
func roleFor(ctx context.Context, db querier, f *model.Form, userID int) (access.Role, error) {
	collabRole, err := collabRoleFor(ctx, db, f.ID, userID)
	if err != nil {
		return access.RoleNone, err
	}
	return access.Resolve(f, userID, collabRole), nil
}

func hasResponded(ctx context.Context, db querier, formID, userID int) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var one int
	err := db.QueryRowContext(ctx, `
		SELECT 1 FROM response
		WHERE form_id = ? AND respondent_id = ?
		LIMIT 1`,
		formID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// insertQuestion writes one question row and its options, returning the
// new id and recording the temp id mapping.
func insertQuestion(ctx context.Context, tx querier, sectionID, ord int, q model.Question, tempIDs map[string]int) (int, error) {
	config, err := model.EncodeConfig(q.Config)
	if err != nil {
		return 0, err
	}
	logic, err := encodeLogic(q.Logic)
	if err != nil {
		return 0, err
	}

	var questionID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO question (section_id, text, help_text, question_type, is_required, ord, config, logic_rule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sectionID, q.Text, q.HelpText, q.Type, q.Required, ord, string(config), logic,
	).Scan(&questionID)
	if err != nil {
		return 0, err
	}
	if q.TempID != "" {
		tempIDs[q.TempID] = questionID
	}

	for i, opt := range q.Options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO option (question_id, text, ord) VALUES (?, ?, ?)`,
			questionID, opt.Text, i,
		)
		if err != nil {
			return 0, err
		}
	}
	return questionID, nil
}

// rewriteLogicRules is the second save pass: once every new question has
// a server id, rules that referenced temp ids are rewritten in place.
func rewriteLogicRules(ctx context.Context, tx querier, f model.Form, tempIDs map[string]int) (model.Form, error) {
	f = builder.RemapRefs(f, tempIDs)
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.Logic == nil || q.ID == 0 {
				continue
			}
			logic, err := encodeLogic(q.Logic)
			if err != nil {
				return model.Form{}, err
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE question SET logic_rule = ? WHERE id = ?`,
				logic, q.ID,
			)
			if err != nil {
				return model.Form{}, err
			}
		}
	}
	return f, nil
}

func encodeLogic(cond *model.Condition) (any, error) {
	if cond == nil {
		return nil, nil
	}
	b, err := json.Marshal(cond)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
