package model

import (
	"strconv"
	"time"
)

// Form is the full in-memory document held by an authoring session:
// settings, theming, notification templates and the ordered section tree.
// ID is zero until the form has been persisted.
type Form struct {
	ID      int `json:"id,omitempty"`
	Version int `json:"version,omitempty"`

	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`

	CreatorID       int    `json:"creator,omitempty"`
	CreatorUsername string `json:"creator_username,omitempty"`

	IsPublic        bool       `json:"is_public"`
	Slug            string     `json:"slug,omitempty"`
	IsActive        bool       `json:"is_active"`
	ExpiryAt        *time.Time `json:"expiry_at,omitempty"`
	InactiveMessage string     `json:"inactive_message,omitempty"`
	Invitees        []string   `json:"invitees,omitempty"`

	PrimaryColor    string `json:"primary_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	LogoImage       string `json:"logo_image,omitempty"`
	LogoAlignment   string `json:"logo_alignment,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`

	NotifyCreator          bool   `json:"notify_creator"`
	NotifyRespondent       bool   `json:"notify_respondent"`
	EmailSubject           string `json:"email_subject,omitempty"`
	EmailBody              string `json:"email_body,omitempty"`
	AllowMultipleResponses bool   `json:"allow_multiple_responses"`

	// Per-request decorations, never persisted.
	MyRole       string `json:"my_role,omitempty"`
	HasResponded bool   `json:"has_responded,omitempty"`
}

type Section struct {
	ID          int        `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	Questions   []Question `json:"questions"`
}

// Question is identified by exactly one of ID (server-assigned) and
// TempID (client-assigned "TEMP_..." token) at any time.
type Question struct {
	ID       int          `json:"id,omitempty"`
	TempID   string       `json:"temp_id,omitempty"`
	Text     string       `json:"text"`
	HelpText string       `json:"help_text,omitempty"`
	Type     QuestionType `json:"question_type"`
	Required bool         `json:"is_required"`
	Order    int          `json:"order"`
	Options  []Option     `json:"options,omitempty"`
	Config   Config       `json:"config,omitempty"`
	Logic    *Condition   `json:"logic_rule,omitempty"`
}

type Option struct {
	ID    int    `json:"id,omitempty"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// QuestionRef identifies a question from a logic rule or an answer:
// either the decimal server id or the question's TEMP_ token.
type QuestionRef string

// Ref returns whichever identifier the question currently has.
func (q Question) Ref() QuestionRef {
	if q.ID != 0 {
		return QuestionRef(strconv.Itoa(q.ID))
	}
	return QuestionRef(q.TempID)
}

// RefForID is the QuestionRef for a server-assigned id.
func RefForID(id int) QuestionRef {
	return QuestionRef(strconv.Itoa(id))
}

type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
)

// Condition is the whole logic sublanguage: one equality test against
// the answer of a question earlier in document order.
type Condition struct {
	Question QuestionRef `json:"question_ref"`
	Operator Operator    `json:"operator"`
	Value    string      `json:"value"`
}

type Response struct {
	ID           int       `json:"id,omitempty"`
	FormID       int       `json:"form_id"`
	RespondentID int       `json:"respondent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	Answers      []Answer  `json:"answers"`
}

// Answer values are strings under the per-type encoding conventions:
// checkbox answers are comma-joined option texts, matrix answers are a
// JSON object as a string, slider/rating are stringified numbers.
type Answer struct {
	Question QuestionRef `json:"question_ref"`
	Value    string      `json:"value"`
}

// AnswerMap builds the lookup the visibility engine consumes.
func (r Response) AnswerMap() map[QuestionRef]string {
	m := make(map[QuestionRef]string, len(r.Answers))
	for _, a := range r.Answers {
		m[a.Question] = a.Value
	}
	return m
}
