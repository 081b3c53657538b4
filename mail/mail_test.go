package mail

import (
	"testing"

	"github.com/formfold/formfold/config"
	"github.com/formfold/formfold/model"
	"github.com/stretchr/testify/assert"
)

func TestNewDisabledWithoutSMTP(t *testing.T) {
	assert.Nil(t, New(config.Config{}))
	assert.NotNil(t, New(config.Config{SMTPAddr: "localhost:25"}))
}

func TestCreatorNotificationDefaults(t *testing.T) {
	f := model.Form{Title: "Exit survey"}

	subject, body := CreatorNotification(f, "http://example.com/forms/1/results")
	assert.Equal(t, "[New Response] New Response for Exit survey", subject)
	assert.Contains(t, body, "A new response has been submitted for Exit survey.")
	assert.Contains(t, body, "Link to results: http://example.com/forms/1/results")
}

func TestCreatorNotificationCustomTemplate(t *testing.T) {
	f := model.Form{
		Title:        "Exit survey",
		EmailSubject: "Someone answered",
		EmailBody:    "Go have a look.",
	}

	subject, body := CreatorNotification(f, "http://example.com/forms/1/results")
	assert.Equal(t, "[New Response] Someone answered", subject)
	assert.Contains(t, body, "Go have a look.")
}

func TestRespondentReceipt(t *testing.T) {
	f := model.Form{Title: "Exit survey"}

	subject, body := RespondentReceipt(f)
	assert.Equal(t, "[Response Receipt] New Response for Exit survey", subject)
	assert.Contains(t, body, "Thank you for your response!")
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("noreply@example.com",
		[]string{"a@example.com", "b@example.com"},
		"reply@example.com", "Hello", "Body text.")

	assert.Equal(t, []byte("From: noreply@example.com\r\n"+
		"To: a@example.com, b@example.com\r\n"+
		"Reply-To: reply@example.com\r\n"+
		"Subject: Hello\r\n\r\nBody text.\r\n"), msg)

	msg = buildMessage("noreply@example.com", []string{"a@example.com"}, "", "Hi", "x")
	assert.NotContains(t, string(msg), "Reply-To")
}

func TestRespondentEmail(t *testing.T) {
	f := &model.Form{Sections: []model.Section{
		{Questions: []model.Question{
			{ID: 1, Text: "name", Type: model.TypeShortText},
			{ID: 2, Text: "work email", Type: model.TypeEmail},
			{ID: 3, Text: "personal email", Type: model.TypeEmail},
		}},
	}}
	resp := model.Response{Answers: []model.Answer{
		{Question: "1", Value: "Ada"},
		{Question: "3", Value: "ada@example.com"},
	}}

	// account email wins over any answer
	assert.Equal(t, "me@example.com", RespondentEmail(f, resp, "me@example.com"))

	// else the first email question with a non-empty answer
	assert.Equal(t, "ada@example.com", RespondentEmail(f, resp, ""))

	// no address anywhere
	assert.Equal(t, "", RespondentEmail(f, model.Response{}, ""))
}
