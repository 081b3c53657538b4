// Package mail sends the response-notification emails a form can opt
// into and builds their subjects and bodies from the form's templates.
package mail

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/formfold/formfold/config"
	"github.com/formfold/formfold/model"
)

type Mailer interface {
	Send(to []string, replyTo, subject, body string) error
}

// New returns nil when no SMTP address is configured; callers treat a
// nil Mailer as notifications-disabled.
func New(cfg config.Config) Mailer {
	if cfg.SMTPAddr == "" {
		return nil
	}
	return &smtpMailer{cfg}
}

type smtpMailer struct {
	cfg config.Config
}

func (m *smtpMailer) Send(to []string, replyTo, subject, body string) error {
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		host := strings.Split(m.cfg.SMTPAddr, ":")[0]
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, host)
	}
	msg := buildMessage(m.cfg.SMTPFrom, to, replyTo, subject, body)
	return smtp.SendMail(m.cfg.SMTPAddr, auth, m.cfg.SMTPFrom, to, msg)
}

func buildMessage(from string, to []string, replyTo, subject, body string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	if replyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n%s\r\n", subject, body)
	return msg.Bytes()
}

func defaultSubject(f model.Form) string {
	return "New Response for " + f.Title
}

func defaultBody(f model.Form) string {
	return "A new response has been submitted for " + f.Title + "."
}

// CreatorNotification renders the email sent to the form's creator when
// notify_creator is on.
func CreatorNotification(f model.Form, resultsURL string) (subject, body string) {
	subject = f.EmailSubject
	if subject == "" {
		subject = defaultSubject(f)
	}
	body = f.EmailBody
	if body == "" {
		body = defaultBody(f)
	}
	subject = "[New Response] " + subject
	body = fmt.Sprintf("New Response Received:\n\n%s\n\nLink to results: %s", body, resultsURL)
	return
}

// RespondentReceipt renders the confirmation sent back to the respondent
// when notify_respondent is on.
func RespondentReceipt(f model.Form) (subject, body string) {
	subject = f.EmailSubject
	if subject == "" {
		subject = defaultSubject(f)
	}
	body = f.EmailBody
	if body == "" {
		body = defaultBody(f)
	}
	subject = "[Response Receipt] " + subject
	body = "Thank you for your response!\n\n" + body
	return
}

// RespondentEmail picks the address a receipt goes to: the account email
// when the respondent was signed in, else the answer to the first
// email-type question.
func RespondentEmail(f *model.Form, resp model.Response, accountEmail string) string {
	if accountEmail != "" {
		return accountEmail
	}
	answers := resp.AnswerMap()
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			if q.Type != model.TypeEmail {
				continue
			}
			if v := answers[q.Ref()]; v != "" {
				return v
			}
		}
	}
	return ""
}
