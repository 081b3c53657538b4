package app

import (
	"database/sql"

	"github.com/formfold/formfold/config"
	"github.com/formfold/formfold/mail"
	"github.com/formfold/formfold/storage"
	"github.com/go-chi/oauth"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Mailer  mail.Mailer // nil when SMTP is not configured
	Uploads storage.Store
}
