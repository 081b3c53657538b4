package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/config"
	"github.com/formfold/formfold/database"
	"github.com/formfold/formfold/httpx"
	"github.com/formfold/formfold/log"
	"github.com/formfold/formfold/mail"
	"github.com/formfold/formfold/routes"
	"github.com/formfold/formfold/storage"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	uploads, err := storage.New(cfg)
	if err != nil {
		log.Fatal("main.storage:", err)
	}

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Mailer:       mail.New(cfg),
		Uploads:      uploads,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
