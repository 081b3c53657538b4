package routes

import (
	"net/http"

	"github.com/formfold/formfold/app"
	"github.com/formfold/formfold/routes/middlewares"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/uploads", serveUploads(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	maybeAuth := middlewares.MaybeAuthenticated(app.TokenSecret)
	auth := middlewares.Authenticated(app.TokenSecret)

	// respondent-facing endpoints; auth is optional but honored
	api.Group(func(r chi.Router) {
		r.Use(maybeAuth)
		r.Get("/forms/{id}", PublicGetForm(app))
		r.Post(`/forms/{id:^\d+$}/responses`, SubmitResponse(app))
		r.Post("/uploads", Upload(app))
	})

	// authoring endpoints
	api.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get(`/forms/{id:^\d+$}/edit`, GetForm(app))
		r.Put(`/forms/{id:^\d+$}`, UpdateForm(app))
		r.Delete(`/forms/{id:^\d+$}`, DeleteForm(app))

		r.Get(`/forms/{id:^\d+$}/responses`, GetFormResults(app))
		r.Get(`/forms/{id:^\d+$}/responses/export`, ExportResultsCSV(app))

		r.Get(`/forms/{id:^\d+$}/collaborators`, ListCollaborators(app))
		r.Post(`/forms/{id:^\d+$}/collaborators`, InviteCollaborator(app))
		r.Delete(`/forms/{id:^\d+$}/collaborators/{userID:^\d+$}`, RemoveCollaborator(app))

		r.Get(`/forms/{id:^\d+$}/invitees`, ListInvitees(app))
		r.Post(`/forms/{id:^\d+$}/invitees`, AddInvitees(app))
		r.Delete(`/forms/{id:^\d+$}/invitees`, RemoveInvitee(app))
	})

	api.Post("/signup", Signup(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func serveUploads(app app.App) http.Handler {
	return http.StripPrefix("/uploads", http.FileServer(http.Dir(app.UploadDir)))
}
