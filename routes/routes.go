package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/model"
	"github.com/mkowal/ankieta/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/auth", func(r chi.Router) {
		r.Post("/register", Register(app))
		r.Post("/login", Login(app))
		r.Post("/refresh", Refresh(app))
	})

	api.Get("/meta/question-types", questionTypesMeta)

	api.Route("/public/surveys", func(r chi.Router) {
		r.Get("/{slug}", PublicGetSurveyBySlug(app))
		r.Post("/{slug}/responses", PublicSubmitResponse(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		r.Get("/me", Me(app))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))
		r.Post(`/surveys/{id:^\d+$}/publish`, PublishSurvey(app))
		r.Post(`/surveys/{id:^\d+$}/duplicate`, DuplicateSurvey(app))

		// questions
		r.Post(`/surveys/{id:^\d+$}/questions`, CreateQuestion(app))
		r.Post(`/surveys/{id:^\d+$}/questions/reorder`, ReorderQuestions(app))
		r.Put(`/questions/{id:^\d+$}`, UpdateQuestion(app))
		r.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))

		// collaborators
		r.Post(`/surveys/{id:^\d+$}/collaborators`, AddCollaborator(app))
		r.Delete(`/surveys/{id:^\d+$}/collaborators/{userId:^\d+$}`, RemoveCollaborator(app))

		// results and export
		r.Get(`/surveys/{id:^\d+$}/results`, GetResults(app))
		r.Get(`/surveys/{id:^\d+$}/responses`, ListResponses(app))
		r.Delete(`/surveys/{id:^\d+$}/responses/{responseId:^\d+$}`, DeleteResponse(app))
		r.Get(`/surveys/{id:^\d+$}/export`, ExportResponses(app))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.Admin)

			r.Get("/users", AdminListUsers(app))
			r.Delete(`/users/{id:^\d+$}`, AdminDeleteUser(app))
			r.Get("/surveys", AdminListSurveys(app))
			r.Delete(`/surveys/{id:^\d+$}`, AdminDeleteSurvey(app))
		})
	})

	return api
}

func questionTypesMeta(w http.ResponseWriter, r *http.Request) {
	types := []map[string]any{}
	for _, t := range model.QuestionTypes() {
		types = append(types, map[string]any{
			"value":           t,
			"requiresOptions": t.RequiresOptions(),
			"isChoiceBased":   t.IsChoiceBased(),
		})
	}
	render.JSON(w, r, types)
}
