package routes

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/httpx"
	"github.com/mkowal/ankieta/log"
	"github.com/mkowal/ankieta/model"
)

func AdminListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, email, is_admin, created_at
			FROM user
			ORDER BY id`)
		if err != nil {
			httpx.LogInternalError(w, "db.admin.get_users", err)
			return
		}
		defer rows.Close()

		users := []model.User{}
		for rows.Next() {
			u := model.User{}
			err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.admin.get_users.scan", err)
				return
			}
			users = append(users, u)
		}

		render.JSON(w, r, map[string]any{
			"users": users,
		})
	}
}

func AdminDeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(),
			"DELETE FROM user WHERE id = ?", userId)
		if err != nil {
			httpx.LogInternalError(w, "db.admin.delete_user", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "admin.delete_user", userId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.owner_id, s.title, s.description, s.slug, s.status,
				s.is_public, s.created_at, s.updated_at
			FROM survey s
			ORDER BY s.updated_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.admin.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			var slug sql.NullString
			err = rows.Scan(
				&s.ID, &s.OwnerID, &s.Title, &s.Description, &slug, &s.Status,
				&s.IsPublic, &s.CreatedAt, &s.UpdatedAt,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.admin.get_surveys.scan", err)
				return
			}
			s.Slug = slug.String
			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func AdminDeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(),
			"DELETE FROM survey WHERE id = ?", surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.admin.delete_survey", err)
			return
		}
		if n, _ := res.RowsAffected(); n < 1 {
			httpx.LogNotFound(w, "admin.delete_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
