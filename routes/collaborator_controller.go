package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/httpx"
	"github.com/mkowal/ankieta/log"
	"github.com/mkowal/ankieta/model"
	"github.com/mkowal/ankieta/policy"
)

// AddCollaborator grants a user access to a survey by email. Only the owner
// manages collaborators. Re-adding an existing collaborator updates the role.
func AddCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.IsOwner, "add_collaborator") {
			return
		}

		body := struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.Role != model.RoleEditor && body.Role != model.RoleViewer {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"add_collaborator.role", "role must be editor or viewer")
			return
		}

		var collaboratorId int
		err = app.QueryRowContext(r.Context(),
			"SELECT id FROM user WHERE email = ?", body.Email,
		).Scan(&collaboratorId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
					"add_collaborator.user", "no user found with this email address")
			} else {
				httpx.LogInternalError(w, "db.add_collaborator.user", err)
			}
			return
		}

		var ownerId int
		err = app.QueryRowContext(r.Context(),
			"SELECT owner_id FROM survey WHERE id = ?", surveyId,
		).Scan(&ownerId)
		if err != nil {
			httpx.LogInternalError(w, "db.add_collaborator.owner", err)
			return
		}
		if collaboratorId == ownerId {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"add_collaborator.owner", "the survey owner cannot be added as a collaborator")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO collaborator (survey_id, user_id, role)
			VALUES (?, ?, ?)
			ON CONFLICT (survey_id, user_id) DO UPDATE SET role = excluded.role`,
			surveyId,
			collaboratorId,
			body.Role,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.add_collaborator", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, model.Collaborator{
			SurveyID: surveyId,
			UserID:   collaboratorId,
			Role:     body.Role,
		})
	}
}

func RemoveCollaborator(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		userId, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.user_id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.IsOwner, "remove_collaborator") {
			return
		}

		_, err = app.ExecContext(r.Context(), `
			DELETE FROM collaborator
			WHERE survey_id = ?
				AND user_id = ?`,
			surveyId,
			userId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.remove_collaborator", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Collaborator removed.",
		})
	}
}
