package routes

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mattn/go-sqlite3"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/httpx"
	"github.com/mkowal/ankieta/log"
	"github.com/mkowal/ankieta/model"
	"github.com/mkowal/ankieta/policy"
	"github.com/mkowal/ankieta/routes/middlewares"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "create_survey.claims")
			return
		}

		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if survey.Title == "" {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"create_survey.title", "title is required")
			return
		}

		var surveyId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO survey (owner_id, title, description, status, is_public)
			VALUES (?, ?, ?, 'draft', 0)
			RETURNING id`,
			userId,
			survey.Title,
			survey.Description,
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

// ListSurveys returns every survey the caller owns or collaborates on, with
// the caller's role attached, most recently updated first.
func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "get_surveys.claims")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT
				s.id, s.title, s.description, s.slug, s.status,
				s.is_public, s.is_accepting_responses, s.created_at, s.updated_at,
				CASE WHEN s.owner_id = ? THEN 'owner' ELSE c.role END
			FROM survey s
			LEFT OUTER JOIN collaborator c ON (c.survey_id = s.id AND c.user_id = ?)
			WHERE s.owner_id = ?
				OR c.user_id IS NOT NULL
			ORDER BY s.updated_at DESC`,
			userId, userId, userId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			var slug sql.NullString
			err = rows.Scan(
				&s.ID, &s.Title, &s.Description, &slug, &s.Status,
				&s.IsPublic, &s.IsAcceptingResponses, &s.CreatedAt, &s.UpdatedAt,
				&s.UserRole,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
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

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanView, "get_survey") {
			return
		}

		survey, err := loadSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "get_survey", surveyId)
			} else {
				httpx.LogInternalError(w, "db.get_survey", err)
			}
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "update_survey") {
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				is_accepting_responses = ?,
				require_name = ?,
				require_email = ?,
				access_password = ?,
				opens_at = ?,
				closes_at = ?,
				updated_at = ?
			WHERE id = ?`,
			survey.Title,
			survey.Description,
			survey.IsAcceptingResponses,
			survey.RequireName,
			survey.RequireEmail,
			survey.AccessPassword,
			survey.OpensAt,
			survey.ClosesAt,
			time.Now(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.IsOwner, "delete_survey") {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// PublishSurvey flips a survey to published and public, generating its share
// slug on first publish.
func PublishSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "publish_survey") {
			return
		}

		var slug sql.NullString
		err = app.QueryRowContext(r.Context(),
			"SELECT slug FROM survey WHERE id = ?", surveyId,
		).Scan(&slug)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey.slug", err)
			return
		}

		for slug.String == "" {
			candidate, err := randomSlug(12)
			if err != nil {
				httpx.LogInternalError(w, "publish_survey.random_slug", err)
				return
			}
			_, err = app.ExecContext(r.Context(),
				"UPDATE survey SET slug = ? WHERE id = ?", candidate, surveyId)
			if err != nil {
				var sqliteErr sqlite3.Error
				if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
					continue // slug collision, roll again
				}
				httpx.LogInternalError(w, "db.publish_survey.assign_slug", err)
				return
			}
			slug.String = candidate
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE survey
			SET status = 'published', is_public = 1, updated_at = ?
			WHERE id = ?`,
			time.Now(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":     surveyId,
			"slug":   slug.String,
			"status": model.StatusPublished,
		})
	}
}

// DuplicateSurvey copies a survey and its questions into a fresh draft owned
// by the caller. Responses, collaborators and the slug are not carried over.
func DuplicateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		userId, _ := middlewares.UserID(r)
		if !requireRole(w, r, app, surveyId, policy.CanView, "duplicate_survey") {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var newId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO survey (
				owner_id, title, description, status, is_public,
				is_accepting_responses, require_name, require_email, access_password
			)
			SELECT ?, title || ' (Copy)', description, 'draft', 0,
				1, require_name, require_email, access_password
			FROM survey
			WHERE id = ?
			RETURNING id`,
			userId,
			surveyId,
		).Scan(&newId)
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO question (
				survey_id, type, text, description, banner_image,
				options, required, correct_answer, position
			)
			SELECT ?, type, text, description, banner_image,
				options, required, correct_answer, position
			FROM question
			WHERE survey_id = ?`,
			newId,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey.questions", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": newId,
		})
	}
}

const slugAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomSlug draws length characters from slugAlphabet. The byte-modulo
// mapping slightly favors the first four characters (256 mod 62); the slug
// only has to be unguessable and unique, not uniform.
func randomSlug(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = slugAlphabet[int(b)%len(slugAlphabet)]
	}
	return string(buf), nil
}
