package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/httpx"
	"github.com/mkowal/ankieta/log"
	"github.com/mkowal/ankieta/model"
)

// PublicGetSurveyBySlug serves a published, public survey with its questions.
func PublicGetSurveyBySlug(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		survey, err := loadPublishedSurvey(r.Context(), app.DB, slug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
					"public.get_survey", "survey not found or not available")
			} else {
				httpx.LogInternalError(w, "db.public.get_survey", err)
			}
			return
		}

		render.JSON(w, r, survey)
	}
}

type submitRequest struct {
	RespondentName  string         `json:"respondent_name"`
	RespondentEmail string         `json:"respondent_email"`
	Password        string         `json:"password"`
	Answers         []model.Answer `json:"answers"`
}

// PublicSubmitResponse accepts a response to a published survey. The response
// row and all its answers are written in one transaction so readers never see
// a partially submitted response.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		req := submitRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := loadPublishedSurvey(r.Context(), app.DB, slug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogStatusMsg(w, http.StatusNotFound, log.DebugLevel,
					"public.submit.get_survey", "survey not found or not available for submission")
			} else {
				httpx.LogInternalError(w, "db.public.submit.get_survey", err)
			}
			return
		}

		if !surveyOpen(w, survey, req) {
			return
		}
		if !answersValid(w, survey, req) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var responseId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO response (survey_id, respondent_name, respondent_email, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			survey.ID,
			req.RespondentName,
			req.RespondentEmail,
			time.Now(),
		).Scan(&responseId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO answer (response_id, question_id, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range req.Answers {
			valueJson, err := json.Marshal(a.Value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.encode_value", err)
				return
			}
			_, err = stmt.ExecContext(r.Context(), responseId, a.QuestionID, string(valueJson))
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":     "Response submitted successfully.",
			"response_id": responseId,
		})
	}
}

// surveyOpen checks the submission gates: accepting flag, open/close window,
// access password and required respondent fields.
func surveyOpen(w http.ResponseWriter, survey *model.Survey, req submitRequest) bool {
	if !survey.IsAcceptingResponses {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel,
			"public.submit.closed", "this survey is currently closed")
		return false
	}

	now := time.Now()
	if survey.OpensAt != nil && now.Before(*survey.OpensAt) {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel,
			"public.submit.not_open", "this survey is not open yet")
		return false
	}
	if survey.ClosesAt != nil && now.After(*survey.ClosesAt) {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel,
			"public.submit.expired", "this survey has been closed")
		return false
	}

	if survey.AccessPassword != "" && req.Password != survey.AccessPassword {
		httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel,
			"public.submit.password", "invalid survey password")
		return false
	}

	if survey.RequireName && req.RespondentName == "" {
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
			"public.submit.require_name", "name is required for this survey")
		return false
	}
	if survey.RequireEmail && req.RespondentEmail == "" {
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
			"public.submit.require_email", "email is required for this survey")
		return false
	}

	return true
}

// answersValid checks that every answer targets a question of this survey
// and that required questions got a value. Value shape is not checked against
// the question type; readers tolerate any stored shape.
func answersValid(w http.ResponseWriter, survey *model.Survey, req submitRequest) bool {
	known := make(map[int]bool, len(survey.Questions))
	for _, q := range survey.Questions {
		known[q.ID] = true
	}

	answered := make(map[int]bool, len(req.Answers))
	for _, a := range req.Answers {
		if !known[a.QuestionID] {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"public.submit.unknown_question", "answer targets unknown question %d", a.QuestionID)
			return false
		}
		if !a.Value.IsAbsent() {
			answered[a.QuestionID] = true
		}
	}

	for _, q := range survey.Questions {
		if q.Required && !answered[q.ID] {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
				"public.submit.required", "question %d requires an answer", q.ID)
			return false
		}
	}

	return true
}
