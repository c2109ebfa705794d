package routes

import (
	"database/sql"
	"encoding/json"
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

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "create_question") {
			return
		}

		question := model.Question{Position: -1}
		err = render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if !validQuestion(w, question) {
			return
		}

		if question.Position < 0 {
			// append after the current last question
			err = app.QueryRowContext(r.Context(),
				"SELECT COUNT(*) FROM question WHERE survey_id = ?", surveyId,
			).Scan(&question.Position)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_question.position", err)
				return
			}
		}

		optionsJson, err := encodeOptions(question.Options)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question.encode_options", err)
			return
		}

		err = app.QueryRowContext(r.Context(), `
			INSERT INTO question (
				survey_id, type, text, description, banner_image,
				options, required, correct_answer, position
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			surveyId,
			question.Type,
			question.Text,
			question.Description,
			question.BannerImage,
			optionsJson,
			question.Required,
			question.CorrectAnswer,
			question.Position,
		).Scan(&question.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_question", err)
			return
		}
		question.SurveyID = surveyId

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, surveyId, ok := resolveQuestion(w, r, app)
		if !ok {
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "update_question") {
			return
		}

		question := model.Question{}
		err := render.DecodeJSON(r.Body, &question)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if !validQuestion(w, question) {
			return
		}

		optionsJson, err := encodeOptions(question.Options)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question.encode_options", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			UPDATE question
			SET
				type = ?,
				text = ?,
				description = ?,
				banner_image = ?,
				options = ?,
				required = ?,
				correct_answer = ?
			WHERE id = ?`,
			question.Type,
			question.Text,
			question.Description,
			question.BannerImage,
			optionsJson,
			question.Required,
			question.CorrectAnswer,
			questionId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_question", err)
			return
		}

		question.ID = questionId
		question.SurveyID = surveyId
		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, surveyId, ok := resolveQuestion(w, r, app)
		if !ok {
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "delete_question") {
			return
		}

		_, err := app.ExecContext(r.Context(),
			"DELETE FROM question WHERE id = ?", questionId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_question", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Question deleted.",
		})
	}
}

// ReorderQuestions rewrites positions to match the submitted id order.
func ReorderQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "reorder_questions") {
			return
		}

		body := struct {
			Order []int `json:"order"`
		}{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil || len(body.Order) == 0 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(r.Context(), `
			UPDATE question
			SET position = ?
			WHERE id = ?
				AND survey_id = ?`)
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.prepare", err)
			return
		}
		defer stmt.Close()

		for position, questionId := range body.Order {
			_, err = stmt.ExecContext(r.Context(), position, questionId, surveyId)
			if err != nil {
				httpx.LogInternalError(w, "db.reorder_questions.update", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.commit", err)
			return
		}

		questions, err := loadQuestions(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.reorder_questions.reload", err)
			return
		}
		render.JSON(w, r, questions)
	}
}

func resolveQuestion(w http.ResponseWriter, r *http.Request, app app.App) (questionId, surveyId int, ok bool) {
	questionId, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, 0, false
	}

	err = app.QueryRowContext(r.Context(),
		"SELECT survey_id FROM question WHERE id = ?", questionId,
	).Scan(&surveyId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_question", questionId)
		} else {
			httpx.LogInternalError(w, "db.get_question", err)
		}
		return 0, 0, false
	}
	return questionId, surveyId, true
}

func validQuestion(w http.ResponseWriter, q model.Question) bool {
	if !q.Type.Valid() {
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
			"question.type", "unknown question type %q", q.Type)
		return false
	}
	if q.Text == "" {
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
			"question.text", "question text is required")
		return false
	}
	if q.Type.RequiresOptions() && len(q.Options) == 0 {
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel,
			"question.options", "choice/ranking questions require at least one option")
		return false
	}
	return true
}

func encodeOptions(options []string) (any, error) {
	if options == nil {
		return nil, nil
	}
	buf, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}
