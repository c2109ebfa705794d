package routes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/httpx"
	"github.com/mkowal/ankieta/log"
	"github.com/mkowal/ankieta/model"
	"github.com/mkowal/ankieta/policy"
	"github.com/mkowal/ankieta/results"
	"github.com/mkowal/ankieta/routes/middlewares"
)

// GetResults serves the aggregated statistics for a survey. The aggregate is
// recomputed from current data on every call; nothing is cached.
func GetResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := authorizeResults(w, r, app, policy.CanView)
		if !ok {
			return
		}

		render.JSON(w, r, results.Compute(survey))
	}
}

// ListResponses serves the per-response detail view: every response with its
// answers laid out in question order, raw values preserved (RANKING keeps
// rank order here, unlike the aggregate view).
func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := authorizeResults(w, r, app, policy.CanView)
		if !ok {
			return
		}

		out := make([]map[string]any, 0, len(survey.Responses))
		for _, resp := range survey.Responses {
			answers := make([]map[string]any, 0, len(survey.Questions))
			for _, q := range survey.Questions {
				answer, _ := resp.AnswerFor(q.ID)
				answers = append(answers, map[string]any{
					"question_id":   q.ID,
					"question_text": q.Text,
					"type":          q.Type,
					"value":         answer.Value,
				})
			}
			out = append(out, map[string]any{
				"id":               resp.ID,
				"respondent_name":  resp.RespondentName,
				"respondent_email": resp.RespondentEmail,
				"submitted_at":     resp.CreatedAt.Format(time.RFC3339),
				"answers":          answers,
			})
		}

		render.JSON(w, r, out)
	}
}

// DeleteResponse removes one response and, through the schema's cascade, all
// of its answers. The response must belong to the given survey.
func DeleteResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		responseId, err := strconv.Atoi(chi.URLParam(r, "responseId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.response_id")
			return
		}

		if !requireRole(w, r, app, surveyId, policy.CanEdit, "delete_response") {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM response
			WHERE id = ?
				AND survey_id = ?`,
			responseId,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_response", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_response.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_response", responseId)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Response deleted",
		})
	}
}

// ExportResponses streams the survey's responses in the requested format.
// csv is the default; excel produces an XLSX workbook; any other value falls
// back to the JSON row shape.
func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := authorizeResults(w, r, app, policy.CanView)
		if !ok {
			return
		}

		if max := app.ExportMaxCells; max > 0 {
			cells := len(survey.Responses) * (4 + len(survey.Questions))
			if cells > max {
				httpx.LogStatusMsg(w, http.StatusRequestEntityTooLarge, log.WarnLevel,
					"export.too_large", "export of %d cells exceeds the configured limit", cells)
				return
			}
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}

		switch format {
		case "csv":
			body, err := results.ExportCSV(survey)
			if err != nil {
				httpx.LogInternalError(w, "export.csv", err)
				return
			}
			sendAttachment(w, results.BaseFilename(survey)+".csv", results.MimeCSV, body)

		case "excel":
			body, err := results.ExportExcel(survey)
			if err != nil {
				httpx.LogInternalError(w, "export.excel", err)
				return
			}
			sendAttachment(w, results.BaseFilename(survey)+".xlsx", results.MimeExcel, body)

		default:
			render.JSON(w, r, results.ExportJSON(survey))
		}
	}
}

func sendAttachment(w http.ResponseWriter, filename, mimeType string, body []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		log.Debugf("export.write: %s", err)
	}
}

type policyCheck func(ctx context.Context, db *sql.DB, surveyID, userID int) (bool, error)

// authorizeResults runs the view-results gate and, when it passes, loads the
// full survey snapshot (questions + responses + answers) the results engine
// consumes.
func authorizeResults(w http.ResponseWriter, r *http.Request, app app.App, check policyCheck) (*model.Survey, bool) {
	surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return nil, false
	}

	if !requireRole(w, r, app, surveyId, check, "get_results") {
		return nil, false
	}

	survey, err := loadSurvey(r.Context(), app.DB, surveyId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_results.survey", surveyId)
		} else {
			httpx.LogInternalError(w, "db.get_results.survey", err)
		}
		return nil, false
	}

	survey.Responses, err = loadResponses(r.Context(), app.DB, surveyId)
	if err != nil {
		httpx.LogInternalError(w, "db.get_results.responses", err)
		return nil, false
	}

	return survey, true
}

func requireRole(w http.ResponseWriter, r *http.Request, app app.App, surveyId int, check policyCheck, code string) bool {
	userId, ok := middlewares.UserID(r)
	if !ok {
		httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, code+".claims")
		return false
	}

	allowed, err := check(r.Context(), app.DB, surveyId, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, code+".survey", surveyId)
		} else {
			httpx.LogInternalError(w, "db."+code+".authorize", err)
		}
		return false
	}
	if !allowed {
		httpx.LogForbidden(w, code+".forbidden")
		return false
	}
	return true
}
