package routes

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/mkowal/ankieta/model"
)

func TestPublicGetSurveyBySlug(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")
	surveyID := seedSurvey(t, app.DB, owner, "Lunch", "lunch")
	seedQuestion(t, app.DB, surveyID, model.SingleChoice, "Cuisine", []string{"Pizza", "Sushi"}, 0)

	resp := httptest.NewRecorder()
	PublicGetSurveyBySlug(app)(resp, request("GET", "/", "", 0, map[string]string{"slug": "lunch"}))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var survey struct {
		Title     string `json:"title"`
		Questions []struct {
			Text    string   `json:"text"`
			Options []string `json:"options"`
		} `json:"questions"`
	}
	decodeBody(t, resp, &survey)

	if survey.Title != "Lunch" || len(survey.Questions) != 1 {
		t.Errorf("survey = %+v", survey)
	}
	if len(survey.Questions) == 1 && len(survey.Questions[0].Options) != 2 {
		t.Errorf("options = %v", survey.Questions[0].Options)
	}
}

func TestPublicGetSurveyDraftHidden(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")

	var surveyID int
	err := app.QueryRow(`
		INSERT INTO survey (owner_id, title, slug, status, is_public)
		VALUES (?, 'Draft', 'draft-slug', 'draft', 0)
		RETURNING id`,
		owner,
	).Scan(&surveyID)
	if err != nil {
		t.Fatalf("seeding draft: %v", err)
	}

	resp := httptest.NewRecorder()
	PublicGetSurveyBySlug(app)(resp, request("GET", "/", "", 0, map[string]string{"slug": "draft-slug"}))

	if resp.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for draft survey", resp.Code)
	}
}

func TestPublicSubmitResponse(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")
	surveyID := seedSurvey(t, app.DB, owner, "Lunch", "lunch")
	choiceID := seedQuestion(t, app.DB, surveyID, model.MultiChoice, "Days", []string{"Mon", "Tue"}, 0)
	textID := seedQuestion(t, app.DB, surveyID, model.ShortText, "Why", nil, 1)

	body := `{
		"respondent_name": "Ala",
		"answers": [
			{"question_id": ` + strconv.Itoa(choiceID) + `, "value": ["Mon", "Tue"]},
			{"question_id": ` + strconv.Itoa(textID) + `, "value": "team building"}
		]
	}`

	resp := httptest.NewRecorder()
	PublicSubmitResponse(app)(resp, request("POST", "/", body, 0, map[string]string{"slug": "lunch"}))

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var out struct {
		ResponseID int `json:"response_id"`
	}
	decodeBody(t, resp, &out)
	if out.ResponseID == 0 {
		t.Fatal("no response_id returned")
	}

	// all answers landed with the response
	var answerCount int
	err := app.QueryRow(
		"SELECT COUNT(*) FROM answer WHERE response_id = ?", out.ResponseID,
	).Scan(&answerCount)
	if err != nil {
		t.Fatalf("counting answers: %v", err)
	}
	if answerCount != 2 {
		t.Errorf("got %d answers, want 2", answerCount)
	}

	// and the aggregate sees the new response immediately
	results := httptest.NewRecorder()
	GetResults(app)(results, request("GET", "/", "", owner, map[string]string{"id": strconv.Itoa(surveyID)}))
	var r struct {
		TotalResponses int `json:"total_responses"`
	}
	decodeBody(t, results, &r)
	if r.TotalResponses != 1 {
		t.Errorf("total_responses = %d, want 1", r.TotalResponses)
	}
}

func TestPublicSubmitValidation(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")
	surveyID := seedSurvey(t, app.DB, owner, "Lunch", "lunch")
	_, err := app.Exec("UPDATE survey SET require_name = 1 WHERE id = ?", surveyID)
	if err != nil {
		t.Fatalf("updating survey: %v", err)
	}
	requiredID := seedQuestion(t, app.DB, surveyID, model.ShortText, "Required one", nil, 0)
	_, err = app.Exec("UPDATE question SET required = 1 WHERE id = ?", requiredID)
	if err != nil {
		t.Fatalf("updating question: %v", err)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			"missing respondent name",
			`{"answers": [{"question_id": ` + strconv.Itoa(requiredID) + `, "value": "x"}]}`,
			http.StatusUnprocessableEntity,
		},
		{
			"missing required answer",
			`{"respondent_name": "Ala", "answers": []}`,
			http.StatusUnprocessableEntity,
		},
		{
			"unknown question id",
			`{"respondent_name": "Ala", "answers": [{"question_id": 9999, "value": "x"}]}`,
			http.StatusUnprocessableEntity,
		},
		{
			"valid submission",
			`{"respondent_name": "Ala", "answers": [{"question_id": ` + strconv.Itoa(requiredID) + `, "value": "x"}]}`,
			http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			PublicSubmitResponse(app)(resp, request("POST", "/", tt.body, 0, map[string]string{"slug": "lunch"}))
			if resp.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", resp.Code, tt.wantStatus, resp.Body.String())
			}
		})
	}
}

func TestPublicSubmitClosedSurvey(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")
	surveyID := seedSurvey(t, app.DB, owner, "Lunch", "lunch")
	_, err := app.Exec("UPDATE survey SET is_accepting_responses = 0 WHERE id = ?", surveyID)
	if err != nil {
		t.Fatalf("updating survey: %v", err)
	}

	resp := httptest.NewRecorder()
	PublicSubmitResponse(app)(resp, request("POST", "/", `{"answers":[]}`, 0, map[string]string{"slug": "lunch"}))

	if resp.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for closed survey", resp.Code)
	}
}
