package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mkowal/ankieta/model"
)

const surveyColumns = `
	s.id, s.owner_id, s.title, s.description, s.slug, s.status,
	s.is_public, s.is_accepting_responses, s.require_name, s.require_email,
	s.access_password, s.opens_at, s.closes_at, s.created_at, s.updated_at`

func scanSurvey(row *sql.Row) (*model.Survey, error) {
	s := model.Survey{}
	var slug sql.NullString
	var opensAt, closesAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Title, &s.Description, &slug, &s.Status,
		&s.IsPublic, &s.IsAcceptingResponses, &s.RequireName, &s.RequireEmail,
		&s.AccessPassword, &opensAt, &closesAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Slug = slug.String
	if opensAt.Valid {
		s.OpensAt = &opensAt.Time
	}
	if closesAt.Valid {
		s.ClosesAt = &closesAt.Time
	}
	return &s, nil
}

// loadSurvey fetches a survey and its questions in position order.
// Returns sql.ErrNoRows when the survey does not exist.
func loadSurvey(ctx context.Context, db *sql.DB, surveyID int) (*model.Survey, error) {
	survey, err := scanSurvey(db.QueryRowContext(ctx, `
		SELECT`+surveyColumns+`
		FROM survey s
		WHERE s.id = ?`,
		surveyID,
	))
	if err != nil {
		return nil, err
	}

	survey.Questions, err = loadQuestions(ctx, db, surveyID)
	if err != nil {
		return nil, err
	}
	return survey, nil
}

// loadPublishedSurvey fetches a published, public survey by slug.
func loadPublishedSurvey(ctx context.Context, db *sql.DB, slug string) (*model.Survey, error) {
	survey, err := scanSurvey(db.QueryRowContext(ctx, `
		SELECT`+surveyColumns+`
		FROM survey s
		WHERE s.slug = ?
			AND s.status = 'published'
			AND s.is_public = 1`,
		slug,
	))
	if err != nil {
		return nil, err
	}

	survey.Questions, err = loadQuestions(ctx, db, survey.ID)
	if err != nil {
		return nil, err
	}
	return survey, nil
}

func loadQuestions(ctx context.Context, db *sql.DB, surveyID int) ([]model.Question, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, survey_id, type, text, description, banner_image,
			options, required, correct_answer, position
		FROM question
		WHERE survey_id = ?
		ORDER BY position, id`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		var opts sql.NullString
		err = rows.Scan(
			&q.ID, &q.SurveyID, &q.Type, &q.Text, &q.Description, &q.BannerImage,
			&opts, &q.Required, &q.CorrectAnswer, &q.Position,
		)
		if err != nil {
			return nil, err
		}

		if opts.String != "" {
			// tolerate malformed stored options rather than failing the survey
			_ = json.Unmarshal([]byte(opts.String), &q.Options)
		}

		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// loadResponses fetches a survey's responses most-recent-first, each with its
// answers. Answer values decode defensively: any stored shape is accepted.
func loadResponses(ctx context.Context, db *sql.DB, surveyID int) ([]model.Response, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, survey_id, respondent_name, respondent_email, created_at
		FROM response
		WHERE survey_id = ?
		ORDER BY created_at DESC, id DESC`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	index := map[int]int{}
	for rows.Next() {
		r := model.Response{}
		err = rows.Scan(&r.ID, &r.SurveyID, &r.RespondentName, &r.RespondentEmail, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		index[r.ID] = len(responses)
		responses = append(responses, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	answerRows, err := db.QueryContext(ctx, `
		SELECT a.id, a.response_id, a.question_id, a.value
		FROM answer a
		INNER JOIN response r ON (r.id = a.response_id)
		WHERE r.survey_id = ?
		ORDER BY a.id`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer answerRows.Close()

	for answerRows.Next() {
		a := model.Answer{}
		var value sql.NullString
		err = answerRows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &value)
		if err != nil {
			return nil, err
		}
		if value.Valid {
			// UnmarshalJSON never fails: unrecognized shapes coerce to text
			_ = a.Value.UnmarshalJSON([]byte(value.String))
		}

		if i, ok := index[a.ResponseID]; ok {
			responses[i].Answers = append(responses[i].Answers, a)
		}
	}
	return responses, answerRows.Err()
}
