package results

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mkowal/ankieta/model"
)

// Exports share one row model: fixed leading columns, then one column per
// question in survey order. The column header is the question text, so two
// questions with identical text produce two identically-named columns; that
// is accepted behavior, kept verbatim.

const listSeparator = "; "

const timeISO8601 = time.RFC3339

const (
	MimeCSV   = "text/csv"
	MimeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeJSON  = "application/json"
)

func headerRow(questions []model.Question) []string {
	headers := []string{"Response ID", "Respondent Name", "Respondent Email", "Submitted At"}
	for _, q := range questions {
		headers = append(headers, q.Text)
	}
	return headers
}

func responseRow(resp model.Response, questions []model.Question) []string {
	row := []string{
		strconv.Itoa(resp.ID),
		resp.RespondentName,
		resp.RespondentEmail,
		resp.CreatedAt.Format(timeISO8601),
	}
	for _, q := range questions {
		answer, ok := resp.AnswerFor(q.ID)
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, answer.Value.Display(listSeparator))
	}
	return row
}

// BaseFilename names export downloads after the survey slug. Draft surveys
// have no slug yet, so fall back to the numeric id.
func BaseFilename(survey *model.Survey) string {
	if survey.Slug != "" {
		return survey.Slug + "-results"
	}
	return fmt.Sprintf("survey-%d-results", survey.ID)
}
