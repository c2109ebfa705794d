package results

import (
	"fmt"

	"github.com/mkowal/ankieta/model"
)

// ExportJSON renders one flat record per response. Unlike the CSV and XLSX
// exports it keeps list-valued answers as real lists, and keys question
// columns as "q_<id>_<text>" instead of the bare question text.
func ExportJSON(survey *model.Survey) []map[string]any {
	rows := make([]map[string]any, 0, len(survey.Responses))

	for _, resp := range survey.Responses {
		row := map[string]any{
			"response_id":      resp.ID,
			"respondent_name":  resp.RespondentName,
			"respondent_email": resp.RespondentEmail,
			"submitted_at":     resp.CreatedAt.Format(timeISO8601),
		}

		for _, q := range survey.Questions {
			key := fmt.Sprintf("q_%d_%s", q.ID, q.Text)
			answer, ok := resp.AnswerFor(q.ID)
			if !ok {
				row[key] = model.AnswerValue{}
				continue
			}
			row[key] = answer.Value
		}

		rows = append(rows, row)
	}

	return rows
}
