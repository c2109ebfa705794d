// Package results computes aggregated survey statistics and renders response
// data as JSON, CSV or XLSX. All computation is a pure, synchronous pass over
// data already loaded from the database; nothing here touches storage.
package results

import (
	"encoding/json"
	"math"

	"github.com/mkowal/ankieta/model"
)

type SurveyResults struct {
	SurveyID       int              `json:"survey_id"`
	SurveyTitle    string           `json:"survey_title"`
	TotalResponses int              `json:"total_responses"`
	Questions      []QuestionResult `json:"questions"`
}

// QuestionResult holds the aggregate for one question: an ordered option
// tally for choice-based types, the raw value list for everything else.
type QuestionResult struct {
	QuestionID   int
	QuestionText string
	Type         model.QuestionType
	TotalAnswers int
	Options      []OptionCount
	TextAnswers  []model.AnswerValue
}

type OptionCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MarshalJSON emits exactly one of "options"/"text_answers", keyed by the
// question type the aggregate was computed for.
func (qr QuestionResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"question_id":   qr.QuestionID,
		"question_text": qr.QuestionText,
		"type":          qr.Type,
		"total_answers": qr.TotalAnswers,
	}
	if qr.Type.IsChoiceBased() {
		opts := qr.Options
		if opts == nil {
			opts = []OptionCount{}
		}
		out["options"] = opts
	} else {
		texts := qr.TextAnswers
		if texts == nil {
			texts = []model.AnswerValue{}
		}
		out["text_answers"] = texts
	}
	return json.Marshal(out)
}

// Compute aggregates a survey's responses into per-question statistics.
// Questions are processed in survey order; a survey with no questions or no
// responses yields a well-formed empty result.
func Compute(survey *model.Survey) SurveyResults {
	res := SurveyResults{
		SurveyID:       survey.ID,
		SurveyTitle:    survey.Title,
		TotalResponses: len(survey.Responses),
		Questions:      make([]QuestionResult, 0, len(survey.Questions)),
	}

	for _, q := range survey.Questions {
		var answers []model.AnswerValue
		for _, r := range survey.Responses {
			for _, a := range r.Answers {
				if a.QuestionID == q.ID {
					answers = append(answers, a.Value)
				}
			}
		}

		qr := QuestionResult{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Type:         q.Type,
			TotalAnswers: len(answers),
		}

		if q.Type.IsChoiceBased() {
			qr.Options = tallyOptions(q.Options, answers)
		} else {
			qr.TextAnswers = answers
			if qr.TextAnswers == nil {
				qr.TextAnswers = []model.AnswerValue{}
			}
		}

		res.Questions = append(res.Questions, qr)
	}

	return res
}

// tallyOptions counts label occurrences over the collected answers. The
// output preserves the question's option order. List values contribute one
// count per known label they contain (RANKING tallies by occurrence, same as
// MULTI_CHOICE); values not among the options are ignored, so labels edited
// out of a question do not surface as spurious entries.
func tallyOptions(options []string, answers []model.AnswerValue) []OptionCount {
	counts := make(map[string]int, len(options))
	for _, label := range options {
		counts[label] = 0
	}

	for _, v := range answers {
		switch v.Kind() {
		case model.List:
			for _, el := range v.List() {
				if _, known := counts[el]; known {
					counts[el]++
				}
			}
		case model.Text:
			if _, known := counts[v.Text()]; known {
				counts[v.Text()]++
			}
		}
	}

	out := make([]OptionCount, 0, len(options))
	for _, label := range options {
		out = append(out, OptionCount{
			Label:      label,
			Count:      counts[label],
			Percentage: percentage(counts[label], len(answers)),
		})
	}
	return out
}

// percentage rounds half-up to one decimal place; a zero total yields 0
// rather than NaN.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
