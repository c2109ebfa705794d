package model

// QuestionType enumerates the supported question kinds. Choice-based types
// carry a fixed options list and aggregate as tallies; every other type
// collects free-form values.
type QuestionType string

const (
	ShortText    QuestionType = "SHORT_TEXT"
	LongText     QuestionType = "LONG_TEXT"
	SingleChoice QuestionType = "SINGLE_CHOICE"
	MultiChoice  QuestionType = "MULTI_CHOICE"
	Number       QuestionType = "NUMBER"
	File         QuestionType = "FILE"
	Ranking      QuestionType = "RANKING"
	Code         QuestionType = "CODE"
)

func QuestionTypes() []QuestionType {
	return []QuestionType{
		ShortText, LongText, SingleChoice, MultiChoice,
		Number, File, Ranking, Code,
	}
}

func (t QuestionType) Valid() bool {
	switch t {
	case ShortText, LongText, SingleChoice, MultiChoice, Number, File, Ranking, Code:
		return true
	}
	return false
}

// RequiresOptions reports whether questions of this type must carry a
// predefined options list.
func (t QuestionType) RequiresOptions() bool {
	return t == SingleChoice || t == MultiChoice || t == Ranking
}

func (t QuestionType) IsChoiceBased() bool {
	return t.RequiresOptions()
}
