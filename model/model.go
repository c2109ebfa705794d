package model

import "time"

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type Survey struct {
	ID                   int        `json:"id,omitempty"`
	OwnerID              int        `json:"owner_id,omitempty"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Slug                 string     `json:"slug,omitempty"`
	Status               string     `json:"status,omitempty"`
	IsPublic             bool       `json:"is_public"`
	IsAcceptingResponses bool       `json:"is_accepting_responses"`
	RequireName          bool       `json:"require_name"`
	RequireEmail         bool       `json:"require_email"`
	AccessPassword       string     `json:"-"`
	OpensAt              *time.Time `json:"opens_at,omitempty"`
	ClosesAt             *time.Time `json:"closes_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at,omitempty"`
	UpdatedAt            time.Time  `json:"updated_at,omitempty"`

	Questions []Question `json:"questions,omitempty"`
	Responses []Response `json:"-"`

	// Role of the requesting user, filled in by survey listings.
	UserRole string `json:"user_role,omitempty"`
}

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Question struct {
	ID            int          `json:"id,omitempty"`
	SurveyID      int          `json:"survey_id,omitempty"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Description   string       `json:"description,omitempty"`
	BannerImage   string       `json:"banner_image,omitempty"`
	Options       []string     `json:"options,omitempty"`
	Required      bool         `json:"required"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Position      int          `json:"position"`
}

type Response struct {
	ID              int       `json:"id"`
	SurveyID        int       `json:"survey_id,omitempty"`
	RespondentName  string    `json:"respondent_name"`
	RespondentEmail string    `json:"respondent_email"`
	CreatedAt       time.Time `json:"submitted_at"`
	Answers         []Answer  `json:"answers,omitempty"`
}

type Answer struct {
	ID         int         `json:"id,omitempty"`
	ResponseID int         `json:"response_id,omitempty"`
	QuestionID int         `json:"question_id"`
	Value      AnswerValue `json:"value"`
}

// AnswerFor returns the response's answer to the given question. A response
// need not hold an answer for every question, so lookup is by question id.
func (r Response) AnswerFor(questionID int) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

type Collaborator struct {
	SurveyID int    `json:"survey_id"`
	UserID   int    `json:"user_id"`
	Role     string `json:"role"`
}

const (
	RoleEditor = "editor"
	RoleViewer = "viewer"
)
