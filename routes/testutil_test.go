package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mkowal/ankieta/app"
	"github.com/mkowal/ankieta/config"
	"github.com/mkowal/ankieta/database"
	"github.com/mkowal/ankieta/model"
)

var testDBSeq atomic.Int64

// setupTestApp opens a fresh shared-cache in-memory database, runs the
// migrations and wraps it in an App.
func setupTestApp(t *testing.T) app.App {
	t.Helper()

	dsn := fmt.Sprintf("file:routes_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return app.App{
		DB:     db,
		Config: config.Config{TokenSecret: "test-secret", TokenTTL: time.Minute},
	}
}

func seedUser(t *testing.T, db *sql.DB, name, email string) int {
	t.Helper()

	var id int
	err := db.QueryRow(`
		INSERT INTO user (name, email, password_hash)
		VALUES (?, ?, 'x')
		RETURNING id`,
		name, email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return id
}

func seedSurvey(t *testing.T, db *sql.DB, ownerID int, title, slug string) int {
	t.Helper()

	var id int
	err := db.QueryRow(`
		INSERT INTO survey (owner_id, title, slug, status, is_public)
		VALUES (?, ?, ?, 'published', 1)
		RETURNING id`,
		ownerID, title, slug,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding survey %s: %v", title, err)
	}
	return id
}

func seedQuestion(t *testing.T, db *sql.DB, surveyID int, qType model.QuestionType, text string, options []string, position int) int {
	t.Helper()

	var opts any
	if options != nil {
		buf, err := json.Marshal(options)
		if err != nil {
			t.Fatalf("encoding options: %v", err)
		}
		opts = string(buf)
	}

	var id int
	err := db.QueryRow(`
		INSERT INTO question (survey_id, type, text, options, position)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		surveyID, qType, text, opts, position,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding question %s: %v", text, err)
	}
	return id
}

// seedResponse inserts a response with answer values given as raw JSON text
// per question id.
func seedResponse(t *testing.T, db *sql.DB, surveyID int, name string, answers map[int]string) int {
	t.Helper()

	var id int
	err := db.QueryRow(`
		INSERT INTO response (survey_id, respondent_name, created_at)
		VALUES (?, ?, ?)
		RETURNING id`,
		surveyID, name, time.Now(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding response: %v", err)
	}

	for questionID, value := range answers {
		_, err = db.Exec(`
			INSERT INTO answer (response_id, question_id, value)
			VALUES (?, ?, ?)`,
			id, questionID, value,
		)
		if err != nil {
			t.Fatalf("seeding answer: %v", err)
		}
	}
	return id
}

// request builds an HTTP request carrying chi URL params and, when userID is
// non-zero, the token claims the auth middleware would have loaded.
func request(method, target string, body string, userID int, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	if userID != 0 {
		ctx = context.WithValue(ctx, oauth.ClaimsContext, map[string]string{
			"user_id": fmt.Sprint(userID),
			"roles":   "user",
		})
	}

	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", resp.Body.String(), err)
	}
}
