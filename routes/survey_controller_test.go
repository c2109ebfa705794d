package routes

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestRandomSlug(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		slug, err := randomSlug(12)
		if err != nil {
			t.Fatalf("randomSlug: %v", err)
		}
		if len(slug) != 12 {
			t.Fatalf("len(%q) = %d, want 12", slug, len(slug))
		}
		for _, c := range slug {
			if !strings.ContainsRune(slugAlphabet, c) {
				t.Fatalf("slug %q contains %q, not in alphabet", slug, c)
			}
		}
		if seen[slug] {
			t.Fatalf("slug %q drawn twice in 32 tries", slug)
		}
		seen[slug] = true
	}
}

func TestPublishSurveyAssignsSlug(t *testing.T) {
	app := setupTestApp(t)
	owner := seedUser(t, app.DB, "Owner", "owner@example.com")

	var surveyID int
	err := app.QueryRow(`
		INSERT INTO survey (owner_id, title) VALUES (?, 'Draft')
		RETURNING id`, owner).Scan(&surveyID)
	if err != nil {
		t.Fatalf("seeding draft: %v", err)
	}

	resp := httptest.NewRecorder()
	PublishSurvey(app)(resp, request("POST", "/", "", owner, map[string]string{"id": strconv.Itoa(surveyID)}))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Slug   string `json:"slug"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &out)
	if len(out.Slug) != 12 || out.Status != "published" {
		t.Errorf("published as %+v", out)
	}

	// publishing again keeps the assigned slug
	again := httptest.NewRecorder()
	PublishSurvey(app)(again, request("POST", "/", "", owner, map[string]string{"id": strconv.Itoa(surveyID)}))
	var second struct {
		Slug string `json:"slug"`
	}
	decodeBody(t, again, &second)
	if second.Slug != out.Slug {
		t.Errorf("slug changed on republish: %q -> %q", out.Slug, second.Slug)
	}
}
