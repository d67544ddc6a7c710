//go:build integration

package integration_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiofoundry/intake/internal/api"
	"github.com/studiofoundry/intake/internal/catalog"
	"github.com/studiofoundry/intake/internal/db"
	"github.com/studiofoundry/intake/internal/middleware"
	"github.com/studiofoundry/intake/internal/relay"
	"github.com/studiofoundry/intake/internal/services"
)

// startServer stands up the whole stack against a real sqlite file: relay
// endpoint stubbed, everything else as in production.
func startServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(relaySrv.Close)

	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.Join(t.TempDir(), "intake.db"))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteDB.Close() })
	require.NoError(t, db.RunMigrations(sqliteDB, ""))

	store, err := db.NewSQLiteStore(sqliteDB, zerolog.Nop())
	require.NoError(t, err)

	cat, err := catalog.Load()
	require.NoError(t, err)

	session := middleware.NewSessionAuth("integration-secret", false)
	auth := services.NewAuthService(store, session.SignToken)
	require.NoError(t, auth.SeedOperator("admin@example.test", "hunter22"))

	forms := services.NewFormService(store, "http://intake.test", 240*time.Hour, zerolog.Nop())
	mailer := relay.New(relaySrv.URL, "integration-key", zerolog.Nop())
	subs := services.NewSubmissionService(store, mailer, zerolog.Nop())

	mux := http.NewServeMux()
	api.NewRouter(cat, session, auth, forms, subs, zerolog.Nop()).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestOperatorAndRecipientJourney(t *testing.T) {
	srv, client := startServer(t)
	base := srv.URL

	// Operator logs in; the session lands in the cookie jar.
	resp := doJSON(t, client, http.MethodPost, base+"/api/auth/login",
		map[string]string{"email": "admin@example.test", "password": "hunter22"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var check struct {
		Authenticated bool `json:"authenticated"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/auth/check", nil, &check)
	require.True(t, check.Authenticated)

	// Compose a form out of the catalog.
	var saved struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		URL     string `json:"url"`
	}
	resp = doJSON(t, client, http.MethodPost, base+"/api/forms/store", map[string]any{
		"title":               "New Client Kickoff",
		"selectedQuestionIds": []string{"biz-name", "brand-logo", "goal-budget"},
	}, &saved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, saved.Success)
	require.Len(t, saved.ID, 8)

	// A recipient (no cookie) walks the funnel.
	anon := &http.Client{Timeout: 5 * time.Second}
	var started struct {
		SessionID string `json:"sessionId"`
		Title     string `json:"title"`
	}
	resp = doJSON(t, anon, http.MethodPost, base+"/api/funnel/start",
		map[string]string{"formId": saved.ID}, &started)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, "New Client Kickoff", started.Title)

	answers := []map[string]string{
		{"sessionId": started.SessionID, "value": "Acme Studio"},
		{"sessionId": started.SessionID, "value": "Yes, but it needs refreshing"},
		{"sessionId": started.SessionID, "value": "$2,500 – $5,000"},
	}
	for _, a := range answers {
		resp = doJSON(t, anon, http.MethodPost, base+"/api/funnel/answer", a, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var submitted struct {
		SubmissionID string `json:"submissionId"`
	}
	resp = doJSON(t, anon, http.MethodPost, base+"/api/funnel/submit", map[string]any{
		"sessionId": started.SessionID,
		"contact":   map[string]string{"name": "Ada", "email": "ada@example.test"},
	}, &submitted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, submitted.SubmissionID)

	// The operator reads the submission back from sqlite.
	var listed struct {
		Count       int `json:"count"`
		Submissions []struct {
			Name    string            `json:"name"`
			Answers map[string]string `json:"answers"`
		} `json:"submissions"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/forms/submissions?formId="+saved.ID, nil, &listed)
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, "Ada", listed.Submissions[0].Name)
	assert.Equal(t, "Acme Studio", listed.Submissions[0].Answers["biz-name"])

	// Deleting the form cascades to its submissions.
	var deleted struct {
		SubmissionsDeleted int `json:"submissionsDeleted"`
	}
	resp = doJSON(t, client, http.MethodDelete, base+"/api/forms/store?id="+saved.ID, nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, deleted.SubmissionsDeleted)

	resp = doJSON(t, anon, http.MethodGet, base+"/api/forms/store?id="+saved.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSQLiteStoreRoundTrips(t *testing.T) {
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "store.db"))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteDB.Close() })
	require.NoError(t, db.RunMigrations(sqliteDB, ""))

	store, err := db.NewSQLiteStore(sqliteDB, zerolog.Nop())
	require.NoError(t, err)

	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	form := &services.StoredForm{
		ID:    "abcd1234",
		Title: "Round Trip",
		Questions: []services.FormQuestion{
			{ID: "biz-name", Text: "What is the name of your business?", Category: "business", Kind: catalog.ShortAnswer},
		},
		CreatedAt: now,
		ExpiresAt: now.Add(240 * time.Hour),
	}
	require.NoError(t, store.CreateForm(form))
	require.ErrorIs(t, store.CreateForm(form), services.ErrFormExists)

	got, err := store.GetForm("abcd1234")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, form.Title, got.Title)
	assert.Equal(t, form.Questions, got.Questions)
	assert.True(t, form.CreatedAt.Equal(got.CreatedAt))

	sub := &services.Submission{
		ID: "sub000000001", FormID: "abcd1234", Name: "Ada", Email: "ada@example.test",
		Answers: map[string]string{"biz-name": "Acme"}, SubmittedAt: now,
	}
	require.NoError(t, store.InsertSubmission(sub))

	subs, err := store.ListSubmissionsByForm("abcd1234", 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Acme", subs[0].Answers["biz-name"])

	dl := &services.DeadLetter{ID: "dl1", FormID: "abcd1234", Payload: "{}", Reason: "disk full", CreatedAt: now}
	require.NoError(t, store.InsertDeadLetter(dl))
	fetched, err := store.GetDeadLetter("dl1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "disk full", fetched.Reason)

	okDel, err := store.DeleteDeadLetter("dl1")
	require.NoError(t, err)
	assert.True(t, okDel)

	n, err := store.DeleteSubmissionsByForm("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	okDel, err = store.DeleteForm("abcd1234")
	require.NoError(t, err)
	assert.True(t, okDel)
}
