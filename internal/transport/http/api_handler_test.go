package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/domain"
	"phiz-quiz-service/internal/infra/memory"
	"phiz-quiz-service/internal/reminder"
)

type apiFixture struct {
	server   *httptest.Server
	prefs    *memory.PreferencesStore
	progress *memory.ProgressStore
	runner   *reminder.Runner
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		prefs:    memory.NewPreferencesStore(),
		progress: memory.NewProgressStore(),
	}
	clk := clock.NewFake(time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC))
	f.runner = reminder.NewRunner(clk, f.prefs, f.progress, nopNotifier{})

	mux := http.NewServeMux()
	NewAPIHandler(QueryIdentity{}, f.prefs, f.progress, f.runner).Register(mux)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPreferencesEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/preferences?userId=u1", "")
	var prefs domain.NotificationPreferences
	if err := json.NewDecoder(resp.Body).Decode(&prefs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !prefs.StudyReminders || prefs.ReminderHour != 18 {
		t.Fatalf("expected defaults, got %d %+v", resp.StatusCode, prefs)
	}

	prefs.WeeklyProgress = false
	prefs.ReminderHour = 7
	body, _ := json.Marshal(prefs)
	resp = f.do(t, http.MethodPut, "/preferences?userId=u1", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	planned := f.runner.Planned("u1")
	if _, ok := planned[reminder.JobWeeklyProgress]; ok {
		t.Fatalf("weekly report still planned")
	}
	if at := planned[reminder.JobStudyReminder]; at.Hour() != 7 {
		t.Fatalf("study reminder not moved to 07:00: %v", at)
	}

	resp = f.do(t, http.MethodPut, "/preferences?userId=u1", `{"reminderHour": 25}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp = f.do(t, http.MethodGet, "/preferences", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGradesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	_, _ = f.progress.CommitResult(context.Background(), domain.QuizResult{ID: "r1", UserID: "u1", Score: 160, TotalQuestions: 5, CorrectAnswers: 5})

	resp := f.do(t, http.MethodGet, "/grades?userId=u1", "")
	var got gradesResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Progress.TotalScore != 160 || len(got.Results) != 1 || got.Results[0].ID != "r1" {
		t.Fatalf("unexpected grades %+v", got)
	}
}

func TestRemindersEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	_ = f.runner.Schedule(context.Background(), "u1")

	resp := f.do(t, http.MethodGet, "/reminders?userId=u1", "")
	var got map[string]time.Time
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 || got[string(reminder.JobWeeklyProgress)].Weekday() != time.Sunday {
		t.Fatalf("unexpected reminders %+v", got)
	}
}

func TestJWTIdentity(t *testing.T) {
	identity := NewJWTIdentity("s3cret", "phiz")
	token, err := identity.Issue("student-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if userID, err := identity.Identify(req); err != nil || userID != "student-1" {
		t.Fatalf("unexpected identity %q err=%v", userID, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	if userID, err := identity.Identify(req); err != nil || userID != "student-1" {
		t.Fatalf("unexpected identity from query %q err=%v", userID, err)
	}

	other, _ := NewJWTIdentity("other", "phiz").Issue("student-1", time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+other, nil)
	if _, err := identity.Identify(req); err == nil {
		t.Fatalf("expected signature failure")
	}

	expired, _ := identity.Issue("student-1", -time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+expired, nil)
	if _, err := identity.Identify(req); err == nil {
		t.Fatalf("expected expiry failure")
	}

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "student-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+unsigned, nil)
	if _, err := identity.Identify(req); err == nil {
		t.Fatalf("expected unsigned token rejected")
	}

	if _, err := identity.Identify(httptest.NewRequest(http.MethodGet, "/ws", nil)); err == nil {
		t.Fatalf("expected missing identity")
	}
}

func TestQueryIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?student=s9", nil)
	if userID, err := (QueryIdentity{Param: "student"}).Identify(req); err != nil || userID != "s9" {
		t.Fatalf("unexpected identity %q err=%v", userID, err)
	}
}
