package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/config"
	"github.com/Loquest/Mentl2/internal/notify"
	"github.com/Loquest/Mentl2/internal/service"
	"github.com/Loquest/Mentl2/internal/storage"
	"github.com/Loquest/Mentl2/internal/triage"
)

const devToken = "MOCK-TOKEN"

type stubLLM struct {
	reply string
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

type envelope struct {
	Data  json.RawMessage    `json:"data"`
	Meta  map[string]any     `json:"meta"`
	Error *internal.AppError `json:"error"`
}

func newTestRouter(t *testing.T, llm service.Completer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := internal.NewNopLogger()

	repos, err := storage.NewFileRepositories(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close(context.Background()) })

	cfg := &config.Config{Env: "development", CORSOrigins: "*", VAPIDPublicKey: "test-vapid-key"}
	jwtProvider, err := auth.NewJWTProvider("test-secret", time.Hour, repos.Users, logger)
	require.NoError(t, err)

	analyticsSvc := service.NewAnalyticsService(repos.MoodLogs, 1000)
	notifySvc := service.NewNotificationService(repos.Users, repos.Notifications, logger)
	dispatcher := alert.NewDispatcher(repos.Caregivers, notifySvc, repos.Notifications, notify.NewLogEmailSender(logger), nil, 2, logger)
	contentSvc := service.NewContentService(repos.Content, logger)
	library, err := service.LoadLibrary("")
	require.NoError(t, err)
	require.NoError(t, contentSvc.Seed(context.Background(), library))

	app := &Application{
		Log:          logger,
		Cfg:          cfg,
		Provider:     auth.NewLocalAuthProvider(devToken, repos.Users, jwtProvider, logger),
		Repos:        repos,
		AuthSvc:      service.NewAuthService(repos.Users, jwtProvider, logger),
		AnalyticsSvc: analyticsSvc,
		ChatSvc:      service.NewChatService(repos.MoodLogs, repos.Chats, triage.NewClassifier(triage.DefaultTiers()), dispatcher, llm, logger),
		CaregiverSvc: service.NewCaregiverService(repos.Users, repos.Caregivers, repos.Notifications, repos.MoodLogs, analyticsSvc, logger),
		NotifySvc:    notifySvc,
		DietarySvc:   service.NewDietaryService(repos.Users, repos.MoodLogs, llm, logger),
		ContentSvc:   contentSvc,
	}
	return NewRouter(app)
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), w.Body.String())
	}
	return env
}

func register(t *testing.T, r *gin.Engine, email, name string) (string, *internal.User) {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": "correct-horse", "name": name, "conditions": []string{"adhd"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tok service.TokenResponse
	decode(t, w, &tok)
	return tok.AccessToken, tok.User
}

func today(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format(service.DateLayout)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := call(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/mood-logs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, path := range []string{"/api/auth/me", "/api/mood-logs", "/api/caregivers", "/api/notifications"} {
		w := call(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		env := decode(t, w, nil)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, "unauthorized", env.Error.Code)
	}
	w := call(t, r, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	token, user := register(t, r, "Ana@Example.com", "Ana")
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotContains(t, call(t, r, http.MethodGet, "/api/auth/me", token, nil).Body.String(), "password")

	w := call(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "ana@example.com", "password": "another-pass", "name": "Ana 2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ana@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var tok service.TokenResponse
	decode(t, w, &tok)
	assert.Equal(t, "bearer", tok.TokenType)

	w = call(t, r, http.MethodPut, "/api/auth/profile", tok.AccessToken, map[string]any{"name": "Ana Maria"})
	require.Equal(t, http.StatusOK, w.Code)
	var me internal.User
	decode(t, call(t, r, http.MethodGet, "/api/auth/me", tok.AccessToken, nil), &me)
	assert.Equal(t, "Ana Maria", me.Name)

	w = call(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "bad", "password": "short", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoodLogCRUD(t *testing.T) {
	r := newTestRouter(t, nil)
	body := map[string]any{
		"date":             today(0),
		"mood_rating":      6,
		"symptoms":         map[string]any{"anxiety": true, "irritability": 3},
		"medication_taken": true,
		"sleep_hours":      7.5,
	}

	w := call(t, r, http.MethodPost, "/api/mood-logs", devToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created internal.MoodLog
	decode(t, w, &created)
	assert.Equal(t, 6, created.MoodRating)

	w = call(t, r, http.MethodPost, "/api/mood-logs", devToken, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodPost, "/api/mood-logs", devToken, map[string]any{"date": today(-1), "mood_rating": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = call(t, r, http.MethodPost, "/api/mood-logs", devToken, map[string]any{"date": "yesterday", "mood_rating": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var list struct {
		MoodLogs []internal.MoodLog `json:"mood_logs"`
	}
	env := decode(t, call(t, r, http.MethodGet, "/api/mood-logs", devToken, nil), &list)
	require.Len(t, list.MoodLogs, 1)
	assert.EqualValues(t, 1, env.Meta["count"])

	w = call(t, r, http.MethodPut, "/api/mood-logs/"+created.ID, devToken, map[string]any{"mood_rating": 8, "notes": "better"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated internal.MoodLog
	decode(t, w, &updated)
	assert.Equal(t, 8, updated.MoodRating)
	assert.Equal(t, "better", updated.Notes)
	assert.Equal(t, created.Date, updated.Date)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/api/mood-logs/"+created.ID, devToken, nil).Code)
	w = call(t, r, http.MethodGet, "/api/mood-logs/"+created.ID, devToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w, nil).Error.Code)
}

func TestMoodLogsAreScopedToOwner(t *testing.T) {
	r := newTestRouter(t, nil)
	w := call(t, r, http.MethodPost, "/api/mood-logs", devToken, map[string]any{"date": today(0), "mood_rating": 5})
	require.Equal(t, http.StatusCreated, w.Code)
	var created internal.MoodLog
	decode(t, w, &created)

	other, _ := register(t, r, "other@example.com", "Other")
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, "/api/mood-logs/"+created.ID, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodDelete, "/api/mood-logs/"+created.ID, other, nil).Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	var empty struct {
		TotalLogs int      `json:"total_logs"`
		Insights  []string `json:"insights"`
	}
	decode(t, call(t, r, http.MethodGet, "/api/mood-logs/analytics/summary", devToken, nil), &empty)
	assert.Equal(t, 0, empty.TotalLogs)
	assert.Equal(t, []string{"Start logging your mood to see insights!"}, empty.Insights)

	for i, rating := range []int{3, 4, 7, 8} {
		w := call(t, r, http.MethodPost, "/api/mood-logs", devToken, map[string]any{"date": today(-3 + i), "mood_rating": rating})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var summary struct {
		AverageMood float64 `json:"average_mood"`
		TotalLogs   int     `json:"total_logs"`
		MoodTrend   string  `json:"mood_trend"`
	}
	w := call(t, r, http.MethodGet, "/api/mood-logs/analytics/summary?days=7", devToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &summary)
	assert.Equal(t, 4, summary.TotalLogs)
	assert.InDelta(t, 5.5, summary.AverageMood, 0.001)
	assert.Equal(t, "improving", summary.MoodTrend)

	w = call(t, r, http.MethodGet, "/api/mood-logs/analytics/advanced?days=30", devToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "mood_distribution")

	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodGet, "/api/mood-logs/analytics/summary?days=abc", devToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodGet, "/api/mood-logs/analytics/summary?days=400", devToken, nil).Code)
}

func TestChat(t *testing.T) {
	r := newTestRouter(t, &stubLLM{reply: "Let's take a slow breath together."})

	var resp service.ChatResponse
	w := call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "I had a long day"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.Equal(t, "Let's take a slow breath together.", resp.Response)
	assert.False(t, resp.CrisisDetected)

	w = call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "I feel so overwhelmed"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, triage.SeverityModerate, resp.CrisisLevel)
	assert.Contains(t, resp.Response, "988")

	var history struct {
		Messages []internal.ChatMessage `json:"messages"`
	}
	decode(t, call(t, r, http.MethodGet, "/api/chat/history?limit=3", devToken, nil), &history)
	assert.Len(t, history.Messages, 3)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/api/chat/history", devToken, nil).Code)
	decode(t, call(t, r, http.MethodGet, "/api/chat/history", devToken, nil), &history)
	assert.Empty(t, history.Messages)

	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "  "}).Code)
}

func TestChatWithoutModel(t *testing.T) {
	r := newTestRouter(t, nil)

	w := call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode(t, w, nil).Error.Code)

	var resp service.ChatResponse
	w = call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "I want to end it all"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, triage.SeverityCritical, resp.CrisisLevel)
	assert.Contains(t, resp.Response, "988")
}

func TestChatLongCrisisMessageStillAlerts(t *testing.T) {
	r := newTestRouter(t, &stubLLM{reply: "I'm here with you."})
	carol, _ := register(t, r, "carol@example.com", "Carol")

	w := call(t, r, http.MethodPost, "/api/caregivers/invite", devToken, map[string]any{"caregiver_email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv internal.CaregiverInvitation
	decode(t, w, &inv)
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, "/api/caregivers/invitations/"+inv.ID+"/accept", carol, nil).Code)

	long := strings.Repeat("I have been thinking a lot today. ", 120) + "I want to kill myself."
	require.Greater(t, len(long), service.MaxMessageLength)

	var resp service.ChatResponse
	w = call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": long})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.Equal(t, triage.SeverityCritical, resp.CrisisLevel)
	assert.Equal(t, 1, resp.CaregiversNotified)

	var inbox service.NotificationList
	decode(t, call(t, r, http.MethodGet, "/api/notifications?unread_only=true", carol, nil), &inbox)
	alerts := 0
	for _, n := range inbox.Notifications {
		if n.Type == internal.NotificationCrisisAlert {
			alerts++
		}
	}
	assert.Equal(t, 1, alerts)
}

func TestCaregiverFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	var patient internal.User
	decode(t, call(t, r, http.MethodGet, "/api/auth/me", devToken, nil), &patient)
	carol, _ := register(t, r, "carol@example.com", "Carol")

	w := call(t, r, http.MethodPost, "/api/caregivers/invite", devToken, map[string]any{"caregiver_email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, call(t, r, http.MethodPost, "/api/caregivers/invite", devToken, map[string]any{"caregiver_email": "carol@example.com"}).Code)

	var received struct {
		Invitations []internal.CaregiverInvitation `json:"invitations"`
	}
	decode(t, call(t, r, http.MethodGet, "/api/caregivers/invitations/received", carol, nil), &received)
	require.Len(t, received.Invitations, 1)
	assert.Equal(t, patient.ID, received.Invitations[0].PatientID)

	w = call(t, r, http.MethodPost, "/api/caregivers/invitations/"+received.Invitations[0].ID+"/accept", carol, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rel internal.CaregiverRelationship
	decode(t, w, &rel)
	assert.True(t, rel.Permissions.ViewMoodLogs)

	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/mood-logs", devToken, map[string]any{"date": today(0), "mood_rating": 2}).Code)

	var logs service.PatientMoodLogs
	w = call(t, r, http.MethodGet, "/api/caregivers/patients/"+patient.ID+"/mood-logs", carol, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &logs)
	assert.Len(t, logs.MoodLogs, 1)

	var view service.PatientAnalytics
	w = call(t, r, http.MethodGet, "/api/caregivers/patients/"+patient.ID+"/analytics", carol, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	require.NotEmpty(t, view.RecentConcerns)
	assert.Equal(t, service.ConcernHigh, view.RecentConcerns[0].Severity)

	w = call(t, r, http.MethodPut, "/api/caregivers/"+rel.ID+"/permissions", devToken, map[string]any{
		"view_mood_logs": false, "view_analytics": true, "receive_alerts": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusForbidden, call(t, r, http.MethodGet, "/api/caregivers/patients/"+patient.ID+"/mood-logs", carol, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, r, http.MethodPut, "/api/caregivers/"+rel.ID+"/permissions", carol, map[string]any{"view_mood_logs": true}).Code)

	var resp service.ChatResponse
	decode(t, call(t, r, http.MethodPost, "/api/chat", devToken, map[string]any{"message": "I want to end it all"}), &resp)
	assert.Equal(t, 1, resp.CaregiversNotified)

	var inbox service.NotificationList
	decode(t, call(t, r, http.MethodGet, "/api/notifications?unread_only=true", carol, nil), &inbox)
	types := make([]string, 0, len(inbox.Notifications))
	for _, n := range inbox.Notifications {
		types = append(types, n.Type)
	}
	assert.Contains(t, types, internal.NotificationCrisisAlert)
	assert.Equal(t, len(inbox.Notifications), inbox.UnreadCount)

	require.Equal(t, http.StatusOK, call(t, r, http.MethodPut, "/api/notifications/read-all", carol, nil).Code)
	decode(t, call(t, r, http.MethodGet, "/api/notifications?unread_only=true", carol, nil), &inbox)
	assert.Empty(t, inbox.Notifications)

	var patients struct {
		Patients []internal.CaregiverRelationship `json:"patients"`
	}
	decode(t, call(t, r, http.MethodGet, "/api/caregivers/patients", carol, nil), &patients)
	require.Len(t, patients.Patients, 1)

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodDelete, "/api/caregivers/"+rel.ID, carol, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, r, http.MethodGet, "/api/caregivers/patients/"+patient.ID+"/analytics", carol, nil).Code)
}

func TestNotificationPreferencesAndPush(t *testing.T) {
	r := newTestRouter(t, nil)

	w := call(t, r, http.MethodGet, "/api/push/vapid-public-key", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-vapid-key")

	w = call(t, r, http.MethodPut, "/api/notifications/preferences", devToken, map[string]any{"email_crisis_alerts": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var prefs internal.NotificationPreferences
	decode(t, call(t, r, http.MethodGet, "/api/notifications/preferences", devToken, nil), &prefs)
	require.NotNil(t, prefs.EmailCrisisAlerts)
	assert.False(t, *prefs.EmailCrisisAlerts)
	assert.True(t, prefs.AllowsPushCrisis())

	sub := map[string]any{
		"endpoint": "https://push.example.com/sub/1",
		"keys":     map[string]any{"p256dh": "key", "auth": "secret"},
	}
	assert.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/api/push/subscribe", devToken, sub).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPost, "/api/push/subscribe", devToken, map[string]any{"endpoint": "nope"}).Code)

	unsub := map[string]any{"endpoint": "https://push.example.com/sub/1"}
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodPost, "/api/push/unsubscribe", devToken, unsub).Code)
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodDelete, "/api/push/unsubscribe", devToken, unsub).Code)
}

func TestDietaryEndpoints(t *testing.T) {
	r := newTestRouter(t, nil)

	var view service.DietaryPreferencesView
	decode(t, call(t, r, http.MethodGet, "/api/users/me/dietary-preferences", devToken, nil), &view)
	assert.False(t, view.IsConfigured)

	w := call(t, r, http.MethodPut, "/api/users/me/dietary-preferences", devToken, map[string]any{
		"diet_type": "vegetarian", "allergies": []string{"peanuts"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.True(t, view.IsConfigured)

	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodPut, "/api/users/me/dietary-preferences", devToken, map[string]any{"diet_type": "carnivore"}).Code)

	var sg service.SuggestionResponse
	w = call(t, r, http.MethodPost, "/api/dietary/suggestions", devToken, map[string]any{"suggestion_type": "recipe"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &sg)
	assert.Equal(t, service.SourceFallback, sg.Context.Source)
	assert.Equal(t, "recipe", sg.Suggestion.SuggestionType)
	assert.True(t, sg.Context.PreferencesApplied)
}

func TestContentLibrary(t *testing.T) {
	r := newTestRouter(t, nil)

	var list struct {
		Content []internal.Content `json:"content"`
	}
	w := call(t, r, http.MethodGet, "/api/content", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w, &list)
	assert.Len(t, list.Content, service.DefaultContentLimit)
	assert.EqualValues(t, service.DefaultContentLimit, env.Meta["count"])

	decode(t, call(t, r, http.MethodGet, "/api/content?category=adhd&content_type=article&limit=5", "", nil), &list)
	require.Len(t, list.Content, 5)
	for _, c := range list.Content {
		assert.Equal(t, "adhd", c.Category)
	}

	decode(t, call(t, r, http.MethodGet, "/api/content?search=hotlines", "", nil), &list)
	require.Len(t, list.Content, 1)
	assert.Equal(t, "51", list.Content[0].ID)

	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodGet, "/api/content?content_type=podcast", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, r, http.MethodGet, "/api/content?limit=abc", "", nil).Code)

	var item internal.Content
	w = call(t, r, http.MethodGet, "/api/content/48", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &item)
	assert.Equal(t, "caregivers", item.Category)

	w = call(t, r, http.MethodGet, "/api/content/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w, nil).Error.Code)
}
