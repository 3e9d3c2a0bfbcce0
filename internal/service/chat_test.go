package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/storage"
	"github.com/Loquest/Mentl2/internal/triage"
)

type chatFixture struct {
	repos      *storage.Repositories
	llm        *fakeLLM
	dispatcher *fakeDispatcher
	svc        *ChatService
	user       *internal.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		repos:      newRepos(t),
		llm:        &fakeLLM{reply: "That sounds hard. Let's try a breathing exercise."},
		dispatcher: &fakeDispatcher{report: alert.Report{Edges: 2, Notified: 2}},
	}
	f.user = seedUser(t, f.repos, "p1", "pat@example.com", "Pat")
	f.svc = NewChatService(f.repos.MoodLogs, f.repos.Chats, triage.NewClassifier(triage.DefaultTiers()), f.dispatcher, f.llm, internal.NewNopLogger())
	return f
}

func TestChat_CriticalSkipsModelAndAlerts(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: "I want to end it all"})
	require.NoError(t, err)
	assert.Equal(t, crisisResponse, resp.Response)
	assert.True(t, resp.CrisisDetected)
	assert.Equal(t, triage.SeverityCritical, resp.CrisisLevel)
	assert.Equal(t, 2, resp.CaregiversNotified)
	assert.Equal(t, 0, f.llm.calls)

	require.Len(t, f.dispatcher.alerts, 1)
	a := f.dispatcher.alerts[0]
	assert.Equal(t, "p1", a.PatientID)
	assert.Equal(t, "Pat", a.PatientName)
	assert.Equal(t, triage.SeverityCritical, a.Severity)
	assert.Equal(t, "I want to end it all", a.Excerpt)

	history, err := f.svc.History(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
}

func TestChat_HighAlertsThenRepliesWithFooter(t *testing.T) {
	f := newChatFixture(t)
	resp, err := f.svc.Chat(context.Background(), f.user, &ChatRequest{Message: "I feel so hopeless"})
	require.NoError(t, err)
	assert.Equal(t, triage.SeverityHigh, resp.CrisisLevel)
	assert.Len(t, f.dispatcher.alerts, 1)
	assert.Equal(t, 1, f.llm.calls)
	assert.True(t, strings.HasPrefix(resp.Response, f.llm.reply))
	assert.True(t, strings.HasSuffix(resp.Response, crisisFooter))
}

func TestChat_HighFallsBackToCrisisResponse(t *testing.T) {
	f := newChatFixture(t)
	f.llm.err = errBoom
	resp, err := f.svc.Chat(context.Background(), f.user, &ChatRequest{Message: "I feel worthless"})
	require.NoError(t, err)
	assert.Equal(t, crisisResponse, resp.Response)
}

func TestChat_ModerateAddsResourcesWithoutAlert(t *testing.T) {
	f := newChatFixture(t)
	resp, err := f.svc.Chat(context.Background(), f.user, &ChatRequest{Message: "I've been feeling really anxious and overwhelmed lately"})
	require.NoError(t, err)
	assert.Equal(t, triage.SeverityModerate, resp.CrisisLevel)
	assert.True(t, resp.CrisisDetected)
	assert.Empty(t, f.dispatcher.alerts)
	assert.Equal(t, f.llm.reply+resourcesFooter, resp.Response)
}

func TestChat_NoneUsesMoodContext(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	_, err := CreateMoodLog(ctx, f.repos.MoodLogs, "p1", &MoodLogRequest{Date: "2024-03-01", MoodRating: 4, Notes: strings.Repeat("n", 150)})
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: "had a great day"})
	require.NoError(t, err)
	assert.Equal(t, f.llm.reply, resp.Response)
	assert.False(t, resp.CrisisDetected)
	assert.Equal(t, triage.SeverityNone, resp.CrisisLevel)
	assert.Empty(t, f.dispatcher.alerts)

	system := f.llm.systemText()
	assert.Contains(t, system, "User conditions: bipolar")
	assert.Contains(t, system, "- 2024-03-01: Mood 4/10 - "+strings.Repeat("n", 97)+"...")
}

func TestChat_PriorTurnsAreSentToModel(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	_, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: "hello"})
	require.NoError(t, err)
	_, err = f.svc.Chat(ctx, f.user, &ChatRequest{Message: "how are you"})
	require.NoError(t, err)
	// system + two prior turns + the new message
	assert.Len(t, f.llm.messages, 4)
}

func TestChat_Errors(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, internal.ErrValidation)

	f.llm.err = errBoom
	_, err = f.svc.Chat(ctx, f.user, &ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, errBoom)

	noModel := NewChatService(f.repos.MoodLogs, f.repos.Chats, triage.NewClassifier(triage.DefaultTiers()), f.dispatcher, nil, internal.NewNopLogger())
	_, err = noModel.Chat(ctx, f.user, &ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrLLMUnavailable)

	resp, err := noModel.Chat(ctx, f.user, &ChatRequest{Message: "I am suicidal"})
	require.NoError(t, err, "critical replies never need the model")
	assert.Equal(t, crisisResponse, resp.Response)
}

func TestChat_DispatchFailureDoesNotBlockReply(t *testing.T) {
	f := newChatFixture(t)
	f.dispatcher.err = errBoom
	resp, err := f.svc.Chat(context.Background(), f.user, &ChatRequest{Message: "I want to die"})
	require.NoError(t, err)
	assert.Equal(t, crisisResponse, resp.Response)
	assert.Equal(t, 0, resp.CaregiversNotified)
}

func TestChat_LongCrisisMessageStillAlerts(t *testing.T) {
	f := newChatFixture(t)
	long := strings.Repeat("I have been thinking a lot today. ", 120) + "I want to kill myself."
	require.Greater(t, len(long), MaxMessageLength)

	resp, err := f.svc.Chat(context.Background(), f.user, &ChatRequest{Message: long})
	require.NoError(t, err)
	assert.Equal(t, triage.SeverityCritical, resp.CrisisLevel)
	assert.Equal(t, crisisResponse, resp.Response)

	require.Len(t, f.dispatcher.alerts, 1)
	assert.Equal(t, triage.SeverityCritical, f.dispatcher.alerts[0].Severity)
	assert.LessOrEqual(t, len([]rune(f.dispatcher.alerts[0].Excerpt)), ExcerptLimit)
}

func TestChat_LongMessageIsCutForModelAndHistory(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	long := strings.Repeat("a", MaxMessageLength+500)

	_, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: long})
	require.NoError(t, err)
	require.Empty(t, f.dispatcher.alerts)

	sent := f.llm.messages[len(f.llm.messages)-1].Parts[0].(llms.TextContent).Text
	assert.Len(t, []rune(sent), MaxMessageLength)

	msgs, err := f.svc.History(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Len(t, []rune(msgs[0].Content), MaxMessageLength)
	assert.True(t, strings.HasSuffix(msgs[0].Content, "..."))
}

func TestChat_HistoryLimitAndClear(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		_, err := f.svc.Chat(ctx, f.user, &ChatRequest{Message: "hello"})
		require.NoError(t, err)
	}

	msgs, err := f.svc.History(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, DefaultHistoryLimit)

	msgs, err = f.svc.History(ctx, "p1", 500)
	require.NoError(t, err)
	assert.Len(t, msgs, internal.MaxChatHistory)

	require.NoError(t, f.svc.ClearHistory(ctx, "p1"))
	msgs, err = f.svc.History(ctx, "p1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
