package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/storage"
	"github.com/Loquest/Mentl2/internal/triage"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	ExcerptLimit        = 200
	MaxMessageLength    = 4000
	contextLogs         = 5
	contextNoteLimit    = 100
	promptHistory       = 10
	DefaultHistoryLimit = 20
)

const systemPrompt = `You are a compassionate mental health companion for people living with bipolar disorder, ADHD, and depression.

- Validate feelings before offering suggestions.
- Offer practical, evidence-based coping strategies such as CBT techniques, mindfulness, and breathing exercises.
- Help the user notice patterns in their emotions and thoughts.
- Never diagnose or recommend medication changes; encourage professional help for serious concerns.
- If the user mentions self-harm or suicide, share crisis resources and check on their safety.
- Use warm, simple, non-judgmental language and respect the user's autonomy.

Crisis resources:
- 988 Suicide & Crisis Lifeline: call or text 988 (24/7)
- Crisis Text Line: text HOME to 741741
- NAMI Helpline: 1-800-950-6264`

const crisisResponse = `I'm really concerned about what you're sharing with me. Your safety is the most important thing right now.

**Please reach out for immediate help:**

- **988 Suicide & Crisis Lifeline**: call or text 988 (available 24/7)
- **Crisis Text Line**: text HOME to 741741
- **Emergency**: call 911 if you're in immediate danger

You deserve support, and there are people who want to help you through this. These feelings can be overwhelming, but help is available right now.

I'm here to listen if you'd like to talk about what's been making you feel this way, but please also reach out to a crisis counselor who can give you immediate support.`

const crisisFooter = "\n\n---\nIf you're thinking about hurting yourself, please reach out now: call or text **988** (Suicide & Crisis Lifeline), text HOME to **741741**, or call **911** in an emergency."

const resourcesFooter = "\n\n---\nIf things feel like too much, support is available any time: call or text **988** or text HOME to **741741**."

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response           string          `json:"response"`
	Timestamp          time.Time       `json:"timestamp"`
	CrisisDetected     bool            `json:"crisis_detected"`
	CrisisLevel        triage.Severity `json:"crisis_level"`
	CaregiversNotified int             `json:"caregivers_notified"`
}

// AlertDispatcher fans a crisis event out to the patient's caregivers.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, a alert.Alert) (alert.Report, error)
}

type ChatService struct {
	logs       storage.MoodLogRepository
	chats      storage.ChatRepository
	classifier *triage.Classifier
	alerts     AlertDispatcher
	llm        Completer
	logger     internal.Logger
	now        func() time.Time
}

func NewChatService(
	logs storage.MoodLogRepository,
	chats storage.ChatRepository,
	classifier *triage.Classifier,
	alerts AlertDispatcher,
	llm Completer,
	logger internal.Logger,
) *ChatService {
	return &ChatService{
		logs:       logs,
		chats:      chats,
		classifier: classifier,
		alerts:     alerts,
		llm:        llm,
		logger:     logger,
		now:        time.Now,
	}
}

// Chat triages the message, alerts caregivers when the severity calls for it,
// and then produces a reply. Critical messages never reach the language model.
// Triage always sees the whole message; only the model and the history get a
// copy cut to MaxMessageLength runes.
func (s *ChatService) Chat(ctx context.Context, user *internal.User, req *ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, invalid("message is required")
	}

	result := s.classifier.Classify(req.Message)
	resp := &ChatResponse{
		CrisisDetected: result.Severity != triage.SeverityNone,
		CrisisLevel:    result.Severity,
	}
	if result.RequiresAlert() {
		resp.CaregiversNotified = s.alertCaregivers(ctx, user, req.Message, result)
	}

	message := triage.Excerpt(req.Message, MaxMessageLength)
	reply, err := s.reply(ctx, user, message, result)
	if err != nil {
		return nil, err
	}
	resp.Response = reply
	resp.Timestamp = s.now().UTC()

	if err := s.chats.AppendChatMessages(ctx, user.ID,
		internal.ChatMessage{Role: RoleUser, Content: message, Timestamp: resp.Timestamp},
		internal.ChatMessage{Role: RoleAssistant, Content: reply, Timestamp: resp.Timestamp},
	); err != nil {
		s.logger.Errorw("failed to save chat history", "user_id", user.ID, "error", err)
	}
	return resp, nil
}

func (s *ChatService) alertCaregivers(ctx context.Context, user *internal.User, message string, result triage.Result) int {
	excerpt := triage.Excerpt(message, ExcerptLimit)
	s.logger.Warnw("crisis language detected",
		"user_id", user.ID,
		"severity", result.Severity,
		"excerpt_len", len(excerpt),
	)
	if s.alerts == nil {
		return 0
	}
	report, err := s.alerts.Dispatch(ctx, alert.Alert{
		PatientID:   user.ID,
		PatientName: user.Name,
		Severity:    result.Severity,
		Excerpt:     excerpt,
	})
	if err != nil {
		s.logger.Errorw("crisis alert fan-out failed", "user_id", user.ID, "severity", result.Severity, "error", err)
		return 0
	}
	return report.Notified
}

func (s *ChatService) reply(ctx context.Context, user *internal.User, message string, result triage.Result) (string, error) {
	if result.Severity == triage.SeverityCritical {
		return crisisResponse, nil
	}
	text, err := s.complete(ctx, user, message)
	if err != nil {
		if result.Severity == triage.SeverityHigh {
			s.logger.Errorw("LLM unavailable for high-severity message, sending crisis response", "user_id", user.ID, "error", err)
			return crisisResponse, nil
		}
		if errors.Is(err, ErrLLMUnavailable) {
			return "", err
		}
		s.logger.Errorw("chat completion failed", "user_id", user.ID, "error", err)
		return "", fmt.Errorf("unable to process chat request: %w", err)
	}
	switch {
	case result.Severity == triage.SeverityHigh:
		text += crisisFooter
	case result.NeedsResources():
		text += resourcesFooter
	}
	return text, nil
}

func (s *ChatService) complete(ctx context.Context, user *internal.User, message string) (string, error) {
	if s.llm == nil {
		return "", ErrLLMUnavailable
	}
	userContext, err := s.userContext(ctx, user)
	if err != nil {
		s.logger.Warnw("failed to load mood context for chat", "user_id", user.ID, "error", err)
	}
	messages := []llms.MessageContent{textMessage(llms.ChatMessageTypeSystem, systemPrompt+userContext)}
	if h, err := s.chats.GetChatHistory(ctx, user.ID); err == nil {
		recent := h.Messages
		if len(recent) > promptHistory {
			recent = recent[len(recent)-promptHistory:]
		}
		messages = append(messages, historyMessages(recent)...)
	}
	messages = append(messages, textMessage(llms.ChatMessageTypeHuman, message))
	return generate(ctx, s.llm, messages, llms.WithTemperature(0.7), llms.WithMaxTokens(800))
}

// userContext summarizes conditions and the most recent mood logs for the system prompt.
func (s *ChatService) userContext(ctx context.Context, user *internal.User) (string, error) {
	var b strings.Builder
	b.WriteString("\n\nUSER CONTEXT:\n")
	fmt.Fprintf(&b, "User conditions: %s\n", strings.Join(user.Conditions, ", "))
	logs, err := s.logs.ListMoodLogs(ctx, user.ID, storage.MoodLogFilter{Limit: contextLogs})
	if err != nil {
		return b.String(), err
	}
	if len(logs) == 0 {
		b.WriteString("No mood logs yet.\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Recent mood history (last %d entries):\n", len(logs))
	for _, l := range logs {
		fmt.Fprintf(&b, "- %s: Mood %d/10", l.Date, l.MoodRating)
		if l.Notes != "" {
			fmt.Fprintf(&b, " - %s", triage.Excerpt(l.Notes, contextNoteLimit))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// History returns the newest limit messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]internal.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > internal.MaxChatHistory {
		limit = internal.MaxChatHistory
	}
	h, err := s.chats.GetChatHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return []internal.ChatMessage{}, nil
		}
		return nil, err
	}
	msgs := h.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	return s.chats.ClearChatHistory(ctx, userID)
}
