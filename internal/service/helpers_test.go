package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/storage"
)

func newRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	repos, err := storage.NewFileRepositories(t.TempDir(), internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close(context.Background()) })
	return repos
}

func seedUser(t *testing.T, repos *storage.Repositories, id, email, name string) *internal.User {
	t.Helper()
	u := &internal.User{ID: id, Email: email, Name: name, Conditions: []string{"bipolar"}}
	require.NoError(t, repos.Users.CreateUser(context.Background(), u))
	return u
}

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

// systemText returns the text of the first message sent.
func (f *fakeLLM) systemText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	if tp, ok := f.messages[0].Parts[0].(llms.TextContent); ok {
		return tp.Text
	}
	return ""
}

type fakeDispatcher struct {
	alerts []alert.Alert
	report alert.Report
	err    error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, a alert.Alert) (alert.Report, error) {
	f.alerts = append(f.alerts, a)
	return f.report, f.err
}

var errBoom = errors.New("boom")
