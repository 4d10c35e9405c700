package chat_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	model "github.com/zhouzirui/askbot/backend/internal/model/chat"
	"github.com/zhouzirui/askbot/backend/internal/service/answer"
	chat "github.com/zhouzirui/askbot/backend/internal/service/chat"
)

type stubAnswerer struct {
	mu      sync.Mutex
	queries []string
	chunks  []string
}

func (s *stubAnswerer) SubmitQuery(_ context.Context, query string) answer.Reply {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return answer.Reply{Intent: intent.General, Provider: "web_answer", Chunks: s.chunks}
}

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService(&stubAnswerer{}, "", nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService(&stubAnswerer{}, "", nil)
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	ctx := context.Background()

	svc := chat.NewService(&stubAnswerer{}, "", nil)
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.Equal(t, model.SenderBot, transcript[0].Sender)
	assert.Equal(t, chat.DefaultGreeting, transcript[0].Content)

	custom := chat.NewService(&stubAnswerer{}, "Ask me anything.", nil)
	session, err = custom.CreateSession(ctx)
	require.NoError(t, err)
	transcript, err = custom.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ask me anything.", transcript[0].Content)
}

func TestAskAppendsUserThenBotChunks(t *testing.T) {
	ctx := context.Background()
	stub := &stubAnswerer{chunks: []string{"part one", "part two"}}
	svc := chat.NewService(stub, "", nil)
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	turn, err := svc.Ask(ctx, session.ID, "  what is go?  ")
	require.NoError(t, err)

	assert.Equal(t, []string{"what is go?"}, stub.queries)
	require.Len(t, turn.Messages, 2)
	assert.Equal(t, "part one", turn.Messages[0].Content)
	assert.Equal(t, "general", turn.Messages[0].Intent)

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	senders := make([]string, 0, len(transcript))
	for _, m := range transcript {
		senders = append(senders, m.Sender)
	}
	assert.Equal(t, []string{"bot", "user", "bot", "bot"}, senders)
	assert.Equal(t, "what is go?", transcript[1].Content)
}

func TestAskRejectsBlankQuery(t *testing.T) {
	ctx := context.Background()
	stub := &stubAnswerer{chunks: []string{"x"}}
	svc := chat.NewService(stub, "", nil)
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.Ask(ctx, session.ID, " \t\n")
	assert.ErrorIs(t, err, chat.ErrEmptyQuery)
	assert.Empty(t, stub.queries)
}

func TestAskUnknownSession(t *testing.T) {
	svc := chat.NewService(&stubAnswerer{}, "", nil)
	_, err := svc.Ask(context.Background(), "nope", "hello")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestLastUserQuery(t *testing.T) {
	ctx := context.Background()
	svc := chat.NewService(&stubAnswerer{chunks: []string{"ok"}}, "", nil)
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.LastUserQuery(ctx, session.ID)
	assert.ErrorIs(t, err, chat.ErrNoUserQuery)

	_, err = svc.Ask(ctx, session.ID, "first")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, session.ID, "second")
	require.NoError(t, err)

	got, err := svc.LastUserQuery(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestConcurrentTurnsKeepTranscriptPaired(t *testing.T) {
	ctx := context.Background()
	svc := chat.NewService(&stubAnswerer{chunks: []string{"a", "b"}}, "", nil)
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Ask(ctx, session.ID, "q")
		}()
	}
	wg.Wait()

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	var sb strings.Builder
	for _, m := range transcript[1:] {
		sb.WriteString(m.Sender[:1])
	}
	assert.Equal(t, strings.Repeat("ubb", 8), sb.String())
}
