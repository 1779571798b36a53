package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/RichardoC/folio/internal/gateway"
	"github.com/RichardoC/folio/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatCall struct {
	message string
	history []models.Message
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []chatCall

	chat        func(ctx context.Context, message string, history []models.Message) (*models.ChatReply, error)
	suggestions func(ctx context.Context) ([]string, error)
}

func (f *fakeGateway) Chat(ctx context.Context, message string, history []models.Message) (*models.ChatReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, chatCall{message: message, history: history})
	f.mu.Unlock()
	if f.chat == nil {
		return &models.ChatReply{Response: "reply to " + message}, nil
	}
	return f.chat(ctx, message, history)
}

func (f *fakeGateway) FetchSuggestedQuestions(ctx context.Context) ([]string, error) {
	if f.suggestions == nil {
		return nil, errors.New("not configured")
	}
	return f.suggestions(ctx)
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSend_Success(t *testing.T) {
	gw := &fakeGateway{chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
		return &models.ChatReply{Response: "Hello!", Timestamp: "2026-10-18T10:00:00"}, nil
	}}
	s := New(gw)

	s.Send(context.Background(), "  Hi there  ")

	st := s.Snapshot()
	require.Len(t, st.Messages, 2)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "Hi there"}, st.Messages[0])
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Hello!", Timestamp: "2026-10-18T10:00:00"}, st.Messages[1])
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.LastError)
	assert.False(t, st.ShowSuggestions())
}

func TestSend_BlankIsNoop(t *testing.T) {
	gw := &fakeGateway{}
	s := New(gw)

	s.Send(context.Background(), "")
	s.Send(context.Background(), "   ")
	s.Send(context.Background(), "\n\t")

	assert.Zero(t, gw.callCount())
	assert.Empty(t, s.Snapshot().Messages)
}

func TestSend_HistoryExcludesCurrentMessage(t *testing.T) {
	gw := &fakeGateway{chat: func(_ context.Context, message string, _ []models.Message) (*models.ChatReply, error) {
		if message == "A" {
			return &models.ChatReply{Response: "B", Timestamp: "ts"}, nil
		}
		return &models.ChatReply{Response: "D"}, nil
	}}
	s := New(gw)
	ctx := context.Background()

	s.Send(ctx, "A")
	s.Send(ctx, "C")

	require.Equal(t, 2, gw.callCount())
	assert.Empty(t, gw.calls[0].history)
	assert.Equal(t, "C", gw.calls[1].message)
	assert.Equal(t, []models.HistoryEntry{
		{Role: "user", Content: "A"},
		{Role: "assistant", Content: "B"},
	}, models.ToHistory(gw.calls[1].history))
}

func TestSend_DropsWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
		close(started)
		<-release
		return &models.ChatReply{Response: "done"}, nil
	}}
	s := New(gw)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Send(ctx, "first")
	}()
	<-started

	assert.True(t, s.IsLoading())
	s.Send(ctx, "second")
	s.SelectSuggestion(ctx, "third")
	assert.Equal(t, 1, gw.callCount())

	close(release)
	<-done

	st := s.Snapshot()
	assert.False(t, st.IsLoading)
	require.Len(t, st.Messages, 2)
	assert.Equal(t, "first", st.Messages[0].Content)
	assert.Equal(t, "done", st.Messages[1].Content)
}

func TestSend_RateLimitedFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"Rate limit exceeded. Maximum 20 requests per minute."}`))
	}))
	defer srv.Close()
	client, err := gateway.New(srv.URL)
	require.NoError(t, err)

	s := New(client)
	s.Send(context.Background(), "hello")

	st := s.Snapshot()
	assert.Equal(t, "Too many requests. Please wait a moment and try again.", st.LastError)
	require.Len(t, st.Messages, 2)
	assert.True(t, st.Messages[1].IsError)
	assert.Equal(t, models.RoleAssistant, st.Messages[1].Role)
	assert.Equal(t, ErrorReply, st.Messages[1].Content)
	assert.False(t, st.IsLoading)
}

func TestSend_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server error", &gateway.Error{Kind: gateway.ServerError, Message: gateway.MsgServerError}, gateway.MsgServerError},
		{"timeout", &gateway.Error{Kind: gateway.Timeout, Message: gateway.MsgTimeout}, gateway.MsgTimeout},
		{"generic detail", &gateway.Error{Kind: gateway.Generic, Message: "Message cannot be empty"}, "Message cannot be empty"},
		{"generic empty", &gateway.Error{Kind: gateway.Generic}, gateway.MsgGeneric},
		{"foreign error", errors.New("socket closed"), gateway.MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
				return nil, tt.err
			}}
			s := New(gw)
			s.Send(context.Background(), "hi")

			st := s.Snapshot()
			assert.Equal(t, tt.want, st.LastError)
			assert.False(t, st.IsLoading)
			require.Len(t, st.Messages, 2)
			assert.True(t, st.Messages[1].IsError)
		})
	}
}

func TestSend_PanickingGatewayReleasesLoading(t *testing.T) {
	gw := &fakeGateway{chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
		panic("boom")
	}}
	s := New(gw)

	s.Send(context.Background(), "hi")

	st := s.Snapshot()
	assert.False(t, st.IsLoading)
	assert.Equal(t, gateway.MsgGeneric, st.LastError)
	require.Len(t, st.Messages, 2)
	assert.True(t, st.Messages[1].IsError)

	// still usable afterwards
	gw.chat = nil
	s.Send(context.Background(), "again")
	assert.Len(t, s.Snapshot().Messages, 4)
}

func TestSend_NewTurnClearsLastError(t *testing.T) {
	fail := true
	gw := &fakeGateway{chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
		if fail {
			return nil, &gateway.Error{Kind: gateway.ServerError, Message: gateway.MsgServerError}
		}
		return &models.ChatReply{Response: "ok"}, nil
	}}
	var seen []State
	s := New(gw, WithOnChange(func(st State) { seen = append(seen, st) }))
	ctx := context.Background()

	s.Send(ctx, "one")
	require.NotEmpty(t, s.Snapshot().LastError)

	fail = false
	seen = nil
	s.Send(ctx, "two")

	require.NotEmpty(t, seen)
	assert.True(t, seen[0].IsLoading)
	assert.Empty(t, seen[0].LastError)
	assert.False(t, seen[len(seen)-1].IsLoading)
	assert.Empty(t, s.Snapshot().LastError)
}

func TestSend_SuggestionsReplacedOnlyOnFirstTurn(t *testing.T) {
	gw := &fakeGateway{chat: func(_ context.Context, message string, _ []models.Message) (*models.ChatReply, error) {
		return &models.ChatReply{Response: "r", SuggestedQuestions: []string{"after " + message}}, nil
	}}
	s := New(gw)
	ctx := context.Background()

	s.Send(ctx, "first")
	assert.Equal(t, []string{"after first"}, s.Snapshot().SuggestedQuestions)

	s.Send(ctx, "second")
	assert.Equal(t, []string{"after first"}, s.Snapshot().SuggestedQuestions)
}

func TestSelectSuggestion_MatchesSend(t *testing.T) {
	q := "Tell me about your experience"
	gwA := &fakeGateway{}
	gwB := &fakeGateway{}
	a := New(gwA)
	b := New(gwB)

	a.Send(context.Background(), q)
	b.SelectSuggestion(context.Background(), q)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, gwA.calls, gwB.calls)
}

func TestClear_KeepsSuggestions(t *testing.T) {
	gw := &fakeGateway{
		chat: func(context.Context, string, []models.Message) (*models.ChatReply, error) {
			return nil, &gateway.Error{Kind: gateway.Timeout, Message: gateway.MsgTimeout}
		},
		suggestions: func(context.Context) ([]string, error) {
			return []string{"x", "y"}, nil
		},
	}
	s := New(gw)
	ctx := context.Background()
	s.LoadSuggestions(ctx)
	s.Send(ctx, "hi")
	require.NotEmpty(t, s.Snapshot().LastError)

	s.Clear()

	st := s.Snapshot()
	assert.Empty(t, st.Messages)
	assert.Empty(t, st.LastError)
	assert.Equal(t, []string{"x", "y"}, st.SuggestedQuestions)
	assert.True(t, st.ShowSuggestions())
}

func TestLoadSuggestions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		gw := &fakeGateway{suggestions: func(context.Context) ([]string, error) {
			return []string{"What is your stack?"}, nil
		}}
		s := New(gw)
		s.LoadSuggestions(context.Background())
		assert.Equal(t, []string{"What is your stack?"}, s.Snapshot().SuggestedQuestions)
	})

	t.Run("failure keeps fallback", func(t *testing.T) {
		gw := &fakeGateway{suggestions: func(context.Context) ([]string, error) {
			return nil, &gateway.Error{Kind: gateway.ServerError, Message: gateway.MsgServerError}
		}}
		s := New(gw)
		s.LoadSuggestions(context.Background())

		st := s.Snapshot()
		assert.Equal(t, []string{
			"What projects have you built?",
			"Tell me about your experience",
			"What technologies do you use?",
		}, st.SuggestedQuestions)
		assert.Empty(t, st.LastError)
	})

	t.Run("panic keeps fallback", func(t *testing.T) {
		gw := &fakeGateway{suggestions: func(context.Context) ([]string, error) {
			panic("boom")
		}}
		s := New(gw)
		s.LoadSuggestions(context.Background())
		assert.Equal(t, FallbackQuestions, s.Snapshot().SuggestedQuestions)
		assert.Empty(t, s.Snapshot().LastError)
	})
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New(&fakeGateway{})
	s.Send(context.Background(), "hi")

	st := s.Snapshot()
	st.Messages[0].Content = "mutated"
	st.SuggestedQuestions[0] = "mutated"

	assert.Equal(t, "hi", s.Snapshot().Messages[0].Content)
	assert.NotEqual(t, "mutated", s.Snapshot().SuggestedQuestions[0])
}

func TestNew_AssignsID(t *testing.T) {
	a := New(&fakeGateway{})
	b := New(&fakeGateway{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
