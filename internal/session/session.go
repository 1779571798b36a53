// Package session holds the state of one chat conversation: the message log,
// the in-flight flag and the last error. A Session is created when the chat
// widget opens, reset by Clear and dropped when the widget closes.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/RichardoC/folio/internal/gateway"
	"github.com/RichardoC/folio/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrorReply is the content of the assistant bubble shown for a failed turn.
const ErrorReply = "Sorry, I encountered an error. Please try again or check your connection."

// FallbackQuestions are shown when the suggested questions cannot be fetched.
var FallbackQuestions = []string{
	"What projects have you built?",
	"Tell me about your experience",
	"What technologies do you use?",
}

// Gateway is the part of gateway.Client a Session needs.
type Gateway interface {
	Chat(ctx context.Context, message string, history []models.Message) (*models.ChatReply, error)
	FetchSuggestedQuestions(ctx context.Context) ([]string, error)
}

// State is a snapshot of a conversation. LastError is empty when there is none.
type State struct {
	Messages           []models.Message
	IsLoading          bool
	LastError          string
	SuggestedQuestions []string
}

// ShowSuggestions reports whether suggestions should be displayed, which is
// only the case before the first message.
func (s State) ShowSuggestions() bool {
	return len(s.Messages) == 0 && len(s.SuggestedQuestions) > 0
}

type Session struct {
	id       string
	gw       Gateway
	logger   *zap.Logger
	onChange func(State)

	mu    sync.Mutex
	state State
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithOnChange registers fn to be called with a fresh snapshot after every
// state change. fn runs on the goroutine that made the change, without the
// session lock held.
func WithOnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

func New(gw Gateway, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		gw:     gw,
		logger: zap.NewNop(),
		state: State{
			Messages:           []models.Message{},
			SuggestedQuestions: append([]string(nil), FallbackQuestions...),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoading
}

// Send runs one turn. Blank text, or a call made while another turn is in
// flight, is dropped without error. The user message is appended before the
// request goes out and the loading flag is released on every exit path.
func (s *Session) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	prior, ok := s.begin(text)
	if !ok {
		s.logger.Debug("send dropped, turn in flight")
		return
	}
	defer s.release()

	reply, err := s.callChat(ctx, text, prior)
	if err != nil {
		s.fail(err)
		return
	}
	s.succeed(reply, len(prior) == 0)
}

// SelectSuggestion sends question as if the user had typed it.
func (s *Session) SelectSuggestion(ctx context.Context, question string) {
	s.Send(ctx, question)
}

// Clear drops all messages and the last error. Confirming the destructive
// intent is the caller's job. Suggestions are kept.
func (s *Session) Clear() {
	s.mu.Lock()
	s.state.Messages = []models.Message{}
	s.state.LastError = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// LoadSuggestions fetches the initial suggested questions. Failures are
// absorbed: the fallback list stays in place and LastError is untouched.
func (s *Session) LoadSuggestions(ctx context.Context) {
	questions, err := s.fetchSuggestions(ctx)
	if err != nil {
		s.logger.Warn("failed to load suggestions", zap.Error(err))
		questions = FallbackQuestions
	}
	if len(questions) == 0 {
		questions = FallbackQuestions
	}

	s.mu.Lock()
	s.state.SuggestedQuestions = append([]string(nil), questions...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// begin appends the user message and takes the loading flag. It returns the
// history as it was before the append.
func (s *Session) begin(text string) ([]models.Message, bool) {
	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return nil, false
	}
	prior := append([]models.Message(nil), s.state.Messages...)
	s.state.Messages = append(s.state.Messages, models.Message{Role: models.RoleUser, Content: text})
	s.state.IsLoading = true
	s.state.LastError = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return prior, true
}

func (s *Session) release() {
	s.mu.Lock()
	s.state.IsLoading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) succeed(reply *models.ChatReply, firstTurn bool) {
	s.mu.Lock()
	s.state.Messages = append(s.state.Messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   reply.Response,
		Timestamp: reply.Timestamp,
	})
	if firstTurn && len(reply.SuggestedQuestions) > 0 {
		s.state.SuggestedQuestions = append([]string(nil), reply.SuggestedQuestions...)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) fail(err error) {
	msg := describe(err)
	s.logger.Error("chat turn failed",
		zap.Stringer("kind", gateway.KindOf(err)),
		zap.Error(err))

	s.mu.Lock()
	s.state.LastError = msg
	s.state.Messages = append(s.state.Messages, models.Message{
		Role:    models.RoleAssistant,
		Content: ErrorReply,
		IsError: true,
	})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// callChat turns a panicking gateway into an ordinary failure.
func (s *Session) callChat(ctx context.Context, text string, prior []models.Message) (reply *models.ChatReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("chat gateway panicked: %v", r)
		}
	}()
	reply, err = s.gw.Chat(ctx, text, prior)
	if err == nil && reply == nil {
		err = errors.New("chat gateway returned no reply")
	}
	return reply, err
}

func (s *Session) fetchSuggestions(ctx context.Context) (questions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("suggestions gateway panicked: %v", r)
		}
	}()
	return s.gw.FetchSuggestedQuestions(ctx)
}

// describe maps a failure to the text shown in the error banner.
func describe(err error) string {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		return gateway.MsgGeneric
	}
	switch gerr.Kind {
	case gateway.RateLimited:
		return gateway.MsgRateLimited
	case gateway.ServerError:
		return gateway.MsgServerError
	case gateway.Timeout:
		return gateway.MsgTimeout
	default:
		if gerr.Message != "" {
			return gerr.Message
		}
		return gateway.MsgGeneric
	}
}

func (s *Session) snapshotLocked() State {
	return State{
		Messages:           append([]models.Message{}, s.state.Messages...),
		IsLoading:          s.state.IsLoading,
		LastError:          s.state.LastError,
		SuggestedQuestions: append([]string{}, s.state.SuggestedQuestions...),
	}
}

func (s *Session) notify(snap State) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
