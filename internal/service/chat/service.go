package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/model/chat"
	"github.com/zhouzirui/askbot/backend/internal/service/answer"
)

// DefaultGreeting opens every new session.
const DefaultGreeting = "Hello! How can I assist you today?"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyQuery      = errors.New("query is empty")
	ErrNoUserQuery     = errors.New("no user query in session")
)

// Answerer produces the bot reply for one user query.
type Answerer interface {
	SubmitQuery(ctx context.Context, query string) answer.Reply
}

// Turn is the outcome of one Ask call.
type Turn struct {
	Reply    answer.Reply   `json:"reply"`
	User     chat.Message   `json:"user"`
	Messages []chat.Message `json:"messages"`
}

// Service owns sessions and their transcripts.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	turns    map[string]*sync.Mutex

	answerer Answerer
	greeting string
	logger   *zap.Logger
}

// NewService bootstraps the in-memory chat service. An empty greeting uses DefaultGreeting.
func NewService(answerer Answerer, greeting string, logger *zap.Logger) *Service {
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		turns:    make(map[string]*sync.Mutex),
		answerer: answerer,
		greeting: greeting,
		logger:   logging.OrNop(logger),
	}
}

// CreateSession provisions an anonymous session whose transcript starts with the greeting.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	greeting := chat.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Sender:    chat.SenderBot,
		Content:   s.greeting,
		CreatedAt: session.CreatedAt,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = append(make([]chat.Message, 0, 16), greeting)
	s.turns[session.ID] = &sync.Mutex{}
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", session.ID))
	return session, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return message, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// LastUserQuery returns the most recent user message of a session.
func (s *Service) LastUserQuery(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == chat.SenderUser {
			return messages[i].Content, nil
		}
	}
	return "", ErrNoUserQuery
}

// Ask records the user's query, answers it and records one bot message per chunk.
// Turns within a session are serialized; different sessions run independently.
func (s *Service) Ask(ctx context.Context, sessionID, text string) (Turn, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return Turn{}, ErrEmptyQuery
	}

	turn, err := s.turnLock(sessionID)
	if err != nil {
		return Turn{}, err
	}
	turn.Lock()
	defer turn.Unlock()

	userMsg, err := s.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: chat.SenderUser, Content: query})
	if err != nil {
		return Turn{}, err
	}

	reply := s.answerer.SubmitQuery(ctx, query)

	botMessages := make([]chat.Message, 0, len(reply.Chunks))
	for _, c := range reply.Chunks {
		saved, err := s.SaveMessage(ctx, chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderBot,
			Content:   c,
			Intent:    string(reply.Intent),
			Provider:  string(reply.Provider),
		})
		if err != nil {
			return Turn{}, err
		}
		botMessages = append(botMessages, saved)
	}

	return Turn{Reply: reply, User: userMsg, Messages: botMessages}, nil
}

func (s *Service) turnLock(sessionID string) (*sync.Mutex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turn, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return turn, nil
}
