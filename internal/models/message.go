package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of a chat conversation as the client keeps it.
type Message struct {
	Role      string `json:"role"` // user or assistant
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
	IsError   bool   `json:"isError,omitempty"`
}

// HistoryEntry is the reduced form of a Message sent back to the server.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
}

type ChatReply struct {
	Response           string   `json:"response"`
	Timestamp          string   `json:"timestamp,omitempty"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

type SuggestedQuestionsResponse struct {
	Questions []string `json:"questions"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Service   string `json:"service,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Inquiry is one answered chat turn recorded by the server.
type Inquiry struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	HistoryLen int       `json:"history_len"`
	Client     string    `json:"client"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToHistory drops the client-only fields of each message.
func ToHistory(messages []Message) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return history
}
