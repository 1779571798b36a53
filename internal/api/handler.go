package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RichardoC/folio/internal/models"
	"go.uber.org/zap"
)

const (
	Version     = "1.0.0"
	ServiceName = "portfolio-api"

	maxMessageLen = 1000
	maxBodySize   = 1 << 20
)

// Assistant answers chat messages about the portfolio.
type Assistant interface {
	Reply(ctx context.Context, userMessage string, history []models.HistoryEntry) (string, error)
	SuggestedQuestions() []string
}

type InquiryStore interface {
	RecordInquiry(inq *models.Inquiry) error
}

type Handler struct {
	data      *models.PortfolioData
	assistant Assistant
	store     InquiryStore
	logger    *zap.Logger
	limiter   *rateLimiter
	origins   []string
	now       func() time.Time
}

type Option func(*Handler)

func WithRateLimit(limit int, window time.Duration) Option {
	return func(h *Handler) { h.limiter = newRateLimiter(limit, window) }
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.origins = origins }
}

func withClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler wires the API. store may be nil, in which case answered
// questions are not recorded.
func NewHandler(data *models.PortfolioData, assistant Assistant, store InquiryStore, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		data:      data,
		assistant: assistant,
		store:     store,
		logger:    logger,
		limiter:   newRateLimiter(20, time.Minute),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full API wrapped in the CORS middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/portfolio-data", h.GetPortfolioData)
	mux.HandleFunc("/api/chat", h.HandleChat)
	mux.HandleFunc("/api/suggested-questions", h.GetSuggestedQuestions)
	mux.HandleFunc("/api/health", h.HealthCheck)
	mux.HandleFunc("/status", h.Status)
	mux.HandleFunc("/", h.Root)
	return h.cors(mux)
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Portfolio API is running",
		"version": Version,
		"status":  "healthy",
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Projects Portfolio API is running.",
	})
}

func (h *Handler) GetPortfolioData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, h.data)
}

func (h *Handler) GetSuggestedQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, models.SuggestedQuestionsResponse{
		Questions: h.assistant.SuggestedQuestions(),
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
	})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	client := clientIP(r)
	if !h.limiter.allow(client, h.now()) {
		h.logger.Warn("Rate limit exceeded", zap.String("client", client))
		h.writeDetail(w, http.StatusTooManyRequests, h.limiter.exceededDetail())
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if utf8.RuneCountInString(req.Message) > maxMessageLen {
		h.writeDetail(w, http.StatusBadRequest, "Message must be at most 1000 characters")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		h.writeDetail(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	answer, err := h.assistant.Reply(r.Context(), message, req.ConversationHistory)
	if err != nil {
		h.logger.Error("Failed to process chat message",
			zap.Error(err),
			zap.String("client", client),
			zap.Int("history", len(req.ConversationHistory)))
		h.writeDetail(w, http.StatusInternalServerError, "An error occurred processing your request. Please try again.")
		return
	}

	now := h.now().UTC()
	reply := models.ChatReply{
		Response:  answer,
		Timestamp: now.Format(time.RFC3339),
	}
	// follow-up suggestions only accompany the first answer
	if len(req.ConversationHistory) == 0 {
		reply.SuggestedQuestions = h.assistant.SuggestedQuestions()
	}

	if h.store != nil {
		inq := &models.Inquiry{
			Question:   message,
			Answer:     answer,
			HistoryLen: len(req.ConversationHistory),
			Client:     client,
			CreatedAt:  now,
		}
		if err := h.store.RecordInquiry(inq); err != nil {
			h.logger.Error("Failed to record inquiry", zap.Error(err))
		}
	}

	h.logger.Debug("Answered chat message",
		zap.String("client", client),
		zap.Int("history", len(req.ConversationHistory)))

	h.writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, HEAD, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) originAllowed(origin string) bool {
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (h *Handler) writeDetail(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
