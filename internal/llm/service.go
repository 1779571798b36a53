package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RichardoC/folio/internal/models"
	"github.com/RichardoC/folio/internal/portfolio"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// maxHistory is how many prior messages are forwarded to the model.
	maxHistory = 10

	defaultTimeout = 30 * time.Second
)

var suggestedQuestions = []string{
	"What projects have you built with React?",
	"Tell me about your most complex project",
	"What's your experience with AI and machine learning?",
	"Can you build scalable web applications?",
	"What technologies are you most proficient in?",
	"Tell me about your experience working in teams",
}

// Generator is the subset of llms.Model the service calls.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type Service struct {
	llm     Generator
	prompt  string
	timeout time.Duration
}

// New connects to an OpenAI-compatible endpoint (Groq, Ollama, OpenAI).
func New(baseURL, token, model string, data *models.PortfolioData) (*Service, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create openai client")
	}
	return NewWithGenerator(llm, data), nil
}

func NewWithGenerator(gen Generator, data *models.PortfolioData) *Service {
	return &Service{
		llm:     gen,
		prompt:  BuildSystemPrompt(data),
		timeout: defaultTimeout,
	}
}

// SuggestedQuestions returns the questions offered to new visitors.
func (s *Service) SuggestedQuestions() []string {
	return append([]string(nil), suggestedQuestions...)
}

// Reply answers userMessage given the visitor's conversation so far.
func (s *Service) Reply(ctx context.Context, userMessage string, history []models.HistoryEntry) (string, error) {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, s.prompt))
	for _, h := range history {
		switch h.Role {
		case models.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, h.Content))
		case models.RoleAssistant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, h.Content))
		}
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(1024),
		llms.WithTopP(1),
	)
	if err != nil {
		return "", errors.Wrap(err, "ai service error")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("ai service error: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// BuildSystemPrompt renders the assistant's instructions from the portfolio.
func BuildSystemPrompt(data *models.PortfolioData) string {
	bio := data.Bio

	var experience strings.Builder
	for _, exp := range data.Experience {
		fmt.Fprintf(&experience, "- %s at %s (%s): %s\n", exp.Role, exp.Company, exp.Period, exp.Description)
	}

	var projects strings.Builder
	for _, p := range data.Projects {
		fmt.Fprintf(&projects, "- %s: %s Technologies: %s. %s\n", p.Title, p.ShortDesc, strings.Join(p.Tech, ", "), p.Highlights)
	}

	skills := strings.Join(portfolio.AllSkills(data), ", ")

	return fmt.Sprintf(`You are an intelligent AI assistant embedded in %[1]s's professional portfolio website. Your role is to help visitors learn about %[1]s's skills, experience, and projects in a friendly and professional manner.

ABOUT %[2]s:
Name: %[1]s
Title: %[3]s
Summary: %[4]s
Location: %[5]s
Email: %[6]s
LinkedIn: %[7]s
GitHub: %[8]s

WORK EXPERIENCE:
%[9]s
PROJECTS:
%[10]s
TECHNICAL SKILLS:
%[11]s

INSTRUCTIONS:
1. Answer questions about %[1]s's skills, projects, experience, and capabilities
2. Be professional, friendly, and concise in your responses
3. When asked about specific technologies, mention relevant projects that use them
4. If asked about project details, provide information from the context above
5. If asked something you don't know, politely admit it and suggest the visitor contact %[1]s directly
6. Don't make up information - only use the context provided
7. Highlight relevant projects when visitors ask about specific technologies or use cases
8. If asked about availability or hiring, mention: %[12]s
9. Keep responses conversational and avoid overly formal language

RESPONSE STYLE:
- Keep responses concise (2-4 sentences for simple questions, longer for complex ones)
- Use natural, conversational language
- When mentioning projects, include their key highlights

Remember: You represent %[1]s professionally. Be helpful, honest, and enthusiastic about their work!`,
		bio.Name, strings.ToUpper(bio.Name), bio.Title, bio.Summary, bio.Location,
		bio.Email, bio.LinkedIn, bio.GitHub,
		experience.String(), projects.String(), skills, bio.Availability)
}
