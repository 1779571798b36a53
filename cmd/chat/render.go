package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/RichardoC/folio/internal/models"
	"github.com/RichardoC/folio/internal/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Faint(true)
)

// renderer prints session state incrementally: only messages not yet shown,
// the loading indicator, and the error banner when it changes. Turns render
// from their own goroutine, so every method holds mu.
type renderer struct {
	mu        sync.Mutex
	out       io.Writer
	printed   int
	loading   bool
	lastError string
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) header(data *models.PortfolioData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("%s · %s", data.Bio.Name, data.Bio.Title)))
	if data.Bio.Availability != "" {
		fmt.Fprintln(r.out, dimStyle.Render(data.Bio.Availability))
	}
	fmt.Fprintln(r.out, dimStyle.Render("Ask me anything about my work. /clear, /suggest, /health, /quit"))
	fmt.Fprintln(r.out)
}

// update is registered as the session's change callback.
func (r *renderer) update(st session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(st.Messages) < r.printed {
		// cleared
		r.printed = 0
		fmt.Fprintln(r.out, dimStyle.Render("(conversation cleared)"))
	}

	if st.LastError != "" && st.LastError != r.lastError {
		fmt.Fprintln(r.out, bannerStyle.Render(st.LastError))
	}
	r.lastError = st.LastError

	for _, m := range st.Messages[r.printed:] {
		r.message(m)
	}
	r.printed = len(st.Messages)

	if st.IsLoading && !r.loading {
		fmt.Fprintln(r.out, dimStyle.Render("assistant is typing…"))
	}
	r.loading = st.IsLoading
}

func (r *renderer) message(m models.Message) {
	switch {
	case m.Role == models.RoleUser:
		fmt.Fprintf(r.out, "%s %s\n", userStyle.Render("you>"), m.Content)
	case m.IsError:
		fmt.Fprintf(r.out, "%s %s\n", assistantStyle.Render("assistant>"), errorStyle.Render(m.Content))
	default:
		line := fmt.Sprintf("%s %s", assistantStyle.Render("assistant>"), m.Content)
		if m.Timestamp != "" {
			line += " " + dimStyle.Render(m.Timestamp)
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *renderer) suggestions(st session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !st.ShowSuggestions() {
		return
	}
	fmt.Fprintln(r.out, dimStyle.Render("Suggested questions (type the number):"))
	for i, q := range st.SuggestedQuestions {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, q)
	}
}

func (r *renderer) health(status *models.HealthStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := []string{status.Status}
	if status.Service != "" {
		parts = append(parts, status.Service)
	}
	if status.Timestamp != "" {
		parts = append(parts, status.Timestamp)
	}
	fmt.Fprintln(r.out, dimStyle.Render("backend: "+strings.Join(parts, " · ")))
}

func (r *renderer) note(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, line)
}

func (r *renderer) failure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, bannerStyle.Render(err.Error()))
}
