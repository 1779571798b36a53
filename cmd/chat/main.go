package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/RichardoC/folio/internal/config"
	"github.com/RichardoC/folio/internal/gateway"
	"github.com/RichardoC/folio/internal/session"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		apiURL     string
		debug      bool
	)

	root := &cobra.Command{
		Use:   "folio-chat",
		Short: "Chat with the portfolio assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.Client.APIURL = apiURL
			}

			logger := zap.NewNop()
			if debug {
				logger, _ = zap.NewDevelopment()
			}
			defer logger.Sync()

			client, err := gateway.New(cfg.Client.APIURL,
				gateway.WithTimeout(cfg.ClientTimeout()),
				gateway.WithLogger(logger))
			if err != nil {
				return err
			}
			return run(cmd.Context(), client, logger, os.Stdout)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	root.Flags().StringVar(&apiURL, "api", "", "backend base URL (overrides FOLIO_API_URL)")
	root.Flags().BoolVar(&debug, "debug", false, "log API traffic to stderr")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, client *gateway.Client, logger *zap.Logger, out io.Writer) error {
	view := newRenderer(out)

	ctx, cancel := context.WithCancel(ctx)
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer cancel()

	data, err := client.FetchPortfolioData(ctx)
	if err != nil {
		view.failure(err)
		return errors.Errorf("could not load portfolio from %s, run again to retry", client.BaseURL())
	}
	view.header(data)

	// one session per open widget
	sess := session.New(client,
		session.WithLogger(logger),
		session.WithOnChange(view.update))
	sess.LoadSuggestions(ctx)
	view.suggestions(sess.Snapshot())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			// Ctrl+C, Ctrl+D
			view.note("")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "/quit", "/exit":
			return nil
		case "/clear":
			if confirm(line, "Clear all messages? [y/N] ") {
				sess.Clear()
				view.suggestions(sess.Snapshot())
			}
			continue
		case "/suggest":
			st := sess.Snapshot()
			if !st.ShowSuggestions() {
				view.note(dimStyle.Render("Suggestions are only shown before the first message. /clear to start over."))
			}
			view.suggestions(st)
			continue
		case "/health":
			status, err := client.HealthCheck(ctx)
			if err != nil {
				view.failure(err)
			} else {
				view.health(status)
			}
			continue
		}

		if q, ok := pickSuggestion(sess.Snapshot(), input); ok {
			submit(ctx, &inflight, sess.SelectSuggestion, q)
			continue
		}
		submit(ctx, &inflight, sess.Send, input)
	}
}

// submit runs a turn off the prompt goroutine. Input typed while a reply is
// pending reaches the session, which drops it.
func submit(ctx context.Context, wg *sync.WaitGroup, send func(context.Context, string), text string) <-chan struct{} {
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		send(ctx, text)
	}()
	return done
}

// pickSuggestion maps a typed number to a displayed suggestion.
func pickSuggestion(st session.State, input string) (string, bool) {
	if !st.ShowSuggestions() {
		return "", false
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(st.SuggestedQuestions) {
		return "", false
	}
	return st.SuggestedQuestions[n-1], true
}

func confirm(line *liner.State, prompt string) bool {
	answer, err := line.Prompt(prompt)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
