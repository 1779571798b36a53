package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/RichardoC/folio/internal/api"
	"github.com/RichardoC/folio/internal/config"
	"github.com/RichardoC/folio/internal/db"
	"github.com/RichardoC/folio/internal/llm"
	"github.com/RichardoC/folio/internal/portfolio"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	configPath string
	addr       string
	dbPath     string
	portfolio  string
	debug      bool
}

func main() {
	var f flags

	root := &cobra.Command{
		Use:   "folio-server",
		Short: "Portfolio API with an AI chat assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), f)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to a TOML config file (default ./folio.toml if present)")
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "sqlite database path")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "development logging")
	root.Flags().StringVar(&f.addr, "addr", "", "listen address")
	root.Flags().StringVar(&f.portfolio, "portfolio", "", "portfolio YAML file (default: embedded sample)")

	var limit int
	inquiries := &cobra.Command{
		Use:   "inquiries",
		Short: "List the most recent questions visitors asked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listInquiries(f, limit)
		},
	}
	inquiries.Flags().IntVarP(&limit, "limit", "n", 20, "number of inquiries to show")
	root.AddCommand(inquiries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	if debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.dbPath != "" {
		cfg.Server.DBPath = f.dbPath
	}
	if f.portfolio != "" {
		cfg.Server.PortfolioFile = f.portfolio
	}
	return cfg, nil
}

func serve(ctx context.Context, f flags) error {
	logger := newLogger(f.debug)
	defer logger.Sync()

	cfg, err := loadConfig(f)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err), zap.String("path", f.configPath))
	}

	data, err := portfolio.Load(cfg.Server.PortfolioFile)
	if err != nil {
		logger.Fatal("failed to load portfolio data",
			zap.Error(err),
			zap.String("portfolioFile", cfg.Server.PortfolioFile))
	}

	database, err := db.New(cfg.Server.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.Server.DBPath))
	}
	defer database.Close()

	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM API key set (GROQ_API_KEY or OPENAI_API_KEY), chat requests will fail")
	}
	assistant, err := llm.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, data)
	if err != nil {
		logger.Fatal("failed to initialize LLM service", zap.Error(err))
	}

	handler := api.NewHandler(data, assistant, database, logger,
		api.WithRateLimit(cfg.Server.RateLimit, cfg.RateWindow()),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("model", cfg.LLM.Model),
			zap.String("portfolio", data.Bio.Name))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func listInquiries(f flags, limit int) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	database, err := db.New(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	inquiries, err := database.RecentInquiries(limit)
	if err != nil {
		return err
	}
	today, err := database.CountSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCLIENT\tTURN\tQUESTION")
	for _, inq := range inquiries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			inq.CreatedAt.Local().Format("2006-01-02 15:04"),
			inq.Client,
			inq.HistoryLen/2+1,
			truncate(inq.Question, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d questions in the last 24h\n", today)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
