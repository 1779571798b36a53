package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/RichardoC/folio/internal/config"
	"github.com/RichardoC/folio/internal/gateway"
	"go.uber.org/zap"
)

// Asks the deployed assistant a single question:
//
//	go run . "What projects have you built?"
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	question := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: folio <question>")
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	client, err := gateway.New(cfg.Client.APIURL, gateway.WithTimeout(cfg.ClientTimeout()), gateway.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create API client", zap.Error(err))
	}

	reply, err := client.Chat(context.Background(), question, nil)
	if err != nil {
		logger.Fatal("chat request failed",
			zap.Stringer("kind", gateway.KindOf(err)),
			zap.Error(err))
	}
	fmt.Println(reply.Response)
}
