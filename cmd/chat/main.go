package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/conversation"
	infraBQ "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "repl":
		runRepl(log)
	case "insights":
		runInsights(log)
	case "clear":
		runClear(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Assistant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  chat <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  repl      Start an interactive chat session")
	fmt.Println("  insights  Print the current financial insights")
	fmt.Println("  clear     Delete the chat history")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'chat <command> -h' for more information on a command.")
}

func runRepl(log zerolog.Logger) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	user := fs.String("user", "", "External user id to chat as")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := context.Background()
	orchestrator, cleanup := buildOrchestrator(ctx, log)
	defer cleanup()

	fmt.Println("Type a message and press enter. Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		reply, err := orchestrator.SendMessage(ctx, *user, message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}

func runInsights(log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	user := fs.String("user", "", "External user id")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	orchestrator, cleanup := buildOrchestrator(ctx, log)
	defer cleanup()

	insights, err := orchestrator.Insights(ctx, *user)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute insights")
	}
	for _, insight := range insights {
		fmt.Println(insight)
	}
}

func runClear(log zerolog.Logger) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	user := fs.String("user", "", "External user id")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	orchestrator, cleanup := buildOrchestrator(ctx, log)
	defer cleanup()

	if err := orchestrator.ClearHistory(ctx, *user); err != nil {
		log.Fatal().Err(err).Msg("Failed to clear history")
	}
	fmt.Println("History cleared.")
}

// buildOrchestrator wires the same stack as the API server, minus HTTP.
func buildOrchestrator(ctx context.Context, log zerolog.Logger) (*assistant.Orchestrator, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	recordStore, err := infraBQ.NewRecordStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create record store")
	}

	sqliteStore, err := conversation.NewSQLiteStore(cfg.ChatDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open conversation store")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create genai client")
	}

	orchestrator := assistant.NewOrchestrator(
		infraBQ.NewIdentityResolver(recordStore),
		assistant.NewAggregator(recordStore, logger.WithComponent(log, "aggregator")),
		conversation.NewCachedStore(sqliteStore),
		assistant.NewGeminiGenerator(genaiClient, cfg.GeminiModel),
		logger.WithComponent(log, "orchestrator"),
	)
	orchestrator.SetGenerateTimeout(cfg.GenerateTimeout)

	cleanup := func() {
		_ = sqliteStore.Close()
		_ = recordStore.Close()
	}
	return orchestrator, cleanup
}
