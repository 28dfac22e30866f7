package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/singlebitxyz/botrag/analytics"
	"github.com/singlebitxyz/botrag/config"
	"github.com/singlebitxyz/botrag/database"
	"github.com/singlebitxyz/botrag/embeddings"
	"github.com/singlebitxyz/botrag/llm"
	"github.com/singlebitxyz/botrag/rag"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "init":
		initCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "embed":
		embedCmd(cfg, logger, os.Args[2:])
	case "stats":
		statsCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func initCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("init", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse init flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPool(ctx, cfg, logger)
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}
	logger.Printf("schema ready (dimension=%d)", cfg.Embeddings.Dimension)
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	botID := flags.String("bot", "", "bot id to query")
	userID := flags.String("user", "", "user id (empty for an anonymous widget-style query)")
	question := flags.String("question", "", "question to ask")
	topK := flags.Int("top-k", cfg.Retrieval.TopK, "number of chunks to retrieve")
	minScore := flags.Float64("min-score", cfg.Retrieval.MinScore, "minimum similarity score")
	sessionID := flags.String("session", "", "client session identifier")
	metadata := flags.Bool("metadata", false, "include confidence and detailed source info")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	bot, err := uuid.Parse(*botID)
	if err != nil {
		logger.Fatalf("invalid bot id: %v", err)
	}
	var user uuid.UUID
	if *userID != "" {
		user, err = uuid.Parse(*userID)
		if err != nil {
			logger.Fatalf("invalid user id: %v", err)
		}
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPool(ctx, cfg, logger)
	defer pool.Close()

	providers, err := embeddings.NewProviders(cfg)
	if err != nil {
		logger.Fatalf("embedding providers: %v", err)
	}
	embedSvc := embeddings.NewService(providers, embeddings.NewPostgresChunkStore(pool),
		cfg.Embeddings.Dimension, cfg.Embeddings.BatchSize, logger)

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	svc := rag.NewService(
		rag.NewPostgresSearchStore(pool),
		embedSvc,
		llmClient,
		rag.NewPostgresBotStore(pool),
		rag.NewPostgresSourceStore(pool),
		rag.NewPostgresQueryLog(pool),
		logger,
	)

	answer, err := svc.Answer(ctx, rag.AnswerRequest{
		BotID:           bot,
		UserID:          user,
		QueryText:       *question,
		TopK:            *topK,
		MinScore:        *minScore,
		SessionID:       *sessionID,
		IncludeMetadata: *metadata,
	})
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}

	fmt.Println(answer.Answer)
	if answer.Confidence != nil {
		fmt.Printf("\nConfidence: %.2f\n", *answer.Confidence)
	}
	if len(answer.Citations) > 0 {
		fmt.Println("\nCitations:")
		for _, citation := range answer.Citations {
			line := fmt.Sprintf("- %s", citation.ChunkID)
			if citation.Heading != "" {
				line += " " + citation.Heading
			}
			if citation.Score != nil {
				line += fmt.Sprintf(" (%.2f)", *citation.Score)
			}
			if citation.Source != nil && citation.Source.Filename != "" {
				line += " [" + citation.Source.Filename + "]"
			}
			fmt.Println(line)
		}
	}
}

func embedCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("embed", flag.ExitOnError)
	sourceID := flags.String("source", "", "source id whose pending chunks to embed")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse embed flags: %v", err)
	}

	source, err := uuid.Parse(*sourceID)
	if err != nil {
		logger.Fatalf("invalid source id: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPool(ctx, cfg, logger)
	defer pool.Close()

	providers, err := embeddings.NewProviders(cfg)
	if err != nil {
		logger.Fatalf("embedding providers: %v", err)
	}
	chunkStore := embeddings.NewPostgresChunkStore(pool)
	svc := embeddings.NewService(providers, chunkStore,
		cfg.Embeddings.Dimension, cfg.Embeddings.BatchSize, logger)

	chunkIDs, texts, err := chunkStore.PendingChunks(ctx, source)
	if err != nil {
		logger.Fatalf("pending chunks: %v", err)
	}
	if len(chunkIDs) == 0 {
		logger.Printf("source %s has no pending chunks", source)
		return
	}

	updated, err := svc.EmbedChunksForSource(ctx, source, chunkIDs, texts)
	if err != nil {
		// Earlier batches stay committed; rerunning embeds only what is
		// still pending.
		logger.Fatalf("embedded %d/%d chunks before failure: %v", updated, len(chunkIDs), err)
	}
	logger.Printf("embedded %d/%d chunks for source %s", updated, len(chunkIDs), source)
}

func statsCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	botID := flags.String("bot", "", "bot id")
	userID := flags.String("user", "", "owning user id")
	days := flags.Int("days", 30, "lookback window in days")
	detail := flags.Bool("detail", false, "also show top and unanswered queries")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse stats flags: %v", err)
	}

	bot, err := uuid.Parse(*botID)
	if err != nil {
		logger.Fatalf("invalid bot id: %v", err)
	}
	user, err := uuid.Parse(*userID)
	if err != nil {
		logger.Fatalf("invalid user id: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPool(ctx, cfg, logger)
	defer pool.Close()

	svc := analytics.NewService(pool, rag.NewPostgresBotStore(pool), logger)
	stats, err := svc.Summary(ctx, bot, user, *days)
	if err != nil {
		logger.Fatalf("summary stats: %v", err)
	}

	fmt.Printf("Queries:          %d\n", stats.TotalQueries)
	fmt.Printf("Unique sessions:  %d\n", stats.UniqueSessions)
	fmt.Printf("Tokens used:      %d (prompt %d, completion %d)\n",
		stats.TotalTokens, stats.PromptTokens, stats.CompletionTokens)
	if stats.AvgConfidence != nil {
		fmt.Printf("Avg confidence:   %.2f\n", *stats.AvgConfidence)
	}
	if stats.AvgLatencyMS != nil {
		fmt.Printf("Avg latency:      %.0f ms\n", *stats.AvgLatencyMS)
	}
	fmt.Printf("Period:           last %d days\n", stats.PeriodDays)

	if !*detail {
		return
	}

	top, err := svc.TopQueries(ctx, bot, user, 10, *days)
	if err != nil {
		logger.Fatalf("top queries: %v", err)
	}
	if len(top) > 0 {
		fmt.Println("\nTop queries:")
		for _, q := range top {
			fmt.Printf("  %3dx  %s\n", q.Frequency, q.QueryText)
		}
	}

	unanswered, err := svc.UnansweredQueries(ctx, bot, user, 20, *days)
	if err != nil {
		logger.Fatalf("unanswered queries: %v", err)
	}
	if len(unanswered) > 0 {
		fmt.Println("\nUnanswered queries:")
		for _, q := range unanswered {
			fmt.Printf("  %s  %s\n", q.CreatedAt.Format("2006-01-02"), q.QueryText)
		}
	}

	usage, err := svc.UsageOverTime(ctx, bot, user, *days)
	if err != nil {
		logger.Fatalf("usage over time: %v", err)
	}
	if len(usage) > 0 {
		fmt.Println("\nDaily usage:")
		for _, d := range usage {
			fmt.Printf("  %s  %4d queries  %6d tokens\n",
				d.Date.Format("2006-01-02"), d.QueryCount, d.TotalTokens)
		}
	}
}

func mustPool(ctx context.Context, cfg config.Config, logger *log.Logger) *pgxpool.Pool {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	return pool
}

func printUsage() {
	fmt.Println("Usage: botrag <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init    Create the database schema")
	fmt.Println("  ask     Answer a question against a bot's knowledge base")
	fmt.Println("  embed   Backfill embeddings for a source's pending chunks")
	fmt.Println("  stats   Show query analytics for a bot")
}
