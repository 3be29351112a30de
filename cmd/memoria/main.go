// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	memoria "github.com/viannik/memoria-tg-bot"
	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/ingestion"
	"github.com/viannik/memoria-tg-bot/reembed"
	"github.com/viannik/memoria-tg-bot/telegram"
)

func main() {
	app := &cli.App{
		Name:  "memoria",
		Usage: "Chat history ingestion, chunking and retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a chat history export file and bulk-chunk the chat",
				ArgsUsage: "<export.json>",
				Action:    importCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages per transactional write",
						Value: 5000,
					},
					&cli.BoolFlag{
						Name:  "skip-chunking",
						Usage: "Only persist messages, do not run the chunking pass",
					},
				),
			},
			{
				Name:   "chunk",
				Usage:  "Bulk-chunk the unchunked messages of one chat, or all chats",
				Action: chunkCommand,
				Flags: append(storeFlags(),
					&cli.Int64Flag{
						Name:  "chat",
						Usage: "Chat id to chunk (all chats when omitted)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Messages per chunk",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Messages shared by consecutive chunks",
						Value: 2,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search chunked history for text similar to the query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(storeFlags(),
					&cli.Int64Flag{
						Name:  "chat",
						Usage: "Restrict the search to one chat",
					},
					&cli.Int64Flag{
						Name:  "user",
						Usage: "Restrict the search to chunks involving one user",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the vectors of all stored chunks",
				Action: reembedCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func openStore(c *cli.Context) (*memoria.Store, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	store, err := memoria.NewStore(c.String("db"), memoria.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one export file argument")
	}
	path := c.Args().First()

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	importer, err := store.NewImporter(telegram.WithBatchSize(c.Int("batch-size")))
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	ctx := context.Background()
	report, err := importer.Run(ctx, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d messages (%d already present, %d users created, %d skipped)\n",
		report.Imported, report.Existing, report.UsersCreated, report.Skipped)

	if c.Bool("skip-chunking") {
		return nil
	}

	chunker, err := store.NewChunker()
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}
	defer chunker.Release()

	created, err := chunker.ChunkAllChats(ctx)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created %d chunks\n", created)
	return nil
}

func chunkCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	chunker, err := store.NewChunker(ingestion.WithConfig(ingestion.Config{
		ChunkSize:    c.Int("chunk-size"),
		ChunkOverlap: c.Int("chunk-overlap"),
	}))
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}
	defer chunker.Release()

	ctx := context.Background()
	var created int
	if chatId := c.Int64("chat"); chatId != 0 {
		created, err = chunker.ChunkChat(ctx, chatId)
	} else {
		created, err = chunker.ChunkAllChats(ctx)
	}
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created %d chunks\n", created)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher, err := store.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	scope := core.ChunkScope{
		ChatId: c.Int64("chat"),
		UserId: c.Int64("user"),
	}
	matches, err := searcher.FindSimilar(context.Background(), query, scope, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, match := range matches {
		fmt.Printf("%d. [%.3f] chat %d, %s .. %s\n%s\n\n",
			i+1, match.Score, match.Chunk.ChatId,
			match.Chunk.FromTime.Format("2006-01-02 15:04"),
			match.Chunk.ToTime.Format("2006-01-02 15:04"),
			match.Chunk.ChunkText)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := store.NewReembedder(config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n\n", c.String("embedding-model"))

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
