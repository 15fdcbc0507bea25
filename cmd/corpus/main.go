// Copyright 2025 Corpus Authors
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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	corpus "github.com/corpushq/corpus"
	"github.com/corpushq/corpus/ai"
	"github.com/corpushq/corpus/core"
	"github.com/corpushq/corpus/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the corpus database directory",
		Required: true,
	}
	hostFlag := &cli.StringFlag{
		Name:  "host",
		Usage: "OpenAI-compatible service host URL",
		Value: "http://localhost:11434/v1",
	}
	embeddingModelFlag := &cli.StringFlag{
		Name:  "embedding-model",
		Usage: "Embedding model name",
		Value: "embeddinggemma",
	}
	chatModelFlag := &cli.StringFlag{
		Name:  "chat-model",
		Usage: "Chat model name for answer generation",
		Value: "qwen2.5:3b",
	}

	app := &cli.App{
		Name:   "corpus",
		Usage:  "Document retrieval and deduplication engine",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a plain-text file into the corpus",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags:     []cli.Flag{dbFlag, hostFlag, embeddingModelFlag, chatModelFlag},
			},
			{
				Name:      "search",
				Usage:     "Search the corpus",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode: keyword, vector, or hybrid",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
				}, dbFlag, hostFlag, embeddingModelFlag, chatModelFlag),
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the ingested documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of passages used as evidence",
						Value:   5,
					},
				}, dbFlag, hostFlag, embeddingModelFlag, chatModelFlag),
			},
			{
				Name:   "stats",
				Usage:  "Print corpus-wide aggregates",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag, hostFlag, embeddingModelFlag, chatModelFlag},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and everything derived from it",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag, hostFlag, embeddingModelFlag, chatModelFlag},
			},
			{
				Name:   "reset",
				Usage:  "Clear all stored state",
				Action: resetCommand,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the reset",
					},
				}, dbFlag, hostFlag, embeddingModelFlag, chatModelFlag),
			},
			{
				Name:      "snapshot",
				Usage:     "Write a full backup of the corpus to a file",
				ArgsUsage: "OUTPUT_FILE",
				Action:    snapshotCommand,
				Flags:     []cli.Flag{dbFlag, hostFlag, embeddingModelFlag, chatModelFlag},
			},
			{
				Name:      "restore",
				Usage:     "Load a backup written by snapshot into the corpus",
				ArgsUsage: "SNAPSHOT_FILE",
				Action:    restoreCommand,
				Flags:     []cli.Flag{dbFlag, hostFlag, embeddingModelFlag, chatModelFlag},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
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
				}, dbFlag, hostFlag, embeddingModelFlag, chatModelFlag),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openEngine opens the corpus behind the shared flags.
func openEngine(c *cli.Context) (*corpus.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	return corpus.New(c.String("db"), corpus.WithAIConfig(aiConfig))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	receipt, err := engine.Ingest(context.Background(), filepath.Base(path), content, string(content))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateFile) && receipt != nil {
			fmt.Printf("Already ingested as document %d\n", receipt.DocumentId)
			return nil
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested document %d (%d chunks)\n", receipt.DocumentId, receipt.ChunksCreated)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	limit := c.Int("limit")

	var results []*core.SearchResult
	switch strings.ToLower(c.String("mode")) {
	case "keyword":
		results, err = engine.SearchKeyword(ctx, query, limit)
	case "vector":
		results, err = engine.SearchVector(ctx, query, limit)
	case "hybrid":
		results, err = engine.SearchHybrid(ctx, query, limit)
	default:
		return fmt.Errorf("invalid mode %q: must be keyword, vector, or hybrid", c.String("mode"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.4f] %s (chunk %d)\n", i+1, result.Score, result.Filename, result.ChunkIndex)
		fmt.Printf("   %s\n", snippet(result.Text, 160))
		if len(result.AlsoFoundIn) > 0 {
			fmt.Printf("   also found in documents: %v\n", result.AlsoFoundIn)
		}
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	answer, err := engine.Ask(context.Background(), c.Args().First(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  - %s (document %d, chunk %d)\n",
				citation.Filename, citation.DocumentId, citation.ChunkIndex)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	fmt.Printf("Documents:        %d\n", stats.DocumentCount)
	fmt.Printf("Chunks:           %d\n", stats.ChunkCount)
	fmt.Printf("Distinct terms:   %d\n", stats.TermCount)
	fmt.Printf("Avg chunk tokens: %.1f\n", stats.AvgChunkTokens())
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document ID argument")
	}

	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document ID: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DeleteDocument(context.Background(), core.ID(id)); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func resetCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to reset without --yes")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Reset(context.Background()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Println("Corpus cleared.")
	return nil
}

func snapshotCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one output file argument")
	}
	outPath := c.Args().First()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	if err := engine.Snapshot(context.Background(), f); err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	fmt.Printf("Snapshot written to %s\n", outPath)
	return nil
}

func restoreCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one snapshot file argument")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.RestoreSnapshot(f); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println("Snapshot restored.")
	return nil
}

func reembedCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := engine.NewReembedder(reembedConfig, os.Stderr)
	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// snippet shortens text to at most n characters on a rune boundary.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
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
