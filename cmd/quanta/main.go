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

	"github.com/poiesic/quanta"
	"github.com/poiesic/quanta/ai"
	"github.com/poiesic/quanta/index"
	"github.com/poiesic/quanta/index/qdrant"
	"github.com/poiesic/quanta/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "quanta",
		Usage: "Document retrieval system with grounded, cited answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "generator-model",
				Usage: "Generation model name",
				Value: "qwen2.5:3b",
			},
			&cli.IntFlag{
				Name:  "dim",
				Usage: "Embedding dimensionality",
				Value: 384,
			},
			&cli.StringFlag{
				Name:  "qdrant-url",
				Usage: "Optional Qdrant base URL for the secondary index",
			},
			&cli.StringFlag{
				Name:  "qdrant-api-key",
				Usage: "API key for the secondary index",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, embed and index a document",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Target collection",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "async",
						Usage: "Run ingestion as a background task and print its id",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a similarity query against a collection",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Collection to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of hits",
						Value:   quanta.DefaultTopK,
					},
					&cli.StringSliceFlag{
						Name:  "document",
						Usage: "Restrict hits to these document ids",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question and stream a grounded, cited answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Collection to answer from",
						Required: true,
					},
				},
			},
			{
				Name:   "collections",
				Usage:  "List collections",
				Action: collectionsCommand,
			},
			{
				Name:      "drop",
				Usage:     "Delete a collection and its stored units",
				ArgsUsage: "<collection>",
				Action:    dropCommand,
			},
			{
				Name:      "reindex",
				Usage:     "Re-embed every unit of a collection",
				ArgsUsage: "<collection>",
				Action:    reindexCommand,
			},
			{
				Name:   "tasks",
				Usage:  "List ingestion tasks",
				Action: tasksCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cancel",
						Usage: "Cancel the task with this id",
					},
					&cli.DurationFlag{
						Name:  "cleanup",
						Usage: "Purge terminal tasks older than this age",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService assembles a Service from the global flags.
func openService(c *cli.Context) (*quanta.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithEmbeddingDim(c.Int("dim")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []quanta.ServiceOption{quanta.WithAIConfig(aiConfig)}

	if url := c.String("qdrant-url"); url != "" {
		qdrantOpts := []qdrant.Option{}
		if key := c.String("qdrant-api-key"); key != "" {
			qdrantOpts = append(qdrantOpts, qdrant.WithAPIKey(key))
		}
		secondary, err := qdrant.NewClient(url, qdrantOpts...)
		if err != nil {
			return nil, fmt.Errorf("configuring secondary index: %w", err)
		}
		opts = append(opts, quanta.WithSecondary(secondary))
	}

	return quanta.NewService(c.String("db"), opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	doc := &ingestion.Document{
		Collection: c.String("collection"),
		Text:       string(content),
	}

	ctx := context.Background()
	if c.Bool("async") {
		id, err := service.IngestAsync(ctx, doc)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	result, err := service.Ingest(ctx, doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Document: %s\n", result.DocumentId)
	fmt.Fprintf(os.Stderr, "Collection: %s\n", result.Collection)
	fmt.Fprintf(os.Stderr, "Units indexed: %d\n", result.Units)
	if result.Degraded {
		fmt.Fprintln(os.Stderr, "Warning: chunking degraded to fixed-size fallback")
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	var opts []index.SearchOption
	if docs := c.StringSlice("document"); len(docs) > 0 {
		opts = append(opts, index.WithDocuments(docs...))
	}

	hits, err := service.Search(context.Background(), c.String("collection"),
		c.Args().First(), c.Int("top-k"), opts...)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Fprintln(os.Stderr, "No results")
		return nil
	}
	for i, hit := range hits {
		fmt.Printf("%d. [%.4f] %s (doc %s", i+1, hit.Score, hit.UnitId, hit.DocumentId)
		if hit.Location.Page > 0 {
			fmt.Printf(", page %d", hit.Location.Page)
		}
		fmt.Println(")")
		if len(hit.Headings) > 0 {
			fmt.Printf("   %s\n", strings.Join(hit.Headings, " > "))
		}
		fmt.Printf("   %s\n", firstLine(hit.Text))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	answer, err := service.Ask(context.Background(), c.String("collection"),
		c.Args().First(), nil, func(fragment string) {
			fmt.Print(fragment)
		})
	if err != nil {
		return err
	}
	fmt.Println()

	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range answer.Sources {
			fmt.Printf("[%d] %s", i+1, source.DocumentId)
			if source.Location.Page > 0 {
				fmt.Printf(" (page %d)", source.Location.Page)
			}
			fmt.Println()
		}
	}
	return nil
}

func collectionsCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	infos, err := service.Collections(context.Background())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(os.Stderr, "No collections")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s\t%d units\t%s\n", info.Name, info.Count, info.Status)
	}
	return nil
}

func dropCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one collection argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	return service.DeleteCollection(context.Background(), c.Args().First())
}

func reindexCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one collection argument")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	count, err := service.Reindex(context.Background(), c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Reindexed %d units\n", count)
	return nil
}

func tasksCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()

	if id := c.String("cancel"); id != "" {
		if err := service.CancelTask(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Cancelled %s\n", id)
		return nil
	}

	if age := c.Duration("cleanup"); age > 0 {
		deleted, err := service.CleanupTasks(ctx, age)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Purged %d terminal tasks\n", deleted)
		return nil
	}

	tasks, err := service.Tasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks")
		return nil
	}
	for _, task := range tasks {
		line := fmt.Sprintf("%s\t%s\t%s\t%s", task.Id, task.Type,
			task.Status.String(), task.CreatedAt.Format(time.RFC3339))
		if task.Error != "" {
			line += "\terror: " + task.Error
		} else if task.Result != "" {
			line += "\t" + task.Result
		}
		fmt.Println(line)
	}
	return nil
}

// firstLine trims a hit preview down to its first line.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return text
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
