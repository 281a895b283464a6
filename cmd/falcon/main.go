// Command falcon is Falcon's CLI entrypoint, modeled on
// cmd/sqlite3def's parseOptions/main split: go-flags parses options,
// help/version exit early, and a thin main dispatches to the engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/falcon-search/falcon"
	"github.com/falcon-search/falcon/internal/concurrent"
	"github.com/falcon-search/falcon/internal/config"
	"github.com/falcon-search/falcon/internal/httpapi"
	"github.com/falcon-search/falcon/internal/logging"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/store"
)

var version string

func parseOptions(args []string) config.Config {
	var opts config.Flags
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] [file...]"
	_, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if opts.DB == "" && !opts.Memory {
		fmt.Print("No database is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	cfg, err := config.Resolve(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

func main() {
	cfg := parseOptions(os.Args[1:])

	logging.Init(cfg.Debug)
	var logger store.Logger = store.NullLogger{}
	if cfg.Debug {
		logger = logging.NewSlogLogger()
	}

	ctx := context.Background()

	if cfg.SelfTest {
		runSelfTest(ctx, cfg)
		return
	}

	if len(cfg.Files) > 1 && cfg.Memory {
		if err := ingestShardsConcurrently(ctx, cfg, logger); err != nil {
			log.Fatal(err)
		}
		return
	}

	engine, err := falcon.Open(ctx, falcon.Options{
		DBPath:             cfg.DB,
		InMemory:           cfg.Memory,
		Tokenizer:          cfg.Tokenizer,
		TokenPositionLimit: cfg.TokenPositionLimit,
		Logger:             logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	for _, path := range cfg.Files {
		if err := ingestFile(ctx, engine, path); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.Title != "" {
		id, err := engine.Add(ctx, cfg.Title, cfg.Content, 0)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Added document %d\n", id)
	}

	if cfg.DumpIndex {
		dumpIndex(ctx, engine, cfg.Debug)
	}
	if cfg.DumpDocuments {
		dumpDocuments(ctx, engine, cfg.Debug)
	}

	if cfg.Query != "" {
		runQuery(ctx, engine, cfg.Query)
	}

	if cfg.HTTP {
		srv := httpapi.New(engine.Store(), ngram.New(cfg.Tokenizer))
		addr := fmt.Sprintf(":%d", cfg.Port)
		fmt.Printf("Falcon listening on %s\n", addr)
		if err := srv.Handler().Run(addr); err != nil {
			log.Fatal(err)
		}
	}
}

func ingestFile(ctx context.Context, engine *falcon.Falcon, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		title, content, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if _, err := engine.Add(ctx, title, content, 0); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runQuery(ctx context.Context, engine *falcon.Falcon, query string) {
	docs, err := engine.Search(ctx, query)
	if falcon.IsNotFound(err) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range docs {
		fmt.Printf("%d\t%s\n", d.ID, d.Title)
	}
}

func dumpIndex(ctx context.Context, engine *falcon.Falcon, debug bool) {
	lists, err := store.NewIndexStore(engine.Store()).All(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("-- indices --")
	for _, pl := range lists {
		if debug {
			pp.Println(pl)
			continue
		}
		fmt.Printf("%s\t%d docs\t%d positions\n", pl.Token, len(pl.Positions), pl.PositionsCount)
	}
}

func dumpDocuments(ctx context.Context, engine *falcon.Falcon, debug bool) {
	docs, err := store.NewDocumentStore(engine.Store()).All(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("-- documents --")
	for _, d := range docs {
		if debug {
			pp.Println(d)
			continue
		}
		fmt.Printf("%d\t%s\n", d.ID, d.Title)
	}
}

func runSelfTest(ctx context.Context, cfg config.Config) {
	engine, err := falcon.Open(ctx, falcon.Options{InMemory: true, Tokenizer: cfg.Tokenizer})
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	if _, err := engine.Add(ctx, "selftest", "hello world", 0); err != nil {
		log.Fatal(err)
	}
	docs, err := engine.Search(ctx, "hello")
	if err != nil {
		log.Fatal(err)
	}
	if len(docs) != 1 {
		log.Fatalf("selftest: expected 1 match, got %d", len(docs))
	}
	fmt.Println("selftest OK")
}

// ingestShardsConcurrently treats each positional file as an
// independent shard: each gets its own in-memory store ingested
// concurrently (concurrency=-1, i.e. no limit on goroutines), then,
// when -d is set, flushed to "<db>.<shard file base name>" on disk.
// This is an additive
// CLI convenience over multiple disjoint store files; it never runs
// concurrent writers against one store, per the engine's concurrency
// model.
func ingestShardsConcurrently(ctx context.Context, cfg config.Config, logger store.Logger) error {
	_, err := concurrent.MapWithError(cfg.Files, -1, func(path string) (struct{}, error) {
		engine, err := falcon.Open(ctx, falcon.Options{
			InMemory:           true,
			Tokenizer:          cfg.Tokenizer,
			TokenPositionLimit: cfg.TokenPositionLimit,
			Logger:             logger,
		})
		if err != nil {
			return struct{}{}, err
		}
		defer engine.Close(ctx)

		if err := ingestFile(ctx, engine, path); err != nil {
			return struct{}{}, err
		}

		if cfg.DB != "" {
			if err := engine.FlushToFile(ctx, fmt.Sprintf("%s.%s", cfg.DB, shardSuffix(path))); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

func shardSuffix(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return base
}

