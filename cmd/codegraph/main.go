// Command codegraph is the thin CLI over the indexing pipeline: one
// subcommand to run a whole-project pass, one to serve the read-only MCP
// surface, one to clear. All indexing logic lives in pkg/.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/codegraph/codegraph/pkg/config"
	"github.com/codegraph/codegraph/pkg/graph"
	"github.com/codegraph/codegraph/pkg/mcpadapter"
	"github.com/codegraph/codegraph/pkg/pipeline"
	"github.com/codegraph/codegraph/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// .env is a CLI-boundary convenience only; library code never reads the
	// environment.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "index":
		runIndex(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "clear":
		runClear(os.Args[2:])
	case "version":
		fmt.Printf("codegraph %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	opts := config.Default()
	fs.StringVar(&opts.ProjectPath, "project", "", "path to the project to index (required)")
	fs.StringVar(&opts.ProjectName, "name", "", "project name (defaults to the directory name)")
	fs.BoolVar(&opts.ClearBefore, "clear", false, "clear this project's scope before indexing")
	fs.IntVar(&opts.BatchSize, "batch-size", opts.BatchSize, "bulk edge batch size")
	fs.BoolVar(&opts.AnalyzeDomains, "domains", opts.AnalyzeDomains, "run domain analysis")
	fs.StringVar(&opts.DomainsConfigPath, "domains-config", "", "path to the domain configuration document")
	fs.IntVar(&opts.Workers, "workers", 0, "worker pool size (0 = auto)")
	uri := fs.String("uri", "", "graph database URI (overrides NEO4J_URI)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	timeout := fs.Duration("timeout", 0, "full pipeline timeout (0 = none)")
	_ = fs.Parse(args)

	opts.FromEnv()
	if *uri != "" {
		opts.GraphURI = *uri
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(*logLevel),
		Format: util.FormatText,
		Output: os.Stderr,
	})

	p, err := pipeline.New(opts, logger)
	if err != nil {
		fatal(err)
	}
	defer p.Close()

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.Run(ctx)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("indexed %d/%d files in %s\n", result.FilesParsed, result.FilesDiscovered, time.Since(start).Round(time.Millisecond))
	fmt.Printf("nodes created: %d, relationships created: %d\n", result.Write.NodesCreated, result.Write.RelationshipsCreated)
	fmt.Printf("calls resolved: %d/%d (%.1f%%)\n", result.Resolution.ResolvedCalls, result.Resolution.TotalCalls, result.Resolution.ResolutionRate*100)
	for _, fe := range result.ParseErrors {
		fmt.Fprintf(os.Stderr, "parse error: %s: %s\n", fe.FilePath, fe.Message)
	}
	for _, fe := range result.Write.Errors {
		fmt.Fprintf(os.Stderr, "write error: %s: %s\n", fe.FilePath, fe.Message)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	uri := fs.String("uri", "", "graph database URI (overrides NEO4J_URI)")
	_ = fs.Parse(args)

	opts := config.Default()
	opts.FromEnv()
	if *uri != "" {
		opts.GraphURI = *uri
	}

	client, err := graph.NewClient(context.Background(), graph.Config{
		URI:      opts.GraphURI,
		Username: opts.GraphUser,
		Password: opts.GraphPassword,
	}, nil)
	if err != nil {
		fatal(err)
	}
	defer client.Close(context.Background())

	if err := mcpadapter.NewServer(client).ServeStdio(); err != nil {
		fatal(err)
	}
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	project := fs.String("project", "", "project path to clear (empty = every code-graph label)")
	uri := fs.String("uri", "", "graph database URI (overrides NEO4J_URI)")
	_ = fs.Parse(args)

	opts := config.Default()
	opts.FromEnv()
	if *uri != "" {
		opts.GraphURI = *uri
	}

	ctx := context.Background()
	client, err := graph.NewClient(ctx, graph.Config{
		URI:      opts.GraphURI,
		Username: opts.GraphUser,
		Password: opts.GraphPassword,
	}, nil)
	if err != nil {
		fatal(err)
	}
	defer client.Close(ctx)

	w := graph.NewWriter(client, nil, nil, nil)
	if *project != "" {
		err = w.ClearProject(ctx, *project)
	} else {
		err = w.ClearAll(ctx)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Println("cleared")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "codegraph: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`codegraph — source repository indexer for a code property graph

Usage:
  codegraph index -project <path> [flags]   index a project into the graph
  codegraph serve [flags]                   serve the read-only MCP tool surface
  codegraph clear [-project <path>]         clear a project scope (or everything)
  codegraph version
  codegraph help

Graph connection comes from NEO4J_URI / NEO4J_USERNAME / NEO4J_PASSWORD
(a local .env file is honored) or the -uri flag.`)
}
