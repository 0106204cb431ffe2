// Package main is the itemx CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quadra/itemx/internal/batch"
	"github.com/quadra/itemx/internal/cli"
	"github.com/quadra/itemx/internal/config"
	"github.com/quadra/itemx/internal/server"
	"github.com/quadra/itemx/internal/storage"
	"github.com/quadra/itemx/internal/table"
	"github.com/quadra/itemx/internal/watcher"
	"github.com/quadra/itemx/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/itemx/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "extract":
		runExtract()
	case "watch":
		runWatch()
	case "jobs":
		runJobs()
	case "version", "--version", "-v":
		fmt.Printf("itemx version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Processor *batch.Processor
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// newReconstructor builds a table reconstructor from the extract config.
func newReconstructor(cfg *config.Config) *table.Reconstructor {
	return table.NewReconstructor(
		table.WithLineOverlap(cfg.Extract.LineOverlap),
		table.WithColumnGap(cfg.Extract.ColumnGap),
		table.WithMinColumnWidth(cfg.Extract.MinColumnWidth),
		table.WithSummaryAnchors(cfg.Extract.SummaryAnchors),
	)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	opts := []batch.ProcessorOption{batch.WithStorage(store)}
	if debug && logger != nil {
		opts = append(opts, batch.WithLogger(logger))
	}
	processor := batch.NewProcessor(newReconstructor(cfg), opts...)

	return &Components{
		Storage:   store,
		Processor: processor,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (uploads, extraction steps, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Watch folders run alongside the server when configured.
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				res := components.Processor.ProcessFile(context.Background(), path, cfg.Output.Directory)
				if res.Err != nil {
					logger.Warn("watch extract failed", zap.String("path", path), zap.Error(res.Err))
				}
			},
			watchOpts...,
		)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(components.Processor, components.Storage, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// collectPDFs expands the positional args into PDF paths: directories walk
// to their *.pdf entries, files pass through.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "", "output directory (default: from config)")
	bundle := fs.String("bundle", "", "bundle multiple outputs into this zip file")
	formatFlag := fs.String("format", "text", "result output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: itemx extract [flags] <pdf-or-directory> ...")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	paths, err := collectPDFs(fs.Args())
	if err != nil {
		fmt.Printf("Failed to collect input files: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("No PDF files to process")
		os.Exit(1)
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.Output.Directory
	}

	results := components.Processor.ProcessAll(context.Background(), paths, dir)
	if err := cli.WriteResults(os.Stdout, results, format); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
		os.Exit(1)
	}
	failed := 0
	for _, res := range results {
		if res.Err != nil && !res.NoData() {
			failed++
		}
	}

	if *bundle != "" {
		f, err := os.Create(*bundle)
		if err != nil {
			fmt.Printf("Failed to create bundle: %v\n", err)
			os.Exit(1)
		}
		if err := batch.BundleZip(results, f); err != nil {
			_ = f.Close()
			fmt.Printf("Failed to write bundle: %v\n", err)
			os.Exit(1)
		}
		_ = f.Close()
		fmt.Printf("bundle:   %s\n", *bundle)
	}

	if failed == len(results) {
		os.Exit(1)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	processExisting := fs.Bool("existing", false, "also process PDFs already present in the watched directories")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	roots := fs.Args()
	if len(roots) == 0 {
		roots = cfg.Watch.Directories
	}
	if len(roots) == 0 {
		fmt.Println("Usage: itemx watch [flags] <directory> ...")
		os.Exit(1)
	}

	watchOpts := []watcher.Option{}
	if cfg.Debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		roots,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			res := components.Processor.ProcessFile(context.Background(), path, cfg.Output.Directory)
			switch {
			case res.NoData():
				logger.Info("no line items", zap.String("path", path))
			case res.Err != nil:
				logger.Warn("extract failed", zap.String("path", path), zap.Error(res.Err))
			default:
				logger.Info("spreadsheet written",
					zap.String("source", path),
					zap.String("output", res.Output),
					zap.Int("records", res.Records))
			}
		},
		watchOpts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	if *processExisting {
		watchSvc.ProcessExistingFiles()
	}
	logger.Info("watching", zap.Strings("roots", roots), zap.String("output", cfg.Output.Directory))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	watchSvc.Stop()
}

func runJobs() {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of jobs to list")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open job history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	jobs, err := store.ListJobs(context.Background(), 0, *limit)
	if err != nil {
		fmt.Printf("Failed to list jobs: %v\n", err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded")
		return
	}
	for _, job := range jobs {
		line := fmt.Sprintf("%s  %-7s  %3d records  %s",
			job.CreatedAt.Format("2006-01-02 15:04:05"), job.Status, job.Records, job.Source)
		if job.Error != "" {
			line += "  (" + utils.Truncate(job.Error, 60) + ")"
		}
		fmt.Println(line)
	}
}

func printUsage() {
	fmt.Println(`itemx - PDF line-item extraction to Excel

Usage:
  itemx server [flags]                 Start the HTTP upload server
  itemx extract [flags] <pdf|dir> ...  Extract line items to .xlsx files
  itemx watch [flags] [dir ...]        Watch folders and extract dropped PDFs
  itemx jobs [flags]                   Show recent extraction jobs
  itemx version                        Show version
  itemx help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/itemx/config.yaml)
  --debug            Enable debug logging (uploads, extraction steps, etc.)

Extract Flags:
  --config string    Config file path
  --out string       Output directory (default: from config)
  --bundle string    Bundle multiple outputs into this zip file
  --format string    Result output format: text or json (default: text)

Watch Flags:
  --config string    Config file path
  --existing         Also process PDFs already present in the watched directories

Jobs Flags:
  --config string    Config file path
  --limit int        Number of jobs to list (default: 20)

Examples:
  itemx server
  itemx extract orcamento.pdf
  itemx extract --bundle planilhas.zip pdfs/
  itemx watch ~/Descargas/orcamentos
  itemx jobs --limit 50`)
}
