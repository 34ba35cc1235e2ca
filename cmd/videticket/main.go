// Videticket is a file-backed, git-friendly ticket tracking engine.
// This binary wires the repository, cache, lock, and event bus together and
// exposes a minimal smoke-test surface; full CLI argument parsing and
// subcommands are out of scope for this module.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/videticket/videticket/internal/config"
	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/engine"
	"github.com/videticket/videticket/internal/events"
	"github.com/videticket/videticket/internal/specs"
	"github.com/videticket/videticket/internal/store"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	var (
		root        = flag.String("root", "", "Repository root (defaults to config's root, \".vibe-ticket\")")
		configPath  = flag.String("config", ".vibe-ticket.yaml", "Config file path")
		showVersion = flag.Bool("version", false, "Show version")
		initProject = flag.Bool("init", false, "Initialize a new project state in the repository root")
		status      = flag.Bool("status", false, "Print a ticket count summary, plus the active spec's task checklist progress when set, and exit")
		search      = flag.String("search", "", "Fuzzy-search tickets by title/description/tags/slug and print the ranked matches")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("videticket %s (commit: %s)\n", version, gitCommit)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Root = *root
	}

	repo := store.NewFileRepository(cfg.Root, cfg.Cache.TTL, logger)
	specStore := specs.New(cfg.Root, logger)
	bus := events.New(logger)
	bus.Subscribe(func(ev events.Event) error {
		logger.Info("ticket event", "event", fmt.Sprintf("%T", ev))
		return nil
	})
	svc := engine.New(repo, bus, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		os.Exit(130)
	}()

	switch {
	case *initProject:
		runInit(repo, logger)
	case *status:
		runStatus(repo, specStore, logger)
	case *search != "":
		runSearch(svc, *search, logger)
	default:
		flag.Usage()
	}
}

func runInit(repo store.Repository, logger *slog.Logger) {
	name := "untitled-project"
	if wd, err := os.Getwd(); err == nil {
		name = wd
	}
	if err := repo.SaveState(domain.NewProjectState(name)); err != nil {
		logger.Error("failed to initialize project", "error", err)
		os.Exit(1)
	}
	fmt.Println("Project initialized.")
}

func runStatus(repo store.Repository, specStore *specs.Store, logger *slog.Logger) {
	state, err := repo.LoadState()
	if err != nil {
		logger.Error("project not initialized", "error", err)
		os.Exit(1)
	}
	tickets, err := repo.LoadAll()
	if err != nil {
		logger.Error("failed to load tickets", "error", err)
		os.Exit(1)
	}

	open, done := 0, 0
	for _, t := range tickets {
		if t.Status.IsCompleted() {
			done++
		} else {
			open++
		}
	}
	fmt.Printf("%s: %d open, %d done (%d total)\n", state.Name, open, done, len(tickets))

	activeSpec, err := specStore.GetActive()
	if err != nil {
		logger.Warn("failed to read active spec pointer", "error", err)
		return
	}
	if activeSpec == nil {
		return
	}
	completed, total, err := specStore.Progress(*activeSpec)
	if err != nil {
		logger.Warn("failed to compute active spec's task checklist progress", "spec_id", *activeSpec, "error", err)
		return
	}
	if total > 0 {
		fmt.Printf("active spec %s: %d/%d tasks checked\n", activeSpec.Short(), completed, total)
	}
}

func runSearch(svc *engine.Service, query string, logger *slog.Logger) {
	results, err := svc.Search(query)
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, m := range results {
		fmt.Printf("%-4d %s  %s\n", m.Score, m.Ticket.Slug, m.Ticket.Title)
	}
}
