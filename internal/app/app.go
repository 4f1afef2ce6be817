// Package app wires the scanner, the outline cache and the DOT builder from
// a Config. Every surface (HTTP, MCP, CLI) goes through an App.
package app

import (
	"context"
	"fmt"
	"log"

	"repoviewer/internal/config"
	"repoviewer/internal/dot"
	"repoviewer/internal/outline"
	"repoviewer/internal/scanner"
	"repoviewer/internal/store"
)

// App answers outline and graph requests for repository paths.
type App struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	store   *store.Store
	builder *dot.Builder
}

// Options adjust how an App is built.
type Options struct {
	Verbose bool
	Logger  *log.Logger
}

// New builds an App. The outline cache is opened only when enabled.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg}

	var cache scanner.Cache
	if cfg.Cache.Enabled {
		st, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open outline cache: %w", err)
		}
		a.store = st
		cache = st
	}

	sc, err := scanner.New(scanner.Config{
		Languages:    cfg.Scanner.Languages,
		IgnoreDirs:   cfg.Scanner.IgnoreDirs,
		UseGitignore: cfg.Scanner.Gitignore,
		Workers:      cfg.Scanner.Workers,
		Verbose:      opts.Verbose,
		Logger:       opts.Logger,
	}, cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}
	a.scanner = sc

	a.builder = dot.New(
		dot.WithLinker(dot.NewLinker(cfg.Graph.LinkScheme)),
		dot.WithModuleColor(cfg.Graph.ModuleColor),
		dot.WithClassColor(cfg.Graph.ClassColor),
	)
	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Outline scans the repository at path.
func (a *App) Outline(ctx context.Context, path string) ([]outline.Module, error) {
	return a.scanner.Scan(ctx, path)
}

// OutlineFile outlines a single source file.
func (a *App) OutlineFile(ctx context.Context, path string) (outline.Module, error) {
	return a.scanner.ParseFile(ctx, path)
}

// Supports reports whether path would be outlined by a scan.
func (a *App) Supports(path string) bool {
	return a.scanner.Supports(path)
}

// Languages lists the outline languages and which of them are enabled.
func (a *App) Languages() []scanner.LanguageInfo {
	return a.scanner.Languages()
}

// Graph scans the repository at path and renders it.
func (a *App) Graph(ctx context.Context, path string) (string, error) {
	modules, err := a.Outline(ctx, path)
	if err != nil {
		return "", err
	}
	return a.builder.Build(modules), nil
}

// Render renders an outline that was produced elsewhere.
func (a *App) Render(modules []outline.Module) string {
	return a.builder.Build(modules)
}

// Close releases the scanner and the cache.
func (a *App) Close() error {
	if a.scanner != nil {
		a.scanner.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
