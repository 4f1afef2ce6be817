// Package scanner walks a repository and outlines its source files with
// tree-sitter.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"repoviewer/internal/outline"
	"repoviewer/util"
)

// ErrInvalidPath is returned when the scan root is not a directory.
var ErrInvalidPath = errors.New("invalid repository path")

// DefaultIgnoreDirs are never descended into.
var DefaultIgnoreDirs = []string{".venv", "venv", "node_modules", "__pycache__", ".git"}

// Cache stores outlines keyed by file path and content hash.
type Cache interface {
	Get(ctx context.Context, path, hash string) (outline.Module, bool, error)
	Put(ctx context.Context, path, hash, language string, m outline.Module) error
}

// Pruner is implemented by caches that can forget files no longer present
// under a scanned root.
type Pruner interface {
	Prune(ctx context.Context, prefix string, keep []string) (int64, error)
}

// Config controls what a Scanner visits.
type Config struct {
	Languages    []string
	IgnoreDirs   []string
	UseGitignore bool
	Workers      int
	Verbose      bool
	Logger       *log.Logger
}

// Scanner outlines the files of a repository. It is safe for concurrent use.
type Scanner struct {
	cfg       Config
	languages map[string]*language
	cache     Cache
	logger    *log.Logger
}

// New compiles the queries for cfg.Languages. cache may be nil.
func New(cfg Config, cache Cache) (*Scanner, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"python"}
	}
	if cfg.IgnoreDirs == nil {
		cfg.IgnoreDirs = DefaultIgnoreDirs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	langs, err := loadLanguages(cfg.Languages)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{cfg: cfg, languages: langs, cache: cache, logger: logger}, nil
}

// Close releases the compiled queries.
func (s *Scanner) Close() {
	closeLanguages(s.languages)
}

type job struct {
	index int
	path  string
	lang  *language
}

type result struct {
	module outline.Module
	ok     bool
}

// Scan outlines every supported file under root in lexical walk order.
// Files that cannot be read or parsed are logged and skipped. The result is
// never nil.
func (s *Scanner) Scan(ctx context.Context, root string) ([]outline.Module, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, root)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	jobs, err := s.collect(ctx, root)
	if err != nil {
		return nil, err
	}
	s.debugf("collected %d files under %s", len(jobs), root)

	results := make([]result, len(jobs))
	queue := make(chan job)
	var wg sync.WaitGroup

	workers := min(s.cfg.Workers, max(len(jobs), 1))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				m, err := s.outlineFile(ctx, j.path, j.lang)
				if err != nil {
					s.logger.Printf("[scanner] Warning: skipping %s: %v", j.path, err)
					continue
				}
				results[j.index] = result{module: m, ok: true}
			}
		}()
	}

send:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			break send
		case queue <- j:
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modules := make([]outline.Module, 0, len(jobs))
	for _, r := range results {
		if r.ok {
			modules = append(modules, r.module)
		}
	}
	s.prune(ctx, root, modules)
	return modules, nil
}

func (s *Scanner) prune(ctx context.Context, root string, modules []outline.Module) {
	p, ok := s.cache.(Pruner)
	if !ok {
		return
	}
	keep := make([]string, len(modules))
	for i, m := range modules {
		keep[i] = m.Filename
	}
	prefix := strings.TrimSuffix(util.ToSlash(root), "/") + "/"
	n, err := p.Prune(ctx, prefix, keep)
	if err != nil {
		s.logger.Printf("[scanner] Warning: failed to prune stale outlines: %v", err)
		return
	}
	if n > 0 {
		s.debugf("pruned %d stale outlines under %s", n, root)
	}
}

func (s *Scanner) collect(ctx context.Context, root string) ([]job, error) {
	matcher := s.matcher(root)

	var jobs []job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Printf("[scanner] Warning: cannot read %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.MatchesPath(rel) || matcher.MatchesPath(rel+"/") {
				s.debugf("ignoring directory %s", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.MatchesPath(rel) {
			return nil
		}
		lang := languageFor(s.languages, path)
		if lang == nil {
			return nil
		}
		jobs = append(jobs, job{index: len(jobs), path: path, lang: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return jobs, nil
}

// matcher combines the configured directory names with the root .gitignore.
func (s *Scanner) matcher(root string) *ignore.GitIgnore {
	lines := append([]string{}, s.cfg.IgnoreDirs...)
	if s.cfg.UseGitignore {
		gitignore := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignore); err == nil {
			m, err := ignore.CompileIgnoreFileAndLines(gitignore, lines...)
			if err == nil {
				return m
			}
			s.logger.Printf("[scanner] Warning: failed to read %s: %v", gitignore, err)
		}
	}
	return ignore.CompileIgnoreLines(lines...)
}

// Languages lists every built-in language and whether it is enabled.
func (s *Scanner) Languages() []LanguageInfo {
	enabled := make(map[string]bool)
	for _, l := range s.languages {
		enabled[l.name] = true
	}
	var out []LanguageInfo
	for _, l := range builtinLanguages() {
		out = append(out, LanguageInfo{
			Name:       l.name,
			Extensions: l.extensions,
			Enabled:    enabled[l.name],
		})
	}
	return out
}

// Supports reports whether path has the extension of an enabled language.
func (s *Scanner) Supports(path string) bool {
	return languageFor(s.languages, path) != nil
}

// ParseFile outlines a single file. The language is chosen by extension.
func (s *Scanner) ParseFile(ctx context.Context, path string) (outline.Module, error) {
	lang := languageFor(s.languages, path)
	if lang == nil {
		return outline.Module{}, fmt.Errorf("no enabled language for %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return outline.Module{}, err
	}
	return s.outlineFile(ctx, abs, lang)
}

func (s *Scanner) outlineFile(ctx context.Context, path string, lang *language) (outline.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return outline.Module{}, fmt.Errorf("reading file: %w", err)
	}
	filename := util.ToSlash(path)
	hash := util.ContentHash(src)

	if s.cache != nil {
		m, ok, err := s.cache.Get(ctx, filename, hash)
		if err != nil {
			s.logger.Printf("[scanner] Warning: cache lookup failed for %s: %v", filename, err)
		} else if ok {
			s.debugf("cache hit %s", filename)
			return m, nil
		}
	}

	m, err := extract(lang, filename, src)
	if err != nil {
		return outline.Module{}, err
	}
	s.debugf("parsed %s (%s): %d symbols", filename, lang.name, m.SymbolCount())

	if s.cache != nil {
		if err := s.cache.Put(ctx, filename, hash, lang.name, m); err != nil {
			s.logger.Printf("[scanner] Warning: cache store failed for %s: %v", filename, err)
		}
	}
	return m, nil
}

func (s *Scanner) debugf(format string, args ...any) {
	if s.cfg.Verbose {
		s.logger.Printf("[scanner] "+format, args...)
	}
}
