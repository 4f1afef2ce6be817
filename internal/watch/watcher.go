// Package watch reports source changes under a repository root.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultDebounce is how long the tree must be quiet before a change fires.
const DefaultDebounce = 300 * time.Millisecond

// Options control which events are reported.
type Options struct {
	// IgnoreDirs are directory names that are never watched.
	IgnoreDirs []string
	// Gitignore also skips paths matched by the root .gitignore.
	Gitignore bool
	// Match reports whether a changed file is of interest. Nil matches all.
	Match    func(path string) bool
	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher watches every directory under a root. fsnotify is not recursive,
// so directories created later are added as they appear.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	ignore   map[string]bool
	excluded *ignore.GitIgnore
	match    func(string) bool
	debounce time.Duration
	logger   *log.Logger
}

// New starts watching root.
func New(root string, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		fs:       fw,
		root:     root,
		ignore:   make(map[string]bool, len(opts.IgnoreDirs)),
		match:    opts.Match,
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
	for _, d := range opts.IgnoreDirs {
		w.ignore[d] = true
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.Default()
	}
	if opts.Gitignore {
		w.excluded = w.gitignore()
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (w.ignore[d.Name()] || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) gitignore() *ignore.GitIgnore {
	path := filepath.Join(w.root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		w.logger.Printf("[watch] Warning: failed to read %s: %v", path, err)
		return nil
	}
	return m
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if w.ignore[part] {
			return true
		}
	}
	return w.excluded != nil && (w.excluded.MatchesPath(rel) || w.excluded.MatchesPath(rel+"/"))
}

// Run calls onChange once the tree has been quiet for the debounce interval
// after a relevant event. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Printf("[watch] Warning: %v", err)
					}
					timer.Reset(w.debounce)
					fire = timer.C
					continue
				}
			}
			if w.match != nil && !w.match(ev.Name) {
				continue
			}
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("[watch] Warning: %v", err)

		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				w.logger.Printf("[watch] Warning: refresh failed: %v", err)
			}
		}
	}
}
