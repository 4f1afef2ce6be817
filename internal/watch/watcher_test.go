package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, root string, opts Options) <-chan struct{} {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	w, err := New(root, opts)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes := make(chan struct{}, 16)
	go w.Run(ctx, func(context.Context) error {
		changes <- struct{}{}
		return nil
	})
	return changes
}

func expectChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func expectQuiet(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change reported")
	case <-time.After(300 * time.Millisecond):
	}
}

func isPython(path string) bool {
	return strings.HasSuffix(path, ".py")
}

func TestReportsMatchingWrite(t *testing.T) {
	root := t.TempDir()
	changes := start(t, root, Options{Match: isPython})

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0644))
	expectChange(t, changes)
}

func TestIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	changes := start(t, root, Options{Match: isPython})

	require.NoError(t, os.WriteFile(filepath.Join(root, "graph.dot"), []byte("digraph G {}"), 0644))
	expectQuiet(t, changes)
}

func TestDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	changes := start(t, root, Options{Match: isPython, Debounce: 200 * time.Millisecond})

	for i := range 5 {
		name := filepath.Join(root, "f"+string(rune('a'+i))+".py")
		require.NoError(t, os.WriteFile(name, []byte("pass\n"), 0644))
	}
	expectChange(t, changes)
	expectQuiet(t, changes)
}

func TestWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	changes := start(t, root, Options{Match: isPython})

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0755))
	expectChange(t, changes)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.py"), []byte("pass\n"), 0644))
	expectChange(t, changes)
}

func TestSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	venv := filepath.Join(root, ".venv")
	require.NoError(t, os.Mkdir(venv, 0755))
	changes := start(t, root, Options{Match: isPython, IgnoreDirs: []string{".venv"}})

	require.NoError(t, os.WriteFile(filepath.Join(venv, "site.py"), []byte("pass\n"), 0644))
	expectQuiet(t, changes)
}

func TestIgnored(t *testing.T) {
	w := &Watcher{root: "/r", ignore: map[string]bool{"node_modules": true}}
	assert.True(t, w.ignored("/r/node_modules/x.js"))
	assert.True(t, w.ignored("/r/a/node_modules"))
	assert.False(t, w.ignored("/r/a/b.js"))
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestSkipsGitignoredPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build\n*_gen.py\n"), 0644))
	build := filepath.Join(root, "build")
	require.NoError(t, os.Mkdir(build, 0755))
	changes := start(t, root, Options{Match: isPython, Gitignore: true})

	require.NoError(t, os.WriteFile(filepath.Join(build, "c.py"), []byte("pass\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models_gen.py"), []byte("pass\n"), 0644))
	expectQuiet(t, changes)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("pass\n"), 0644))
	expectChange(t, changes)
}

func TestGitignoreOff(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*_gen.py\n"), 0644))
	changes := start(t, root, Options{Match: isPython})

	require.NoError(t, os.WriteFile(filepath.Join(root, "models_gen.py"), []byte("pass\n"), 0644))
	expectChange(t, changes)
}
