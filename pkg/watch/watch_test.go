package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/testutil"
)

func startDebounce(t *testing.T, clock clockwork.Clock, delay time.Duration) (chan<- string, <-chan []string, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string)
	fired := make(chan []string, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		assert.NoError(t, debounce(ctx, clock, delay, changes, func(changed []string) {
			fired <- changed
		}))
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return changes, fired, cancel
}

func TestDebounceFoldsBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	changes, fired, _ := startDebounce(t, clock, time.Second)

	changes <- "/p/b.py"
	changes <- "/p/a.py"
	// Sending again blocks until the previous change was handled.
	changes <- "/p/a.py"
	clock.BlockUntil(1)

	clock.Advance(time.Second)

	select {
	case got := <-fired:
		assert.Equal(t, []string{"/p/a.py", "/p/b.py"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("debounce did not fire")
	}
}

func TestDebounceWaitsForQuiet(t *testing.T) {
	clock := clockwork.NewFakeClock()
	changes, fired, _ := startDebounce(t, clock, time.Second)

	changes <- "/p/a.py"
	changes <- "/p/a.py"
	clock.BlockUntil(1)
	clock.Advance(600 * time.Millisecond)

	changes <- "/p/b.py"
	changes <- "/p/b.py"
	clock.Advance(600 * time.Millisecond)

	select {
	case got := <-fired:
		t.Fatalf("fired early with %v", got)
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(400 * time.Millisecond)
	select {
	case got := <-fired:
		assert.Equal(t, []string{"/p/a.py", "/p/b.py"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("debounce did not fire")
	}
}

func TestDebounceStopsWhenChangesClose(t *testing.T) {
	changes := make(chan string)
	close(changes)
	err := debounce(context.Background(), clockwork.NewFakeClock(), time.Second, changes, func([]string) {
		t.Fatal("unexpected fire")
	})
	assert.NoError(t, err)
}

func TestNewWatchesTree(t *testing.T) {
	root := t.TempDir()
	fsys := filesystem.NewOS()
	testutil.WriteTree(t, fsys, root, testutil.FileTree{
		"main.py": "pass",
		"lib":     testutil.FileTree{"sub": testutil.FileTree{"x.py": "pass"}},
		"dist":    testutil.FileTree{"main.py": "pass"},
	})

	ignore := []string{root + "/lib/../dist/"}
	w, err := New(Options{Roots: []string{root}, Ignore: ignore})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{root, filepath.Join(root, "lib"), filepath.Join(root, "lib", "sub")}, w.Dirs())
	assert.Equal(t, []string{root + "/lib/../dist/"}, ignore, "caller's ignore list is left untouched")
}

func TestNewRejectsBadRoots(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))

	_, err = New(Options{Roots: []string{filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
}

func TestRunReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dist"), 0755))

	w, err := New(Options{
		Roots:  []string{root},
		Ignore: []string{filepath.Join(root, "dist")},
		Filter: func(p string) bool { return !strings.HasSuffix(p, ".bak") },
		Delay:  50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fired := make(chan []string, 10)
	go func() {
		_ = w.Run(ctx, func(changed []string) { fired <- changed })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "dist", "out.py"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.bak"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("x"), 0644))

	select {
	case got := <-fired:
		assert.Contains(t, got, filepath.Join(root, "main.py"))
		assert.NotContains(t, got, filepath.Join(root, "notes.bak"))
		assert.NotContains(t, got, filepath.Join(root, "dist", "out.py"))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
