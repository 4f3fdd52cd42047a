// Package watch rebuilds when files below a set of directories change.
//
// fsnotify does not watch recursively, so every directory below a root is
// added on start and new directories are added as they appear. Bursts of
// events are folded into one callback once the tree has been quiet for the
// configured delay.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// DefaultDelay is the quiet period used when Options.Delay is zero.
const DefaultDelay = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Roots are watched recursively.
	Roots []string
	// Ignore lists directories that are never watched, such as the
	// distribution directory.
	Ignore []string
	// Filter, if set, decides whether a changed path triggers a rebuild.
	Filter func(path string) bool
	Delay  time.Duration
	Clock  clockwork.Clock
	FS     filesystem.FS
}

// Watcher reports changes below its roots.
type Watcher struct {
	opts   Options
	fsw    *fsnotify.Watcher
	logger zerolog.Logger

	mu      sync.Mutex
	watched map[string]bool
}

// New starts watching every directory below opts.Roots.
func New(opts Options) (*Watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New(errors.ErrConfigInvalid, "nothing to watch")
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	ignore := make([]string, len(opts.Ignore))
	for i, dir := range opts.Ignore {
		ignore[i] = filepath.Clean(dir)
	}
	opts.Ignore = ignore

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileSystem, "failed to create file watcher")
	}

	w := &Watcher{
		opts:    opts,
		fsw:     fsw,
		logger:  logging.GetLogger("watch"),
		watched: make(map[string]bool),
	}
	for _, root := range opts.Roots {
		if err := w.addTree(filepath.Clean(root)); err != nil {
			if cerr := fsw.Close(); cerr != nil {
				w.logger.Warn().Err(cerr).Msg("Failed to close file watcher")
			}
			return nil, err
		}
	}
	w.logger.Info().Int("directories", len(w.Dirs())).Msg("Watching for changes")
	return w, nil
}

// Dirs returns the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.watched))
	for d := range w.watched {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls onChange with the changed paths, sorted, after every burst of
// changes. It returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	changes := make(chan string)
	go w.forward(ctx, changes)
	return debounce(ctx, w.opts.Clock, w.opts.Delay, changes, onChange)
}

// forward turns fsnotify events into changed paths.
func (w *Watcher) forward(ctx context.Context, out chan<- string) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Chmod) || w.ignored(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) && filesystem.IsDir(w.opts.FS, ev.Name) {
				if err := w.addTree(ev.Name); err != nil {
					w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
				}
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.mu.Lock()
				delete(w.watched, ev.Name)
				w.mu.Unlock()
			}
			if w.opts.Filter != nil && !w.opts.Filter(ev.Name) {
				continue
			}
			w.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("Change detected")
			select {
			case out <- ev.Name:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.opts.Ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	if w.ignored(dir) {
		return nil
	}
	if !filesystem.IsDir(w.opts.FS, dir) {
		return errors.Newf(errors.ErrConfigInvalid, "not a directory: %s", dir)
	}
	w.mu.Lock()
	seen := w.watched[dir]
	w.mu.Unlock()
	if !seen {
		if err := w.fsw.Add(dir); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "failed to watch %s", dir)
		}
		w.mu.Lock()
		w.watched[dir] = true
		w.mu.Unlock()
	}

	entries, err := w.opts.FS.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "failed to read directory %s", dir)
	}
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 || !entry.IsDir() {
			continue
		}
		if err := w.addTree(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// debounce collects changes until none arrive for delay, then hands them to
// fire. It returns when ctx is done or changes is closed.
func debounce(ctx context.Context, clock clockwork.Clock, delay time.Duration, changes <-chan string, fire func([]string)) error {
	var timer clockwork.Timer
	var timeout <-chan time.Time
	pending := make(map[string]bool)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-changes:
			if !ok {
				return nil
			}
			pending[p] = true
			if timer == nil {
				timer = clock.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			timeout = timer.Chan()
		case <-timeout:
			timeout = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			fire(changed)
		}
	}
}
