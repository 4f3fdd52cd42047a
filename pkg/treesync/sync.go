package treesync

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
	"github.com/arthur-debert/distbuild/pkg/matcher"
)

// DefaultCompiledExtensions are the artifact extensions never copied from a
// source tree.
var DefaultCompiledExtensions = []string{".pyc", ".pyo"}

// Options configures a sync.
type Options struct {
	SourceRoot string
	DestRoot   string
	// Include selects source files, relative rules resolved in SourceRoot.
	Include matcher.List
	// Protect shields destination entries from pruning and compiling,
	// relative rules resolved in DestRoot.
	Protect matcher.List

	Simulate bool

	Compile  bool
	Compiler Compiler
	// CompiledExtensions defaults to DefaultCompiledExtensions when nil.
	CompiledExtensions []string

	// FS defaults to the OS filesystem.
	FS filesystem.FS
	// Report, if set, receives every action as it happens.
	Report func(Action)
}

// Result describes a finished sync.
type Result struct {
	Actions []Action
	// Files is the destination file set after the sync, sorted. In simulate
	// mode it is the file set a real run would leave.
	Files []string
}

// Count returns how many actions of kind op were recorded.
func (r *Result) Count(op Op) int {
	n := 0
	for _, a := range r.Actions {
		if a.Op == op {
			n++
		}
	}
	return n
}

type syncer struct {
	opts   Options
	fs     filesystem.FS
	logger zerolog.Logger

	src string
	dst string

	include *matcher.Matcher
	protect *matcher.Matcher

	// pruned holds directories removed, or that would be removed, by prune.
	pruned map[string]bool
	// made holds directories known to exist once populate created them.
	made  map[string]bool
	files map[string]bool

	result *Result
}

// Sync prunes DestRoot, populates it from SourceRoot and optionally compiles
// it. Configuration problems are reported before anything is touched. Any
// later failure aborts the run and leaves the destination partially synced;
// running again converges.
func Sync(opts Options) (*Result, error) {
	s, err := newSyncer(opts)
	if err != nil {
		return nil, err
	}

	done := logging.LogOperationStart(s.logger, "sync")
	defer done()

	if err := s.prune(); err != nil {
		return s.result, err
	}
	if err := s.populate(); err != nil {
		return s.result, err
	}
	if s.opts.Compile {
		if err := s.compile(); err != nil {
			return s.result, err
		}
	}

	s.result.Files = sortedKeys(s.files)
	return s.result, nil
}

func newSyncer(opts Options) (*syncer, error) {
	if opts.SourceRoot == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "source root is required")
	}
	if opts.DestRoot == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "destination root is required")
	}
	if opts.Compile && opts.Compiler == nil {
		return nil, errors.New(errors.ErrConfigInvalid, "compile requested without a compiler")
	}
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	if opts.CompiledExtensions == nil {
		opts.CompiledExtensions = DefaultCompiledExtensions
	}

	src, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "invalid source root %s", opts.SourceRoot)
	}
	dst, err := filepath.Abs(opts.DestRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "invalid destination root %s", opts.DestRoot)
	}

	switch {
	case src == dst:
		return nil, errors.Newf(errors.ErrConfigInvalid, "source and destination are the same directory: %s", src)
	case isWithin(src, dst):
		return nil, errors.Newf(errors.ErrConfigInvalid, "destination %s contains the source %s", dst, src)
	}

	if !filesystem.IsDir(opts.FS, src) {
		return nil, errors.Newf(errors.ErrConfigInvalid, "source root is not a directory: %s", src)
	}
	if info, err := opts.FS.Stat(dst); err == nil && !info.IsDir() {
		return nil, errors.Newf(errors.ErrConfigInvalid, "destination root is not a directory: %s", dst)
	}

	include := opts.Include.Append(matcher.ExcludeRule(".*"), matcher.ExcludeRule("*/.*"))
	for _, ext := range opts.CompiledExtensions {
		include = include.Append(matcher.ExcludeSuffix(ext))
	}

	logger := logging.GetLogger("treesync").With().
		Str("source", src).
		Str("dest", dst).
		Bool("simulate", opts.Simulate).
		Logger()

	return &syncer{
		opts:    opts,
		fs:      opts.FS,
		logger:  logger,
		src:     src,
		dst:     dst,
		include: matcher.Compile(include, src),
		protect: matcher.Compile(opts.Protect, dst),
		pruned:  make(map[string]bool),
		made:    make(map[string]bool),
		files:   make(map[string]bool),
		result:  &Result{},
	}, nil
}

// record reports an action without performing anything.
func (s *syncer) record(a Action) {
	s.result.Actions = append(s.result.Actions, a)
	if s.opts.Report != nil {
		s.opts.Report(a)
	}
	s.logger.Debug().
		Str("phase", string(a.Phase)).
		Str("op", string(a.Op)).
		Str("path", a.Path).
		Str("target", a.Target).
		Msg("Sync action")
}

// apply records a mutating action and runs fn unless simulating.
func (s *syncer) apply(a Action, fn func() error) error {
	s.record(a)
	if s.opts.Simulate {
		return nil
	}
	if err := fn(); err != nil {
		code := errors.ErrFileSystem
		if a.Op == OpCompile {
			code = errors.ErrCompile
		}
		if errors.IsErrorCode(err, code) {
			return err
		}
		return errors.Wrapf(err, code, "%s failed", a.String()).
			WithDetail("phase", string(a.Phase))
	}
	return nil
}

// target maps a source path to its destination path.
func (s *syncer) target(srcPath string) string {
	rel, _ := filepath.Rel(s.src, srcPath)
	return filepath.Join(s.dst, rel)
}

func isWithin(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
