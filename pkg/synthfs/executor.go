// Package synthfs writes new project files, such as the starter
// configuration, through a synthfs pipeline.
//
// synthfs operations create their targets and fail when one already exists,
// so the executor only serves files distbuild creates from scratch. Syncing
// and hooks overwrite existing entries and go through pkg/filesystem.
package synthfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// File is a file to create.
type File struct {
	// Path is absolute and must lie inside the executor root.
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// Executor creates files below its root directory.
type Executor struct {
	root   string
	dryRun bool
	force  bool
	logger zerolog.Logger
	fs     synthfs.FileSystem
}

// NewExecutor returns an executor confined to root.
func NewExecutor(root string, dryRun bool) *Executor {
	root = filepath.Clean(root)
	return &Executor{
		root:   root,
		dryRun: dryRun,
		logger: logging.GetLogger("synthfs").With().Str("root", root).Logger(),
		fs:     filesystem.NewOSFileSystem(root),
	}
}

// EnableForce replaces existing files instead of failing.
func (e *Executor) EnableForce(force bool) *Executor {
	e.force = force
	return e
}

// Create writes files in order. A dry run only logs them.
func (e *Executor) Create(ctx context.Context, files []File) error {
	if len(files) == 0 {
		return nil
	}

	ops := make([]synthfs.Operation, 0, len(files))
	for _, f := range files {
		rel, err := e.relative(f.Path)
		if err != nil {
			return err
		}
		if e.dryRun {
			e.logger.Info().Str("path", f.Path).Int("size", len(f.Content)).Msg("Would create file")
			continue
		}
		if err := e.clear(filepath.Join(e.root, rel)); err != nil {
			return err
		}

		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}
		op := operations.NewCreateFileOperation(core.OperationID(fmt.Sprintf("create-file-%s", rel)), rel)
		op.SetItem(&fileItem{path: rel, content: f.Content, mode: mode})
		ops = append(ops, synthfs.NewOperationsPackageAdapter(op))
	}
	if e.dryRun {
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range ops {
		if err := pipeline.Add(op); err != nil {
			return errors.Wrap(err, errors.ErrFileSystem, "failed to add operation to pipeline")
		}
	}

	e.logger.Debug().Int("files", len(ops)).Msg("Creating files")
	result := synthfs.NewExecutor().Run(ctx, pipeline, e.fs)
	if err := result.GetError(); err != nil {
		return errors.Wrap(err, errors.ErrFileSystem, "failed to create files")
	}
	return nil
}

// relative maps path to the executor root and rejects paths outside it.
func (e *Executor) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "invalid path %s", path)
	}
	rel, err := filepath.Rel(e.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrConfigInvalid, "%s is outside %s", path, e.root)
	}
	return rel, nil
}

// clear makes room for path. An existing file is an error unless force is
// set, in which case it is removed first.
func (e *Executor) clear(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrFileSystem, "%s is a directory", path)
	}
	if !e.force {
		return errors.Newf(errors.ErrFileSystem, "%s already exists", path)
	}
	e.logger.Debug().Str("path", path).Msg("Removing existing file")
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "failed to remove %s", path)
	}
	return nil
}

// fileItem is the item synthfs needs for a create-file operation.
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }
