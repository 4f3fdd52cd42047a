// Package archive packs a distribution directory into a tarball.
//
// Entries are stored below a single top-level directory named after the
// tarball with its extension stripped, and are owned by root:root.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"

	"github.com/dsnet/compress/bzip2"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// Format is the compression applied to a tarball.
type Format string

const (
	Gzip  Format = "gzip"
	Bzip2 Format = "bzip2"
)

var tarballName = regexp.MustCompile(`^(.+)\.(tar\.gz|tgz|tar\.bz2)$`)

// Parse splits a tarball path into the top-level directory name its entries
// are stored under and its compression format.
func Parse(tarball string) (string, Format, error) {
	m := tarballName.FindStringSubmatch(filepath.Base(tarball))
	if m == nil {
		return "", "", errors.Newf(errors.ErrConfigInvalid,
			"tarball name must end in .tar.gz, .tgz or .tar.bz2: %s", tarball)
	}
	if m[2] == "tar.bz2" {
		return m[1], Bzip2, nil
	}
	return m[1], Gzip, nil
}

// Options configures Create.
type Options struct {
	// Path is the tarball to write.
	Path string
	// Root is the directory members are read from.
	Root string
	// Members are slash-separated paths relative to Root.
	Members []string
	// Simulate reports every entry without writing anything.
	Simulate bool
	FS       filesystem.FS
	// Report, if set, receives the name of every archived entry.
	Report func(entry string)
}

// Create writes the tarball and returns the entry names it stores.
func Create(opts Options) (entries []string, err error) {
	base, format, err := Parse(opts.Path)
	if err != nil {
		return nil, err
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}

	logger := logging.GetLogger("archive")
	logger.Info().
		Str("tarball", opts.Path).
		Str("format", string(format)).
		Int("members", len(opts.Members)).
		Bool("simulate", opts.Simulate).
		Msg("Creating tarball")

	entries = make([]string, 0, len(opts.Members))
	if opts.Simulate {
		for _, member := range opts.Members {
			entry := path.Join(base, member)
			report(opts, entry)
			entries = append(entries, entry)
		}
		return entries, nil
	}

	out, err := fsys.Create(opts.Path, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchive, "failed to create tarball %s", opts.Path)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, errors.ErrArchive, "failed to close tarball %s", opts.Path)
		}
	}()

	compressed, err := compressor(out, format)
	if err != nil {
		return nil, err
	}

	tw := tar.NewWriter(compressed)
	for _, member := range opts.Members {
		entry := path.Join(base, member)
		if err := addMember(fsys, tw, filepath.Join(opts.Root, filepath.FromSlash(member)), entry); err != nil {
			return nil, err
		}
		report(opts, entry)
		entries = append(entries, entry)
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrArchive, "failed to finish tar stream")
	}
	if err := compressed.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrArchive, "failed to finish compression")
	}
	return entries, nil
}

func compressor(w io.Writer, format Format) (io.WriteCloser, error) {
	if format == Bzip2 {
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchive, "failed to start bzip2 stream")
		}
		return bw, nil
	}
	return gzip.NewWriter(w), nil
}

func addMember(fsys filesystem.FS, tw *tar.Writer, file, entry string) error {
	info, err := fsys.Lstat(file)
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchive, "failed to stat %s", file)
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = fsys.Readlink(file); err != nil {
			return errors.Wrapf(err, errors.ErrArchive, "failed to read link %s", file)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchive, "failed to make header for %s", file)
	}
	header.Name = entry
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "root", "root"

	if err := tw.WriteHeader(header); err != nil {
		return errors.Wrapf(err, errors.ErrArchive, "failed to write header for %s", entry)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := fsys.Open(file)
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchive, "failed to open %s", file)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return errors.Wrapf(err, errors.ErrArchive, "failed to archive %s", file)
	}
	return nil
}

func report(opts Options, entry string) {
	if opts.Report != nil {
		opts.Report(entry)
	}
}
