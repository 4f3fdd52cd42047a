package matcher

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
)

// ParseReader parses a match list with one entry per line.
//
// Blank lines and lines starting with "#" are skipped. A leading "\#" or "\!"
// escapes a literal "#" or "!".
func ParseReader(r io.Reader) (List, error) {
	s := bufio.NewScanner(r)
	list := make(List, 0, 16)

	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			rule Rule
			err  error
		)
		switch {
		case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
			rule = IncludeRule(line[1:])
			err = validate(rule)
		default:
			rule, err = ParseRule(line)
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "line %d", lineNo)
		}
		list = append(list, rule)
	}

	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "failed to scan match list")
	}
	return list, nil
}

// LoadFile reads a match list file.
func LoadFile(fsys filesystem.FS, path string) (List, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "failed to read match list %s", path)
	}

	list, err := ParseReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "failed to parse match list %s", path)
	}
	return list, nil
}

// LoadFiles reads several match list files and concatenates them in order.
func LoadFiles(fsys filesystem.FS, paths ...string) (List, error) {
	var out List
	for _, p := range paths {
		list, err := LoadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		out = out.Concat(list)
	}
	return out, nil
}
