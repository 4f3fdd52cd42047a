package treesync

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/filesystem"
	"github.com/arthur-debert/distbuild/pkg/matcher"
	"github.com/arthur-debert/distbuild/pkg/testutil"
)

// fakeCompiler "compiles" .py files by writing a prefixed copy next to them.
type fakeCompiler struct {
	fs    filesystem.FS
	fail  string
	calls []string
}

func (f *fakeCompiler) Handles(path string) bool {
	return strings.HasSuffix(path, ".py")
}

func (f *fakeCompiler) Artifact(path string) string {
	return path + "c"
}

func (f *fakeCompiler) Compile(path string) error {
	f.calls = append(f.calls, path)
	if filepath.Base(path) == f.fail {
		return fmt.Errorf("syntax error in %s", path)
	}
	data, err := f.fs.ReadFile(path)
	if err != nil {
		return err
	}
	return f.fs.WriteFile(f.Artifact(path), append([]byte("compiled:"), data...), 0644)
}

func actionLines(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}

func TestSyncSkipsDotfilesAndArtifacts(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"a.py":  "print('a')",
		"b.pyc": "stale bytecode",
		".git":  testutil.FileTree{"config": "[core]"},
		"pkg": testutil.FileTree{
			".hidden":  "x",
			"mod.py":   "pass",
			"mod.pyo":  "opt",
			"data.txt": "data",
		},
	})

	res, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.py", "pkg/data.txt", "pkg/mod.py"}, testutil.Files(t, fsys, "/dst"))
	assert.Equal(t, []string{"/dst/a.py", "/dst/pkg/data.txt", "/dst/pkg/mod.py"}, res.Files)
	assert.Equal(t, 3, res.Count(OpCopy))

	content, err := fsys.ReadFile("/dst/pkg/mod.py")
	require.NoError(t, err)
	assert.Equal(t, "pass", string(content))
}

func TestSyncCompile(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"a.py":  "print('a')",
		"b.pyc": "stale bytecode",
		".git":  testutil.FileTree{"config": "[core]"},
	})
	compiler := &fakeCompiler{fs: fsys}

	res, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Compile:    true,
		Compiler:   compiler,
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pyc"}, testutil.Files(t, fsys, "/dst"))
	assert.Equal(t, []string{"/dst/a.pyc"}, res.Files)
	assert.Equal(t, []string{"/dst/a.py"}, compiler.calls)

	tail := actionLines(res.Actions[len(res.Actions)-2:])
	assert.Equal(t, []string{"compile /dst/a.py /dst/a.pyc", "rm /dst/a.py"}, tail)
}

func TestSyncCompileSkipsProtectedFiles(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{"app.py": "app"})
	testutil.WriteTree(t, fsys, "/dst", testutil.FileTree{
		"runtime": testutil.FileTree{"os.py": "os"},
	})
	compiler := &fakeCompiler{fs: fsys}

	_, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Protect:    matcher.MustParse("runtime/*"),
		Compile:    true,
		Compiler:   compiler,
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"app.pyc", "runtime/os.py"}, testutil.Files(t, fsys, "/dst"))
	assert.Equal(t, []string{"/dst/app.py"}, compiler.calls)
}

func TestSyncCompileFailureAborts(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"a.py": "a",
		"b.py": "b",
		"c.py": "c",
	})
	compiler := &fakeCompiler{fs: fsys, fail: "b.py"}

	_, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Compile:    true,
		Compiler:   compiler,
		FS:         fsys,
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCompile))

	assert.Equal(t, []string{"/dst/a.py", "/dst/b.py"}, compiler.calls)
	assert.Equal(t, []string{"a.pyc", "b.py", "c.py"}, testutil.Files(t, fsys, "/dst"))
}

func TestSyncPrunesUnprotected(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/src", 0755))
	testutil.WriteTree(t, fsys, "/dst", testutil.FileTree{
		"keep":  testutil.FileTree{"secret.dat": "secret"},
		"stale": testutil.FileTree{"old.txt": "old"},
	})

	res, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Protect:    matcher.MustParse("keep/*"),
		FS:         fsys,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"keep/secret.dat"}, testutil.Files(t, fsys, "/dst"))
	assert.Equal(t, []string{"keep"}, testutil.Dirs(t, fsys, "/dst"))
	assert.Equal(t, []string{"rm /dst/stale/old.txt", "rmdir /dst/stale"}, actionLines(res.Actions))
	assert.Equal(t, []string{"/dst/keep/secret.dat"}, res.Files)
}

func TestSyncKeepsProtectedEmptyDirectory(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/src", 0755))
	testutil.WriteTree(t, fsys, "/dst", testutil.FileTree{
		"logs":  testutil.FileTree{},
		"cache": testutil.FileTree{"deep": testutil.FileTree{}},
	})

	_, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Protect:    matcher.MustParse("logs"),
		FS:         fsys,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"logs"}, testutil.Dirs(t, fsys, "/dst"))
}

func TestSyncIsIdempotent(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"README":  "readme",
		"app":     testutil.FileTree{"main.py": "main", "notes.bak": "bak"},
		"vendor":  testutil.FileTree{"lib.py": "lib"},
		".gitdir": "ignored",
	})
	testutil.WriteTree(t, fsys, "/dst", testutil.FileTree{
		"MANIFEST": "README\n",
		"old.txt":  "old",
	})

	opts := Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*", "!*.bak"),
		Protect:    matcher.MustParse("MANIFEST"),
		FS:         fsys,
	}

	_, err := Sync(opts)
	require.NoError(t, err)
	first := testutil.Snapshot(t, fsys, "/dst")

	_, err = Sync(opts)
	require.NoError(t, err)
	second := testutil.Snapshot(t, fsys, "/dst")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"MANIFEST", "README", "app/main.py", "vendor/lib.py"}, testutil.Files(t, fsys, "/dst"))
}

func TestSimulateMatchesRealRun(t *testing.T) {
	setup := func() filesystem.FS {
		fsys := filesystem.NewMemory()
		testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
			"a.py":  "a",
			"stale": testutil.FileTree{"new.txt": "new"},
			"sub":   testutil.FileTree{"deep": testutil.FileTree{"b.txt": "b"}},
		})
		testutil.WriteTree(t, fsys, "/dst", testutil.FileTree{
			"keep.txt": "kept",
			"stale":    testutil.FileTree{"old.txt": "old", "nested": testutil.FileTree{"x": "x"}},
		})
		return fsys
	}

	simFS := setup()
	before := testutil.Snapshot(t, simFS, "/")
	simCompiler := &fakeCompiler{fs: simFS}
	simulated, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Protect:    matcher.MustParse("keep.txt"),
		Simulate:   true,
		Compile:    true,
		Compiler:   simCompiler,
		FS:         simFS,
	})
	require.NoError(t, err)
	assert.Equal(t, before, testutil.Snapshot(t, simFS, "/"), "simulate must not touch the filesystem")
	assert.Empty(t, simCompiler.calls)

	realFS := setup()
	real, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		Protect:    matcher.MustParse("keep.txt"),
		Compile:    true,
		Compiler:   &fakeCompiler{fs: realFS},
		FS:         realFS,
	})
	require.NoError(t, err)

	assert.Equal(t, actionLines(real.Actions), actionLines(simulated.Actions))
	assert.Equal(t, real.Files, simulated.Files)
	assert.Contains(t, actionLines(real.Actions), "rmdir /dst/stale")
	assert.Contains(t, actionLines(real.Actions), "mkdir -p /dst/stale")
}

func TestSyncCreatesMissingDestination(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"a": testutil.FileTree{"b": testutil.FileTree{"c.txt": "c"}},
	})

	res, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/out/dist",
		Include:    matcher.MustParse("*"),
		Simulate:   true,
		FS:         fsys,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mkdir -p /out/dist/a/b",
		"cp /src/a/b/c.txt /out/dist/a/b/c.txt",
	}, actionLines(res.Actions))
}

func TestSyncSkipsNestedDestination(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/proj", testutil.FileTree{
		"main.py": "main",
		"dist":    testutil.FileTree{"old.py": "old"},
	})

	_, err := Sync(Options{
		SourceRoot: "/proj",
		DestRoot:   "/proj/dist",
		Include:    matcher.MustParse("*"),
		FS:         fsys,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, testutil.Files(t, fsys, "/proj/dist"))
}

func TestSyncCustomCompiledExtensions(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{
		"a.pyc":   "kept",
		"b.class": "dropped",
	})

	_, err := Sync(Options{
		SourceRoot:         "/src",
		DestRoot:           "/dst",
		Include:            matcher.MustParse("*"),
		CompiledExtensions: []string{".class"},
		FS:                 fsys,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pyc"}, testutil.Files(t, fsys, "/dst"))
}

func TestSyncReportsEveryAction(t *testing.T) {
	fsys := filesystem.NewMemory()
	testutil.WriteTree(t, fsys, "/src", testutil.FileTree{"a.txt": "a"})

	var reported []Action
	res, err := Sync(Options{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Include:    matcher.MustParse("*"),
		FS:         fsys,
		Report:     func(a Action) { reported = append(reported, a) },
	})
	require.NoError(t, err)
	assert.Equal(t, res.Actions, reported)
}

func TestSyncConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing source", Options{DestRoot: "/dst"}},
		{"missing destination", Options{SourceRoot: "/src"}},
		{"same roots", Options{SourceRoot: "/src", DestRoot: "/src/"}},
		{"destination contains source", Options{SourceRoot: "/dst/src", DestRoot: "/dst"}},
		{"source is missing", Options{SourceRoot: "/nope", DestRoot: "/dst"}},
		{"source is a file", Options{SourceRoot: "/file.txt", DestRoot: "/dst"}},
		{"destination is a file", Options{SourceRoot: "/src", DestRoot: "/file.txt"}},
		{"compile without compiler", Options{SourceRoot: "/src", DestRoot: "/dst", Compile: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := filesystem.NewMemory()
			testutil.WriteTree(t, fsys, "/", testutil.FileTree{
				"file.txt": "f",
				"src":      testutil.FileTree{"a.txt": "a"},
				"dst":      testutil.FileTree{"src": testutil.FileTree{"b.txt": "b"}, "old": "old"},
			})
			before := testutil.Snapshot(t, fsys, "/")

			tt.opts.FS = fsys
			_, err := Sync(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid), "got %v", err)
			assert.Equal(t, before, testutil.Snapshot(t, fsys, "/"))
		})
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Action{Op: OpRemove, Path: "/d/a"}, "rm /d/a"},
		{Action{Op: OpRemoveLink, Path: "/d/l"}, "rm symlink /d/l"},
		{Action{Op: OpRemoveDir, Path: "/d/x"}, "rmdir /d/x"},
		{Action{Op: OpMkdir, Path: "/d/x"}, "mkdir -p /d/x"},
		{Action{Op: OpCopy, Path: "/s/a", Target: "/d/a"}, "cp /s/a /d/a"},
		{Action{Op: OpCompile, Path: "/d/a.py", Target: "/d/a.pyc"}, "compile /d/a.py /d/a.pyc"},
		{Action{Op: OpSkip, Path: "/s/link"}, "skip /s/link"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.String())
			assert.Equal(t, tt.action.Op != OpSkip, tt.action.Mutates())
		})
	}
}
