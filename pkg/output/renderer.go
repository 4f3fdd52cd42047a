package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/arthur-debert/distbuild/pkg/build"
	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/hooks"
	"github.com/arthur-debert/distbuild/pkg/logging"
	"github.com/arthur-debert/distbuild/pkg/manifest"
	"github.com/arthur-debert/distbuild/pkg/treesync"
)

// Options controls what a Renderer prints.
type Options struct {
	NoColor bool
	// Verbose prints every action, including skipped entries.
	Verbose bool
	// DryRun prints every planned change.
	DryRun bool
	// Base, if set, shortens paths below it to relative ones.
	Base string
}

// Renderer writes build progress to a terminal. It implements
// build.Reporter.
type Renderer struct {
	w      io.Writer
	opts   Options
	styles Styles
	counts map[treesync.Op]int
}

var _ build.Reporter = (*Renderer)(nil)

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, opts Options) (*Renderer, error) {
	lr := lipgloss.NewRenderer(w)
	if opts.NoColor || termenv.EnvNoColor() {
		lr.SetColorProfile(termenv.Ascii)
	}

	logging.GetLogger("output").Debug().
		Bool("no_color", opts.NoColor).
		Str("profile", fmt.Sprintf("%v", lr.ColorProfile())).
		Msg("Creating renderer")

	styles, err := ParseStyles(defaultStyles, lr)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		w:      w,
		opts:   opts,
		styles: styles,
		counts: make(map[treesync.Op]int),
	}, nil
}

func (r *Renderer) println(parts ...string) {
	fmt.Fprintln(r.w, strings.Join(parts, " "))
}

func (r *Renderer) render(style, text string) string {
	return r.styles.Get(style).Render(text)
}

func (r *Renderer) path(p string) string {
	if r.opts.Base != "" {
		if rel, err := filepath.Rel(r.opts.Base, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return r.render("Path", p)
}

func (r *Renderer) showChanges() bool {
	return r.opts.Verbose || r.opts.DryRun
}

// Banner announces a dry run. It prints nothing otherwise.
func (r *Renderer) Banner() {
	if r.opts.DryRun {
		r.println(r.render("DryRun", "DRY RUN: nothing will be changed"))
	}
}

func (r *Renderer) Stage(stage build.Stage, detail string) {
	line := r.render("Stage", "==> "+string(stage))
	if detail != "" {
		line += " " + r.render("Detail", detail)
	}
	r.println(line)
}

func (r *Renderer) Action(a treesync.Action) {
	r.counts[a.Op]++
	if !r.showChanges() || (!a.Mutates() && !r.opts.Verbose) {
		return
	}

	style := "Op"
	switch a.Op {
	case treesync.OpRemove, treesync.OpRemoveLink, treesync.OpRemoveDir:
		style = "Remove"
	case treesync.OpSkip:
		style = "Skip"
	case treesync.OpCompile:
		style = "Compile"
	}

	parts := []string{r.render(style, string(a.Op)), r.path(a.Path)}
	if a.Target != "" {
		parts = append(parts, r.path(a.Target))
	}
	r.println(r.render("Indent", strings.Join(parts, " ")))
}

func (r *Renderer) Step(s hooks.Step) {
	parts := []string{r.render("Op", s.Op), r.path(s.Path)}
	if s.Target != "" {
		parts = append(parts, r.path(s.Target))
	}
	r.println(r.render("Indent", strings.Join(parts, " ")))
}

func (r *Renderer) Entry(entry string) {
	if r.showChanges() {
		r.println(r.render("Indent", r.render("Added", entry)))
	}
}

// Summary prints the totals of a build.
func (r *Renderer) Summary(res *build.Result) {
	if res == nil {
		return
	}
	files := 0
	if res.Project != nil {
		files += len(res.Project.Files)
	}
	for _, rt := range res.Runtimes {
		files += len(rt.Files)
	}

	verb := "Built"
	if r.opts.DryRun {
		verb = "Would build"
	}
	r.println(r.render("Success", fmt.Sprintf("%s %s: %d files", verb, r.path(res.Config.DistDir), files)),
		r.render("Detail", fmt.Sprintf("(%d copied, %d removed, %d compiled)",
			r.counts[treesync.OpCopy],
			r.counts[treesync.OpRemove]+r.counts[treesync.OpRemoveLink]+r.counts[treesync.OpRemoveDir],
			r.counts[treesync.OpCompile])))
	if len(res.Entries) > 0 {
		r.println(r.render("Success", fmt.Sprintf("Tarball: %d entries", len(res.Entries))),
			r.render("Detail", res.Config.Tarball.Path))
	}
}

// Diff prints a manifest comparison, one line per differing entry.
func (r *Renderer) Diff(d *manifest.Diff) {
	if d.Match() {
		r.println(r.render("Success", "Manifest matches the distribution"))
		return
	}
	for _, line := range d.Lines() {
		style := "Added"
		if strings.HasPrefix(line, "-") {
			style = "Removed"
		}
		r.println(r.render(style, line))
	}
}

// List prints one line per item.
func (r *Renderer) List(items []string) {
	for _, item := range items {
		r.println(item)
	}
}

// Error prints err with its error code.
func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	r.println(r.render("Error", "Error:"), err.Error())
	if r.opts.Verbose {
		details := errors.GetErrorDetails(err)
		keys := make([]string, 0, len(details))
		for key := range details {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			r.println(r.render("Indent", r.render("Detail", fmt.Sprintf("%s: %v", key, details[key]))))
		}
	}
}
