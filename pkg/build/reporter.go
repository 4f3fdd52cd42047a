package build

import (
	"github.com/arthur-debert/distbuild/pkg/hooks"
	"github.com/arthur-debert/distbuild/pkg/treesync"
)

// Stage names a step of the build.
type Stage string

const (
	StagePreBuild  Stage = "pre-build"
	StageProject   Stage = "project"
	StageRuntime   Stage = "runtime"
	StagePostBuild Stage = "post-build"
	StageManifest  Stage = "manifest"
	StageInstaller Stage = "installer"
	StageTarball   Stage = "tarball"
)

// Reporter receives progress as the build runs.
type Reporter interface {
	// Stage is called when a step starts.
	Stage(stage Stage, detail string)
	// Action is called for every sync action.
	Action(a treesync.Action)
	// Step is called for every hook step.
	Step(s hooks.Step)
	// Entry is called for every tarball entry.
	Entry(entry string)
}

type nopReporter struct{}

func (nopReporter) Stage(Stage, string)    {}
func (nopReporter) Action(treesync.Action) {}
func (nopReporter) Step(hooks.Step)        {}
func (nopReporter) Entry(string)           {}
