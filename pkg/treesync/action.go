package treesync

import "fmt"

// Phase names the sync phase an action belongs to.
type Phase string

const (
	PhasePrune    Phase = "prune"
	PhasePopulate Phase = "populate"
	PhaseCompile  Phase = "compile"
)

// Op is the kind of filesystem operation an action performs.
type Op string

const (
	OpRemove     Op = "rm"
	OpRemoveLink Op = "rm symlink"
	OpRemoveDir  Op = "rmdir"
	OpMkdir      Op = "mkdir -p"
	OpCopy       Op = "cp"
	OpCompile    Op = "compile"
	// OpSkip marks a source entry that is never copied, such as a symlink.
	OpSkip Op = "skip"
)

// Action is one operation performed, or planned in simulate mode, by a sync.
type Action struct {
	Phase Phase
	Op    Op
	// Path is the entry acted on.
	Path string
	// Target is the destination of a copy or the artifact of a compile.
	Target string
}

// Mutates reports whether the action changes the filesystem.
func (a Action) Mutates() bool {
	return a.Op != OpSkip
}

// String renders the action the way it is printed in dry runs.
func (a Action) String() string {
	if a.Target != "" {
		return fmt.Sprintf("%s %s %s", a.Op, a.Path, a.Target)
	}
	return fmt.Sprintf("%s %s", a.Op, a.Path)
}
