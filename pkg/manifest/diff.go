package manifest

import (
	"github.com/arthur-debert/distbuild/pkg/errors"
)

// Diff is the difference between a manifest and its live tree.
type Diff struct {
	// Removed lists entries recorded in the manifest but missing on disk.
	Removed []string
	// Added lists entries on disk the manifest does not record.
	Added []string
}

// Match reports whether the manifest and the tree agree.
func (d *Diff) Match() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0
}

// Lines renders the diff as "-path" and "+path" lines, removed entries first.
func (d *Diff) Lines() []string {
	out := make([]string, 0, len(d.Removed)+len(d.Added))
	for _, p := range d.Removed {
		out = append(out, "-"+p)
	}
	for _, p := range d.Added {
		out = append(out, "+"+p)
	}
	return out
}

// Err returns a MANIFEST_MISMATCH error describing the diff, or nil when the
// manifest matches.
func (d *Diff) Err() error {
	if d.Match() {
		return nil
	}
	return errors.Newf(errors.ErrManifestMismatch, "manifest differs from distribution: %d removed, %d added",
		len(d.Removed), len(d.Added)).
		WithDetail("removed", d.Removed).
		WithDetail("added", d.Added)
}
