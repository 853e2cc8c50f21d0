// Package cleanup runs the complete hygiene sequence against one repository.
//
// Steps run in a fixed order: stale branches, stale tags, large objects,
// duplicate files, .gitignore updates and the optional archive. A failed
// step is logged and collected with multierr, and the remaining steps
// still run.
package cleanup
