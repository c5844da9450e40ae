package relink

import (
	"github.com/autobrr/relink/pkg/dupemap"
	"github.com/autobrr/relink/pkg/expression"
	"github.com/autobrr/relink/pkg/paths"
)

type Options struct {
	// Algorithm names the content hash, see hasher.GetAlgorithm.
	Algorithm string
	// IgnorePaths exclude files at or below these paths from hashing.
	IgnorePaths []string
	// Ignore excludes files for which any expression is true.
	Ignore []expression.CompiledExpression
	// Include, when set, restricts hashing to files for which every expression is true.
	Include []expression.CompiledExpression
	// DryRun reports what would be replaced without touching the filesystem.
	DryRun bool
	// Progress is called after each file is hashed.
	Progress func(entry paths.Entry)
	// Reporter receives the textual report; nil discards it.
	Reporter Reporter
}

// Inspection is the outcome of scanning and hashing one directory.
type Inspection struct {
	Groups  []dupemap.Group
	Files   int
	Ignored int
	Digests int
}

// Replacement describes one non-representative member of a group.
type Replacement struct {
	Representative string
	Path           string
	Size           int64
	// AlreadyLinked is set when Path already shared the representative's inode and was left alone.
	AlreadyLinked bool
	DryRun        bool
}

type Result struct {
	Directory      string
	Inspection     *Inspection
	Replacements   []Replacement
	ReclaimedBytes uint64
}

// Replaced counts the replacements that relinked (or would relink) a file.
func (r *Result) Replaced() int {
	n := 0
	for _, rep := range r.Replacements {
		if !rep.AlreadyLinked {
			n++
		}
	}
	return n
}
