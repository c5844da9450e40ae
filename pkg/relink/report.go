package relink

import (
	"fmt"
	"io"
	"strings"

	"github.com/autobrr/relink/pkg/dupemap"
)

// Reporter receives the user facing report of one run.
type Reporter interface {
	Directory(dir string)
	Group(group dupemap.Group)
	Replaced(replacement Replacement)
	NoDuplicates()
	MissingDirectory(path string)
}

type textReporter struct {
	w io.Writer
}

// NewTextReporter writes the plain text report, one line per event.
func NewTextReporter(w io.Writer) Reporter {
	return &textReporter{w: w}
}

func (r *textReporter) Directory(dir string) {
	fmt.Fprintf(r.w, "In directory %s\n", dir)
}

func (r *textReporter) Group(group dupemap.Group) {
	fmt.Fprintf(r.w, "%d identical files: %s\n", group.Count(), strings.Join(group.Paths, "; "))
}

func (r *textReporter) Replaced(rep Replacement) {
	// already linked members end in the same state, so they get the same line
	if rep.DryRun {
		fmt.Fprintf(r.w, "File %s would be replaced by a hardlink to %s\n", rep.Path, rep.Representative)
		return
	}

	fmt.Fprintf(r.w, "File %s was replaced by a hardlink to %s\n", rep.Path, rep.Representative)
}

func (r *textReporter) NoDuplicates() {
	fmt.Fprintln(r.w, "There are no identical files")
}

func (r *textReporter) MissingDirectory(path string) {
	fmt.Fprintf(r.w, "Error: no such directory %s\n", path)
}
