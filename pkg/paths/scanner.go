package paths

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/relink/pkg/hardlinkfilemap"
)

/* Structs */

// Entry is one regular file found by the scanner.
type Entry struct {
	Root string
	Name string
	Info fs.FileInfo
}

func (e Entry) Path() string {
	return filepath.Join(e.Root, e.Name)
}

type Scanner struct {
	log *logrus.Entry
}

/* Public */

func NewScanner(log *logrus.Entry) *Scanner {
	return &Scanner{log: log}
}

// Walk returns a sequence of every regular file below dir, bottom-up: the files of
// each subdirectory come before the files of the directory containing it.
// Entries within one directory are in name order. Symbolic links are neither
// followed nor yielded, and a directory reached twice is only walked once.
// The first error ends the sequence. The sequence can be ranged over repeatedly.
func (s *Scanner) Walk(dir Directory) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		visited := strset.New()
		s.walkDirectory(dir.Path(), visited, yield)
	}
}

/* Private */

// walkDirectory returns false once the walk must stop, either because the consumer
// stopped ranging or because an error was yielded.
func (s *Scanner) walkDirectory(folder string, visited *strset.Set, yield func(Entry, error) bool) bool {
	id, _, err := hardlinkfilemap.Stat(folder)
	if err != nil {
		yield(Entry{}, errors.Wrapf(err, "identify directory %s", folder))
		return false
	}

	if visited.Has(id.String()) {
		s.log.Debugf("Skipping already visited directory: %q", folder)
		return true
	}
	visited.Add(id.String())

	entries, err := os.ReadDir(folder)
	if err != nil {
		yield(Entry{}, errors.Wrapf(err, "list directory %s", folder))
		return false
	}

	files := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		entryPath := filepath.Join(folder, entry.Name())

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			s.log.Tracef("Skipping symlink: %s", entryPath)
		case entry.IsDir():
			if !s.walkDirectory(entryPath, visited, yield) {
				return false
			}
		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				yield(Entry{}, errors.Wrapf(err, "get file info for %s", entryPath))
				return false
			}

			files = append(files, Entry{Root: folder, Name: entry.Name(), Info: info})
		default:
			s.log.Tracef("Skipping irregular file: %s", entryPath)
		}
	}

	for _, f := range files {
		if !yield(f, nil) {
			return false
		}
	}

	return true
}
