package relink

import (
	"context"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/relink/pkg/dupemap"
	"github.com/autobrr/relink/pkg/errs"
	"github.com/autobrr/relink/pkg/hardlinkfilemap"
	"github.com/autobrr/relink/pkg/logger"
	"github.com/autobrr/relink/pkg/paths"
)

// filesystem access used while replacing, swapped out in tests
var (
	statFile   = hardlinkfilemap.Stat
	removeFile = os.Remove
	linkFile   = os.Link
)

// Replacer replaces every duplicate with a hard link to the first discovered copy.
//
// Replacing is destructive: afterwards all paths of a group are one inode, so an
// edit through any of them is visible through all of them. There is no rollback,
// and a failure part way through a group leaves the earlier members relinked.
type Replacer struct {
	log       *logrus.Entry
	inspector *Inspector
	reporter  Reporter
	dryRun    bool
}

func NewReplacer(opts Options) (*Replacer, error) {
	inspector, err := NewInspector(opts)
	if err != nil {
		return nil, err
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = NewTextReporter(io.Discard)
	}

	return &Replacer{
		log:       logger.GetLogger("relink"),
		inspector: inspector,
		reporter:  reporter,
		dryRun:    opts.DryRun,
	}, nil
}

// ReplaceCopies is the top level operation. A path that is not an existing directory
// is reported and (nil, nil) is returned; every other failure is returned as is.
func ReplaceCopies(ctx context.Context, path string, opts Options) (*Result, error) {
	r, err := NewReplacer(opts)
	if err != nil {
		return nil, err
	}

	dir, err := paths.NewDirectory(path)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrInvalidArgument) {
			r.log.WithError(err).Error("Failed validating directory")
			r.reporter.MissingDirectory(path)
			return nil, nil
		}
		return nil, err
	}

	return r.Run(ctx, dir)
}

func (r *Replacer) Run(ctx context.Context, dir paths.Directory) (*Result, error) {
	inspection, err := r.inspector.Inspect(ctx, dir)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Directory:  dir.Path(),
		Inspection: inspection,
	}

	r.reporter.Directory(dir.Path())

	if len(inspection.Groups) == 0 {
		r.reporter.NoDuplicates()
		r.log.Infof("No identical files in %q (%d files hashed)", dir.Path(), inspection.Files)
		return result, nil
	}

	r.log.Infof("Found %d groups of identical files in %q", len(inspection.Groups), dir.Path())

	for _, group := range inspection.Groups {
		if err := r.replaceGroup(ctx, group, result); err != nil {
			return result, err
		}
	}

	r.log.Info("-----")
	r.log.WithField("reclaimed_space", humanize.IBytes(result.ReclaimedBytes)).
		Infof("Relinked %d files in %d groups", result.Replaced(), len(inspection.Groups))

	return result, nil
}

func (r *Replacer) replaceGroup(ctx context.Context, group dupemap.Group, result *Result) error {
	r.reporter.Group(group)

	representative := group.Representative()
	links := hardlinkfilemap.New(r.log)

	repID, _, err := identify(links, representative)
	if err != nil {
		return errors.Wrapf(err, "identify representative %s", representative)
	}

	r.log.Info("-----")
	r.log.Infof("Keeping %q, %d identical files", representative, group.Count())

	for _, duplicate := range group.Duplicates() {
		if err := ctx.Err(); err != nil {
			return err
		}

		dupID, nlink, err := identify(links, duplicate)
		if err != nil {
			return errors.Wrapf(err, "identify duplicate %s", duplicate)
		}

		fi, err := os.Stat(duplicate)
		if err != nil {
			return errors.Wrapf(err, "stat duplicate %s", duplicate)
		}

		replacement := Replacement{
			Representative: representative,
			Path:           duplicate,
			Size:           fi.Size(),
			DryRun:         r.dryRun,
		}

		if dupID.Equal(repID) {
			r.log.Debugf("Already linked, skipping: %q", duplicate)
			replacement.AlreadyLinked = true
			result.Replacements = append(result.Replacements, replacement)
			r.reporter.Replaced(replacement)
			continue
		}

		// checked before removal, a hard link cannot cross filesystems
		if !dupID.SameDevice(repID) {
			return errs.Filesystem(nil, "cannot link %s to %s: different filesystems (%s, %s)",
				duplicate, representative, dupID, repID)
		}

		r.log.Infof("Replacing duplicate: %q", duplicate)

		if r.dryRun {
			r.log.Warn("Dry-run enabled, skipping relink...")
		} else {
			if err := replaceWithLink(representative, duplicate); err != nil {
				r.log.WithError(err).Error("Failed replacing duplicate...")
				return err
			}
			links.Add(duplicate, repID)
			r.log.Info("Relinked")
		}

		// space is only freed when this was the last link to the old inode
		if nlink == 1 {
			result.ReclaimedBytes += uint64(fi.Size())
		}

		result.Replacements = append(result.Replacements, replacement)
		r.reporter.Replaced(replacement)
	}

	if !r.dryRun && links.Length() != 1 {
		r.log.Warnf("Group of %q spans %d inodes after relinking", representative, links.Length())
	}

	return nil
}

func identify(links *hardlinkfilemap.HardlinkFileMap, path string) (hardlinkfilemap.FileID, uint64, error) {
	id, nlink, err := statFile(path)
	if err != nil {
		return hardlinkfilemap.FileID{}, 0, err
	}

	links.Add(path, id)
	return id, nlink, nil
}

// replaceWithLink removes duplicate and creates a hard link at its path pointing to representative.
// The os errors already carry the paths involved.
func replaceWithLink(representative, duplicate string) error {
	if err := removeFile(duplicate); err != nil {
		return errs.Filesystem(err, "replace duplicate")
	}

	if err := linkFile(representative, duplicate); err != nil {
		return errs.Filesystem(err, "replace duplicate")
	}

	return nil
}
