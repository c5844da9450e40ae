package relink

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/relink/pkg/dupemap"
	"github.com/autobrr/relink/pkg/expression"
	"github.com/autobrr/relink/pkg/hasher"
	"github.com/autobrr/relink/pkg/logger"
	"github.com/autobrr/relink/pkg/paths"
)

// Inspector runs scan -> filter -> hash -> group over one directory.
type Inspector struct {
	log         *logrus.Entry
	scanner     *paths.Scanner
	hasher      *hasher.Hasher
	ignorePaths []string
	ignore      []expression.CompiledExpression
	include     []expression.CompiledExpression
	progress    func(paths.Entry)
}

func NewInspector(opts Options) (*Inspector, error) {
	h, err := hasher.New(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	return &Inspector{
		log:         logger.GetLogger("inspect"),
		scanner:     paths.NewScanner(logger.GetLogger("scanner")),
		hasher:      h,
		ignorePaths: opts.IgnorePaths,
		ignore:      opts.Ignore,
		include:     opts.Include,
		progress:    opts.Progress,
	}, nil
}

// Inspect hashes every regular file below dir and returns the duplicate groups.
// The first error aborts the inspection.
func (i *Inspector) Inspect(ctx context.Context, dir paths.Directory) (*Inspection, error) {
	digests := dupemap.New()
	inspection := &Inspection{}

	for entry, err := range i.scanner.Walk(dir) {
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ignored, err := i.isIgnored(entry)
		if err != nil {
			return nil, err
		}
		if ignored {
			inspection.Ignored++
			continue
		}

		digest, path, err := i.hasher.HashFile(entry.Root, entry.Name)
		if err != nil {
			return nil, err
		}

		i.log.Tracef("Hashed %s: %s", path, digest)
		digests.Add(digest, path)
		inspection.Files++

		if i.progress != nil {
			i.progress(entry)
		}
	}

	inspection.Groups = digests.Groups()
	inspection.Digests = digests.Length()

	i.log.Debugf("Hashed %d files into %d digests (%d ignored), %d duplicate groups",
		inspection.Files, inspection.Digests, inspection.Ignored, len(inspection.Groups))

	return inspection, nil
}

func (i *Inspector) isIgnored(entry paths.Entry) (bool, error) {
	path := entry.Path()

	if paths.IsIgnored(path, i.ignorePaths) {
		i.log.Debugf("File matches a path in the ignore list, skipping: %q", path)
		return true, nil
	}

	if len(i.ignore) == 0 && len(i.include) == 0 {
		return false, nil
	}

	f := &expression.File{
		Path: path,
		Name: entry.Name,
		Dir:  entry.Root,
	}
	if entry.Info != nil {
		f.Size = entry.Info.Size()
		f.ModTime = entry.Info.ModTime()
	}

	if len(i.include) > 0 {
		match, failed, err := expression.CheckFileAllMatchWithReason(f, i.include)
		if err != nil {
			return false, err
		}

		if !match {
			i.log.Debugf("File does not match include expressions %q, skipping: %q", failed, path)
			return true, nil
		}
	}

	match, reason, err := expression.CheckFileSingleMatchWithReason(f, i.ignore)
	if err != nil {
		return false, err
	}

	if match {
		i.log.Debugf("File matches ignore expression %q, skipping: %q", reason, path)
	}

	return match, nil
}
