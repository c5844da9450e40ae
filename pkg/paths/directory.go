package paths

import (
	"os"

	"github.com/autobrr/relink/pkg/errs"
)

// Directory is a path that existed and was a directory when it was constructed.
// It is not re-validated afterwards.
type Directory struct {
	path string
}

func NewDirectory(path string) (Directory, error) {
	if path == "" {
		return Directory{}, errs.InvalidArgument("directory must not be empty")
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return Directory{}, errs.NotFound("no such directory %s", path)
	}

	return Directory{path: path}, nil
}

func (d Directory) Path() string {
	return d.path
}

func (d Directory) String() string {
	return d.path
}
