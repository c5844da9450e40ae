package hardlinkfilemap

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/relink/pkg/errs"
)

func New(log *logrus.Entry) *HardlinkFileMap {
	return &HardlinkFileMap{
		hardlinkFileMap: make(map[FileID][]string),
		pathIDs:         make(map[string]FileID),
		log:             log,
	}
}

// Stat returns the FileID and link count of path.
// A missing path is reported as errs.ErrNotFound.
func Stat(path string) (FileID, uint64, error) {
	id, nlink, err := getFileID(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileID{}, 0, errs.NotFound("no such file: %s", path)
		}
		return FileID{}, 0, err
	}

	return id, nlink, nil
}

// Add records path under id. A path recorded earlier under another FileID,
// e.g. before its directory entry was replaced, is moved to id.
func (t *HardlinkFileMap) Add(path string, id FileID) {
	if prev, ok := t.pathIDs[path]; ok && !prev.Equal(id) {
		t.remove(path)
	}

	t.log.Tracef("File %s is %s", path, id)
	t.add(path, id)
}

// Length returns the number of distinct FileIDs recorded.
func (t *HardlinkFileMap) Length() int {
	return len(t.hardlinkFileMap)
}

func (t *HardlinkFileMap) add(path string, id FileID) {
	if paths, exists := t.hardlinkFileMap[id]; exists {
		// file id already associated with other paths
		for _, existingPath := range paths {
			if existingPath == path {
				t.pathIDs[path] = id
				return
			}
		}
		t.hardlinkFileMap[id] = append(paths, path)
		t.pathIDs[path] = id
		return
	}

	// file id has not been seen before, create id entry
	t.hardlinkFileMap[id] = []string{path}
	t.pathIDs[path] = id
}

func (t *HardlinkFileMap) remove(path string) {
	id, ok := t.pathIDs[path]
	if !ok {
		return
	}
	delete(t.pathIDs, path)

	paths := t.hardlinkFileMap[id]
	newPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != path {
			newPaths = append(newPaths, p)
		}
	}

	// remove id entry if no more paths
	if len(newPaths) == 0 {
		delete(t.hardlinkFileMap, id)
	} else {
		t.hardlinkFileMap[id] = newPaths
	}
}
