//go:build !windows

package hardlinkfilemap

import (
	"syscall"

	"github.com/pkg/errors"
)

// getFileID returns the unique file identifier (device + inode) and link count for a file.
// This uses direct syscall.Stat() instead of os.Stat() for better performance.
func getFileID(path string) (FileID, uint64, error) {
	var stat syscall.Stat_t
	err := syscall.Stat(path, &stat)
	if err != nil {
		return FileID{}, 0, errors.Wrap(err, "stat file")
	}

	return FileID{
		Device: uint64(stat.Dev),
		Inode:  uint64(stat.Ino),
	}, uint64(stat.Nlink), nil
}
