package relink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/relink/pkg/errs"
	"github.com/autobrr/relink/pkg/expression"
	"github.com/autobrr/relink/pkg/hardlinkfilemap"
	"github.com/autobrr/relink/pkg/hasher"
	"github.com/autobrr/relink/pkg/paths"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func digestsOf(t *testing.T, root string) map[string]hasher.Digest {
	t.Helper()
	h, err := hasher.New("md5")
	require.NoError(t, err)

	out := make(map[string]hasher.Digest)
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.Mode().IsRegular() {
			d, _, err := h.HashFile(filepath.Dir(path), filepath.Base(path))
			require.NoError(t, err)
			out[path] = d
		}
		return nil
	}))
	return out
}

func sameFile(t *testing.T, a, b string) bool {
	t.Helper()
	fa, err := os.Stat(a)
	require.NoError(t, err)
	fb, err := os.Stat(b)
	require.NoError(t, err)
	return os.SameFile(fa, fb)
}

func TestReplaceCopies_GroupOfIdenticalFiles(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.txt":         "duplicate",
		"b.txt":         "duplicate",
		"sub/c.txt":     "duplicate",
		"unique1.txt":   "one",
		"sub/other.txt": "two",
	})

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), root, Options{Reporter: NewTextReporter(&report)})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, result.Inspection.Groups, 1)
	assert.Equal(t, 5, result.Inspection.Files)
	assert.Equal(t, 3, result.Inspection.Digests)

	rep := filepath.Join(root, "sub", "c.txt")
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	assert.Equal(t, []string{rep, a, b}, result.Inspection.Groups[0].Paths)

	assert.True(t, sameFile(t, rep, a))
	assert.True(t, sameFile(t, rep, b))
	assert.False(t, sameFile(t, rep, filepath.Join(root, "unique1.txt")))

	assert.Equal(t, 2, result.Replaced())
	assert.Equal(t, uint64(2*len("duplicate")), result.ReclaimedBytes)

	expected := fmt.Sprintf("In directory %s\n", root) +
		fmt.Sprintf("3 identical files: %s; %s; %s\n", rep, a, b) +
		fmt.Sprintf("File %s was replaced by a hardlink to %s\n", a, rep) +
		fmt.Sprintf("File %s was replaced by a hardlink to %s\n", b, rep)
	assert.Equal(t, expected, report.String())

	// edits through one path are visible through the others
	require.NoError(t, os.WriteFile(a, []byte("changed"), 0o644))
	data, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))
}

func TestReplaceCopies_MultipleGroups(t *testing.T) {
	root := makeTree(t, map[string]string{
		"x1": "xx",
		"x2": "xx",
		"y1": "yy",
		"y2": "yy",
		"z":  "",
	})

	result, err := ReplaceCopies(context.Background(), root, Options{})
	require.NoError(t, err)

	require.Len(t, result.Inspection.Groups, 2)
	assert.Equal(t, filepath.Join(root, "x1"), result.Inspection.Groups[0].Representative())
	assert.Equal(t, filepath.Join(root, "y1"), result.Inspection.Groups[1].Representative())
	assert.True(t, sameFile(t, filepath.Join(root, "x1"), filepath.Join(root, "x2")))
	assert.True(t, sameFile(t, filepath.Join(root, "y1"), filepath.Join(root, "y2")))
}

func TestReplaceCopies_NoDuplicates(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a":     "1",
		"b":     "2",
		"sub/c": "3",
	})
	before := digestsOf(t, root)

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), root, Options{Reporter: NewTextReporter(&report)})
	require.NoError(t, err)

	assert.Empty(t, result.Inspection.Groups)
	assert.Empty(t, result.Replacements)
	assert.Equal(t, fmt.Sprintf("In directory %s\nThere are no identical files\n", root), report.String())
	assert.Equal(t, before, digestsOf(t, root))
}

func TestReplaceCopies_EmptyDirectory(t *testing.T) {
	root := t.TempDir()

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), root, Options{Reporter: NewTextReporter(&report)})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inspection.Files)
	assert.Contains(t, report.String(), "There are no identical files")
}

func TestReplaceCopies_MissingDirectory(t *testing.T) {
	for _, path := range []string{filepath.Join(t.TempDir(), "missing"), ""} {
		var report bytes.Buffer
		result, err := ReplaceCopies(context.Background(), path, Options{Reporter: NewTextReporter(&report)})
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, fmt.Sprintf("Error: no such directory %s\n", path), report.String())
	}
}

func TestReplaceCopies_NotADirectory(t *testing.T) {
	root := makeTree(t, map[string]string{"file": "x"})
	file := filepath.Join(root, "file")

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), file, Options{Reporter: NewTextReporter(&report)})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Contains(t, report.String(), "no such directory")
}

func TestReplaceCopies_DryRun(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "same", "b": "same"})

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), root, Options{DryRun: true, Reporter: NewTextReporter(&report)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Replaced())
	assert.False(t, sameFile(t, filepath.Join(root, "a"), filepath.Join(root, "b")))
	assert.Contains(t, report.String(),
		fmt.Sprintf("File %s would be replaced by a hardlink to %s\n", filepath.Join(root, "b"), filepath.Join(root, "a")))
}

func TestReplaceCopies_AlreadyLinked(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "same", "c": "same"})
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.Link(a, b))

	bInfo, err := os.Stat(b)
	require.NoError(t, err)

	var report bytes.Buffer
	result, err := ReplaceCopies(context.Background(), root, Options{Reporter: NewTextReporter(&report)})
	require.NoError(t, err)

	require.Len(t, result.Replacements, 2)
	assert.True(t, result.Replacements[0].AlreadyLinked)
	assert.False(t, result.Replacements[1].AlreadyLinked)
	assert.Equal(t, 1, result.Replaced())
	assert.Contains(t, report.String(), fmt.Sprintf("File %s was replaced by a hardlink to %s\n", b, a))

	// the already linked entry was not recreated
	after, err := os.Stat(b)
	require.NoError(t, err)
	assert.True(t, os.SameFile(bInfo, after))
	assert.True(t, sameFile(t, a, filepath.Join(root, "c")))
}

func TestReplaceCopies_Filters(t *testing.T) {
	root := makeTree(t, map[string]string{
		"keep/a.bin":        "payload",
		"keep/b.bin":        "payload",
		"snapshots/c":       "payload",
		"empty1":            "",
		"empty2":            "",
		"tmp/download.part": "payload",
	})

	ignore, err := expression.Compile([]string{"Size == 0", `HasExtension("part")`})
	require.NoError(t, err)

	result, err := ReplaceCopies(context.Background(), root, Options{
		IgnorePaths: []string{filepath.Join(root, "snapshots")},
		Ignore:      ignore,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Inspection.Ignored)
	assert.Equal(t, 2, result.Inspection.Files)
	require.Len(t, result.Inspection.Groups, 1)
	assert.Equal(t, []string{filepath.Join(root, "keep", "a.bin"), filepath.Join(root, "keep", "b.bin")},
		result.Inspection.Groups[0].Paths)
	assert.False(t, sameFile(t, filepath.Join(root, "empty1"), filepath.Join(root, "empty2")))
}

func TestReplaceCopies_Include(t *testing.T) {
	root := makeTree(t, map[string]string{
		"movies/a.mkv": "payload",
		"movies/b.mkv": "payload",
		"movies/c.nfo": "payload",
		"small/d.mkv":  "x",
		"small/e.mkv":  "x",
	})

	include, err := expression.Compile([]string{`HasExtension("mkv")`, "Size > 1"})
	require.NoError(t, err)

	result, err := ReplaceCopies(context.Background(), root, Options{Include: include})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Inspection.Ignored)
	assert.Equal(t, 2, result.Inspection.Files)
	require.Len(t, result.Inspection.Groups, 1)
	assert.Equal(t, []string{filepath.Join(root, "movies", "a.mkv"), filepath.Join(root, "movies", "b.mkv")},
		result.Inspection.Groups[0].Paths)
	assert.False(t, sameFile(t, filepath.Join(root, "small", "d.mkv"), filepath.Join(root, "small", "e.mkv")))
}

func TestReplaceCopies_EmptyFilesAreDuplicates(t *testing.T) {
	root := makeTree(t, map[string]string{"e1": "", "e2": ""})

	result, err := ReplaceCopies(context.Background(), root, Options{})
	require.NoError(t, err)

	empty, err := hasher.EmptyDigest("md5")
	require.NoError(t, err)
	require.Len(t, result.Inspection.Groups, 1)
	assert.Equal(t, empty, result.Inspection.Groups[0].Digest)
}

func TestReplaceCopies_Progress(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "1", "b": "1", "c": "2"})

	var hashed []string
	_, err := ReplaceCopies(context.Background(), root, Options{
		Progress: func(entry paths.Entry) {
			hashed = append(hashed, entry.Name)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hashed)
}

func TestReplaceCopies_Cancelled(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "1", "b": "1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReplaceCopies(ctx, root, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReplaceCopies_UnknownAlgorithm(t *testing.T) {
	_, err := ReplaceCopies(context.Background(), t.TempDir(), Options{Algorithm: "crc32"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}

func swap[T any](t *testing.T, target *T, value T) {
	t.Helper()
	previous := *target
	*target = value
	t.Cleanup(func() { *target = previous })
}

// A failure in the middle of a group keeps the replacements done before it.
func TestReplaceCopies_PartialGroupFailure(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a/one":   "same",
		"b/two":   "same",
		"c/three": "same",
	})
	one := filepath.Join(root, "a", "one")
	two := filepath.Join(root, "b", "two")
	three := filepath.Join(root, "c", "three")

	swap(t, &removeFile, func(name string) error {
		if name == three {
			return &os.PathError{Op: "remove", Path: name, Err: fs.ErrPermission}
		}
		return os.Remove(name)
	})

	result, err := ReplaceCopies(context.Background(), root, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFilesystemOperation))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Equal(t, 1, strings.Count(err.Error(), three), err.Error())
	require.NotNil(t, result)

	// b/two was relinked before c/three failed, nothing is rolled back
	require.Len(t, result.Replacements, 1)
	assert.Equal(t, two, result.Replacements[0].Path)
	assert.True(t, sameFile(t, one, two))
	assert.False(t, sameFile(t, one, three))
}

func TestReplaceCopies_LinkFailure(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "same", "b": "same"})
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")

	swap(t, &linkFile, func(oldname, newname string) error {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: fs.ErrPermission}
	})

	_, err := ReplaceCopies(context.Background(), root, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFilesystemOperation))
	assert.Equal(t, 1, strings.Count(err.Error(), b), err.Error())

	// removed before the link failed
	_, err = os.Stat(b)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = os.Stat(a)
	assert.NoError(t, err)
}

func TestReplaceCopies_CrossDevice(t *testing.T) {
	root := makeTree(t, map[string]string{"a": "same", "b": "same"})
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")

	swap(t, &statFile, func(path string) (hardlinkfilemap.FileID, uint64, error) {
		id, nlink, err := hardlinkfilemap.Stat(path)
		if path == b {
			id.Device++
		}
		return id, nlink, err
	})

	var removed []string
	swap(t, &removeFile, func(name string) error {
		removed = append(removed, name)
		return os.Remove(name)
	})

	result, err := ReplaceCopies(context.Background(), root, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrFilesystemOperation))
	assert.Contains(t, err.Error(), "different filesystems")
	require.NotNil(t, result)
	assert.Empty(t, result.Replacements)

	// refused before anything was removed
	assert.Empty(t, removed)
	content, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "same", string(content))
	assert.False(t, sameFile(t, a, b))
}

func TestResult_Replaced(t *testing.T) {
	r := &Result{Replacements: []Replacement{{AlreadyLinked: true}, {}, {DryRun: true}}}
	assert.Equal(t, 2, r.Replaced())
}
