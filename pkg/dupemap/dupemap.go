package dupemap

import (
	"sort"

	"github.com/autobrr/relink/pkg/errs"
	"github.com/autobrr/relink/pkg/hasher"
)

func New() *DigestMap {
	return &DigestMap{
		digestMap: make(map[hasher.Digest][]string),
	}
}

func (m *DigestMap) Add(digest hasher.Digest, path string) {
	if paths, exists := m.digestMap[digest]; exists {
		m.digestMap[digest] = append(paths, path)
		return
	}

	// digest has not been seen before, create entry
	m.digestMap[digest] = []string{path}
	m.order = append(m.order, digest)
}

// Length returns the number of distinct digests.
func (m *DigestMap) Length() int {
	return len(m.order)
}

// Groups returns every digest with more than one path, in the order the digests were first seen.
// The map is not modified, so repeated calls return equal results.
func (m *DigestMap) Groups() []Group {
	groups := make([]Group, 0)

	for _, digest := range m.order {
		paths := m.digestMap[digest]
		if len(paths) < 2 {
			continue
		}

		groups = append(groups, Group{
			Digest: digest,
			Paths:  append([]string(nil), paths...),
		})
	}

	return groups
}

// SimilarFiles extracts duplicate groups from a mapping built outside of a DigestMap.
// A nil mapping is rejected. Groups are ordered by digest because map iteration order is not stable.
func SimilarFiles(filesWithHash map[hasher.Digest][]string) ([]Group, error) {
	if filesWithHash == nil {
		return nil, errs.InvalidArgument("files with hash must be a non-nil mapping")
	}

	digests := make([]hasher.Digest, 0, len(filesWithHash))
	for digest := range filesWithHash {
		digests = append(digests, digest)
	}
	sort.Slice(digests, func(i, j int) bool {
		return digests[i] < digests[j]
	})

	m := New()
	for _, digest := range digests {
		for _, path := range filesWithHash[digest] {
			m.Add(digest, path)
		}
	}

	return m.Groups(), nil
}
