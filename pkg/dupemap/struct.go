package dupemap

import (
	"github.com/autobrr/relink/pkg/hasher"
)

// Group is a set of at least two paths whose content produced the same digest.
type Group struct {
	Digest hasher.Digest
	Paths  []string
}

// Representative is the first discovered path; it is kept unchanged.
func (g Group) Representative() string {
	return g.Paths[0]
}

// Duplicates are the paths that get replaced by links to the representative.
func (g Group) Duplicates() []string {
	return g.Paths[1:]
}

func (g Group) Count() int {
	return len(g.Paths)
}

type DigestMap struct {
	// digestMap maps a digest to the paths that produced it, in discovery order
	digestMap map[hasher.Digest][]string
	// order holds each digest once, in the order it was first seen
	order []hasher.Digest
}
