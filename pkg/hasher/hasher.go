package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/autobrr/relink/pkg/errs"
)

// BufferSize is the chunk size used when streaming file content into the hash.
const BufferSize = 64 * 1024

// DefaultAlgorithm is a fast checksum; collision resistance is not a requirement here.
const DefaultAlgorithm = "md5"

// Digest is the lowercase hex encoding of a file's content hash.
type Digest string

// Algorithm describes a supported content hash.
type Algorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash
}

// GetAlgorithm returns the algorithm configuration for the given name.
func GetAlgorithm(name string) (*Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "md5":
		return &Algorithm{Name: "md5", Size: md5.Size, NewFunc: md5.New}, nil
	case "sha1":
		return &Algorithm{Name: "sha1", Size: sha1.Size, NewFunc: sha1.New}, nil
	case "sha256":
		return &Algorithm{Name: "sha256", Size: sha256.Size, NewFunc: sha256.New}, nil
	default:
		return nil, errs.InvalidArgument("unsupported hash algorithm: %s", name)
	}
}

// Hasher computes content digests with one algorithm.
type Hasher struct {
	algorithm *Algorithm
}

func New(algorithm string) (*Hasher, error) {
	a, err := GetAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}

	return &Hasher{algorithm: a}, nil
}

func (h *Hasher) Algorithm() string {
	return h.algorithm.Name
}

// HashFile returns the digest of the regular file name inside directory root, together with the joined path.
func (h *Hasher) HashFile(root, name string) (Digest, string, error) {
	if root == "" {
		return "", "", errs.InvalidArgument("root must not be empty")
	}
	if name == "" {
		return "", "", errs.InvalidArgument("file name must not be empty")
	}

	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return "", "", errs.NotFound("no such directory %s", root)
	}

	path := filepath.Join(root, name)
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		return "", "", errs.NotFound("no such file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errs.NotFound("no such file: %s", path)
		}
		return "", "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	digest, err := h.HashReader(f)
	if err != nil {
		return "", "", errors.Wrapf(err, "hash %s", path)
	}

	return digest, path, nil
}

// HashReader drains r in BufferSize chunks and returns the digest of everything read.
func (h *Hasher) HashReader(r io.Reader) (Digest, error) {
	sum := h.algorithm.NewFunc()
	buf := make([]byte, BufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
		}
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "read chunk")
		}
	}

	return Digest(hex.EncodeToString(sum.Sum(nil))), nil
}

// EmptyDigest returns the digest of zero bytes of input for the named algorithm.
func EmptyDigest(algorithm string) (Digest, error) {
	a, err := GetAlgorithm(algorithm)
	if err != nil {
		return "", err
	}

	return Digest(hex.EncodeToString(a.NewFunc().Sum(nil))), nil
}
