package transfer

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
)

// DefaultETagAlgorithm is used when the caller doesn't configure one.
const DefaultETagAlgorithm = "md5"

var hashConstructors = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
}

// SupportedETagAlgorithm reports whether name is a known digest algorithm.
func SupportedETagAlgorithm(name string) bool {
	_, ok := hashConstructors[name]
	return ok
}

// ComputeFileETag streams localPath through the named hash algorithm and
// returns a quoted lowercase hex digest, e.g. `"9e107d9d372bb6826bd81d3542a419d6"`.
// It never buffers the whole file into memory.
func ComputeFileETag(localPath, algorithm string) (string, error) {
	if algorithm == "" {
		algorithm = DefaultETagAlgorithm
	}

	newHash, ok := hashConstructors[algorithm]
	if !ok {
		return "", fmt.Errorf("transfer: unsupported etag algorithm %q", algorithm)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("transfer: compute etag: %w", err)
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("transfer: compute etag: %w", err)
	}

	return fmt.Sprintf("%q", fmt.Sprintf("%x", h.Sum(nil))), nil
}
