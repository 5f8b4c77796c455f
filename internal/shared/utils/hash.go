package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"
	"strings"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"lukechampine.com/blake3"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	BLAKE3 HashAlgorithm = "blake3"
)

// Hasher provides extensible hashing functionality
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a BLAKE3 hasher
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE3)
}

func (h *Hasher) newHash() hash.Hash {
	switch h.algorithm {
	case SHA256:
		return sha256.New()
	default:
		return blake3.New(32, nil)
	}
}

// Hash computes a hex digest of data
func (h *Hasher) Hash(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFields computes an order-independent hash from multiple fields
func (h *Hasher) HashFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	return h.HashString(strings.Join(sorted, "|"))
}

// CodebaseDigest fingerprints a project snapshot. File order does not matter;
// every path and content byte does.
func (h *Hasher) CodebaseDigest(files []types.FileNode) string {
	if len(files) == 0 {
		return ""
	}
	sorted := make([]types.FileNode, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	d := h.newHash()
	for _, f := range sorted {
		d.Write([]byte(f.FilePath))
		d.Write([]byte{0})
		d.Write([]byte(f.FileContent))
		d.Write([]byte{0})
	}
	return hex.EncodeToString(d.Sum(nil))
}
