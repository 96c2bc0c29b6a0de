package hash

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	stdhash "hash"

	"github.com/cespare/xxhash/v2"
	"github.com/jmgilman/go/errors"
)

// Algorithm names a content digest.
type Algorithm string

const (
	XXHash Algorithm = "xxhash"
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// Default is used when no algorithm is configured.
const Default = XXHash

// Digest is the hex encoded fingerprint of a file's full content.
// Equal digests are treated as equal content; collisions are not detected.
type Digest string

// Parse returns the algorithm called name. An empty name selects Default.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "":
		return Default, nil
	case XXHash, MD5, SHA256:
		return Algorithm(name), nil
	default:
		return "", errors.Newf(errors.CodeInvalidConfig, "unknown digest algorithm %q", name)
	}
}

func (a Algorithm) new() (stdhash.Hash, error) {
	switch a {
	case XXHash, "":
		return xxhash.New(), nil
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", string(a))
	}
}

// Sum computes the digest of data.
func (a Algorithm) Sum(data []byte) (Digest, error) {
	h, err := a.new()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// XXHashFunc is the node hash used by go-merkletree.
func XXHashFunc(data []byte) ([]byte, error) {
	h := xxhash.New()
	h.Write(data)
	sum := h.Sum64()

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, sum)
	return buf, nil
}
