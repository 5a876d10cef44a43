package fingerprint

import (
	_ "crypto/sha256" // registers digest.SHA256
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

const (
	// SHA256 is the default fingerprint algorithm.
	SHA256 = digest.SHA256
	// BLAKE3 is the 256-bit BLAKE3 fingerprint algorithm.
	BLAKE3 digest.Algorithm = "blake3"
	// Legacy is the 32-bit rolling hash of the SecureVision demo app.
	// It is not collision resistant and only exists to read records sealed by that app.
	Legacy digest.Algorithm = "legacy"
)

// ErrUnsupported is returned for unknown algorithms.
var ErrUnsupported = errors.New("unsupported fingerprint algorithm")

// A Fingerprinter derives fixed-size digests from file bytes.
type Fingerprinter struct {
	algorithm digest.Algorithm
}

// New returns a Fingerprinter for the given algorithm name.
// An empty name selects SHA256.
func New(algorithm string) (*Fingerprinter, error) {
	alg := digest.Algorithm(strings.ToLower(strings.TrimSpace(algorithm)))
	if alg == "" {
		alg = SHA256
	}
	if !Supported(alg) {
		return nil, errors.Wrap(ErrUnsupported, string(alg))
	}

	return &Fingerprinter{algorithm: alg}, nil
}

// Algorithm returns the algorithm used to seal new records.
func (f *Fingerprinter) Algorithm() digest.Algorithm {
	return f.algorithm
}

// FromBytes returns the fingerprint of p.
func (f *Fingerprinter) FromBytes(p []byte) digest.Digest {
	d, _ := Of(f.algorithm, p) // algorithm checked by New
	return d
}

// FromReader consumes r and returns its fingerprint.
func (f *Fingerprinter) FromReader(r io.Reader) (digest.Digest, error) {
	d := f.Digester()
	if _, err := io.Copy(d.Hash(), r); err != nil {
		return "", errors.Wrap(err, "fingerprint")
	}
	return d.Digest(), nil
}

// FromReference returns the fingerprint of an image that could not be read,
// computed over its reference.
func (f *Fingerprinter) FromReference(ref string) digest.Digest {
	d, _ := OfReference(f.algorithm, ref) // algorithm checked by New
	return d
}

// Digester returns a streaming digester, usable behind an io.MultiWriter.
func (f *Fingerprinter) Digester() digest.Digester {
	return NewDigester(f.algorithm)
}

// Supported reports whether alg can be computed.
func Supported(alg digest.Algorithm) bool {
	switch alg {
	case BLAKE3, Legacy:
		return true
	}
	return alg.Available()
}

// AlgorithmOf infers the algorithm of a stored fingerprint.
// Fingerprints without an algorithm prefix are legacy ones.
func AlgorithmOf(fingerprint string) digest.Algorithm {
	i := strings.IndexByte(fingerprint, ':')
	if i < 0 {
		return Legacy
	}
	return digest.Algorithm(fingerprint[:i])
}

// Of returns the fingerprint of p computed with alg.
func Of(alg digest.Algorithm, p []byte) (digest.Digest, error) {
	if !Supported(alg) {
		return "", errors.Wrap(ErrUnsupported, string(alg))
	}

	d := NewDigester(alg)
	d.Hash().Write(p)
	return d.Digest(), nil
}

// OfReference returns the fingerprint of the reference of an unreadable image.
// The legacy hash runs over the reference text as is, where file bytes go through base64 first.
func OfReference(alg digest.Algorithm, ref string) (digest.Digest, error) {
	if alg == Legacy {
		return legacyDigest([]byte(ref)), nil
	}
	return Of(alg, []byte(ref))
}

// NewDigester returns a digester for alg. It panics on unsupported algorithms.
func NewDigester(alg digest.Algorithm) digest.Digester {
	switch alg {
	case BLAKE3:
		return &digester{alg: alg, hash: blake3.New()}
	case Legacy:
		return &legacyDigester{}
	}
	return alg.Digester()
}

//
// BLAKE3
//

type digester struct {
	alg  digest.Algorithm
	hash hash.Hash
}

func (d *digester) Hash() hash.Hash {
	return d.hash
}

func (d *digester) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(d.alg, hex.EncodeToString(d.hash.Sum(nil)))
}

//
// Legacy
//

// legacyDigester buffers the written bytes because the demo hash runs over
// their base64 text.
type legacyDigester struct {
	buf legacyHash
}

func (d *legacyDigester) Hash() hash.Hash {
	return &d.buf
}

func (d *legacyDigester) Digest() digest.Digest {
	return legacyDigest([]byte(base64.StdEncoding.EncodeToString(d.buf.data)))
}

type legacyHash struct {
	data []byte
}

func (h *legacyHash) Write(p []byte) (int, error) {
	h.data = append(h.data, p...)
	return len(p), nil
}

func (h *legacyHash) Sum(b []byte) []byte {
	v := rolling([]byte(base64.StdEncoding.EncodeToString(h.data)))
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (h *legacyHash) Reset()         { h.data = h.data[:0] }
func (h *legacyHash) Size() int      { return 4 }
func (h *legacyHash) BlockSize() int { return 1 }

func legacyDigest(text []byte) digest.Digest {
	return digest.Digest(fmt.Sprintf("%08x", rolling(text)))
}

// rolling is h = h*33 + b over text, modulo 2^32.
func rolling(text []byte) uint32 {
	var v uint32
	for _, b := range text {
		v = v*33 + uint32(b)
	}
	return v
}
