// Package fingerprint computes deterministic, endian-stable 128-bit content
// identifiers for IR values.
package fingerprint

import (
	"encoding/base32"
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// salt is a compile-time constant seed for the high half of the digest.
// It must never depend on process-local randomness: two processes hashing
// the same bytes must agree.
const salt uint64 = 0x9E3779B97F4A7C15

// base32Enc renders fingerprints as short, DOM-id-safe strings.
var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// Fingerprint is an opaque 128-bit content identifier. Equal fingerprints
// denote byte-identical IR values.
type Fingerprint struct {
	Hi uint64
	Lo uint64
}

// Zero is the sentinel fingerprint used by nothing stored in a module; it is
// never a valid key.
var Zero = Fingerprint{}

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f.Hi == 0 && f.Lo == 0
}

// Less gives fingerprints a total order so module emission can be stable.
func (f Fingerprint) Less(o Fingerprint) bool {
	if f.Hi != o.Hi {
		return f.Hi < o.Hi
	}
	return f.Lo < o.Lo
}

// Compare returns -1, 0 or 1, matching slices.SortFunc's contract.
func (f Fingerprint) Compare(o Fingerprint) int {
	switch {
	case f.Hi < o.Hi:
		return -1
	case f.Hi > o.Hi:
		return 1
	case f.Lo < o.Lo:
		return -1
	case f.Lo > o.Lo:
		return 1
	default:
		return 0
	}
}

// String renders a short base-32 id stable across runs, suitable as a DOM id
// fragment (e.g. "g-<id>").
func (f Fingerprint) String() string {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], f.Hi)
	binary.LittleEndian.PutUint64(buf[8:], f.Lo)
	return base32Enc.EncodeToString(buf[:])
}

// Encoder accumulates a canonical byte encoding of a value for hashing. All
// multi-byte integers are written little-endian so the resulting digest is
// reproducible across architectures.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with a small pre-allocated buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

func (e *Encoder) WriteTag(tag byte) { e.buf = append(e.buf, tag) }

func (e *Encoder) WriteBytes(b []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(b)))
	e.buf = append(e.buf, lenBuf[:]...)
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteString(s string) { e.WriteBytes([]byte(s)) }

func (e *Encoder) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteInt(v int) { e.WriteUint64(uint64(v)) }

func (e *Encoder) WriteFloat64(v float64) { e.WriteUint64(uint64FromFloat(v)) }

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// Bytes returns the encoder's accumulated canonical byte stream. Used by
// callers that need a structural hash (e.g. T2V's cache key) rather than a
// full Fingerprint.
func (e *Encoder) Bytes() []byte { return e.buf }

// WriteFingerprint folds a nested fingerprint into the encoding, used when a
// parent's identity depends on a child's content identity.
func (e *Encoder) WriteFingerprint(f Fingerprint) {
	e.WriteUint64(f.Hi)
	e.WriteUint64(f.Lo)
}

// Hashable is implemented by any value that participates in content
// addressing. EncodeStable must write the same bytes for any two values that
// should be considered content-equal, independent of pointer identity.
type Hashable interface {
	EncodeStable(e *Encoder)
}

func uint64FromFloat(v float64) uint64 {
	return math.Float64bits(v)
}

// hashBytes folds a byte slice into a Fingerprint using two independent
// xxhash evaluations: one over the raw bytes, one over the bytes salted with
// a fixed constant. Both are deterministic and endian-stable by
// construction (xxhash.Sum64 operates on the byte slice we built ourselves).
func hashBytes(data []byte) Fingerprint {
	lo := xxhash.Sum64(data)

	salted := make([]byte, len(data)+8)
	copy(salted, data)
	binary.LittleEndian.PutUint64(salted[len(data):], salt)
	hi := xxhash.Sum64(salted)

	return Fingerprint{Hi: hi, Lo: lo}
}

// Builder is the FingerprintBuilder: it folds a Hashable's canonical
// encoding into a Fingerprint, memoizing results by encoded bytes so that
// repeated resolution of structurally-identical values (a common pattern
// when the same sub-tree recurs across pages) skips re-hashing. The value is
// still encoded on every call, and the cache keeps every result for the
// Builder's lifetime.
type Builder struct {
	mu    sync.RWMutex
	cache map[string]Fingerprint
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{cache: make(map[string]Fingerprint, 256)}
}

// Resolve computes the Fingerprint of v, consulting its cache first.
func (b *Builder) Resolve(v Hashable) Fingerprint {
	e := NewEncoder()
	v.EncodeStable(e)
	key := string(e.buf)

	b.mu.RLock()
	if fp, ok := b.cache[key]; ok {
		b.mu.RUnlock()
		return fp
	}
	b.mu.RUnlock()

	fp := hashBytes(e.buf)

	b.mu.Lock()
	b.cache[key] = fp
	b.mu.Unlock()
	return fp
}

// ResolveUnchecked is identical to Resolve but never touches the cache; used
// when the caller already knows the value is unique (e.g. freshly built
// content that will never recur verbatim within this build).
func (b *Builder) ResolveUnchecked(v Hashable) Fingerprint {
	e := NewEncoder()
	v.EncodeStable(e)
	return hashBytes(e.buf)
}

// Bytes computes a Fingerprint directly from a byte slice (used for raw
// payloads such as image bytes that have no natural Hashable wrapper).
func Bytes(b []byte) Fingerprint {
	return hashBytes(b)
}
