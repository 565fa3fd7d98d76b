package debruijn

import "github.com/pkg/errors"

// Kmer is a borrowed window (buffer, start, length) over some byte slice,
// plus a precomputed hash. Two kmers are equal iff their windowed bytes are
// equal; this is deliberately independent of whether either one has been
// materialized into its own backing array yet.
//
// A Kmer must not be mutated while it participates in any hash container:
// its hash is computed once, at construction, from the window it was given.
type Kmer struct {
	bases  []byte
	start  int
	length int
	hash   uint64
}

// NewKmer wraps the whole of bases as a kmer.
func NewKmer(bases []byte) Kmer {
	k, err := NewKmerWindow(bases, 0, len(bases))
	if err != nil {
		// bases, 0, len(bases) can never fail NewKmerWindow's bounds checks.
		panic(err)
	}
	return k
}

// NewKmerWindow wraps bases[start:start+length] as a kmer without copying.
// The caller must not mutate bases for as long as the returned Kmer, or any
// Kmer derived from it via Sub, is in use.
func NewKmerWindow(bases []byte, start, length int) (Kmer, error) {
	if start < 0 {
		return Kmer{}, errors.Errorf("kmer start must be >= 0, got %d", start)
	}
	if length < 0 {
		return Kmer{}, errors.Errorf("kmer length must be >= 0, got %d", length)
	}
	if start+length > len(bases) {
		return Kmer{}, errors.Errorf("kmer start+length (%d) must be <= len(bases) (%d)", start+length, len(bases))
	}
	return Kmer{
		bases:  bases,
		start:  start,
		length: length,
		hash:   kmerHash(bases, start, length),
	}, nil
}

// kmerHash implements the spec's polynomial hash over the windowed bytes:
// h0 = 1, hi = 31*hi-1 + byte[i].
func kmerHash(bases []byte, start, length int) uint64 {
	var h uint64 = 1
	for i := 0; i < length; i++ {
		h = 31*h + uint64(bases[start+i])
	}
	return h
}

// Sub returns a shallow sub-kmer sharing this kmer's backing buffer.
func (k Kmer) Sub(newStart, newLength int) (Kmer, error) {
	return NewKmerWindow(k.bases, k.start+newStart, newLength)
}

// Length returns the number of bases in the kmer.
func (k Kmer) Length() int { return k.length }

// Hash returns the kmer's precomputed hash.
func (k Kmer) Hash() uint64 { return k.hash }

// Base returns the i'th base of the kmer.
func (k Kmer) Base(i int) byte { return k.bases[k.start+i] }

// Bases returns a slice holding exactly the kmer's bases. If the window does
// not already span the whole backing buffer, the first call copies it into a
// fresh allocation and rebinds the kmer's internal state to it; subsequent
// calls on the same Kmer value are then free. A kmer whose window already
// spans its whole buffer returns that buffer itself, without copying.
// Because Kmer is a value type, callers that want the materialization to
// stick across calls must call Bases on an addressable Kmer or hold it
// through a pointer.
func (k *Kmer) Bases() []byte {
	if k.start != 0 || len(k.bases) != k.length {
		owned := make([]byte, k.length)
		copy(owned, k.bases[k.start:k.start+k.length])
		k.bases = owned
		k.start = 0
	}
	return k.bases
}

// String returns the kmer's bases as a string, without mutating k.
func (k Kmer) String() string {
	return string(k.bases[k.start : k.start+k.length])
}

// Equal reports whether k and other have the same length and bytes.
func (k Kmer) Equal(other Kmer) bool {
	if k.hash != other.hash || k.length != other.length {
		return false
	}
	for i := 0; i < k.length; i++ {
		if k.bases[k.start+i] != other.bases[other.start+i] {
			return false
		}
	}
	return true
}

// key returns a copying, comparable representation of k suitable for use as
// a Go map key. Kmer itself holds a slice and so cannot be a map key
// directly; mapping through the materialized bytes (rather than hand-rolling
// a probing hash table the way fusion/kmer_index.go does for its
// 2-bit-packed kmers) is the idiomatic Go translation of the original's
// custom-hashCode-backed HashMap<Kmer,V> once kmers are arbitrary-length byte
// windows rather than a fixed packed integer.
func (k Kmer) key() string {
	return string(k.bases[k.start : k.start+k.length])
}

// DifferingPositions performs a Hamming comparison between k and other,
// which must have equal length. It fills outIdx/outBytes with the positions
// and other's bytes at every mismatch, stopping and returning -1 as soon as
// the mismatch count would exceed maxDistance. outIdx and outBytes must each
// be at least maxDistance+1 long.
func (k Kmer) DifferingPositions(other Kmer, maxDistance int, outIdx []int, outBytes []byte) int {
	if k.length != other.length {
		return -1
	}
	dist := 0
	for i := 0; i < k.length; i++ {
		a := k.bases[k.start+i]
		b := other.bases[other.start+i]
		if a != b {
			outIdx[dist] = i
			outBytes[dist] = b
			dist++
			if dist > maxDistance {
				return -1
			}
		}
	}
	return dist
}
