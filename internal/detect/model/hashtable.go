package model

import "image"

// Triplet is the (centre, p1, p2) sampling pattern a HashTable projects
// onto a template's bounding box (during training) or a scene window
// (during detection). Positions are grid cells of the reference grid
// (default 12x12), not pixels.
type Triplet struct {
	C, P1, P2 image.Point
}

// Equal reports whether two triplets sample the same three grid cells,
// ignoring point order, per the "no two HashTables share a triplet modulo
// point permutation" invariant.
func (t Triplet) Equal(o Triplet) bool {
	a := [3]image.Point{t.C, t.P1, t.P2}
	b := [3]image.Point{o.C, o.P1, o.P2}
	return sameSet3(a, b)
}

func sameSet3(a, b [3]image.Point) bool {
	used := [3]bool{}
	for _, pa := range a {
		found := false
		for j, pb := range b {
			if used[j] {
				continue
			}
			if pa == pb {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// BinRange is one of a HashTable's five relative-depth bins. Low is
// inclusive, High is exclusive. Calibration sets the first bin's Low to
// MinRelativeDepth and the last bin's High to MaxRelativeDepth+1, so the
// five bins together cover every representable relative depth.
type BinRange struct {
	Low, High int32
}

// Contains reports whether v falls in [Low, High).
func (r BinRange) Contains(v int32) bool {
	return v >= r.Low && v < r.High
}

const (
	// MinRelativeDepth and MaxRelativeDepth extend a table's outer bins to
	// cover the full signed 16-bit interval, per the HashTable invariant
	// that the five ranges partition it completely.
	MinRelativeDepth int32 = -32768
	MaxRelativeDepth int32 = 32767
)

// HashKey is the five-byte lookup key: two quantized relative-depth bin
// indices (0..4) and three quantized normal octant indices (0..7).
//
// Represented as a fixed byte array rather than a packed/union type per
// the cascade's design notes — a comparable Go array is usable directly as
// a map key with no bit-packing ceremony.
type HashKey [5]byte

// MakeHashKey builds a key from its five components.
func MakeHashKey(d1, d2, n1, n2, n3 byte) HashKey {
	return HashKey{d1, d2, n1, n2, n3}
}

// HashTable is one randomized triplet hash table: a triplet pattern, five
// calibrated depth-bin ranges, and the bucket map from HashKey to the
// non-owning set of template ids that fall in that key. A template appears
// at most once per bucket.
type HashTable struct {
	Triplet   Triplet
	BinRanges [5]BinRange
	Buckets   map[HashKey][]uint32 // template ids, deduplicated
}

// NewHashTable returns an empty table for the given triplet.
func NewHashTable(t Triplet) *HashTable {
	return &HashTable{Triplet: t, Buckets: make(map[HashKey][]uint32)}
}

// Insert adds templateID to the bucket for key, deduplicating by id.
func (h *HashTable) Insert(key HashKey, templateID uint32) {
	bucket := h.Buckets[key]
	for _, id := range bucket {
		if id == templateID {
			return
		}
	}
	h.Buckets[key] = append(bucket, templateID)
}

// BinIndex returns the index (0..4) of the range containing v, or -1 if no
// range contains it (which should not happen for a table whose ranges
// partition the full interval).
func (h *HashTable) BinIndex(v int32) int {
	for i, r := range h.BinRanges {
		if r.Contains(v) {
			return i
		}
	}
	return -1
}

// RangesPartitionFull reports whether the table's five ranges are
// contiguous, non-overlapping and cover [MinRelativeDepth, MaxRelativeDepth].
func (h *HashTable) RangesPartitionFull() bool {
	if h.BinRanges[0].Low != MinRelativeDepth {
		return false
	}
	if h.BinRanges[4].High != MaxRelativeDepth+1 {
		return false
	}
	for i := 1; i < 5; i++ {
		if h.BinRanges[i].Low != h.BinRanges[i-1].High {
			return false
		}
	}
	return true
}
