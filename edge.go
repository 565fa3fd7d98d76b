package debruijn

import "strconv"

// Edge is a directed edge between two vertices. It carries whether it lies
// on the reference path, the combined multiplicity across all samples, and a
// fixed-depth ring of per-sample multiplicities used to decide what to
// prune: once as many samples as the ring is deep have written to the edge,
// PruningMultiplicity is the minimum across the ring's per-sample counts,
// which is a much more conservative estimate of "real" support than the
// combined total; before that it is the combined total.
type Edge struct {
	isRef        bool
	multiplicity uint64

	// pruning is a ring of per-sample multiplicity counters, numPruningSamples
	// deep. currentSlot indexes the slot that is accumulating counts for the
	// sample currently being threaded; FlushSingleSampleMultiplicity rotates to
	// the next slot, and the first write after that zeroes the slot before
	// adding to it. samplesSeen caps at len(pruning) and counts how many slots
	// have actually been written to, since PruningMultiplicity must not treat
	// an unpopulated slot's zero as a genuine minimum.
	// currentSlotWritten tracks whether the current slot has taken a write
	// since it was last opened by a flush, so that a flush occurring right
	// after the last real sample (with no further sample to come) does not
	// itself get counted as having seen a sample.
	pruning            []uint64
	currentSlot        int
	currentSlotWritten bool
	samplesSeen        int
}

// NewEdge creates an edge with the given reference flag and initial
// multiplicity, backed by a pruning ring numPruningSamples deep.
func NewEdge(isRef bool, multiplicity uint64, numPruningSamples int) *Edge {
	if numPruningSamples < 1 {
		numPruningSamples = 1
	}
	e := &Edge{
		isRef:        isRef,
		multiplicity: multiplicity,
		pruning:      make([]uint64, numPruningSamples),
	}
	e.pruning[0] = multiplicity
	if multiplicity > 0 {
		e.currentSlotWritten = true
		e.samplesSeen = 1
	}
	return e
}

// IsRef reports whether e lies on the reference path.
func (e *Edge) IsRef() bool { return e.isRef }

// SetIsRef overwrites e's reference flag.
func (e *Edge) SetIsRef(isRef bool) { e.isRef = isRef }

// Multiplicity returns the total multiplicity across every sample.
func (e *Edge) Multiplicity() uint64 { return e.multiplicity }

// SetMultiplicity overwrites both the total and the current pruning slot.
// Used when splicing in a freshly-created edge (e.g. during dangling-head
// extension) whose count should match a sibling edge exactly.
func (e *Edge) SetMultiplicity(m uint64) {
	e.multiplicity = m
	e.pruning[e.currentSlot] = m
	if !e.currentSlotWritten && m > 0 {
		e.currentSlotWritten = true
		if e.samplesSeen < len(e.pruning) {
			e.samplesSeen++
		}
	}
}

// IncMultiplicity adds n to both the running total and the current sample's
// pruning slot.
func (e *Edge) IncMultiplicity(n uint64) {
	e.multiplicity += n
	if !e.currentSlotWritten {
		e.pruning[e.currentSlot] = 0
		e.currentSlotWritten = true
		if e.samplesSeen < len(e.pruning) {
			e.samplesSeen++
		}
	}
	e.pruning[e.currentSlot] += n
}

// FlushSingleSampleMultiplicity rotates the pruning ring to the next slot,
// so that the next sample's threading starts counting from scratch: the
// first write after a flush zeroes that slot before adding to it. Called
// once per sample boundary while building the graph, including after the
// last sample: a flush by itself neither clears a slot nor increments
// samplesSeen, so a flush with no further sample to follow leaves
// PruningMultiplicity unchanged.
func (e *Edge) FlushSingleSampleMultiplicity() {
	e.currentSlot = (e.currentSlot + 1) % len(e.pruning)
	e.currentSlotWritten = false
}

// PruningMultiplicity returns the minimum of the per-sample multiplicities
// held in the ring (those of the most recent samples that wrote to e), or
// the combined total if fewer samples than the ring's depth have written
// to e.
func (e *Edge) PruningMultiplicity() uint64 {
	if e.samplesSeen < len(e.pruning) {
		return e.multiplicity
	}
	min := e.pruning[0]
	for _, v := range e.pruning[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Add folds other's multiplicity into e, used by AddOrUpdateEdge when a
// parallel edge already exists between the same ordered pair of vertices.
func (e *Edge) Add(other *Edge) {
	e.multiplicity += other.multiplicity
	e.isRef = e.isRef || other.isRef
	for i, v := range other.pruning {
		if i < len(e.pruning) {
			e.pruning[i] += v
		}
	}
}

func (e *Edge) dotLabel() string {
	return strconv.FormatUint(e.multiplicity, 10)
}
