package debruijn

import (
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/debruijn/align"
)

const maxCigarComplexity = 3

// SequenceForKmers is one sequence queued for threading: either a read
// fragment or the reference itself.
type SequenceForKmers struct {
	Name        string
	Bases       []byte
	Start, Stop int
	Count       uint64
	IsRef       bool
}

func newSequenceForKmers(name string, bases []byte, start, stop int, count uint64, isRef bool) (SequenceForKmers, error) {
	if start < 0 {
		return SequenceForKmers{}, errors.Errorf("invalid start %d", start)
	}
	if stop < start {
		return SequenceForKmers{}, errors.Errorf("invalid stop %d < start %d", stop, start)
	}
	if count < 1 {
		return SequenceForKmers{}, errors.Errorf("invalid count %d", count)
	}
	return SequenceForKmers{Name: name, Bases: bases, Start: start, Stop: stop, Count: count, IsRef: isRef}, nil
}

// ReadThreadingGraph is a BaseGraph that knows how to thread sequences of
// bases into itself, kmer by kmer, and to heal dangling branches afterwards.
type ReadThreadingGraph struct {
	*BaseGraph

	minBaseQualityToUseInAssembly byte
	numPruningSamples             int
	debugGraphTransformations     bool

	threadingStartOnlyAtExistingVertex bool
	increaseCountsBackwards            bool
	increaseCountsThroughBranches      bool

	maxMismatchesInDanglingHead int

	// pending holds, per sample, the sequences queued for threading, in
	// insertion order. Iteration over samples also follows insertion order.
	pending        map[string][]SequenceForKmers
	sampleOrder    []string
	nonUniqueKmers map[string]bool
	uniqueKmers    map[string]*Vertex
	refSource      *Kmer
	alreadyBuilt   bool
}

// NewReadThreadingGraph creates an empty graph fixed at kmerSize, ready to
// receive sequences via AddSequence.
func NewReadThreadingGraph(kmerSize int, debugGraphTransformations bool, minBaseQualityToUseInAssembly byte, numPruningSamples int) (*ReadThreadingGraph, error) {
	base, err := NewBaseGraph(kmerSize)
	if err != nil {
		return nil, err
	}
	if numPruningSamples < 1 {
		numPruningSamples = 1
	}
	g := &ReadThreadingGraph{
		BaseGraph:                     base,
		minBaseQualityToUseInAssembly: minBaseQualityToUseInAssembly,
		numPruningSamples:             numPruningSamples,
		debugGraphTransformations:     debugGraphTransformations,
		increaseCountsBackwards:       true,
		pending:                       make(map[string][]SequenceForKmers),
		uniqueKmers:                   make(map[string]*Vertex),
		maxMismatchesInDanglingHead:   -1,
	}
	base.SetRemoveVertexFn(g.RemoveVertex)
	return g, nil
}

// SetThreadingStartOnlyAtExistingVertex changes the threading-start policy:
// when true, a sequence may only begin threading at a kmer that is already
// a vertex in the graph.
func (g *ReadThreadingGraph) SetThreadingStartOnlyAtExistingVertex(v bool) {
	g.threadingStartOnlyAtExistingVertex = v
}

// SetIncreaseCountsThroughBranches toggles whether backward count
// propagation continues through a branch point (in-degree > 1) instead of
// stopping there.
func (g *ReadThreadingGraph) SetIncreaseCountsThroughBranches(v bool) {
	g.increaseCountsThroughBranches = v
}

func anonymousSampleName() string { return "XXX_UNNAMED_XXX" }

// AddSequenceAnonymous enqueues the whole of bases for threading under a
// fixed placeholder sample name, for callers that don't track samples.
func (g *ReadThreadingGraph) AddSequenceAnonymous(seqName string, bases []byte, count uint64, isRef bool) error {
	return g.AddSequence(seqName, anonymousSampleName(), bases, 0, len(bases), count, isRef)
}

// AddSequence enqueues bases[start:stop] for threading under sampleName,
// with the given representative count. It fails if the graph has already
// been built.
func (g *ReadThreadingGraph) AddSequence(seqName, sampleName string, bases []byte, start, stop int, count uint64, isRef bool) error {
	if g.alreadyBuilt {
		return errors.Errorf("graph already built")
	}
	seq, err := newSequenceForKmers(seqName, bases, start, stop, count, isRef)
	if err != nil {
		return err
	}
	if _, ok := g.pending[sampleName]; !ok {
		g.sampleOrder = append(g.sampleOrder, sampleName)
	}
	g.pending[sampleName] = append(g.pending[sampleName], seq)
	return nil
}

// AddRead splits read into its usable (non-N, sufficiently high quality)
// sub-sequences and enqueues each one that is at least kmerSize long.
func (g *ReadThreadingGraph) AddRead(readName, sampleName string, bases, qualities []byte) error {
	lastGood := -1
	for end := 0; end <= len(bases); end++ {
		usable := end < len(bases) && g.baseIsUsableForAssembly(bases[end], qualities[end])
		if !usable {
			start := lastGood
			length := end - start
			if start != -1 && length >= g.KmerSize() {
				name := readName
				if err := g.AddSequence(name, sampleName, bases, start, end, 1, false); err != nil {
					return err
				}
			}
			lastGood = -1
		} else if lastGood == -1 {
			lastGood = end
		}
	}
	return nil
}

func (g *ReadThreadingGraph) baseIsUsableForAssembly(base, qual byte) bool {
	return base != 'N' && qual >= g.minBaseQualityToUseInAssembly
}

// BuildGraphIfNecessary threads every pending sequence into the graph, if it
// has not already been built. Idempotent.
func (g *ReadThreadingGraph) BuildGraphIfNecessary() error {
	if g.alreadyBuilt {
		return nil
	}

	nonUniques, err := g.determineKmerSizeAndNonUniques()
	if err != nil {
		return err
	}
	g.nonUniqueKmers = nonUniques

	for _, sample := range g.sampleOrder {
		for _, seq := range g.pending[sample] {
			if err := g.threadSequence(seq); err != nil {
				return err
			}
		}
		for _, ee := range g.Edges() {
			ee.Edge.FlushSingleSampleMultiplicity()
		}
	}

	g.pending = make(map[string][]SequenceForKmers)
	g.sampleOrder = nil
	g.alreadyBuilt = true
	for _, v := range g.uniqueKmers {
		v.SetAdditionalInfo(v.AdditionalInfo() + "+")
	}
	return nil
}

// determineKmerSizeAndNonUniques always uses the graph's fixed kmerSize
// (the generalized min/max range from the original algorithm collapses to a
// single size here, since no caller varies it) and returns the set of
// kmers that repeat within at least one pending sequence.
func (g *ReadThreadingGraph) determineKmerSizeAndNonUniques() (map[string]bool, error) {
	k := g.KmerSize()
	nonUnique := make(map[string]bool)
	for _, sample := range g.sampleOrder {
		for _, seq := range g.pending[sample] {
			counter := NewKmerCounter(k, seq.Stop-seq.Start)
			stopPosition := seq.Stop - k
			for i := 0; i <= stopPosition; i++ {
				kmer, err := NewKmerWindow(seq.Bases, i, k)
				if err != nil {
					return nil, err
				}
				counter.Add(kmer, 1)
			}
			for _, kmer := range counter.KmersWithCountAtLeast(2) {
				nonUnique[kmer.key()] = true
			}
		}
	}
	return nonUnique, nil
}

func (g *ReadThreadingGraph) threadSequence(seq SequenceForKmers) error {
	uniqueStartPos := g.findStart(seq)
	if uniqueStartPos == -1 {
		return nil
	}

	k := g.KmerSize()
	startingVertex, err := g.getOrCreateKmerVertex(seq.Bases, uniqueStartPos)
	if err != nil {
		return err
	}

	if g.increaseCountsBackwards {
		g.increaseCountsInMatchedKmers(seq, startingVertex, startingVertex.Bases(), k-2)
	}

	if seq.IsRef {
		if g.refSource != nil {
			return errors.Errorf("found two reference sources! prev: %s, new: %s", g.refSource, startingVertex)
		}
		kmer, err := NewKmerWindow(seq.Bases, seq.Start, k)
		if err != nil {
			return err
		}
		g.refSource = &kmer
	}

	vertex := startingVertex
	for i := uniqueStartPos + 1; i <= seq.Stop-k; i++ {
		next, err := g.extendChainByOne(vertex, seq.Bases, i, seq.Count, seq.IsRef)
		if err != nil {
			return err
		}
		vertex = next
	}
	return nil
}

func (g *ReadThreadingGraph) findStart(seq SequenceForKmers) int {
	if seq.IsRef {
		return seq.Start
	}
	k := g.KmerSize()
	for i := seq.Start; i < seq.Stop-k; i++ {
		kmer, err := NewKmerWindow(seq.Bases, i, k)
		if err != nil {
			return -1
		}
		if g.isThreadingStart(kmer) {
			return i
		}
	}
	return -1
}

func (g *ReadThreadingGraph) isThreadingStart(kmer Kmer) bool {
	if g.threadingStartOnlyAtExistingVertex {
		_, ok := g.uniqueKmers[kmer.key()]
		return ok
	}
	return !g.nonUniqueKmers[kmer.key()]
}

func (g *ReadThreadingGraph) increaseCountsInMatchedKmers(seq SequenceForKmers, vertex *Vertex, originalKmer []byte, offset int) {
	if offset == -1 {
		return
	}
	for _, in := range g.IncomingEdges(vertex) {
		prev := in.Source
		suffix := prev.Suffix()
		seqBase := originalKmer[offset]
		if suffix == seqBase && (g.increaseCountsThroughBranches || g.InDegree(vertex) == 1) {
			in.Edge.IncMultiplicity(seq.Count)
			g.increaseCountsInMatchedKmers(seq, prev, originalKmer, offset-1)
		}
	}
}

func (g *ReadThreadingGraph) getOrCreateKmerVertex(bases []byte, start int) (*Vertex, error) {
	kmer, err := NewKmerWindow(bases, start, g.KmerSize())
	if err != nil {
		return nil, err
	}
	if v := g.getUniqueKmerVertex(kmer, true); v != nil {
		return v, nil
	}
	return g.createVertex(kmer)
}

func (g *ReadThreadingGraph) getUniqueKmerVertex(kmer Kmer, allowRefSource bool) *Vertex {
	if !allowRefSource && g.refSource != nil && kmer.Equal(*g.refSource) {
		return nil
	}
	return g.uniqueKmers[kmer.key()]
}

func (g *ReadThreadingGraph) createVertex(kmer Kmer) (*Vertex, error) {
	newVertex := NewVertex(kmer.Bases())
	prevSize := len(g.Vertices())
	g.AddVertex(newVertex)
	if len(g.Vertices()) != prevSize+1 {
		log.Panicf("adding vertex %s to graph didn't increase the graph size", newVertex)
	}
	if !g.nonUniqueKmers[kmer.key()] {
		if _, exists := g.uniqueKmers[kmer.key()]; !exists {
			g.uniqueKmers[kmer.key()] = newVertex
		}
	}
	return newVertex, nil
}

func (g *ReadThreadingGraph) extendChainByOne(prevVertex *Vertex, sequence []byte, kmerStart int, count uint64, isRef bool) (*Vertex, error) {
	nextPos := kmerStart + g.KmerSize() - 1
	for _, out := range g.OutgoingEdges(prevVertex) {
		if out.Target.Suffix() == sequence[nextPos] {
			out.Edge.IncMultiplicity(count)
			return out.Target, nil
		}
	}

	kmer, err := NewKmerWindow(sequence, kmerStart, g.KmerSize())
	if err != nil {
		return nil, err
	}
	uniqueMergeVertex := g.getUniqueKmerVertex(kmer, false)

	if isRef && uniqueMergeVertex != nil {
		return nil, errors.Errorf("found a unique vertex to merge into the reference graph %s -> %s", prevVertex, uniqueMergeVertex)
	}

	var nextVertex *Vertex
	if uniqueMergeVertex == nil {
		nextVertex, err = g.createVertex(kmer)
		if err != nil {
			return nil, err
		}
	} else {
		nextVertex = uniqueMergeVertex
	}
	if err := g.AddEdge(prevVertex, nextVertex, NewEdge(isRef, count, g.numPruningSamples)); err != nil {
		return nil, err
	}
	return nextVertex, nil
}

// RemoveVertex removes v from the graph, and from the unique-kmer index if
// it was registered there.
func (g *ReadThreadingGraph) RemoveVertex(v *Vertex) bool {
	removed := g.BaseGraph.RemoveVertex(v)
	if removed {
		kmer := NewKmer(v.Bases())
		delete(g.uniqueKmers, kmer.key())
	}
	return removed
}

// IsLowComplexity reports whether the graph has fewer than four unique kmers
// per non-unique kmer (len(nonUniqueKmers)*4 > len(uniqueKmers)).
func (g *ReadThreadingGraph) IsLowComplexity() bool {
	return len(g.nonUniqueKmers)*4 > len(g.uniqueKmers)
}

// ConvertToSequenceGraph builds the graph if necessary, then collapses it
// into a compacted SeqGraph.
func (g *ReadThreadingGraph) ConvertToSequenceGraph() (*SeqGraph, error) {
	if err := g.BuildGraphIfNecessary(); err != nil {
		return nil, err
	}
	return g.BaseGraph.ConvertToSequenceGraph()
}

// ----------------------------------------------------------------------
// Dangling branch recovery
// ----------------------------------------------------------------------

// danglingChainMergeResult carries the data needed to decide whether, and
// how, to splice a dangling branch back onto the reference path.
type danglingChainMergeResult struct {
	danglingPath, referencePath             []*Vertex
	danglingPathString, referencePathString []byte
	cigar                                   align.Cigar
}

// RecoverDanglingTails attempts to merge every non-ref sink back onto the
// reference path. Returns the number recovered.
func (g *ReadThreadingGraph) RecoverDanglingTails(pruneFactor, minDanglingBranchLength int) (int, error) {
	if !g.alreadyBuilt {
		return 0, errors.Errorf("recoverDanglingTails requires the graph be already built")
	}
	attempted, recovered := 0, 0
	for _, v := range g.Vertices() {
		if g.OutDegree(v) == 0 && !g.IsRefSink(v) {
			attempted++
			n, err := g.recoverDanglingTail(v, pruneFactor, minDanglingBranchLength)
			if err != nil {
				return recovered, err
			}
			recovered += n
		}
	}
	if log.At(log.Debug) {
		log.Debug.Printf("recovered %d of %d dangling tails", recovered, attempted)
	}
	return recovered, nil
}

// RecoverDanglingHeads attempts to merge every non-ref source back onto the
// reference path. Returns the number recovered.
func (g *ReadThreadingGraph) RecoverDanglingHeads(pruneFactor, minDanglingBranchLength int) (int, error) {
	if !g.alreadyBuilt {
		return 0, errors.Errorf("recoverDanglingHeads requires the graph be already built")
	}
	var danglingHeads []*Vertex
	for _, v := range g.Vertices() {
		if g.InDegree(v) == 0 && !g.IsRefSource(v) {
			danglingHeads = append(danglingHeads, v)
		}
	}
	attempted, recovered := 0, 0
	for _, v := range danglingHeads {
		attempted++
		n, err := g.recoverDanglingHead(v, pruneFactor, minDanglingBranchLength)
		if err != nil {
			return recovered, err
		}
		recovered += n
	}
	if log.At(log.Debug) {
		log.Debug.Printf("recovered %d of %d dangling heads", recovered, attempted)
	}
	return recovered, nil
}

func (g *ReadThreadingGraph) recoverDanglingTail(vertex *Vertex, pruneFactor, minDanglingBranchLength int) (int, error) {
	if g.OutDegree(vertex) != 0 {
		return 0, errors.Errorf("attempting to recover a dangling tail for %s but it has out-degree > 0", vertex)
	}
	result, err := g.generateCigarAgainstDownwardsReferencePath(vertex, pruneFactor, minDanglingBranchLength)
	if err != nil {
		return 0, err
	}
	if result == nil || !cigarIsOkayToMerge(result.cigar, false, true) {
		return 0, nil
	}
	return g.mergeDanglingTail(result)
}

func (g *ReadThreadingGraph) recoverDanglingHead(vertex *Vertex, pruneFactor, minDanglingBranchLength int) (int, error) {
	if g.InDegree(vertex) != 0 {
		return 0, errors.Errorf("attempting to recover a dangling head for %s but it has in-degree > 0", vertex)
	}
	result, err := g.generateCigarAgainstUpwardsReferencePath(vertex, pruneFactor, minDanglingBranchLength)
	if err != nil {
		return 0, err
	}
	if result == nil || !cigarIsOkayToMerge(result.cigar, true, false) {
		return 0, nil
	}
	return g.mergeDanglingHead(result)
}

func cigarIsOkayToMerge(cigar align.Cigar, requireFirstElementM, requireLastElementM bool) bool {
	n := len(cigar)
	if n == 0 || n > maxCigarComplexity {
		return false
	}
	if requireFirstElementM && cigar[0].Op != align.OpMatch {
		return false
	}
	if requireLastElementM && cigar[n-1].Op != align.OpMatch {
		return false
	}
	return true
}

func (g *ReadThreadingGraph) mergeDanglingTail(result *danglingChainMergeResult) (int, error) {
	elements := result.cigar
	lastElement := elements[len(elements)-1]
	if lastElement.Op != align.OpMatch {
		return 0, errors.Errorf("the last CIGAR element must be an M")
	}

	lastRefIndex := result.cigar.ReferenceLength() - 1
	matchingSuffix := align.LongestSuffixMatch(result.referencePathString, result.danglingPathString, lastRefIndex)
	if matchingSuffix > lastElement.Len {
		matchingSuffix = lastElement.Len
	}
	if matchingSuffix == 0 {
		return 0, nil
	}

	altIndexToMerge := result.cigar.ReadLength() - matchingSuffix - 1
	if altIndexToMerge < 0 {
		altIndexToMerge = 0
	}

	firstElementIsDeletion := elements[0].Op == align.OpDeletion
	mustHandleLeadingDeletionCase := firstElementIsDeletion && elements[0].Len+matchingSuffix == lastRefIndex+1
	refIndexToMerge := lastRefIndex - matchingSuffix + 1
	if mustHandleLeadingDeletionCase {
		refIndexToMerge++
	}

	if refIndexToMerge == 0 {
		return 0, nil
	}

	if err := g.AddEdge(result.danglingPath[altIndexToMerge], result.referencePath[refIndexToMerge], NewEdge(false, 1, g.numPruningSamples)); err != nil {
		return 0, err
	}
	return 1, nil
}

func (g *ReadThreadingGraph) mergeDanglingHead(result *danglingChainMergeResult) (int, error) {
	elements := result.cigar
	firstElement := elements[0]
	if firstElement.Op != align.OpMatch {
		return 0, errors.Errorf("the first CIGAR element must be an M")
	}

	indexesToMerge := g.bestPrefixMatch(result.referencePathString, result.danglingPathString, firstElement.Len)
	if indexesToMerge <= 0 {
		return 0, nil
	}
	if indexesToMerge >= len(result.referencePath)-1 {
		return 0, nil
	}
	if indexesToMerge >= len(result.danglingPath) {
		if !g.extendDanglingPathAgainstReference(result, indexesToMerge-len(result.danglingPath)+2) {
			return 0, nil
		}
	}

	if err := g.AddEdge(result.referencePath[indexesToMerge+1], result.danglingPath[indexesToMerge], NewEdge(false, 1, g.numPruningSamples)); err != nil {
		return 0, err
	}
	return 1, nil
}

func (g *ReadThreadingGraph) generateCigarAgainstDownwardsReferencePath(vertex *Vertex, pruneFactor, minDanglingBranchLength int) (*danglingChainMergeResult, error) {
	minTailPathLength := minDanglingBranchLength
	if minTailPathLength < 1 {
		minTailPathLength = 1
	}

	altPath := g.findPathUpwardsToLowestCommonAncestor(vertex, pruneFactor)
	if altPath == nil || g.IsRefSource(altPath[0]) || len(altPath) < minTailPathLength+1 {
		return nil, nil
	}

	incoming, err := g.IncomingEdgeOf(altPath[1])
	if err != nil {
		return nil, err
	}
	refPath := g.getReferencePath(altPath[0], true, map[*Edge]bool{incoming.Edge: true})

	refBases := g.getBasesForPath(refPath, false)
	altBases := g.getBasesForPath(altPath, false)

	cigar, err := align.SmithWaterman(refBases, altBases, align.StandardNGS, align.LeadingIndel)
	if err != nil {
		return nil, err
	}
	cigar = align.RemoveTrailingDeletions(cigar)

	return &danglingChainMergeResult{
		danglingPath:        altPath,
		referencePath:       refPath,
		danglingPathString:  altBases,
		referencePathString: refBases,
		cigar:               cigar,
	}, nil
}

func (g *ReadThreadingGraph) generateCigarAgainstUpwardsReferencePath(vertex *Vertex, pruneFactor, minDanglingBranchLength int) (*danglingChainMergeResult, error) {
	altPath := g.findPathDownwardsToHighestCommonDescendantOfReference(vertex, pruneFactor)
	if altPath == nil || g.IsRefSink(altPath[0]) || len(altPath) < minDanglingBranchLength+1 {
		return nil, nil
	}

	refPath := g.getReferencePath(altPath[0], false, nil)

	refBases := g.getBasesForPath(refPath, true)
	altBases := g.getBasesForPath(altPath, true)

	cigar, err := align.SmithWaterman(refBases, altBases, align.StandardNGS, align.LeadingIndel)
	if err != nil {
		return nil, err
	}
	cigar = align.RemoveTrailingDeletions(cigar)

	return &danglingChainMergeResult{
		danglingPath:        altPath,
		referencePath:       refPath,
		danglingPathString:  altBases,
		referencePathString: refBases,
		cigar:               cigar,
	}, nil
}

// findPathUpwardsToLowestCommonAncestor walks backward from vertex while
// in-degree is 1 and out-degree < 2, dropping the accumulated path whenever
// it crosses a too-low-multiplicity edge (but continuing the walk). Returns
// nil if the walk never reaches a true branch point (out-degree > 1).
func (g *ReadThreadingGraph) findPathUpwardsToLowestCommonAncestor(vertex *Vertex, pruneFactor int) []*Vertex {
	var path []*Vertex
	v := vertex
	for g.InDegree(v) == 1 && g.OutDegree(v) < 2 {
		in := g.IncomingEdges(v)[0]
		if in.Edge.PruningMultiplicity() < uint64(pruneFactor) {
			path = nil
		} else {
			path = append([]*Vertex{v}, path...)
		}
		v = in.Source
	}
	path = append([]*Vertex{v}, path...)

	if g.OutDegree(v) > 1 {
		return path
	}
	return nil
}

// findPathDownwardsToHighestCommonDescendantOfReference walks forward from
// vertex while it is not a reference node and has out-degree 1, with the
// same low-multiplicity path-dropping behavior. Returns nil if the walk
// never reaches a reference node.
func (g *ReadThreadingGraph) findPathDownwardsToHighestCommonDescendantOfReference(vertex *Vertex, pruneFactor int) []*Vertex {
	var path []*Vertex
	v := vertex
	for !g.IsReferenceNode(v) && g.OutDegree(v) == 1 {
		out := g.OutgoingEdges(v)[0]
		if out.Edge.PruningMultiplicity() < uint64(pruneFactor) {
			path = nil
		} else {
			path = append([]*Vertex{v}, path...)
		}
		v = out.Target
	}
	path = append([]*Vertex{v}, path...)

	if g.IsReferenceNode(v) {
		return path
	}
	return nil
}

// getReferencePath walks the reference path starting at start, downwards
// (toward the ref sink, honoring blacklistedEdges) or upwards (toward the
// ref source), including start.
func (g *ReadThreadingGraph) getReferencePath(start *Vertex, downwards bool, blacklistedEdges map[*Edge]bool) []*Vertex {
	var path []*Vertex
	v := start
	for v != nil {
		path = append(path, v)
		if downwards {
			v = g.NextReferenceVertex(v, true, blacklistedEdges)
		} else {
			v = g.PrevReferenceVertex(v)
		}
	}
	return path
}

// getBasesForPath concatenates the bases contributed by each vertex on
// path: its full (reversed) kmer if it is a source and expandSource is set,
// otherwise just its suffix byte.
func (g *ReadThreadingGraph) getBasesForPath(path []*Vertex, expandSource bool) []byte {
	var out []byte
	for _, v := range path {
		if expandSource && g.IsSource(v) {
			bases := v.Bases()
			for i := len(bases) - 1; i >= 0; i-- {
				out = append(out, bases[i])
			}
		} else {
			out = append(out, v.Suffix())
		}
	}
	return out
}

// bestPrefixMatch finds the extent of the prefix match between path1 and
// path2, for dangling-head merging: the last mismatching index within the
// allowed mismatch budget, or -1 if the budget is exceeded before maxIndex.
func (g *ReadThreadingGraph) bestPrefixMatch(path1, path2 []byte, maxIndex int) int {
	maxMismatches := g.getMaxMismatches(maxIndex)
	mismatches := 0
	lastGoodIndex := -1
	for index := 0; index < maxIndex; index++ {
		if path1[index] != path2[index] {
			mismatches++
			if mismatches > maxMismatches {
				return -1
			}
			lastGoodIndex = index
		}
	}
	return lastGoodIndex
}

func (g *ReadThreadingGraph) getMaxMismatches(lengthOfDanglingBranch int) int {
	if g.maxMismatchesInDanglingHead > 0 {
		return g.maxMismatchesInDanglingHead
	}
	m := lengthOfDanglingBranch / g.KmerSize()
	if m < 1 {
		m = 1
	}
	return m
}

func (g *ReadThreadingGraph) extendDanglingPathAgainstReference(result *danglingChainMergeResult, numNodesToExtend int) bool {
	indexOfLastDanglingNode := len(result.danglingPath) - 1
	indexOfRefNodeToUse := indexOfLastDanglingNode + numNodesToExtend
	if indexOfRefNodeToUse >= len(result.referencePath) {
		return false
	}

	danglingSource := result.danglingPath[indexOfLastDanglingNode]
	result.danglingPath = result.danglingPath[:indexOfLastDanglingNode]

	refSourceSequence := result.referencePath[indexOfRefNodeToUse].Bases()
	sequenceToExtend := make([]byte, 0, numNodesToExtend+len(danglingSource.Bases()))
	sequenceToExtend = append(sequenceToExtend, refSourceSequence[:numNodesToExtend]...)
	sequenceToExtend = append(sequenceToExtend, danglingSource.Bases()...)

	sourceEdge := g.OutgoingEdges(danglingSource)[0]
	prevV := sourceEdge.Target
	g.RemoveEdge(danglingSource, prevV)

	for i := numNodesToExtend; i > 0; i-- {
		newV := NewVertex(sequenceToExtend[i : i+g.KmerSize()])
		g.AddVertex(newV)
		newE := NewEdge(false, 1, g.numPruningSamples)
		newE.SetMultiplicity(sourceEdge.Edge.Multiplicity())
		if err := g.AddEdge(newV, prevV, newE); err != nil {
			return false
		}
		result.danglingPath = append(result.danglingPath, newV)
		prevV = newV
	}
	return true
}
