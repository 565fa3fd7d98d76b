package debruijn

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// BaseGraph is a directed multigraph over Vertex/Edge, with parallel edges
// disallowed between the same ordered (source, target) pair. It underlies
// both the kmer graph built by ReadThreadingGraph and the compacted
// SeqGraph produced by ConvertToSequenceGraph.
type BaseGraph struct {
	kmerSize int
	vertices map[uint64]*Vertex
	// out[u][v] and in[v][u] both point at the same *Edge; keeping both
	// directions lets InDegree/OutDegree/incoming/outgoing all run in O(1)
	// amortized instead of scanning every edge.
	out map[uint64]map[uint64]*Edge
	in  map[uint64]map[uint64]*Edge

	// removeVertexFn is the vertex-removal routine every sweep below
	// (removeSingletonOrphanVertices, CleanNonRefPaths, and friends) calls
	// instead of calling RemoveVertex directly. It defaults to the
	// BaseGraph's own RemoveVertex; ReadThreadingGraph rebinds it to its
	// override so that internal sweeps also keep uniqueKmers in sync, which
	// Go's lack of virtual dispatch through struct embedding would
	// otherwise miss.
	removeVertexFn func(*Vertex) bool
}

// NewBaseGraph creates an empty graph fixed at the given kmer size.
func NewBaseGraph(kmerSize int) (*BaseGraph, error) {
	if kmerSize < 1 {
		return nil, errors.Errorf("kmerSize must be >= 1, got %d", kmerSize)
	}
	g := &BaseGraph{
		kmerSize: kmerSize,
		vertices: make(map[uint64]*Vertex),
		out:      make(map[uint64]map[uint64]*Edge),
		in:       make(map[uint64]map[uint64]*Edge),
	}
	g.removeVertexFn = g.RemoveVertex
	return g, nil
}

// SetRemoveVertexFn rebinds the routine internal sweeps use to remove a
// vertex. Embedding types that override vertex removal (ReadThreadingGraph)
// call this during construction to splice their override into BaseGraph's
// own sweeps.
func (g *BaseGraph) SetRemoveVertexFn(fn func(*Vertex) bool) {
	g.removeVertexFn = fn
}

// KmerSize returns the kmer size this graph was built with.
func (g *BaseGraph) KmerSize() int { return g.kmerSize }

// AddVertex registers v in the graph. A no-op if v is already present.
func (g *BaseGraph) AddVertex(v *Vertex) {
	if _, ok := g.vertices[v.id]; ok {
		return
	}
	g.vertices[v.id] = v
	g.out[v.id] = make(map[uint64]*Edge)
	g.in[v.id] = make(map[uint64]*Edge)
}

// ContainsVertex reports whether v is present in the graph.
func (g *BaseGraph) ContainsVertex(v *Vertex) bool {
	_, ok := g.vertices[v.id]
	return ok
}

// RemoveVertex removes v and every edge touching it. Reports whether v was
// present.
func (g *BaseGraph) RemoveVertex(v *Vertex) bool {
	if v == nil {
		return false
	}
	if _, ok := g.vertices[v.id]; !ok {
		return false
	}
	for target := range g.out[v.id] {
		delete(g.in[target], v.id)
	}
	for source := range g.in[v.id] {
		delete(g.out[source], v.id)
	}
	delete(g.out, v.id)
	delete(g.in, v.id)
	delete(g.vertices, v.id)
	return true
}

// AddEdge connects source -> target with e. Both vertices must already be in
// the graph; it is an error to add a second edge between the same ordered
// pair (use AddOrUpdateEdge to fold multiplicities instead).
func (g *BaseGraph) AddEdge(source, target *Vertex, e *Edge) error {
	if _, ok := g.vertices[source.id]; !ok {
		return errors.Errorf("source vertex %s is not in the graph", source)
	}
	if _, ok := g.vertices[target.id]; !ok {
		return errors.Errorf("target vertex %s is not in the graph", target)
	}
	if _, exists := g.out[source.id][target.id]; exists {
		return errors.Errorf("edge %s -> %s already exists", source, target)
	}
	g.out[source.id][target.id] = e
	g.in[target.id][source.id] = e
	return nil
}

// AddOrUpdateEdge adds an edge between source and target, or folds e into an
// already-existing edge between that ordered pair.
func (g *BaseGraph) AddOrUpdateEdge(source, target *Vertex, e *Edge) error {
	if prev := g.GetEdge(source, target); prev != nil {
		prev.Add(e)
		return nil
	}
	return g.AddEdge(source, target, e)
}

// RemoveEdge removes the edge between source and target, if any.
func (g *BaseGraph) RemoveEdge(source, target *Vertex) {
	delete(g.out[source.id], target.id)
	delete(g.in[target.id], source.id)
}

// GetEdge returns the edge from source to target, or nil if none exists.
func (g *BaseGraph) GetEdge(source, target *Vertex) *Edge {
	return g.out[source.id][target.id]
}

// Vertices returns every vertex in the graph, in unspecified order.
func (g *BaseGraph) Vertices() []*Vertex {
	result := make([]*Vertex, 0, len(g.vertices))
	for _, v := range g.vertices {
		result = append(result, v)
	}
	return result
}

// EdgeEndpoints is a (source, target, edge) triple, returned by Edges.
type EdgeEndpoints struct {
	Source, Target *Vertex
	Edge           *Edge
}

// Edges returns every edge in the graph, in unspecified order.
func (g *BaseGraph) Edges() []EdgeEndpoints {
	var result []EdgeEndpoints
	for sourceID, targets := range g.out {
		for targetID, e := range targets {
			result = append(result, EdgeEndpoints{g.vertices[sourceID], g.vertices[targetID], e})
		}
	}
	return result
}

// InDegree returns the number of edges pointing into v.
func (g *BaseGraph) InDegree(v *Vertex) int { return len(g.in[v.id]) }

// OutDegree returns the number of edges pointing out of v.
func (g *BaseGraph) OutDegree(v *Vertex) int { return len(g.out[v.id]) }

// IncomingEdges returns the edges pointing into v, paired with their source
// vertices, in unspecified order.
func (g *BaseGraph) IncomingEdges(v *Vertex) []EdgeEndpoints {
	result := make([]EdgeEndpoints, 0, len(g.in[v.id]))
	for sourceID, e := range g.in[v.id] {
		result = append(result, EdgeEndpoints{g.vertices[sourceID], v, e})
	}
	return result
}

// OutgoingEdges returns the edges pointing out of v, paired with their
// target vertices, in unspecified order.
func (g *BaseGraph) OutgoingEdges(v *Vertex) []EdgeEndpoints {
	result := make([]EdgeEndpoints, 0, len(g.out[v.id]))
	for targetID, e := range g.out[v.id] {
		result = append(result, EdgeEndpoints{v, g.vertices[targetID], e})
	}
	return result
}

// IncomingEdgeOf returns the single incoming edge of v. It is an error for v
// to have more than one; returns a zero EdgeEndpoints and a nil error if v
// has none.
func (g *BaseGraph) IncomingEdgeOf(v *Vertex) (EdgeEndpoints, error) {
	edges := g.IncomingEdges(v)
	return singletonEdge(edges)
}

// OutgoingEdgeOf returns the single outgoing edge of v. It is an error for v
// to have more than one; returns a zero EdgeEndpoints and a nil error if v
// has none.
func (g *BaseGraph) OutgoingEdgeOf(v *Vertex) (EdgeEndpoints, error) {
	edges := g.OutgoingEdges(v)
	return singletonEdge(edges)
}

func singletonEdge(edges []EdgeEndpoints) (EdgeEndpoints, error) {
	if len(edges) > 1 {
		return EdgeEndpoints{}, errors.Errorf("expected at most one edge, found %d", len(edges))
	}
	if len(edges) == 0 {
		return EdgeEndpoints{}, nil
	}
	return edges[0], nil
}

// IsSource reports whether v has no incoming edges.
func (g *BaseGraph) IsSource(v *Vertex) bool { return g.InDegree(v) == 0 }

// IsSink reports whether v has no outgoing edges.
func (g *BaseGraph) IsSink(v *Vertex) bool { return g.OutDegree(v) == 0 }

// IsReferenceNode reports whether v touches at least one ref-flagged edge,
// or is the sole vertex in the graph.
func (g *BaseGraph) IsReferenceNode(v *Vertex) bool {
	for _, e := range g.in[v.id] {
		if e.IsRef() {
			return true
		}
	}
	for _, e := range g.out[v.id] {
		if e.IsRef() {
			return true
		}
	}
	return len(g.vertices) == 1
}

// IsRefSource reports whether v is the start of the reference path: no
// incoming ref edge, and either an outgoing ref edge or v is the graph's
// only vertex.
func (g *BaseGraph) IsRefSource(v *Vertex) bool {
	for _, e := range g.in[v.id] {
		if e.IsRef() {
			return false
		}
	}
	for _, e := range g.out[v.id] {
		if e.IsRef() {
			return true
		}
	}
	return len(g.vertices) == 1
}

// IsRefSink reports whether v is the end of the reference path: no outgoing
// ref edge, and either an incoming ref edge or v is the graph's only vertex.
func (g *BaseGraph) IsRefSink(v *Vertex) bool {
	for _, e := range g.out[v.id] {
		if e.IsRef() {
			return false
		}
	}
	for _, e := range g.in[v.id] {
		if e.IsRef() {
			return true
		}
	}
	return len(g.vertices) == 1
}

// ReferenceSourceVertex returns the graph's reference source, or nil if none
// exists.
func (g *BaseGraph) ReferenceSourceVertex() *Vertex {
	for _, v := range g.vertices {
		if g.IsRefSource(v) {
			return v
		}
	}
	return nil
}

// ReferenceSinkVertex returns the graph's reference sink, or nil if none
// exists.
func (g *BaseGraph) ReferenceSinkVertex() *Vertex {
	for _, v := range g.vertices {
		if g.IsRefSink(v) {
			return v
		}
	}
	return nil
}

// Sources returns every vertex with no incoming edges.
func (g *BaseGraph) Sources() []*Vertex {
	var result []*Vertex
	for _, v := range g.vertices {
		if g.IsSource(v) {
			result = append(result, v)
		}
	}
	return result
}

// Sinks returns every vertex with no outgoing edges.
func (g *BaseGraph) Sinks() []*Vertex {
	var result []*Vertex
	for _, v := range g.vertices {
		if g.IsSink(v) {
			result = append(result, v)
		}
	}
	return result
}

// NextReferenceVertex returns the unique vertex v' such that v->v' is a ref
// edge, or nil if v has none. If allowNonRefPaths is true and no ref edge
// exists, it falls back to the single outgoing edge not in blacklist, if
// there is exactly one.
func (g *BaseGraph) NextReferenceVertex(v *Vertex, allowNonRefPaths bool, blacklist map[*Edge]bool) *Vertex {
	if v == nil {
		return nil
	}
	for targetID, e := range g.out[v.id] {
		if e.IsRef() {
			return g.vertices[targetID]
		}
	}
	if !allowNonRefPaths {
		return nil
	}
	var candidate *Vertex
	count := 0
	for targetID, e := range g.out[v.id] {
		if blacklist[e] {
			continue
		}
		count++
		candidate = g.vertices[targetID]
	}
	if count == 1 {
		return candidate
	}
	return nil
}

// PrevReferenceVertex returns the incoming neighbor of v that is itself a
// reference node, or nil if none exists.
func (g *BaseGraph) PrevReferenceVertex(v *Vertex) *Vertex {
	if v == nil {
		return nil
	}
	for sourceID := range g.in[v.id] {
		src := g.vertices[sourceID]
		if g.IsReferenceNode(src) {
			return src
		}
	}
	return nil
}

// AdditionalSequence returns the bytes v contributes when walked in this
// graph: its full bases if v is a source, otherwise just its suffix.
func (g *BaseGraph) AdditionalSequence(v *Vertex) []byte {
	return v.AdditionalSequence(g.IsSource(v))
}

// ReferenceBytes walks the reference path from fromVertex to toVertex and
// concatenates the bases encountered, optionally including either endpoint.
func (g *BaseGraph) ReferenceBytes(fromVertex, toVertex *Vertex, includeStart, includeStop bool) ([]byte, error) {
	if fromVertex == nil || toVertex == nil {
		return nil, errors.Errorf("fromVertex and toVertex must both be non-nil")
	}
	var out []byte
	v := fromVertex
	if includeStart {
		out = append(out, g.AdditionalSequence(v)...)
	}
	v = g.NextReferenceVertex(v, false, nil)
	for v != nil && v.id != toVertex.id {
		out = append(out, g.AdditionalSequence(v)...)
		v = g.NextReferenceVertex(v, false, nil)
	}
	if includeStop && v != nil && v.id == toVertex.id {
		out = append(out, g.AdditionalSequence(v)...)
	}
	return out, nil
}

// HasCycle reports whether the graph contains a directed cycle, via
// recursive depth-first search with a recursion-stack color marking.
func (g *BaseGraph) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint64]int, len(g.vertices))
	var visit func(id uint64) bool
	visit = func(id uint64) bool {
		color[id] = gray
		for targetID := range g.out[id] {
			switch color[targetID] {
			case gray:
				return true
			case white:
				if visit(targetID) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for id := range g.vertices {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// PruneLowWeightChains removes every non-ref edge whose pruning
// multiplicity is below pruneFactor, then sweeps any vertex left with
// in-degree 0 and out-degree 0.
func (g *BaseGraph) PruneLowWeightChains(pruneFactor uint64) {
	for _, ee := range g.Edges() {
		if !ee.Edge.IsRef() && ee.Edge.PruningMultiplicity() < pruneFactor {
			g.RemoveEdge(ee.Source, ee.Target)
		}
	}
	g.removeSingletonOrphanVertices()
}

// removeSingletonOrphanVertices sweeps every vertex with in-degree 0 and
// out-degree 0. The original Java also invoked removeVertex(null) right
// before this sweep; that call is a no-op bug in the source (§9 of the
// design), so it is simply omitted here.
func (g *BaseGraph) removeSingletonOrphanVertices() {
	var toRemove []*Vertex
	for _, v := range g.vertices {
		if g.InDegree(v) == 0 && g.OutDegree(v) == 0 {
			toRemove = append(toRemove, v)
		}
	}
	for _, v := range toRemove {
		g.removeVertexFn(v)
	}
}

// CleanNonRefPaths removes edges leading into the reference source and out
// of the reference sink (transitively, through their non-ref predecessors
// and successors respectively), then sweeps orphaned vertices. A no-op if
// the graph has no reference source/sink.
func (g *BaseGraph) CleanNonRefPaths() {
	refSource := g.ReferenceSourceVertex()
	refSink := g.ReferenceSinkVertex()
	if refSource == nil || refSink == nil {
		return
	}

	toCheck := map[[2]uint64]EdgeEndpoints{}
	for _, ee := range g.IncomingEdges(refSource) {
		toCheck[[2]uint64{ee.Source.id, ee.Target.id}] = ee
	}
	for len(toCheck) > 0 {
		var key [2]uint64
		var ee EdgeEndpoints
		for k, v := range toCheck {
			key, ee = k, v
			break
		}
		delete(toCheck, key)
		if !ee.Edge.IsRef() {
			for _, pred := range g.IncomingEdges(ee.Source) {
				toCheck[[2]uint64{pred.Source.id, pred.Target.id}] = pred
			}
			g.RemoveEdge(ee.Source, ee.Target)
		}
	}

	toCheck = map[[2]uint64]EdgeEndpoints{}
	for _, ee := range g.OutgoingEdges(refSink) {
		toCheck[[2]uint64{ee.Source.id, ee.Target.id}] = ee
	}
	for len(toCheck) > 0 {
		var key [2]uint64
		var ee EdgeEndpoints
		for k, v := range toCheck {
			key, ee = k, v
			break
		}
		delete(toCheck, key)
		if !ee.Edge.IsRef() {
			for _, succ := range g.OutgoingEdges(ee.Target) {
				toCheck[[2]uint64{succ.Source.id, succ.Target.id}] = succ
			}
			g.RemoveEdge(ee.Source, ee.Target)
		}
	}

	g.removeSingletonOrphanVertices()
}

// reachable returns the set of vertex ids reachable from start by following
// edges forward (if forward is true) or backward.
func (g *BaseGraph) reachable(start *Vertex, forward bool) map[uint64]bool {
	seen := map[uint64]bool{start.id: true}
	queue := []uint64{start.id}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		var neighbors map[uint64]*Edge
		if forward {
			neighbors = g.out[id]
		} else {
			neighbors = g.in[id]
		}
		for next := range neighbors {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// RemovePathsNotConnectedToRef keeps only the vertices reachable forward
// from the reference source and backward from the reference sink,
// intersected, removing everything else. Afterwards the graph has exactly
// one source and one sink.
func (g *BaseGraph) RemovePathsNotConnectedToRef() error {
	refSource := g.ReferenceSourceVertex()
	refSink := g.ReferenceSinkVertex()
	if refSource == nil || refSink == nil {
		return errors.Errorf("graph must have a reference source and sink")
	}

	fromSource := g.reachable(refSource, true)
	fromSink := g.reachable(refSink, false)

	var toRemove []*Vertex
	for _, v := range g.vertices {
		if !(fromSource[v.id] && fromSink[v.id]) {
			toRemove = append(toRemove, v)
		}
	}
	for _, v := range toRemove {
		g.removeVertexFn(v)
	}

	if sinks := g.Sinks(); len(sinks) > 1 {
		return errors.Errorf("should have eliminated all but the reference sink, found %d", len(sinks))
	}
	if sources := g.Sources(); len(sources) > 1 {
		return errors.Errorf("should have eliminated all but the reference source, found %d", len(sources))
	}
	return nil
}

// RemoveVerticesNotConnectedToRefIgnoringDirection removes every vertex not
// reachable from the reference source by following edges in either
// direction. Gentler than RemovePathsNotConnectedToRef, which additionally
// requires eventually reaching the reference sink.
func (g *BaseGraph) RemoveVerticesNotConnectedToRefIgnoringDirection() {
	refSource := g.ReferenceSourceVertex()
	if refSource == nil {
		for _, v := range g.Vertices() {
			g.removeVertexFn(v)
		}
		return
	}
	seen := map[uint64]bool{refSource.id: true}
	queue := []uint64{refSource.id}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, neighbors := range []map[uint64]*Edge{g.out[id], g.in[id]} {
			for next := range neighbors {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	var toRemove []*Vertex
	for _, v := range g.vertices {
		if !seen[v.id] {
			toRemove = append(toRemove, v)
		}
	}
	for _, v := range toRemove {
		g.removeVertexFn(v)
	}
}

// verticesWithinDistance returns the set of vertices within distance edges
// of source, regardless of direction.
func (g *BaseGraph) verticesWithinDistance(source *Vertex, distance int) map[uint64]*Vertex {
	found := map[uint64]*Vertex{source.id: source}
	frontier := []*Vertex{source}
	for d := 0; d < distance; d++ {
		var next []*Vertex
		for _, v := range frontier {
			for targetID := range g.out[v.id] {
				if _, ok := found[targetID]; !ok {
					found[targetID] = g.vertices[targetID]
					next = append(next, g.vertices[targetID])
				}
			}
			for sourceID := range g.in[v.id] {
				if _, ok := found[sourceID]; !ok {
					found[sourceID] = g.vertices[sourceID]
					next = append(next, g.vertices[sourceID])
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return found
}

// SubsetToNeighbors returns a new graph containing only target and the
// vertices within distance edges of it, regardless of edge direction, along
// with the edges among them.
func (g *BaseGraph) SubsetToNeighbors(target *Vertex, distance int) (*BaseGraph, error) {
	if !g.ContainsVertex(target) {
		return nil, errors.Errorf("graph does not contain vertex %s", target)
	}
	if distance < 0 {
		return nil, errors.Errorf("distance must be >= 0, got %d", distance)
	}
	keep := g.verticesWithinDistance(target, distance)

	result, err := NewBaseGraph(g.kmerSize)
	if err != nil {
		return nil, err
	}
	for _, v := range keep {
		result.AddVertex(v)
	}
	for _, ee := range g.Edges() {
		if keep[ee.Source.id] != nil && keep[ee.Target.id] != nil {
			if err := result.AddEdge(ee.Source, ee.Target, ee.Edge); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// ConvertToSequenceGraph collapses this kmer graph into a sequence graph:
// every vertex keeps its full bases if it is a source, otherwise only its
// suffix byte; every edge carries over its ref flag and multiplicity.
func (g *BaseGraph) ConvertToSequenceGraph() (*SeqGraph, error) {
	seqGraph, err := NewBaseGraph(g.kmerSize)
	if err != nil {
		return nil, err
	}
	vertexMap := make(map[uint64]*Vertex, len(g.vertices))
	for _, v := range g.vertices {
		sv := NewVertex(v.AdditionalSequence(g.IsSource(v)))
		sv.SetAdditionalInfo(v.AdditionalInfo())
		vertexMap[v.id] = sv
		seqGraph.AddVertex(sv)
	}
	for _, ee := range g.Edges() {
		source := vertexMap[ee.Source.id]
		target := vertexMap[ee.Target.id]
		if err := seqGraph.AddEdge(source, target, NewEdge(ee.Edge.IsRef(), ee.Edge.Multiplicity(), 1)); err != nil {
			return nil, err
		}
	}
	return &SeqGraph{seqGraph}, nil
}

// WriteDOT dumps the graph in the DOT language: one edge line per edge
// (dotted grey for any edge, ref or not, whose multiplicity is above 0 and
// at most pruneFactor, with an extra red line for ref edges), then one
// box-shaped node line per vertex.
func (g *BaseGraph) WriteDOT(w io.Writer, pruneFactor uint64) error {
	if _, err := fmt.Fprintln(w, "digraph assemblyGraphs {"); err != nil {
		return err
	}
	for _, ee := range g.Edges() {
		style := ""
		if ee.Edge.Multiplicity() > 0 && ee.Edge.Multiplicity() <= pruneFactor {
			style = "style=dotted,color=grey,"
		}
		if _, err := fmt.Fprintf(w, "\t%s -> %s [%slabel=\"%s\"];\n", ee.Source, ee.Target, style, ee.Edge.dotLabel()); err != nil {
			return err
		}
		if ee.Edge.IsRef() {
			if _, err := fmt.Fprintf(w, "\t%s -> %s [color=red];\n", ee.Source, ee.Target); err != nil {
				return err
			}
		}
	}
	for _, v := range g.vertices {
		if _, err := fmt.Fprintf(w, "\t%s [label=\"%s%s\",shape=box]\n", v, v.Bases(), v.AdditionalInfo()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// GraphsEqual performs a semi-lenient structural comparison: true iff g1 and
// g2 have the same number of vertices and edges, every vertex in one has a
// base-sequence match in the other, and every edge in one has a
// source/target base-sequence match in the other. It ignores vertex/edge
// identity, multiplicities, and ref flags.
func GraphsEqual(g1, g2 *BaseGraph) bool {
	if len(g1.vertices) != len(g2.vertices) {
		return false
	}
	if len(g1.Edges()) != len(g2.Edges()) {
		return false
	}
	for _, v1 := range g1.vertices {
		found := false
		for _, v2 := range g2.vertices {
			if string(v1.Bases()) == string(v2.Bases()) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	seqEdge := func(a EdgeEndpoints, b EdgeEndpoints) bool {
		return string(a.Source.Bases()) == string(b.Source.Bases()) && string(a.Target.Bases()) == string(b.Target.Bases())
	}
	for _, e1 := range g1.Edges() {
		found := false
		for _, e2 := range g2.Edges() {
			if seqEdge(e1, e2) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, e2 := range g2.Edges() {
		found := false
		for _, e1 := range g1.Edges() {
			if seqEdge(e2, e1) {
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
