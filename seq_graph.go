package debruijn

// SeqGraph is the graph produced by BaseGraph.ConvertToSequenceGraph: the
// same topology as the kmer graph it was collapsed from, but with each
// vertex holding only the bytes it contributes to a path walk (its full
// kmer if it is a source, otherwise just its suffix byte) instead of a
// fixed kmerSize window. It reuses BaseGraph wholesale: a sequence graph is
// a multigraph exactly like a kmer graph.
type SeqGraph struct {
	*BaseGraph
}
