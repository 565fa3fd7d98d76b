// Package debruijn implements the read-threading de Bruijn assembler used by
// short-read haplotype callers: a kmer-indexed directed multigraph built by
// threading a reference sequence and a collection of aligned reads, dangling
// branch recovery via Smith-Waterman realignment against the reference path,
// and collapse of the kmer graph into a compacted sequence graph.
//
// The package is a pure in-memory data structure: it has no wire format, does
// not perform I/O, and makes no assumption about where reads come from.
package debruijn
