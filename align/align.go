// Package align provides the Smith-Waterman alignment and CIGAR utilities
// used to realign orphan branches of the assembly graph back onto the
// reference path.
package align

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Op is a single CIGAR operator.
type Op byte

const (
	OpMatch         Op = 'M'
	OpInsertion     Op = 'I'
	OpDeletion      Op = 'D'
	OpSoftClip      Op = 'S'
	OpSkippedRegion Op = 'N'
	OpHardClip      Op = 'H'
	OpPadding       Op = 'P'
	OpEqual         Op = '='
	OpMismatch      Op = 'X'
)

// Element is one run-length-encoded (operator, length) pair.
type Element struct {
	Op  Op
	Len int
}

// Cigar is a sequence of CIGAR elements.
type Cigar []Element

// ReferenceLength returns the number of reference bases consumed: the sum of
// M, D, and N element lengths.
func (c Cigar) ReferenceLength() int {
	total := 0
	for _, e := range c {
		switch e.Op {
		case OpMatch, OpDeletion, OpSkippedRegion:
			total += e.Len
		}
	}
	return total
}

// ReadLength returns the number of query/read bases consumed: the sum of M
// and I element lengths.
func (c Cigar) ReadLength() int {
	total := 0
	for _, e := range c {
		switch e.Op {
		case OpMatch, OpInsertion:
			total += e.Len
		}
	}
	return total
}

func (c Cigar) String() string {
	var sb strings.Builder
	for _, e := range c {
		sb.WriteString(strconv.Itoa(e.Len))
		sb.WriteByte(byte(e.Op))
	}
	return sb.String()
}

// RemoveTrailingDeletions drops a terminal deletion element, if present;
// leading deletions are left alone.
func RemoveTrailingDeletions(c Cigar) Cigar {
	if len(c) == 0 || c[len(c)-1].Op != OpDeletion {
		return c
	}
	return c[:len(c)-1]
}

// LongestSuffixMatch returns the length of the longest common suffix of
// a[:endOfA+1] and b, scanning backwards from endOfA in a and from the end
// of b.
func LongestSuffixMatch(a, b []byte, endOfA int) int {
	n := 0
	for endOfA-n >= 0 && n < len(b) && a[endOfA-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

// Scoring holds the match/mismatch/gap weights for one alignment run.
// StandardNGS mirrors the weights GATK's SWParameterSet.STANDARD_NGS uses
// for read-to-haplotype realignment: a strong match reward and a gap-open
// penalty steep enough to discourage spurious indels relative to a single
// mismatch.
type Scoring struct {
	Match     int
	Mismatch  int
	GapOpen   int
	GapExtend int
}

// StandardNGS is the scoring profile used throughout dangling-branch
// recovery.
var StandardNGS = Scoring{
	Match:     25,
	Mismatch:  -50,
	GapOpen:   -220,
	GapExtend: -10,
}

// OverhangStrategy controls how unaligned leading/trailing bases are
// represented in the output CIGAR.
type OverhangStrategy int

const (
	// LeadingIndel forces the alignment to consume both sequences entirely,
	// expressing any otherwise-unaligned overhang as a leading or trailing
	// indel rather than a soft clip. This is the only strategy dangling
	// branch recovery uses: the alt and ref arrays it aligns are already
	// trimmed to exactly the region of interest, so there is nothing to
	// clip.
	LeadingIndel OverhangStrategy = iota
)

// SmithWaterman aligns alt against ref using the given scoring and overhang
// strategy, returning the resulting CIGAR (described from ref's point of
// view: M/D consume ref, M/I consume alt).
//
// LeadingIndel is implemented as a full (Needleman-Wunsch style) alignment
// over an affine-gap scoring matrix: since any overhang must become an
// indel rather than a clip, the optimal "local" alignment necessarily
// consumes both sequences end to end, which is exactly what a global
// alignment computes directly. The three-matrix recurrence (best score
// ending in a match, a ref-gap, or an alt-gap) mirrors the row/column
// traversal of util/distance.go's Levenshtein matrix, generalized from unit
// costs to affine gap weights.
func SmithWaterman(ref, alt []byte, scoring Scoring, strategy OverhangStrategy) (Cigar, error) {
	if strategy != LeadingIndel {
		return nil, errors.Errorf("unsupported overhang strategy %d", strategy)
	}
	nRows := len(ref) + 1
	nCols := len(alt) + 1

	const negInf = -1 << 30

	// best[i][j]: best score aligning ref[:i] against alt[:j] ending in a
	// match/mismatch. gapRef[i][j]: ending in a gap that consumes ref but
	// not alt (a deletion). gapAlt[i][j]: ending in a gap that consumes alt
	// but not ref (an insertion).
	best := newIntMatrix(nRows, nCols)
	gapRef := newIntMatrix(nRows, nCols)
	gapAlt := newIntMatrix(nRows, nCols)

	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			if i == 0 && j == 0 {
				best.set(0, 0, 0)
				gapRef.set(0, 0, negInf)
				gapAlt.set(0, 0, negInf)
				continue
			}
			if i == 0 {
				best.set(i, j, negInf)
				gapAlt.set(i, j, scoring.GapOpen+scoring.GapExtend*j)
				gapRef.set(i, j, negInf)
				continue
			}
			if j == 0 {
				best.set(i, j, negInf)
				gapRef.set(i, j, scoring.GapOpen+scoring.GapExtend*i)
				gapAlt.set(i, j, negInf)
				continue
			}

			matchScore := scoring.Mismatch
			if ref[i-1] == alt[j-1] {
				matchScore = scoring.Match
			}
			diagBest := max3(best.get(i-1, j-1), gapRef.get(i-1, j-1), gapAlt.get(i-1, j-1)) + matchScore
			best.set(i, j, diagBest)

			openRef := max3(best.get(i-1, j), gapAlt.get(i-1, j), negInf) + scoring.GapOpen + scoring.GapExtend
			extendRef := gapRef.get(i-1, j) + scoring.GapExtend
			gapRef.set(i, j, maxOf(openRef, extendRef))

			openAlt := max3(best.get(i, j-1), gapRef.get(i, j-1), negInf) + scoring.GapOpen + scoring.GapExtend
			extendAlt := gapAlt.get(i, j-1) + scoring.GapExtend
			gapAlt.set(i, j, maxOf(openAlt, extendAlt))
		}
	}

	return traceback(ref, alt, best, gapRef, gapAlt), nil
}

type intMatrix struct {
	nRow, nCol int
	data       []int
}

func newIntMatrix(n, m int) intMatrix {
	return intMatrix{nRow: n, nCol: m, data: make([]int, n*m)}
}

func (m intMatrix) get(i, j int) int { return m.data[i*m.nCol+j] }
func (m intMatrix) set(i, j, v int)  { m.data[i*m.nCol+j] = v }

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func max3(a, b, c int) int {
	return maxOf(maxOf(a, b), c)
}

// state identifies which of the three matrices a traceback step is in.
type state int

const (
	stateMatch state = iota
	stateGapRef
	stateGapAlt
)

func traceback(ref, alt []byte, best, gapRef, gapAlt intMatrix) Cigar {
	i, j := len(ref), len(alt)

	cur := stateMatch
	switch {
	case gapRef.get(i, j) > best.get(i, j) && gapRef.get(i, j) > gapAlt.get(i, j):
		cur = stateGapRef
	case gapAlt.get(i, j) > best.get(i, j) && gapAlt.get(i, j) > gapRef.get(i, j):
		cur = stateGapAlt
	}

	var elements []Element
	push := func(op Op) {
		if len(elements) > 0 && elements[len(elements)-1].Op == op {
			elements[len(elements)-1].Len++
			return
		}
		elements = append(elements, Element{Op: op, Len: 1})
	}

	for i > 0 || j > 0 {
		switch cur {
		case stateMatch:
			push(OpMatch)
			i--
			j--
			switch {
			case best.get(i, j) >= gapRef.get(i, j) && best.get(i, j) >= gapAlt.get(i, j):
				cur = stateMatch
			case gapRef.get(i, j) >= gapAlt.get(i, j):
				cur = stateGapRef
			default:
				cur = stateGapAlt
			}
		case stateGapRef:
			push(OpDeletion)
			i--
			if i == 0 || gapRef.get(i, j) <= maxOf(best.get(i, j), gapAlt.get(i, j)) {
				switch {
				case best.get(i, j) >= gapAlt.get(i, j):
					cur = stateMatch
				default:
					cur = stateGapAlt
				}
			}
		case stateGapAlt:
			push(OpInsertion)
			j--
			if j == 0 || gapAlt.get(i, j) <= maxOf(best.get(i, j), gapRef.get(i, j)) {
				switch {
				case best.get(i, j) >= gapRef.get(i, j):
					cur = stateMatch
				default:
					cur = stateGapRef
				}
			}
		}
	}

	// reverse
	for l, r := 0, len(elements)-1; l < r; l, r = l+1, r-1 {
		elements[l], elements[r] = elements[r], elements[l]
	}
	return Cigar(elements)
}
