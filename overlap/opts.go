package overlap

import "strings"

// Flag selects the output shape of Intersect, mirroring the bedtools
// intersect flags of the same names.
type Flag uint

const (
	// WA reports the A interval of each hit.
	WA Flag = 1 << iota
	// WB reports the B interval of each hit alongside A.
	WB
	// WO reports A, B and the overlap length of each hit.
	WO
	// WAO is WO, plus A intervals without hits (overlap 0, null B).
	WAO
	// C reports every A interval with its number of hits.
	C
	// U reports each A interval with at least one hit, once.
	U
	// LOJ reports A and B for each hit, plus A intervals without hits (null B).
	LOJ
	// Sorted requires both inputs to be in canonical order and fails with a
	// Precondition error otherwise.
	Sorted
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{WA, "wa"}, {WB, "wb"}, {WO, "wo"}, {WAO, "wao"}, {C, "c"}, {U, "u"}, {LOJ, "loj"}, {Sorted, "sorted"},
}

// Has reports whether all of g is set in f.
func (f Flag) Has(g Flag) bool {
	return f&g == g
}

func (f Flag) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, "-"+fn.name)
		}
	}
	return strings.Join(names, " ")
}

// Opts configures Intersect and Coverage.
type Opts struct {
	Flags Flag
	// MinFracA is the minimum overlap as a fraction of the A interval (bedtools
	// -f).  1.0 requires A to be contained in B.
	MinFracA float64
	// MinFracB is the minimum overlap as a fraction of the B interval (bedtools
	// -F).  1.0 requires B to be contained in A.
	MinFracB float64
}

// Mode is the output shape of a Table.
type Mode int

const (
	// ModePairs emits A and B for each hit.
	ModePairs Mode = iota
	// ModeA emits A for each hit.
	ModeA
	// ModeOverlap emits A, B and the overlap length for each hit.
	ModeOverlap
	// ModeOverlapAll is ModeOverlap plus unmatched A rows.
	ModeOverlapAll
	// ModeCount emits every A row with a count.
	ModeCount
	// ModeUnique emits each matched A row once.
	ModeUnique
	// ModeLeftOuter emits A and B for each hit plus unmatched A rows.
	ModeLeftOuter
	// ModeClosest emits A with its closest B.
	ModeClosest
	// ModeClosestDistance is ModeClosest with a distance column.
	ModeClosestDistance
)

// mode resolves the flags in bedtools' precedence order: each later rule
// overrides the ones before it.
func (f Flag) mode() Mode {
	m := ModePairs
	if f.Has(WA) && !f.Has(WB) {
		m = ModeA
	}
	if f.Has(WO) {
		m = ModeOverlap
	}
	if f.Has(WAO) {
		m = ModeOverlapAll
	}
	if f.Has(C) {
		m = ModeCount
	}
	if f.Has(U) {
		m = ModeUnique
	}
	if f.Has(LOJ) {
		m = ModeLeftOuter
	}
	return m
}

func (m Mode) hasB() bool {
	switch m {
	case ModeA, ModeCount, ModeUnique:
		return false
	}
	return true
}

func (m Mode) valueName() string {
	switch m {
	case ModeOverlap, ModeOverlapAll:
		return "overlap"
	case ModeCount:
		return "count"
	case ModeClosestDistance:
		return "distance"
	}
	return ""
}
