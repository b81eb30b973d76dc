package interaction

import (
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
)

// Typed is an Interaction annotated with the element labels found on each
// fragment.
type Typed struct {
	Interaction
	Left, Right map[string]bool
}

// fragmentsWith returns the names of the fragments that overlap at least one
// element.
func fragmentsWith(frags []interval.Interval, elements *overlap.Index) map[string]bool {
	names := make(map[string]bool)
	for _, h := range overlap.Find(frags, elements, overlap.Opts{}) {
		names[frags[h.A].Name] = true
	}
	return names
}

// Types reports, for each interaction and each label of elements, whether
// the left and the right fragment overlap an element with that label.  The
// result is parallel to in.
func Types(in []Interaction, elements map[string]*interval.Set) ([]Typed, error) {
	labels := make([]string, 0, len(elements))
	for label := range elements {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]Typed, len(in))
	for i, x := range in {
		out[i] = Typed{Interaction: x, Left: make(map[string]bool, len(labels)), Right: make(map[string]bool, len(labels))}
	}
	left, right := fragments(in, true), fragments(in, false)
	for _, label := range labels {
		idx, err := overlap.NewIndex(elements[label].Intervals)
		if err != nil {
			return nil, err
		}
		leftNames := fragmentsWith(left, idx)
		rightNames := fragmentsWith(right, idx)
		for i := range out {
			out[i].Left[label] = leftNames[left[i].Name]
			out[i].Right[label] = rightNames[right[i].Name]
		}
	}
	return out, nil
}

// elementHit is one (element, interaction) overlap.
type elementHit struct {
	element     interval.Interval
	interaction int
}

// elementHits intersects elements with one side's fragments, in element
// order.
func elementHits(elements *interval.Set, frags []interval.Interval) ([]elementHit, error) {
	idx, err := overlap.NewIndex(frags)
	if err != nil {
		return nil, err
	}
	hits := overlap.Find(elements.Intervals, idx, overlap.Opts{})
	out := make([]elementHit, len(hits))
	for i, h := range hits {
		out[i] = elementHit{element: elements.Intervals[h.A], interaction: h.B}
	}
	return out, nil
}

// join pairs every hit in a with every hit in b on the same interaction,
// following the order of a and then b.  When swapped, the elements of a lie in
// right fragments.
func join(in []Interaction, a, b []elementHit, swapped bool) []ElementPair {
	byInteraction := make(map[int][]int)
	for i, h := range b {
		byInteraction[h.interaction] = append(byInteraction[h.interaction], i)
	}
	var out []ElementPair
	for _, ha := range a {
		x := in[ha.interaction]
		for _, j := range byInteraction[ha.interaction] {
			p := ElementPair{
				InteractionID: x.ID,
				Left:          ha.element,
				Right:         b[j].element,
				LeftFragment:  x.Left,
				RightFragment: x.Right,
			}
			if swapped {
				p.Left, p.Right = p.Right, p.Left
			}
			out = append(out, p)
		}
	}
	return out
}

func checkElementSchemas(left, right *interval.Set) error {
	if err := left.Schema.CheckElementSchema(); err != nil {
		return err
	}
	return right.Schema.CheckElementSchema()
}

// OrderedElements returns the pairs whose left element overlaps an
// interaction's left fragment and whose right element overlaps the same
// interaction's right fragment.  Both element sets must be named by a
// *_name column.
func OrderedElements(in []Interaction, left, right *interval.Set) ([]ElementPair, error) {
	if err := checkElementSchemas(left, right); err != nil {
		return nil, err
	}
	leftHits, err := elementHits(left, fragments(in, true))
	if err != nil {
		return nil, err
	}
	rightHits, err := elementHits(right, fragments(in, false))
	if err != nil {
		return nil, err
	}
	return join(in, leftHits, rightHits, false), nil
}

// Elements is OrderedElements in both fragment orientations: the pairs with
// the left element on the left fragment come first, followed by those with
// the left element on the right fragment.  Pairs repeating an earlier
// (left name, right name) are dropped.
func Elements(in []Interaction, left, right *interval.Set) ([]ElementPair, error) {
	pairs, err := OrderedElements(in, left, right)
	if err != nil {
		return nil, err
	}
	rightOnLeft, err := elementHits(right, fragments(in, true))
	if err != nil {
		return nil, err
	}
	leftOnRight, err := elementHits(left, fragments(in, false))
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, join(in, rightOnLeft, leftOnRight, true)...)

	type key struct{ left, right string }
	seen := make(map[key]bool, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		k := key{p.Left.Name, p.Right.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	log.Debug.Printf("interaction.Elements: %d interactions, %d element pairs", len(in), len(out))
	return out, nil
}

// LabeledElements splits elements into those named among positives and the
// rest.  Both outputs are deduplicated by name and sorted by position, and
// interacting takes the schema of elements.
func LabeledElements(elements *interval.Set, positives []interval.Interval) (interacting, noninteracting *interval.Set) {
	interacting = interval.Canonicalize(interval.DedupByName(&interval.Set{Schema: elements.Schema, Intervals: positives}))
	names := make(map[string]bool, len(interacting.Intervals))
	for _, iv := range interacting.Intervals {
		names[iv.Name] = true
	}
	rest := interval.Filter(elements, func(iv interval.Interval) bool { return !names[iv.Name] })
	noninteracting = interval.Canonicalize(interval.DedupByName(rest))
	return
}
