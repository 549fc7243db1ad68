package analysis

import (
	"sort"

	"github.com/nihei9/decisive/grammar"
)

// partition splits overlapping labels into disjoint intervals such that every input label is a union of
// some of them. The result is sorted in ascending order and covers exactly the union of the input.
func partition(labels []grammar.Label) []grammar.Label {
	if len(labels) == 0 {
		return nil
	}

	bounds := make([]int, 0, len(labels)*2)
	for _, l := range labels {
		bounds = append(bounds, l.Lo, l.Hi+1)
	}
	sort.Ints(bounds)
	uniq := bounds[:1]
	for _, b := range bounds[1:] {
		if b != uniq[len(uniq)-1] {
			uniq = append(uniq, b)
		}
	}

	var segs []grammar.Label
	for i := 0; i < len(uniq)-1; i++ {
		seg := grammar.Label{
			Lo: uniq[i],
			Hi: uniq[i+1] - 1,
		}
		for _, l := range labels {
			if l.Contains(seg.Lo) {
				segs = append(segs, seg)
				break
			}
		}
	}
	return segs
}
