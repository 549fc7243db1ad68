package analysis

import (
	"testing"

	"github.com/nihei9/decisive/grammar"
)

func TestPartition(t *testing.T) {
	l := func(lo, hi int) grammar.Label {
		return grammar.Label{Lo: lo, Hi: hi}
	}

	tests := []struct {
		caption string
		labels  []grammar.Label
		segs    []grammar.Label
	}{
		{
			caption: "no label",
		},
		{
			caption: "points are kept as they are",
			labels:  []grammar.Label{l(3, 3), l(1, 1), l(3, 3)},
			segs:    []grammar.Label{l(1, 1), l(3, 3)},
		},
		{
			caption: "a point inside an interval splits the interval",
			labels:  []grammar.Label{l(0, 10), l(4, 4)},
			segs:    []grammar.Label{l(0, 3), l(4, 4), l(5, 10)},
		},
		{
			caption: "overlapping intervals are split at every bound",
			labels:  []grammar.Label{l('a', 'm'), l('h', 'z')},
			segs:    []grammar.Label{l('a', 'g'), l('h', 'm'), l('n', 'z')},
		},
		{
			caption: "a gap between intervals is not covered",
			labels:  []grammar.Label{l(1, 2), l(5, 6)},
			segs:    []grammar.Label{l(1, 2), l(5, 6)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			segs := partition(tt.labels)
			if len(segs) != len(tt.segs) {
				t.Fatalf("unexpected segments; want: %v, got: %v", tt.segs, segs)
			}
			for i, seg := range segs {
				if seg != tt.segs[i] {
					t.Fatalf("unexpected segments; want: %v, got: %v", tt.segs, segs)
				}
			}
		})
	}
}
