package internaldefs

import "testing"

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 0, 2, 0, 0, 3}))
	want := [8]uint64{1, 1, 3, 3, 3, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBoundsLineUp(t *testing.T) {
	if len(BucketUpperBounds)+1 != len(HistogramBoundSuffix) {
		t.Fatalf("%d finite bounds but %d suffixes", len(BucketUpperBounds), len(HistogramBoundSuffix))
	}
	seen := map[string]bool{}
	for _, def := range CounterDefs {
		if seen[def.Name] {
			t.Fatalf("duplicate metric name %s", def.Name)
		}
		seen[def.Name] = true
	}
}
