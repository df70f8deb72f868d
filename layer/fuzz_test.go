package layer

import (
	"testing"

	"github.com/google/gofuzz"
	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"

	"github.com/nicot/triplestore/id160"
)

// TestFuzzChainSemantics generates random chains of layers and checks the
// chain-semantics property
// holds for every generated chain: a layer's effective triples equal its
// parent's effective triples with this layer's own additions/removals
// folded in.
func TestFuzzChainSemantics(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 6)

	for run := 0; run < 20; run++ {
		var base *Layer
		b := NewBuilder(id160.New(), nil)
		var seedStrings []string
		f.Fuzz(&seedStrings)
		for _, s := range seedStrings {
			if s == "" {
				continue
			}
			require.NoError(t, b.AddStringTriple(StringTriple{s, "p", "o_" + s, NodeObject}))
		}
		base = mustCommit(t, b)

		child := NewBuilder(id160.New(), base)
		for _, s := range seedStrings[:len(seedStrings)/2] {
			if s == "" {
				continue
			}
			require.NoError(t, child.RemoveStringTriple(StringTriple{s, "p", "o_" + s, NodeObject}))
		}
		childLayer := mustCommit(t, child)

		gotIDs := map[IdTriple]bool{}
		for _, it := range childLayer.Triples().Collect() {
			gotIDs[it] = true
		}

		wantIDs := map[IdTriple]bool{}
		for _, it := range base.Triples().Collect() {
			if !childLayer.TripleRemovalExists(it) {
				wantIDs[it] = true
			}
		}
		for _, it := range childLayer.TripleAdditions().Collect() {
			wantIDs[it] = true
		}

		if diff := pretty.Compare(wantIDs, gotIDs); diff != "" {
			t.Fatalf("chain semantics mismatch (-want +got):\n%s", diff)
		}
	}
}
