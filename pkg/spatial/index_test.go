package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoints(n int, seed int64) []v3.Vec {
	rng := rand.New(rand.NewSource(seed))
	ps := make([]v3.Vec, n)
	for i := range ps {
		ps[i] = v3.Vec{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
	}
	return ps
}

// bruteWithin is the reference answer for Within.
func bruteWithin(ps []v3.Vec, q v3.Vec, r float64) []Neighbour {
	var out []Neighbour
	for i, p := range ps {
		if d := p.Sub(q).Length(); d <= r {
			out = append(out, Neighbour{ID: i, Dist: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist {
			return out[i].Dist < out[j].Dist
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestIndex_Empty(t *testing.T) {
	ix := New(nil)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Nearest(v3.Vec{}, 3))
	assert.Empty(t, ix.Within(v3.Vec{}, 100))
}

func TestIndex_WithinMatchesBruteForce(t *testing.T) {
	ps := randomPoints(300, 1)
	ix := New(ps)
	require.Equal(t, len(ps), ix.Len())

	for i, q := range randomPoints(25, 2) {
		for _, r := range []float64{0.5, 1.5, 3} {
			want := bruteWithin(ps, q, r)
			got := ix.Within(q, r)
			if diff := cmp.Diff(want, got, approx, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("query %d r=%v mismatch (-want +got):\n%s", i, r, diff)
			}
		}
	}
}

func TestIndex_Nearest(t *testing.T) {
	ps := randomPoints(200, 3)
	ix := New(ps)

	for _, q := range randomPoints(10, 4) {
		all := bruteWithin(ps, q, math.Inf(1))
		got := ix.Nearest(q, 5)
		if diff := cmp.Diff(all[:5], got, approx); diff != "" {
			t.Fatalf("nearest mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestIndex_NearestMoreThanLen(t *testing.T) {
	ps := []v3.Vec{{X: 1}, {X: 2}}
	got := New(ps).Nearest(v3.Vec{}, 10)
	assert.Equal(t, []int{0, 1}, IDs(got))
}

func TestIndex_InclusiveRadius(t *testing.T) {
	ps := []v3.Vec{{}, {X: 2}, {X: 4}}
	ix := New(ps)
	assert.Equal(t, []int{1, 0, 2}, IDs(ix.Within(v3.Vec{X: 2}, 2)))
	assert.Equal(t, []int{1}, IDs(ix.Within(v3.Vec{X: 2}, 1.999)))
}

func TestIndex_DuplicatePoints(t *testing.T) {
	ps := []v3.Vec{{X: 1}, {X: 1}, {X: 1}, {X: 5}}
	got := New(ps).Within(v3.Vec{X: 1}, 0)
	assert.Equal(t, []int{0, 1, 2}, IDs(got))
}

func TestIndex_DoesNotRetainInput(t *testing.T) {
	ps := []v3.Vec{{X: 3}, {X: 1}, {X: 2}}
	ix := New(ps)
	ps[0] = v3.Vec{X: 100}
	got := ix.Nearest(v3.Vec{X: 3}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)
}
