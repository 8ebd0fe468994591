package scan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/mountscan/pkg/geom"
)

func sampleReport() *FinalReport {
	return &FinalReport{
		Radius:  1,
		Spheres: []BondingSphere{{Sphere: geom.Sphere{Center: vec(0, 0, 0), Radius: 1}, AtomID: 0}},
		Circles: []BondingCircle{{Circle: geom.Circle{Center: vec(5, 0, 0), Radius: 0.5, Normal: geom.XAxis}, AtomIDs: [2]int{1, 2}}},
		CutPoints: []CoordinationPoint{
			NewCoordinationPoint(vec(9, 0, 0), 3, 4),
		},
		MultiPoints: []CoordinationPoint{
			NewCoordinationPoint(vec(12, 0, 0), 5, 6, 7),
		},
	}
}

func TestFinalReport_Sites(t *testing.T) {
	r := sampleReport()
	sites := r.Sites()
	require.Len(t, sites, 4)
	assert.Equal(t, 4, r.Len())

	kinds := []SiteKind{SiteSphere, SiteCircle, SiteCutPoint, SiteMultiPoint}
	cns := []int{1, 2, 2, 3}
	for i, s := range sites {
		assert.Equal(t, kinds[i], s.Kind)
		assert.Equal(t, cns[i], s.CN())
	}
	assert.Equal(t, []int{1, 2}, sites[1].AtomIDs())
	assert.Equal(t, "multi-point", sites[3].Kind.String())
}

func TestFinalReport_Remap(t *testing.T) {
	r := sampleReport()
	// Reverse the numbering of eight atoms.
	out := r.Remap(func(id int) int { return 7 - id })

	assert.Equal(t, 7, out.Spheres[0].AtomID)
	assert.Equal(t, [2]int{5, 6}, out.Circles[0].AtomIDs)
	assert.Equal(t, []int{3, 4}, out.CutPoints[0].AtomIDs())
	assert.Equal(t, []int{0, 1, 2}, out.MultiPoints[0].AtomIDs())

	// The source report is untouched.
	assert.Equal(t, 0, r.Spheres[0].AtomID)
	assert.Equal(t, []int{5, 6, 7}, r.MultiPoints[0].AtomIDs())
}

func TestFinalReport_JSON(t *testing.T) {
	data, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	multi := raw["multi_points"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 3, multi["cn"])

	var back FinalReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []int{5, 6, 7}, back.MultiPoints[0].AtomIDs())
	assert.Equal(t, "spheres=1 circles=1 cut=1 multi=1", back.String())
}
