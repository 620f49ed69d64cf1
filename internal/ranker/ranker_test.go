package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pwayrank/pwayrank/internal/config"
	"github.com/pwayrank/pwayrank/internal/nodescorer"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// threeNodeChain builds the A-B-C chain used by both end-to-end scenarios:
// edges A->B, B->C, pairs1={A,B},{B,C}, pairs2={(A,C,1)}.
func threeNodeChain() pathwayindex.Pathway {
	return pathwayindex.Pathway{
		PathwayID: "p1",
		Source:    pathwayindex.SourcePrimary,
		NodeIDs:   []pathwayindex.NodeID{"A", "B", "C"},
		Pairs1: []pathwayindex.Pair1{
			{A: "A", B: "B"},
			{A: "B", B: "C"},
		},
		Pairs2: []pathwayindex.Pair2{
			{A: "A", B: "C", BridgeCount: 1},
		},
		NodeCount: 3,
	}
}

func TestRankPathwayScenarioS1AllGated(t *testing.T) {
	states := map[pathwayindex.NodeID]nodescorer.NodeState{
		"A": {NodeScore: 1.0, NodeHasReg: true},
		"B": {NodeScore: 0.5, NodeHasReg: true},
		"C": {NodeScore: 1.0, NodeHasReg: true},
	}
	result := RankPathway(threeNodeChain(), states, config.Default().Weights)

	assert.InDelta(t, 0.857, result.ConnectionScore, 0.01)
	assert.InDelta(t, 0.833, result.NodeMass, 0.01)
	assert.InDelta(t, 1.024, result.FinalScore, 0.01)
}

func TestRankPathwayScenarioS2MiddleUngated(t *testing.T) {
	states := map[pathwayindex.NodeID]nodescorer.NodeState{
		"A": {NodeScore: 1.0, NodeHasReg: true},
		"B": {NodeScore: 0.5, NodeHasReg: false},
		"C": {NodeScore: 1.0, NodeHasReg: true},
	}
	result := RankPathway(threeNodeChain(), states, config.Default().Weights)

	assert.InDelta(t, 0.0, onlyConn1(threeNodeChain(), states), 1e-9)
	assert.InDelta(t, 0.447, result.FinalScore, 0.01)
}

func onlyConn1(pw pathwayindex.Pathway, states map[pathwayindex.NodeID]nodescorer.NodeState) float64 {
	var conn1 float64
	for _, pair := range pw.Pairs1 {
		a, b := states[pair.A], states[pair.B]
		if a.NodeHasReg && b.NodeHasReg {
			conn1 += a.NodeScore * b.NodeScore
		}
	}
	return conn1
}

func TestRankPathwayEmptyPathwayScoresZero(t *testing.T) {
	pw := pathwayindex.Pathway{PathwayID: "empty", NodeCount: 0}
	result := RankPathway(pw, nil, config.Default().Weights)
	assert.Equal(t, 0.0, result.FinalScore)
}

func TestMonotonicityIncreasingNodeScoreNeverDecreasesFinal(t *testing.T) {
	base := map[pathwayindex.NodeID]nodescorer.NodeState{
		"A": {NodeScore: 0.2, NodeHasReg: true},
		"B": {NodeScore: 0.3, NodeHasReg: true},
		"C": {NodeScore: 0.4, NodeHasReg: true},
	}
	before := RankPathway(threeNodeChain(), base, config.Default().Weights)

	bumped := map[pathwayindex.NodeID]nodescorer.NodeState{
		"A": {NodeScore: 0.9, NodeHasReg: true},
		"B": base["B"],
		"C": base["C"],
	}
	after := RankPathway(threeNodeChain(), bumped, config.Default().Weights)

	assert.GreaterOrEqual(t, after.FinalScore, before.FinalScore)
}

func TestSortResultsTotalOrder(t *testing.T) {
	results := []Result{
		{PathwayID: "z", Source: pathwayindex.SourcePrimary, FinalScore: 1.0},
		{PathwayID: "a", Source: pathwayindex.SourceSecondary, FinalScore: 2.0},
		{PathwayID: "m", Source: pathwayindex.SourcePrimary, FinalScore: 1.0},
	}
	SortResults(results)

	assert.Equal(t, pathwayindex.PathwayID("a"), results[0].PathwayID)
	assert.Equal(t, pathwayindex.PathwayID("m"), results[1].PathwayID)
	assert.Equal(t, pathwayindex.PathwayID("z"), results[2].PathwayID)
}

func TestSortResultsStableUnderReordering(t *testing.T) {
	a := []Result{
		{PathwayID: "p1", Source: "primary", FinalScore: 0.9},
		{PathwayID: "p2", Source: "primary", FinalScore: 0.5},
		{PathwayID: "p3", Source: "primary", FinalScore: 0.9},
	}
	b := []Result{a[2], a[0], a[1]}

	SortResults(a)
	SortResults(b)
	assert.Equal(t, a, b)
}

func TestBridgeWeightUsesNaturalLog(t *testing.T) {
	weights := config.Default().Weights
	weights.Alpha = 0 // node_count^0 = 1, so connection_score is the bare 2-hop term
	pw := pathwayindex.Pathway{
		PathwayID: "bridge",
		NodeIDs:   []pathwayindex.NodeID{"A", "C"},
		Pairs2:    []pathwayindex.Pair2{{A: "A", B: "C", BridgeCount: 1}},
		NodeCount: 2,
	}
	states := map[pathwayindex.NodeID]nodescorer.NodeState{
		"A": {NodeScore: 1.0, NodeHasReg: true},
		"C": {NodeScore: 1.0, NodeHasReg: true},
	}
	// 0.7 * ln(1+1) = 0.4852; a base-10 log would give 0.2107.
	got := RankPathway(pw, states, weights).ConnectionScore
	assert.InDelta(t, 0.4852, got, 0.001)
}
