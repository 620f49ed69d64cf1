package nodescorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwayrank/pwayrank/internal/config"
	"github.com/pwayrank/pwayrank/internal/evidence"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

func buildEvidence(t *testing.T) *evidence.Evidence {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "protein.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"protein_id\tp_value\tfold_change\n"+
			"P123456\t0.0001\t8\n"+
			"P654321\t0.5\t1\n"), 0o644))

	ev, _, err := evidence.Aggregate(path, "", evidence.DefaultColumns(), config.Default().Weights)
	require.NoError(t, err)
	return ev
}

func TestScorePicksMaxScoringRepresentative(t *testing.T) {
	ev := buildEvidence(t)
	idx := &pathwayindex.Index{
		Pathways: []pathwayindex.Pathway{{PathwayID: "p1", Source: pathwayindex.SourcePrimary}},
		Nodes: map[pathwayindex.NodeID]pathwayindex.Node{
			"p1:1": {
				NodeID:    "p1:1",
				PathwayID: "p1",
				Candidates: pathwayindex.Candidates{
					CanonicalIDs: []string{"P654321", "P123456"},
				},
			},
		},
	}

	states := Score(idx, ev)
	state := states["p1:1"]
	assert.Equal(t, "P123456", state.RepresentativeCanonicalID)
	assert.Greater(t, state.NodeScore, 0.0)
}

func TestScoreSourceAPicksUpNativeIDCandidateRegex(t *testing.T) {
	ev := buildEvidence(t)
	idx := &pathwayindex.Index{
		Pathways: []pathwayindex.Pathway{{PathwayID: "p1", Source: pathwayindex.SourcePrimary}},
		Nodes: map[pathwayindex.NodeID]pathwayindex.Node{
			"p1:1": {
				NodeID:    "p1:1",
				PathwayID: "p1",
				Candidates: pathwayindex.Candidates{
					NativeIDs: []pathwayindex.NativeID{{Namespace: "GeneID", ID: "P123456"}},
				},
			},
		},
	}

	states := Score(idx, ev)
	assert.Equal(t, "P123456", states["p1:1"].RepresentativeCanonicalID)
}

func TestScoreSourceBIgnoresNativeIDRegexCandidates(t *testing.T) {
	ev := buildEvidence(t)
	idx := &pathwayindex.Index{
		Pathways: []pathwayindex.Pathway{{PathwayID: "p1", Source: pathwayindex.SourceSecondary}},
		Nodes: map[pathwayindex.NodeID]pathwayindex.Node{
			"p1:1": {
				NodeID:    "p1:1",
				PathwayID: "p1",
				Candidates: pathwayindex.Candidates{
					NativeIDs: []pathwayindex.NativeID{{Namespace: "Uniprot", ID: "P123456"}},
				},
			},
		},
	}

	states := Score(idx, ev)
	assert.Equal(t, 0.0, states["p1:1"].NodeScore)
	assert.Empty(t, states["p1:1"].RepresentativeCanonicalID)
}

func TestScoreNodeWithNoEvidenceIsZero(t *testing.T) {
	ev := buildEvidence(t)
	idx := &pathwayindex.Index{
		Pathways: []pathwayindex.Pathway{{PathwayID: "p1", Source: pathwayindex.SourcePrimary}},
		Nodes: map[pathwayindex.NodeID]pathwayindex.Node{
			"p1:1": {NodeID: "p1:1", PathwayID: "p1"},
		},
	}
	states := Score(idx, ev)
	assert.Equal(t, 0.0, states["p1:1"].NodeScore)
	assert.False(t, states["p1:1"].NodeHasReg)
}
