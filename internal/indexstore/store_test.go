package indexstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

func sampleIndex() *pathwayindex.Index {
	return &pathwayindex.Index{
		Meta: pathwayindex.Meta{
			SchemaVersion: pathwayindex.SchemaVersion,
			Source:        pathwayindex.SourcePrimary,
			OrganismCode:  "hsa",
			CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			PathwayCount:  1,
			NodeCount:     2,
			EdgeCount:     1,
		},
		Pathways: []pathwayindex.Pathway{
			{
				PathwayID: "hsa00000",
				Name:      "sample",
				Source:    pathwayindex.SourcePrimary,
				NodeIDs:   []pathwayindex.NodeID{"hsa00000:1", "hsa00000:2"},
				EdgeIDs:   []pathwayindex.EdgeID{"hsa00000:1->2:1"},
				NodeCount: 2,
				EdgeCount: 1,
			},
		},
		Nodes: map[pathwayindex.NodeID]pathwayindex.Node{
			"hsa00000:2": {NodeID: "hsa00000:2", PathwayID: "hsa00000", Type: pathwayindex.NodeProteinLike},
			"hsa00000:1": {NodeID: "hsa00000:1", PathwayID: "hsa00000", Type: pathwayindex.NodeProteinLike},
		},
		Edges: map[pathwayindex.EdgeID]pathwayindex.Edge{
			"hsa00000:1->2:1": {EdgeID: "hsa00000:1->2:1", PathwayID: "hsa00000", Src: "hsa00000:1", Dst: "hsa00000:2", Directed: true},
		},
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	idx := sampleIndex()
	require.NoError(t, Persist(path, idx))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Meta.SchemaVersion, loaded.Meta.SchemaVersion)
	assert.Equal(t, idx.Meta.OrganismCode, loaded.Meta.OrganismCode)
	assert.Len(t, loaded.Pathways, 1)
	assert.Len(t, loaded.Nodes, 2)
	assert.Len(t, loaded.Edges, 1)
}

func TestPersistIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")

	idx := sampleIndex()
	require.NoError(t, Persist(pathA, idx))
	require.NoError(t, Persist(pathB, idx))

	dataA, err := os.ReadFile(pathA)
	require.NoError(t, err)
	dataB, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
}

// TestPersistAndLoadRoundTripStructural asserts §8 invariant 5 directly:
// load(persist(idx)) = idx as a structured value, not just field-by-field.
func TestPersistAndLoadRoundTripStructural(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	idx := sampleIndex()
	require.NoError(t, Persist(path, idx))

	loaded, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(idx, loaded); diff != "" {
		t.Fatalf("round-tripped index differs (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	idx := sampleIndex()
	idx.Meta.SchemaVersion = pathwayindex.SchemaVersion + 1
	require.NoError(t, Persist(path, idx))

	_, err := Load(path)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "%!")
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "does not match supported version")
}

func TestLoadRejectsMissingMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	require.NoError(t, writeAtomic(path, []byte(`{"pathways":[],"nodes":{},"edges":{}}`)))

	_, err := Load(path)
	require.Error(t, err)
}
