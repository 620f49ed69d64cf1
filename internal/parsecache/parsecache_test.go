package parsecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hsa00010.parsed")

	raw := pathwayindex.RawPathway{
		PathwayID: "hsa00010",
		Name:      "Glycolysis",
		Source:    pathwayindex.SourcePrimary,
		Nodes: []pathwayindex.RawNode{
			{LocalID: "1", Type: pathwayindex.NodeProteinLike, Label: "HK1"},
		},
	}
	hash := HashDoc([]byte("<pathway/>"))
	require.NoError(t, Save(path, hash, raw))

	loaded, ok := Load(path, hash)
	require.True(t, ok)
	assert.Equal(t, raw.PathwayID, loaded.PathwayID)
	assert.Equal(t, raw.Nodes, loaded.Nodes)
}

func TestLoadMissesOnHashMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hsa00010.parsed")

	raw := pathwayindex.RawPathway{PathwayID: "hsa00010"}
	require.NoError(t, Save(path, HashDoc([]byte("v1")), raw))

	_, ok := Load(path, HashDoc([]byte("v2")))
	assert.False(t, ok)
}

func TestLoadMissesWhenAbsent(t *testing.T) {
	_, ok := Load(filepath.Join(t.TempDir(), "missing.parsed"), "deadbeef")
	assert.False(t, ok)
}
