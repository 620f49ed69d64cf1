package kegglike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

const sampleKGML = `<?xml version="1.0"?>
<pathway title="MAPK signaling" class="Environmental Information Processing; Signal transduction">
  <entry id="1" type="gene" name="hsa:207 hsa:208">
    <graphics name="AKT1, AKT2"/>
  </entry>
  <entry id="2" type="gene" name="hsa:5594+hsa:5595">
    <graphics name="MAPK3, MAPK1"/>
  </entry>
  <entry id="3" type="group">
    <component id="1"/>
    <component id="2"/>
  </entry>
  <entry id="4" type="compound" name="cpd:C00002">
    <graphics name="ATP"/>
  </entry>
  <relation entry1="1" entry2="4" type="PPrel">
    <subtype name="activation" value="--&gt;"/>
  </relation>
  <relation entry1="1" entry2="99" type="PPrel"/>
</pathway>`

func TestParseBasicDocument(t *testing.T) {
	raw, err := Parse("hsa04010", "MAPK signaling pathway", []byte(sampleKGML), true)
	require.NoError(t, err)

	assert.Equal(t, "MAPK signaling", raw.Name)
	require.Len(t, raw.Classes, 2)
	assert.Equal(t, []string{"Environmental Information Processing", "Signal transduction"}, raw.Classes)

	require.Len(t, raw.Nodes, 4)
	geneNode := raw.Nodes[0]
	assert.Equal(t, pathwayindex.NodeProteinLike, geneNode.Type)
	require.Len(t, geneNode.NativeIDs, 2)
	assert.Equal(t, pathwayindex.NativeID{Namespace: "GeneID", ID: "207"}, geneNode.NativeIDs[0])
	assert.Equal(t, pathwayindex.NativeID{Namespace: "GeneID", ID: "208"}, geneNode.NativeIDs[1])

	plusNode := raw.Nodes[1]
	require.Len(t, plusNode.NativeIDs, 2)
	assert.Equal(t, "5594", plusNode.NativeIDs[0].ID)
	assert.Equal(t, "5595", plusNode.NativeIDs[1].ID)

	groupNode := raw.Nodes[2]
	assert.Equal(t, pathwayindex.NodeGroup, groupNode.Type)
	assert.Equal(t, []string{"1", "2"}, groupNode.Components)

	compoundNode := raw.Nodes[3]
	assert.Equal(t, pathwayindex.NodeMetabolite, compoundNode.Type)

	// The relation referencing missing entry 99 is dropped, not fatal.
	require.Len(t, raw.Edges, 1)
	assert.Equal(t, "1", raw.Edges[0].Src)
	assert.Equal(t, "4", raw.Edges[0].Dst)
	assert.Equal(t, []string{"activation"}, raw.Edges[0].Subtypes)
}

func TestParseWithoutIncludeClassesOmitsClasses(t *testing.T) {
	raw, err := Parse("hsa04010", "MAPK signaling pathway", []byte(sampleKGML), false)
	require.NoError(t, err)
	assert.Empty(t, raw.Classes)
}

func TestParseMalformedXMLIsParseError(t *testing.T) {
	_, err := Parse("hsa00000", "broken", []byte("<pathway><entry id=\"1\""), true)
	require.Error(t, err)
}

func TestParseGeneCandidatesBarePrefixCarryover(t *testing.T) {
	ids := parseGeneCandidates("hsa:207 208 209")
	require.Len(t, ids, 3)
	assert.Equal(t, "207", ids[0].ID)
	assert.Equal(t, "208", ids[1].ID)
	assert.Equal(t, "209", ids[2].ID)
}

func TestParseGeneCandidatesNoPrefixYieldsNothing(t *testing.T) {
	assert.Empty(t, parseGeneCandidates("207 208"))
}

const compoundSplitKGML = `<?xml version="1.0"?>
<pathway title="compound split">
  <entry id="1" type="gene" name="hsa:1"><graphics name="A"/></entry>
  <entry id="2" type="gene" name="hsa:2"><graphics name="B"/></entry>
  <entry id="42" type="compound" name="cpd:C00001"><graphics name="ATP"/></entry>
  <relation entry1="1" entry2="2" type="PCrel">
    <subtype name="compound" value="42"/>
  </relation>
</pathway>`

// S4: a relation carrying a "compound" subtype whose value names an entry
// id is split into entry1->bridge and bridge->entry2, with the bridge
// retained as a metabolite node.
func TestParseCompoundSplitting(t *testing.T) {
	raw, err := Parse("hsa00000", "compound split", []byte(compoundSplitKGML), false)
	require.NoError(t, err)

	require.Len(t, raw.Edges, 2)
	assert.Equal(t, "1", raw.Edges[0].Src)
	assert.Equal(t, "42", raw.Edges[0].Dst)
	assert.Equal(t, "42", raw.Edges[1].Src)
	assert.Equal(t, "2", raw.Edges[1].Dst)

	var bridge *pathwayindex.RawNode
	for i := range raw.Nodes {
		if raw.Nodes[i].LocalID == "42" {
			bridge = &raw.Nodes[i]
		}
	}
	require.NotNil(t, bridge)
	assert.Equal(t, pathwayindex.NodeMetabolite, bridge.Type)
}

const bindingKGML = `<?xml version="1.0"?>
<pathway title="binding">
  <entry id="1" type="gene" name="hsa:1"><graphics name="A"/></entry>
  <entry id="2" type="gene" name="hsa:2"><graphics name="B"/></entry>
  <relation entry1="1" entry2="2" type="PPrel">
    <subtype name="binding/association" value="---"/>
  </relation>
</pathway>`

// binding/association subtypes force an undirected edge.
func TestParseBindingAssociationIsUndirected(t *testing.T) {
	raw, err := Parse("hsa00001", "binding", []byte(bindingKGML), false)
	require.NoError(t, err)
	require.Len(t, raw.Edges, 1)
	assert.False(t, raw.Edges[0].Directed)
	assert.Equal(t, "binding", raw.Edges[0].RelationType)
}
