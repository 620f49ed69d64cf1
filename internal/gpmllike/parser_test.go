package gpmllike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

const sampleGPML = `<?xml version="1.0"?>
<Pathway Name="MAPK cascade" Organism="Homo sapiens">
  <DataNode GraphId="dn1" TextLabel="AKT1" Type="GeneProduct" GroupRef="grp1">
    <Xref Database="Entrez Gene" ID="207"/>
  </DataNode>
  <DataNode GraphId="dn2" TextLabel="AKT2" Type="GeneProduct" GroupRef="grp1">
    <Xref Database="Entrez Gene" ID="208"/>
  </DataNode>
  <DataNode GraphId="dn3" TextLabel="ATP" Type="Metabolite">
    <Xref Database="ChEBI" ID="15422"/>
  </DataNode>
  <DataNode GraphId="dn4" TextLabel="Orphan" Type="GeneProduct"/>
  <Group GraphId="grp1"/>
  <Label GraphId="lbl1" TextLabel="cytoplasm"/>
  <Shape GraphId="shp1" TextLabel=""/>
  <Interaction GraphId="e1">
    <Graphics>
      <Point GraphRef="grp1" ArrowHead=""/>
      <Point GraphRef="dn3" ArrowHead="Arrow"/>
    </Graphics>
  </Interaction>
  <Interaction GraphId="e2">
    <Graphics>
      <Point GraphRef="dn3" ArrowHead="Arrow"/>
      <Point GraphRef="dn4" ArrowHead="Arrow"/>
    </Graphics>
  </Interaction>
  <GraphicalLine GraphId="e3">
    <Graphics LineStyle="Broken">
      <Point GraphRef="dn1" ArrowHead=""/>
      <Point GraphRef="dn4" ArrowHead=""/>
    </Graphics>
  </GraphicalLine>
</Pathway>`

func findNode(nodes []pathwayindex.RawNode, id string) (pathwayindex.RawNode, bool) {
	for _, n := range nodes {
		if n.LocalID == id {
			return n, true
		}
	}
	return pathwayindex.RawNode{}, false
}

func TestParseDataNodesAndXref(t *testing.T) {
	raw, err := Parse("wp001", "MAPK cascade", []byte(sampleGPML))
	require.NoError(t, err)
	assert.Equal(t, "MAPK cascade", raw.Name)
	assert.Equal(t, pathwayindex.SourceSecondary, raw.Source)

	dn1, ok := findNode(raw.Nodes, "dn1")
	require.True(t, ok)
	assert.Equal(t, pathwayindex.NodeProteinLike, dn1.Type)
	require.Len(t, dn1.NativeIDs, 1)
	assert.Equal(t, pathwayindex.NativeID{Namespace: "Entrez Gene", ID: "207"}, dn1.NativeIDs[0])

	dn3, ok := findNode(raw.Nodes, "dn3")
	require.True(t, ok)
	assert.Equal(t, pathwayindex.NodeMetabolite, dn3.Type)

	dn4, ok := findNode(raw.Nodes, "dn4")
	require.True(t, ok)
	assert.Empty(t, dn4.NativeIDs)
}

func TestParseGroupMembershipViaGroupRef(t *testing.T) {
	raw, err := Parse("wp001", "MAPK cascade", []byte(sampleGPML))
	require.NoError(t, err)

	grp, ok := findNode(raw.Nodes, "grp1")
	require.True(t, ok)
	assert.Equal(t, pathwayindex.NodeGroup, grp.Type)
	assert.ElementsMatch(t, []string{"dn1", "dn2"}, grp.Components)
}

func TestParseLabelAndShapeAreOtherType(t *testing.T) {
	raw, err := Parse("wp001", "MAPK cascade", []byte(sampleGPML))
	require.NoError(t, err)

	lbl, ok := findNode(raw.Nodes, "lbl1")
	require.True(t, ok)
	assert.Equal(t, pathwayindex.NodeOther, lbl.Type)
	assert.Equal(t, "cytoplasm", lbl.Label)

	shp, ok := findNode(raw.Nodes, "shp1")
	require.True(t, ok)
	assert.Equal(t, pathwayindex.NodeOther, shp.Type)
}

func TestParseDirectionalityRule(t *testing.T) {
	raw, err := Parse("wp001", "MAPK cascade", []byte(sampleGPML))
	require.NoError(t, err)

	var e1, e2, e3 *pathwayindex.RawEdge
	for i := range raw.Edges {
		switch {
		case raw.Edges[i].Src == "grp1" || raw.Edges[i].Dst == "grp1":
			e1 = &raw.Edges[i]
		case raw.Edges[i].Src == "dn4" && raw.Edges[i].Dst == "dn3", raw.Edges[i].Src == "dn3" && raw.Edges[i].Dst == "dn4":
			e2 = &raw.Edges[i]
		case raw.Edges[i].Src == "dn1" || raw.Edges[i].Dst == "dn1":
			e3 = &raw.Edges[i]
		}
	}
	require.NotNil(t, e1)
	require.NotNil(t, e2)
	require.NotNil(t, e3)

	// e1: exactly one endpoint (dn3) has an ArrowHead -> directed grp1 -> dn3.
	assert.True(t, e1.Directed)
	assert.Equal(t, "grp1", e1.Src)
	assert.Equal(t, "dn3", e1.Dst)
	assert.Equal(t, []string{"end:Arrow"}, e1.Subtypes)

	// e2: both endpoints have an ArrowHead -> undirected.
	assert.False(t, e2.Directed)
	assert.ElementsMatch(t, []string{"start:Arrow", "end:Arrow"}, e2.Subtypes)

	// e3: neither endpoint has an ArrowHead -> undirected, dashed.
	assert.False(t, e3.Directed)
	assert.Contains(t, e3.Subtypes, "Broken")
}

func TestParseNoXrefDataNodeIsSoftFailure(t *testing.T) {
	doc := `<Pathway Name="Empty"><DataNode GraphId="dn1" TextLabel="Orphan" Type="GeneProduct"/></Pathway>`
	_, err := Parse("wp002", "Empty", []byte(doc))
	require.Error(t, err)
}

func TestParseMalformedXMLIsParseError(t *testing.T) {
	_, err := Parse("wp003", "broken", []byte("<Pathway><DataNode"))
	require.Error(t, err)
}

func TestParseFallsBackToPathwayNameWhenRootNameMissing(t *testing.T) {
	doc := `<Pathway><DataNode GraphId="dn1"><Xref Database="Entrez Gene" ID="1"/></DataNode></Pathway>`
	raw, err := Parse("wp004", "Fallback Name", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Fallback Name", raw.Name)
}
