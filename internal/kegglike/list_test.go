package kegglike

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePathwayID(t *testing.T) {
	assert.Equal(t, "hsa00010", NormalizePathwayID("path:hsa00010"))
	assert.Equal(t, "K00844", NormalizePathwayID("ko:K00844"))
	assert.Equal(t, "hsa00010", NormalizePathwayID("hsa00010"))
	assert.Equal(t, "", NormalizePathwayID("   "))
}

func TestParsePathwayListFiltersByOrganismAndDedups(t *testing.T) {
	text := "path:hsa00010\tGlycolysis\n" +
		"path:eco00010\tGlycolysis (E. coli)\n" +
		"path:hsa00010\tGlycolysis duplicate\n" +
		"malformed line with no tab\n" +
		"path:hsa00020\tCitrate cycle\n"

	entries := ParsePathwayList(text, "hsa")
	assert.Len(t, entries, 2)
	assert.Equal(t, "hsa00010", string(entries[0].PathwayID))
	assert.Equal(t, "Glycolysis", entries[0].Name)
	assert.Equal(t, "hsa00020", string(entries[1].PathwayID))
}
