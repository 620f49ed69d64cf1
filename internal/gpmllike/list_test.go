package gpmllike

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSpeciesNameUsesDefaultsOrOverride(t *testing.T) {
	assert.Equal(t, "Homo sapiens", ResolveSpeciesName("hsa", ""))
	assert.Equal(t, "Custom Name", ResolveSpeciesName("hsa", "Custom Name"))
	assert.Equal(t, "xyz", ResolveSpeciesName("xyz", ""))
}

func TestParsePathwayListJSONDedupsAndSkipsMissingIDs(t *testing.T) {
	payload := `{"pathways":[
		{"id":"WP1","name":"MAPK signaling"},
		{"id":"WP1","name":"duplicate"},
		{"name":"no id here"},
		{"id":"WP2"}
	]}`
	entries := ParsePathwayListJSON(payload)
	assert.Len(t, entries, 2)
	assert.Equal(t, "WP1", string(entries[0].PathwayID))
	assert.Equal(t, "MAPK signaling", entries[0].Name)
	assert.Equal(t, "WP2", string(entries[1].PathwayID))
	assert.Equal(t, "WP2", entries[1].Name)
}

func TestExtractGPML(t *testing.T) {
	gpml, ok := ExtractGPML(`{"pathway":{"gpml":"<Pathway/>"}}`)
	assert.True(t, ok)
	assert.Equal(t, "<Pathway/>", gpml)

	_, ok = ExtractGPML(`{"pathway":{}}`)
	assert.False(t, ok)

	_, ok = ExtractGPML(`{}`)
	assert.False(t, ok)
}
