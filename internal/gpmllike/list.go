package gpmllike

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// orgToSpeciesDefaults maps a handful of common organism codes to the
// species name the listPathways/getPathway endpoints expect, grounded on
// original_source/build_wikipathways_index.py's ORG_TO_SPECIES_DEFAULTS.
// An unrecognized code is returned unchanged — the caller can always
// override it explicitly.
var orgToSpeciesDefaults = map[string]string{
	"hsa": "Homo sapiens",
	"mmu": "Mus musculus",
	"rno": "Rattus norvegicus",
	"dme": "Drosophila melanogaster",
	"sce": "Saccharomyces cerevisiae",
}

// ResolveSpeciesName maps an organism code to the species name the
// WikiPathways-like listPathways endpoint expects, honoring an explicit
// override first.
func ResolveSpeciesName(organismCode, override string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}
	if name, ok := orgToSpeciesDefaults[strings.ToLower(organismCode)]; ok {
		return name
	}
	return organismCode
}

// PathwayListEntry is one row of a listPathways response.
type PathwayListEntry struct {
	PathwayID pathwayindex.PathwayID
	Name      string
}

// ParsePathwayListJSON parses a listPathways-style JSON payload
// (`{"pathways":[{"id":"...","name":"..."},...]}`), dropping rows with no
// id and deduplicating by id, grounded on build_wikipathways_index.py's
// parse_pathway_list.
func ParsePathwayListJSON(jsonText string) []PathwayListEntry {
	var out []PathwayListEntry
	seen := make(map[string]bool)
	rows := gjson.Get(jsonText, "pathways")
	if !rows.IsArray() {
		return out
	}
	for _, row := range rows.Array() {
		id := strings.TrimSpace(row.Get("id").String())
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		name := strings.TrimSpace(row.Get("name").String())
		if name == "" {
			name = id
		}
		out = append(out, PathwayListEntry{PathwayID: pathwayindex.PathwayID(id), Name: name})
	}
	return out
}

// ExtractGPML pulls the GPML document text out of a getPathway-style JSON
// payload (`{"pathway":{"gpml":"<...>",...}}`), matching
// extract_gpml_from_get_pathway_payload. Returns ok=false if the payload
// has no usable gpml field.
func ExtractGPML(jsonText string) (string, bool) {
	gpml := gjson.Get(jsonText, "pathway.gpml")
	if !gpml.Exists() || strings.TrimSpace(gpml.String()) == "" {
		return "", false
	}
	return gpml.String(), true
}
