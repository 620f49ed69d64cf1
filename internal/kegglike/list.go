package kegglike

import (
	"strings"

	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// NormalizePathwayID strips a "path:" prefix and any "<db>:" prefix from a
// raw pathway identifier, e.g. "path:hsa00010" -> "hsa00010",
// "ko:K00844" -> "K00844" (grounded on normalize_pathway_id).
func NormalizePathwayID(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "path:")
	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		value = value[idx+1:]
	}
	return value
}

// PathwayListEntry is one row of an organism's pathway listing.
type PathwayListEntry struct {
	PathwayID pathwayindex.PathwayID
	Name      string
}

// ParsePathwayList parses a tab-separated "<raw id>\t<name>" listing
// (KEGG's list/pathway/<org> response), keeping only entries whose
// normalized id belongs to organismCode and dropping duplicates
// (grounded on parse_pathway_list).
func ParsePathwayList(text, organismCode string) []PathwayListEntry {
	var out []PathwayListEntry
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		id := NormalizePathwayID(parts[0])
		if id == "" || !strings.HasPrefix(id, organismCode) {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, PathwayListEntry{
			PathwayID: pathwayindex.PathwayID(id),
			Name:      strings.TrimSpace(parts[1]),
		})
	}
	return out
}
