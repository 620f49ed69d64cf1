// Package kegglike parses the KGML-like pathway dialect:
// <entry>/<relation> documents whose entries carry KEGG-style gene tokens
// ("hsa:207 hsa:208", "hsa:5594+hsa:5595") that must be split into
// individual native gene identifiers, and whose <relation> elements become
// directed edges with named subtypes.
//
// Grounded on original_source/MapKinase_WebApp/build_kegg_index.py's
// parse_kgml/parse_gene_candidates/resolve_group_candidates, reimplemented
// over encoding/xml instead of xml.etree, with group-candidate resolution
// delegated to internal/pathwayindex.Normalize rather
// than duplicated here.
package kegglike

import (
	"encoding/xml"
	"regexp"
	"sort"
	"strconv"
	"strings"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

type xmlSubtype struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlComponent struct {
	ID string `xml:"id,attr"`
}

type xmlGraphics struct {
	Name string `xml:"name,attr"`
}

type xmlEntry struct {
	ID         string         `xml:"id,attr"`
	Type       string         `xml:"type,attr"`
	Name       string         `xml:"name,attr"`
	Graphics   xmlGraphics    `xml:"graphics"`
	Components []xmlComponent `xml:"component"`
}

type xmlRelation struct {
	Entry1   string       `xml:"entry1,attr"`
	Entry2   string       `xml:"entry2,attr"`
	Type     string       `xml:"type,attr"`
	Subtypes []xmlSubtype `xml:"subtype"`
}

type xmlPathway struct {
	XMLName   xml.Name      `xml:"pathway"`
	Title     string        `xml:"title,attr"`
	Class     string        `xml:"class,attr"`
	Entries   []xmlEntry    `xml:"entry"`
	Relations []xmlRelation `xml:"relation"`
}

// nodeTypeFor maps a KGML entry "type" attribute to the closed node-type
// enum.
func nodeTypeFor(entryType string) pathwayindex.NodeType {
	switch entryType {
	case "gene":
		return pathwayindex.NodeProteinLike
	case "compound":
		return pathwayindex.NodeMetabolite
	case "map":
		return pathwayindex.NodePathwayReference
	case "group":
		return pathwayindex.NodeGroup
	default:
		return pathwayindex.NodeOther
	}
}

var plusSplit = regexp.MustCompile(`\+`)
var wsSplit = regexp.MustCompile(`\s+`)

// parseGeneCandidates splits a KGML entry "name" attribute into individual
// gene ids, each returned under the "GeneID" namespace with its "prefix:"
// dropped. A bare (prefix-less) token is kept only once a prefix has
// appeared earlier in the same attribute — e.g. in "hsa:207 208", 208 is
// also taken as a gene — and dropped otherwise. Ids are deduplicated in
// first-seen order.
func parseGeneCandidates(nameAttr string) []pathwayindex.NativeID {
	var out []pathwayindex.NativeID
	seen := make(map[string]bool)
	currentPrefix := ""

	for _, raw := range wsSplit.Split(strings.TrimSpace(nameAttr), -1) {
		if raw == "" {
			continue
		}
		for _, sub := range plusSplit.Split(raw, -1) {
			token := strings.Trim(sub, " ,;")
			if token == "" {
				continue
			}
			var gene string
			if idx := strings.IndexByte(token, ':'); idx >= 0 {
				prefix := strings.TrimSpace(token[:idx])
				gene = strings.TrimSpace(token[idx+1:])
				if prefix == "" || gene == "" {
					continue
				}
				currentPrefix = prefix
			} else {
				if currentPrefix == "" {
					continue
				}
				gene = token
			}
			if gene == "" || seen[gene] {
				continue
			}
			seen[gene] = true
			out = append(out, pathwayindex.NativeID{Namespace: "GeneID", ID: gene})
		}
	}
	return out
}

// subtypeValueRelation maps a KGML subtype "value" molecular-event code to
// the relation type name it stands for.
var subtypeValueRelation = map[string]string{
	"+p":  "phosphorylation",
	"-p":  "dephosphorylation",
	"+u":  "ubiquitination",
	"+m":  "methylation",
	"+g":  "glycosylation",
	"+ub": "ubiquitination",
	"+s":  "sumoylation",
}

// subtypeValueLineStyle maps the same value codes, plus the plain KGML line
// glyphs, to the closed line-style vocabulary.
var subtypeValueLineStyle = map[string]string{
	"+p": "arrow", "-p": "arrow", "+u": "arrow", "+m": "arrow",
	"+g": "arrow", "+ub": "arrow", "+s": "arrow",
	"-->": "arrow", "..>": "dashed_arrow", "--|": "inhibition",
	"..|": "dashed_arrow", "---": "line", "...": "dashed_line",
}

// classifySubtypes derives the primary relation type, the ordered subtype
// token list, directedness, and (if present) a compound bridge entry id from
// a relation's <subtype> children. binding/association subtypes
// force an undirected "line"-style edge; a "compound" subtype with a numeric
// value names the bridge entry used to split the relation into two edges.
func classifySubtypes(subtypes []xmlSubtype) (primary string, tokens []string, directed bool, compoundEntry string) {
	directed = true
	for _, st := range subtypes {
		name := strings.TrimSpace(st.Name)
		value := strings.TrimSpace(st.Value)

		switch name {
		case "compound":
			compoundEntry = value
			tokens = append(tokens, "compound")
			continue
		case "binding/association", "binding", "association":
			directed = false
			tokens = append(tokens, "binding")
			if primary == "" {
				primary = "binding"
			}
			continue
		}

		if rel, ok := subtypeValueRelation[value]; ok {
			tokens = append(tokens, rel)
			if primary == "" {
				primary = rel
			}
		} else if name != "" {
			tokens = append(tokens, name)
			if primary == "" {
				primary = name
			}
		} else if style, ok := subtypeValueLineStyle[value]; ok {
			tokens = append(tokens, style)
		} else if value != "" {
			tokens = append(tokens, value)
		}

		if style, ok := subtypeValueLineStyle[value]; ok && (style == "line" || style == "dashed_line") {
			directed = false
		}
	}
	return primary, tokens, directed, compoundEntry
}

// Parse converts one KGML-like document into a RawPathway ready for
// internal/pathwayindex.Normalize.
func Parse(pathwayID pathwayindex.PathwayID, pathwayName string, doc []byte, includeClasses bool) (pathwayindex.RawPathway, error) {
	var root xmlPathway
	if err := xml.Unmarshal(doc, &root); err != nil {
		return pathwayindex.RawPathway{}, pkerrors.ParseErrorf(string(pathwayID), "malformed KGML-like document: %v", err)
	}

	title := root.Title
	if title == "" {
		title = pathwayName
	}
	if title == "" {
		title = string(pathwayID)
	}

	var classes []string
	if includeClasses && root.Class != "" {
		for _, c := range strings.Split(root.Class, ";") {
			c = strings.TrimSpace(c)
			if c != "" {
				classes = append(classes, c)
			}
		}
	}

	nodes := make([]pathwayindex.RawNode, 0, len(root.Entries))
	validIDs := make(map[string]bool, len(root.Entries))
	for _, e := range root.Entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			continue
		}
		if _, err := strconv.Atoi(id); err != nil {
			continue // non-integer entry ids are skipped
		}
		validIDs[id] = true
	}

	for _, e := range root.Entries {
		id := strings.TrimSpace(e.ID)
		if !validIDs[id] {
			continue
		}
		entryType := e.Type
		if entryType == "" {
			entryType = "unknown"
		}
		label := e.Graphics.Name
		if label == "" {
			label = e.Name
		}

		var comps []string
		for _, c := range e.Components {
			cid := strings.TrimSpace(c.ID)
			if cid != "" && validIDs[cid] {
				comps = append(comps, cid)
			}
		}

		var nativeIDs []pathwayindex.NativeID
		if entryType == "gene" {
			nativeIDs = parseGeneCandidates(e.Name)
		}

		nodes = append(nodes, pathwayindex.RawNode{
			LocalID:    id,
			Type:       nodeTypeFor(entryType),
			Label:      label,
			NativeIDs:  nativeIDs,
			Labels:     nonEmpty(label),
			Components: comps,
		})
	}
	// Stable order: numeric entry id ascending, matching the source document.
	sort.Slice(nodes, func(i, j int) bool {
		a, _ := strconv.Atoi(nodes[i].LocalID)
		b, _ := strconv.Atoi(nodes[j].LocalID)
		return a < b
	})

	edges := make([]pathwayindex.RawEdge, 0, len(root.Relations))
	for i, r := range root.Relations {
		e1 := strings.TrimSpace(r.Entry1)
		e2 := strings.TrimSpace(r.Entry2)
		if e1 == "" || e2 == "" || !validIDs[e1] || !validIDs[e2] {
			continue
		}
		relType := r.Type
		if relType == "" {
			relType = "unknown"
		}

		primary, subtypes, directed, compoundEntry := classifySubtypes(r.Subtypes)
		if primary != "" {
			relType = primary
		}

		// Compound splitting: a "compound" subtype whose
		// value names an entry id routes the relation through that entry
		// as an intermediate node, emitting two edges instead of one.
		if compoundEntry != "" && validIDs[compoundEntry] {
			edges = append(edges,
				pathwayindex.RawEdge{
					LocalID:      e1 + "->" + compoundEntry + ":" + strconv.Itoa(i+1) + "a",
					Src:          e1,
					Dst:          compoundEntry,
					Directed:     directed,
					RelationType: relType,
					Subtypes:     subtypes,
				},
				pathwayindex.RawEdge{
					LocalID:      compoundEntry + "->" + e2 + ":" + strconv.Itoa(i+1) + "b",
					Src:          compoundEntry,
					Dst:          e2,
					Directed:     directed,
					RelationType: relType,
					Subtypes:     subtypes,
				},
			)
			continue
		}

		edges = append(edges, pathwayindex.RawEdge{
			LocalID:      e1 + "->" + e2 + ":" + strconv.Itoa(i+1),
			Src:          e1,
			Dst:          e2,
			Directed:     directed,
			RelationType: relType,
			Subtypes:     subtypes,
		})
	}

	return pathwayindex.RawPathway{
		PathwayID: pathwayID,
		Name:      title,
		Source:    pathwayindex.SourcePrimary,
		Classes:   classes,
		Nodes:     nodes,
		Edges:     edges,
	}, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
