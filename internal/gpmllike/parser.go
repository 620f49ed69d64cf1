// Package gpmllike parses the GPML-like pathway dialect:
// DataNode/Group/Interaction documents whose edges are expressed as an
// ordered list of Graphics/Point elements with ArrowHead-based
// directionality, and whose DataNodes carry an explicit Database+ID Xref
// resolved through the Mapping Table rather than the token-splitting this
// package's sibling (internal/kegglike) needs.
//
// Grounded on original_source/MapKinase_WebApp/build_wikipathways_index.py's
// parse_gpml_nodes/parse_gpml_edges/choose_interaction_endpoints, with Group
// membership (via GroupRef scanning) and Label/Shape text-box nodes added
// on top — original_source never implemented pathway Groups, treating
// every DataNode independently.
package gpmllike

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

type xmlXref struct {
	Database string `xml:"Database,attr"`
	ID       string `xml:"ID,attr"`
}

type xmlDataNode struct {
	GraphId   string   `xml:"GraphId,attr"`
	TextLabel string   `xml:"TextLabel,attr"`
	Type      string   `xml:"Type,attr"`
	GroupRef  string   `xml:"GroupRef,attr"`
	Xref      *xmlXref `xml:"Xref"`
}

type xmlGroupEl struct {
	GraphId string `xml:"GraphId,attr"`
}

type xmlLabel struct {
	GraphId   string `xml:"GraphId,attr"`
	TextLabel string `xml:"TextLabel,attr"`
}

type xmlShape struct {
	GraphId   string `xml:"GraphId,attr"`
	TextLabel string `xml:"TextLabel,attr"`
}

type xmlPoint struct {
	GraphRef  string `xml:"GraphRef,attr"`
	ArrowHead string `xml:"ArrowHead,attr"`
}

type xmlGraphics struct {
	LineStyle string     `xml:"LineStyle,attr"`
	Points    []xmlPoint `xml:"Point"`
}

type xmlInteraction struct {
	GraphId  string      `xml:"GraphId,attr"`
	Type     string      `xml:"Type,attr"`
	Graphics xmlGraphics `xml:"Graphics"`
}

type xmlPathway struct {
	XMLName       xml.Name         `xml:"Pathway"`
	Name          string           `xml:"Name,attr"`
	Organism      string           `xml:"Organism,attr"`
	DataNodes     []xmlDataNode    `xml:"DataNode"`
	Groups        []xmlGroupEl     `xml:"Group"`
	Labels        []xmlLabel       `xml:"Label"`
	Shapes        []xmlShape       `xml:"Shape"`
	Interactions  []xmlInteraction `xml:"Interaction"`
	GraphicalLine []xmlInteraction `xml:"GraphicalLine"`
}

// nodeTypeFor maps a DataNode "Type" attribute to the closed node-type enum.
func nodeTypeFor(dataNodeType string) pathwayindex.NodeType {
	switch strings.ToLower(dataNodeType) {
	case "geneproduct", "protein", "rna":
		return pathwayindex.NodeProteinLike
	case "metabolite":
		return pathwayindex.NodeMetabolite
	case "pathway":
		return pathwayindex.NodePathwayReference
	default:
		return pathwayindex.NodeOther
	}
}

// Parse converts one GPML-like document into a RawPathway ready for
// internal/pathwayindex.Normalize. A document with no DataNode carrying an
// Xref is rejected as a soft ParseError: such a file cannot
// contribute any protein-evidence-bearing node.
func Parse(pathwayID pathwayindex.PathwayID, pathwayName string, doc []byte) (pathwayindex.RawPathway, error) {
	var root xmlPathway
	if err := xml.Unmarshal(doc, &root); err != nil {
		return pathwayindex.RawPathway{}, pkerrors.ParseErrorf(string(pathwayID), "malformed GPML-like document: %v", err)
	}

	name := root.Name
	if name == "" {
		name = pathwayName
	}
	if name == "" {
		name = string(pathwayID)
	}

	hasXref := false
	for _, dn := range root.DataNodes {
		if dn.Xref != nil && strings.TrimSpace(dn.Xref.Database) != "" && strings.TrimSpace(dn.Xref.ID) != "" {
			hasXref = true
			break
		}
	}
	if !hasXref {
		return pathwayindex.RawPathway{}, pkerrors.ParseErrorf(string(pathwayID), "no DataNode with an Xref found")
	}

	groupMembers := make(map[string][]string) // group GraphId -> member local ids, insertion order
	validIDs := make(map[string]bool)

	for _, g := range root.Groups {
		id := strings.TrimSpace(g.GraphId)
		if id != "" {
			validIDs[id] = true
			if _, ok := groupMembers[id]; !ok {
				groupMembers[id] = nil
			}
		}
	}
	for _, dn := range root.DataNodes {
		id := strings.TrimSpace(dn.GraphId)
		if id == "" {
			continue
		}
		validIDs[id] = true
		if ref := strings.TrimSpace(dn.GroupRef); ref != "" {
			groupMembers[ref] = append(groupMembers[ref], id)
		}
	}
	for _, l := range root.Labels {
		if id := strings.TrimSpace(l.GraphId); id != "" {
			validIDs[id] = true
		}
	}
	for _, s := range root.Shapes {
		if id := strings.TrimSpace(s.GraphId); id != "" {
			validIDs[id] = true
		}
	}

	var nodes []pathwayindex.RawNode

	for _, dn := range root.DataNodes {
		id := strings.TrimSpace(dn.GraphId)
		if id == "" {
			continue
		}
		label := strings.TrimSpace(dn.TextLabel)
		var nativeIDs []pathwayindex.NativeID
		if dn.Xref != nil {
			db := strings.TrimSpace(dn.Xref.Database)
			xid := strings.TrimSpace(dn.Xref.ID)
			if db != "" && xid != "" {
				nativeIDs = append(nativeIDs, pathwayindex.NativeID{Namespace: db, ID: xid})
			}
		}
		nodes = append(nodes, pathwayindex.RawNode{
			LocalID:   id,
			Type:      nodeTypeFor(dn.Type),
			Label:     label,
			NativeIDs: nativeIDs,
			Labels:    nonEmpty(label),
		})
	}

	for _, g := range root.Groups {
		id := strings.TrimSpace(g.GraphId)
		if id == "" {
			continue
		}
		nodes = append(nodes, pathwayindex.RawNode{
			LocalID:    id,
			Type:       pathwayindex.NodeGroup,
			Components: groupMembers[id],
		})
	}

	for _, l := range root.Labels {
		id := strings.TrimSpace(l.GraphId)
		if id == "" {
			continue
		}
		nodes = append(nodes, pathwayindex.RawNode{
			LocalID: id,
			Type:    pathwayindex.NodeOther,
			Label:   strings.TrimSpace(l.TextLabel),
		})
	}
	for _, s := range root.Shapes {
		id := strings.TrimSpace(s.GraphId)
		if id == "" {
			continue
		}
		nodes = append(nodes, pathwayindex.RawNode{
			LocalID: id,
			Type:    pathwayindex.NodeOther,
			Label:   strings.TrimSpace(s.TextLabel),
		})
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].LocalID < nodes[j].LocalID })

	var edges []pathwayindex.RawEdge
	allInteractions := make([]xmlInteraction, 0, len(root.Interactions)+len(root.GraphicalLine))
	allInteractions = append(allInteractions, root.Interactions...)
	allInteractions = append(allInteractions, root.GraphicalLine...)

	for i, rel := range allInteractions {
		relType := rel.Type
		if relType == "" {
			relType = "interaction"
		}
		points := rel.Graphics.Points
		if len(points) < 2 {
			continue
		}
		first, last := points[0], points[len(points)-1]
		firstRef := strings.TrimSpace(first.GraphRef)
		lastRef := strings.TrimSpace(last.GraphRef)
		if firstRef == "" || lastRef == "" || !validIDs[firstRef] || !validIDs[lastRef] {
			continue
		}

		firstArrow := strings.TrimSpace(first.ArrowHead)
		lastArrow := strings.TrimSpace(last.ArrowHead)

		directed := false
		src, dst := firstRef, lastRef
		switch {
		case lastArrow != "" && firstArrow == "":
			directed = true
			src, dst = firstRef, lastRef
		case firstArrow != "" && lastArrow == "":
			directed = true
			src, dst = lastRef, firstRef
		}

		var subtypes []string
		if firstArrow != "" {
			subtypes = append(subtypes, "start:"+firstArrow)
		}
		if lastArrow != "" {
			subtypes = append(subtypes, "end:"+lastArrow)
		}
		if strings.EqualFold(rel.Graphics.LineStyle, "Broken") {
			subtypes = append(subtypes, "Broken")
		}

		edges = append(edges, pathwayindex.RawEdge{
			LocalID:      firstRef + "->" + lastRef + ":" + strconv.Itoa(i+1),
			Src:          src,
			Dst:          dst,
			Directed:     directed,
			RelationType: relType,
			Subtypes:     subtypes,
		})
	}

	return pathwayindex.RawPathway{
		PathwayID: pathwayID,
		Name:      name,
		Source:    pathwayindex.SourceSecondary,
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
