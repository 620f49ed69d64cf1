package pathwayindex

import (
	"sort"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/mapping"
)

// RawNode is a parser's un-normalized entry: local ids instead of global
// NodeIDs, native ids not yet resolved to canonical ids. Both
// internal/kegglike and internal/gpmllike emit these so the normalizer can
// stay source-agnostic.
type RawNode struct {
	LocalID    string
	Type       NodeType
	Label      string
	NativeIDs  []NativeID
	Labels     []string
	Components []string // local ids of group members; empty for non-group nodes
}

// RawEdge is a parser's un-normalized edge.
type RawEdge struct {
	LocalID      string
	Src          string
	Dst          string
	Directed     bool
	RelationType string
	Subtypes     []string
}

// RawPathway is everything one parser invocation produces for a single
// pathway document, before global node/edge ids are assigned.
type RawPathway struct {
	PathwayID PathwayID
	Name      string
	Source    Source
	Classes   []string
	Nodes     []RawNode
	Edges     []RawEdge
}

// Warning is a non-fatal build-time diagnostic (e.g. a group cycle) recorded
// alongside a normalized pathway.
type Warning struct {
	PathwayID PathwayID
	Message   string
}

// Normalize converts one RawPathway into the uniform graph representation:
// it assigns stable node/edge ids, resolves group candidates by memoized
// DFS, resolves native ids to canonical ids through the Mapping Table,
// computes degree, and builds the 1-hop/2-hop pair tables. It returns a
// ParseError (non-fatal; the caller skips the pathway) if an edge endpoint
// is unknown.
func Normalize(raw RawPathway, table *mapping.Table) (*Pathway, map[NodeID]Node, map[EdgeID]Edge, []Warning, error) {
	localToGlobal := make(map[string]NodeID, len(raw.Nodes))
	for _, n := range raw.Nodes {
		localToGlobal[n.LocalID] = NodeID(string(raw.PathwayID) + ":" + n.LocalID)
	}

	byLocal := make(map[string]*RawNode, len(raw.Nodes))
	for i := range raw.Nodes {
		byLocal[raw.Nodes[i].LocalID] = &raw.Nodes[i]
	}

	warnings := resolveGroupCandidates(raw.PathwayID, byLocal)

	nodes := make(map[NodeID]Node, len(raw.Nodes))
	for _, n := range raw.Nodes {
		gid := localToGlobal[n.LocalID]
		comps := make([]NodeID, 0, len(n.Components))
		for _, c := range n.Components {
			if g, ok := localToGlobal[c]; ok {
				comps = append(comps, g)
			}
		}
		canon := resolveCanonical(n.NativeIDs, table)
		nodes[gid] = Node{
			NodeID:    gid,
			PathwayID: raw.PathwayID,
			Type:      n.Type,
			Label:     n.Label,
			Candidates: Candidates{
				NativeIDs:    n.NativeIDs,
				CanonicalIDs: canon,
				Labels:       n.Labels,
			},
			Components: comps,
		}
	}

	edges := make(map[EdgeID]Edge, len(raw.Edges))
	for _, e := range raw.Edges {
		srcID, ok := localToGlobal[e.Src]
		if !ok {
			return nil, nil, nil, warnings, pkerrors.ParseErrorf(string(raw.PathwayID), "edge %s references unknown src entry %q", e.LocalID, e.Src)
		}
		dstID, ok := localToGlobal[e.Dst]
		if !ok {
			return nil, nil, nil, warnings, pkerrors.ParseErrorf(string(raw.PathwayID), "edge %s references unknown dst entry %q", e.LocalID, e.Dst)
		}
		eid := EdgeID(string(raw.PathwayID) + ":" + e.LocalID)
		edges[eid] = Edge{
			EdgeID:       eid,
			PathwayID:    raw.PathwayID,
			Src:          srcID,
			Dst:          dstID,
			Directed:     e.Directed,
			RelationType: e.RelationType,
			Subtypes:     e.Subtypes,
		}
	}

	adj := buildAdjacency(edges)
	for gid, n := range nodes {
		n.Degree = len(adj[gid])
		nodes[gid] = n
	}

	pairs1 := buildPairs1(adj)
	pairs2 := buildPairs2(adj)

	nodeIDs := make([]NodeID, 0, len(nodes))
	for id := range nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	edgeIDs := make([]EdgeID, 0, len(edges))
	for id := range edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Slice(edgeIDs, func(i, j int) bool { return edgeIDs[i] < edgeIDs[j] })

	pw := &Pathway{
		PathwayID: raw.PathwayID,
		Name:      raw.Name,
		Source:    raw.Source,
		NodeIDs:   nodeIDs,
		EdgeIDs:   edgeIDs,
		Pairs1:    pairs1,
		Pairs2:    pairs2,
		NodeCount: len(nodeIDs),
		EdgeCount: len(edgeIDs),
		Classes:   raw.Classes,
	}

	return pw, nodes, edges, warnings, nil
}

// resolveGroupCandidates performs a memoized depth-first walk: a group's
// candidates are the union of its components',
// resolved recursively; a cycle empties the offending group's candidate set
// and is recorded as a warning rather than aborting the build.
func resolveGroupCandidates(pathwayID PathwayID, byLocal map[string]*RawNode) []Warning {
	var warnings []Warning
	resolved := make(map[string]bool, len(byLocal))
	visiting := make(map[string]bool, len(byLocal))
	cyclic := make(map[string]bool)

	var visit func(localID string)
	visit = func(localID string) {
		if resolved[localID] {
			return
		}
		n, ok := byLocal[localID]
		if !ok || n.Type != NodeGroup {
			resolved[localID] = true
			return
		}
		if visiting[localID] {
			cyclic[localID] = true
			return
		}
		visiting[localID] = true

		var unionNative []NativeID
		var unionLabels []string
		seenNative := make(map[NativeID]bool)
		seenLabels := make(map[string]bool)
		for _, comp := range n.Components {
			visit(comp)
			if cyclic[comp] {
				continue
			}
			compNode := byLocal[comp]
			if compNode == nil {
				continue
			}
			for _, nid := range compNode.NativeIDs {
				if !seenNative[nid] {
					seenNative[nid] = true
					unionNative = append(unionNative, nid)
				}
			}
			for _, lbl := range compNode.Labels {
				if !seenLabels[lbl] {
					seenLabels[lbl] = true
					unionLabels = append(unionLabels, lbl)
				}
			}
		}
		n.NativeIDs = unionNative
		n.Labels = unionLabels

		visiting[localID] = false
		resolved[localID] = true
	}

	for localID := range byLocal {
		visit(localID)
	}

	for localID := range cyclic {
		n := byLocal[localID]
		n.NativeIDs = nil
		n.Labels = nil
		warnings = append(warnings, Warning{
			PathwayID: pathwayID,
			Message:   "group " + localID + " participates in a component cycle; candidates cleared",
		})
	}

	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Message < warnings[j].Message })
	return warnings
}

// resolveCanonical resolves a node's native ids through the mapping table
// into a deduplicated, lexicographically sorted list of canonical ids.
func resolveCanonical(nativeIDs []NativeID, table *mapping.Table) []string {
	if table == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, nid := range nativeIDs {
		for _, canon := range table.Map(nid.Namespace, nid.ID) {
			if !seen[canon] {
				seen[canon] = true
				out = append(out, canon)
			}
		}
	}
	sort.Strings(out)
	return out
}

// buildAdjacency builds the undirected-projection neighbor sets used for
// degree, pairs1, and pairs2. Self-loops are never added (a node is never
// its own neighbor), and a duplicate edge between the same two nodes (in
// either direction) collapses to one adjacency entry, the chosen
// resolution for the "same edge in opposite directions" ambiguity.
func buildAdjacency(edges map[EdgeID]Edge) map[NodeID]map[NodeID]struct{} {
	adj := make(map[NodeID]map[NodeID]struct{})
	ensure := func(id NodeID) {
		if adj[id] == nil {
			adj[id] = make(map[NodeID]struct{})
		}
	}
	for _, e := range edges {
		if e.Src == e.Dst {
			ensure(e.Src)
			continue
		}
		ensure(e.Src)
		ensure(e.Dst)
		adj[e.Src][e.Dst] = struct{}{}
		adj[e.Dst][e.Src] = struct{}{}
	}
	return adj
}

func buildPairs1(adj map[NodeID]map[NodeID]struct{}) []Pair1 {
	seen := make(map[Pair1]struct{})
	for a, neighbors := range adj {
		for b := range neighbors {
			pair := orderedPair(a, b)
			seen[pair] = struct{}{}
		}
	}
	out := make([]Pair1, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// buildPairs2 enumerates, for every node with ≥2 neighbors, all unordered
// neighbor pairs, accumulating bridge_count — Θ(Σdeg(v)²) per pathway.
func buildPairs2(adj map[NodeID]map[NodeID]struct{}) []Pair2 {
	counts := make(map[Pair1]int)
	for _, neighbors := range adj {
		if len(neighbors) < 2 {
			continue
		}
		ns := make([]NodeID, 0, len(neighbors))
		for n := range neighbors {
			ns = append(ns, n)
		}
		sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
		for i := 0; i < len(ns); i++ {
			for j := i + 1; j < len(ns); j++ {
				pair := orderedPair(ns[i], ns[j])
				counts[pair]++
			}
		}
	}
	out := make([]Pair2, 0, len(counts))
	for p, c := range counts {
		out = append(out, Pair2{A: p.A, B: p.B, BridgeCount: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

func orderedPair(a, b NodeID) Pair1 {
	if a < b {
		return Pair1{A: a, B: b}
	}
	return Pair1{A: b, B: a}
}
