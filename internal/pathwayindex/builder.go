package pathwayindex

import (
	"sort"
	"sync"
	"time"

	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
)

// Builder is the single synchronization point workers merge per-pathway
// results into. Safe for concurrent use.
type Builder struct {
	mu       sync.Mutex
	source   Source
	organism string
	pathways map[PathwayID]Pathway
	nodes    map[NodeID]Node
	edges    map[EdgeID]Edge
	failures []BuildFailure
}

// NewBuilder creates an empty Builder for one (source, organism) index.
func NewBuilder(source Source, organismCode string) *Builder {
	return &Builder{
		source:   source,
		organism: organismCode,
		pathways: make(map[PathwayID]Pathway),
		nodes:    make(map[NodeID]Node),
		edges:    make(map[EdgeID]Edge),
	}
}

// Add merges one normalized pathway's nodes and edges into the index,
// enforcing global node/edge id uniqueness. A collision is a hard error for
// that pathway's addition only — the caller should record it as a build
// failure and continue with the next pathway, not abort the whole build.
func (b *Builder) Add(pw Pathway, nodes map[NodeID]Node, edges map[EdgeID]Edge) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.pathways[pw.PathwayID]; exists {
		return pkerrors.InternalInvariantf(string(pw.PathwayID), "duplicate pathway id in index")
	}
	for id := range nodes {
		if _, exists := b.nodes[id]; exists {
			return pkerrors.InternalInvariantf(string(id), "duplicate node id across pathways")
		}
	}
	for id := range edges {
		if _, exists := b.edges[id]; exists {
			return pkerrors.InternalInvariantf(string(id), "duplicate edge id across pathways")
		}
	}

	b.pathways[pw.PathwayID] = pw
	for id, n := range nodes {
		b.nodes[id] = n
	}
	for id, e := range edges {
		b.edges[id] = e
	}
	return nil
}

// AddFailure records a pathway that was skipped (NotFound, FetchExhausted,
// or ParseError) so the build continues but the omission is visible in
// meta.failures.
func (b *Builder) AddFailure(f BuildFailure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, f)
}

// Finish sorts everything deterministically and returns the completed Index.
func (b *Builder) Finish(now time.Time) *Index {
	b.mu.Lock()
	defer b.mu.Unlock()

	pathwayIDs := make([]PathwayID, 0, len(b.pathways))
	for id := range b.pathways {
		pathwayIDs = append(pathwayIDs, id)
	}
	sort.Slice(pathwayIDs, func(i, j int) bool { return pathwayIDs[i] < pathwayIDs[j] })

	pathways := make([]Pathway, 0, len(pathwayIDs))
	for _, id := range pathwayIDs {
		pathways = append(pathways, b.pathways[id])
	}

	failures := make([]BuildFailure, len(b.failures))
	copy(failures, b.failures)
	sort.Slice(failures, func(i, j int) bool { return failures[i].PathwayID < failures[j].PathwayID })

	return &Index{
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			Source:        b.source,
			OrganismCode:  b.organism,
			CreatedAt:     now.UTC(),
			PathwayCount:  len(pathways),
			NodeCount:     len(b.nodes),
			EdgeCount:     len(b.edges),
			Failures:      failures,
		},
		Pathways: pathways,
		Nodes:    cloneNodes(b.nodes),
		Edges:    cloneEdges(b.edges),
	}
}

func cloneNodes(src map[NodeID]Node) map[NodeID]Node {
	out := make(map[NodeID]Node, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneEdges(src map[EdgeID]Edge) map[EdgeID]Edge {
	out := make(map[EdgeID]Edge, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Validate checks the index invariants: every edge endpoint is a node in
// the same pathway, every pathway's id
// lists refer to existing global entries, and node_count/edge_count match
// list lengths. It is the belt-and-suspenders check run after Finish,
// surfacing an InternalInvariant error if the builder itself produced a
// broken index (which should not happen in correct code).
func Validate(idx *Index) error {
	for _, pw := range idx.Pathways {
		if len(pw.NodeIDs) != pw.NodeCount {
			return pkerrors.InternalInvariantf(string(pw.PathwayID), "node_count mismatch: %d vs %d", pw.NodeCount, len(pw.NodeIDs))
		}
		if len(pw.EdgeIDs) != pw.EdgeCount {
			return pkerrors.InternalInvariantf(string(pw.PathwayID), "edge_count mismatch: %d vs %d", pw.EdgeCount, len(pw.EdgeIDs))
		}
		nodeSet := make(map[NodeID]struct{}, len(pw.NodeIDs))
		for _, id := range pw.NodeIDs {
			if _, ok := idx.Nodes[id]; !ok {
				return pkerrors.InternalInvariantf(string(id), "pathway references missing node")
			}
			nodeSet[id] = struct{}{}
		}
		for _, id := range pw.EdgeIDs {
			e, ok := idx.Edges[id]
			if !ok {
				return pkerrors.InternalInvariantf(string(id), "pathway references missing edge")
			}
			if _, ok := nodeSet[e.Src]; !ok {
				return pkerrors.InternalInvariantf(string(id), "edge src not in owning pathway's nodes")
			}
			if _, ok := nodeSet[e.Dst]; !ok {
				return pkerrors.InternalInvariantf(string(id), "edge dst not in owning pathway's nodes")
			}
		}
	}
	return nil
}
