// Package pathwayindex holds the uniform graph representation produced by
// the source parsers (internal/kegglike, internal/gpmllike) and consumed by
// the persister, the evidence scorer, and the ranker. It is the shared data
// model: nodes carrying candidate external identifiers, directed edges
// with relation subtypes, and precomputed 1-hop/2-hop pair tables.
//
// Grounded on a tagged-struct convention (an internal/models package in
// the reference tree this was adapted from) generalized to a closed
// node-type enum with a shared payload, rather than a class hierarchy; the
// one type-specific field (a group's Components) sits on the shared Node
// struct.
package pathwayindex

import "time"

// Source disambiguates the two pathway namespaces, which never overlap by
// construction.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// NodeType is the closed enum of node kinds.
type NodeType string

const (
	NodeProteinLike      NodeType = "protein_like"
	NodeMetabolite       NodeType = "metabolite"
	NodePathwayReference NodeType = "pathway_reference"
	NodeGroup            NodeType = "group"
	NodeOther            NodeType = "other"
)

// NativeID is a (database-namespace, native-id) pair exactly as declared by
// the source document.
type NativeID struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

// Candidates is the per-node mapping payload.
type Candidates struct {
	NativeIDs    []NativeID `json:"native_ids"`
	CanonicalIDs []string   `json:"canonical_ids"` // deduplicated, sorted lexicographically
	Labels       []string   `json:"labels"`        // debugging only, never used by scoring
}

// NodeID has the form "<pathway-id>:<local-entry-id>" and is stable across
// builds for the same input.
type NodeID string

// EdgeID uniquely identifies an edge within an index.
type EdgeID string

// PathwayID is an opaque short textual identifier, unique per source.
type PathwayID string

// Node is a pathway entry normalized into the uniform graph.
type Node struct {
	NodeID     NodeID     `json:"node_id"`
	PathwayID  PathwayID  `json:"pathway_id"`
	Type       NodeType   `json:"type"`
	Label      string     `json:"label"`
	Candidates Candidates `json:"candidates"`
	Degree     int        `json:"degree"`
	// Components holds the ordered member node ids of a group node; empty
	// for every other node type. A component cycle is not rejected:
	// Normalize keeps the listed members, clears the candidates of the
	// group where it detects the cycle, and records a warning.
	Components []NodeID `json:"components,omitempty"`
}

// Edge is a directed (or undirected) relation between two nodes in the same
// pathway. Self-loops are permitted and retained but excluded
// from both pair tables.
type Edge struct {
	EdgeID       EdgeID    `json:"edge_id"`
	PathwayID    PathwayID `json:"pathway_id"`
	Src          NodeID    `json:"src"`
	Dst          NodeID    `json:"dst"`
	Directed     bool      `json:"directed"`
	RelationType string    `json:"relation_type"`
	Subtypes     []string  `json:"subtypes"` // ordered set, open vocabulary
}

// Pair1 is one entry of the 1-hop pair table: an unordered pair {A, B} with
// A < B lexicographically, one per distinct pair (duplicate edges collapse).
type Pair1 struct {
	A NodeID `json:"a"`
	B NodeID `json:"b"`
}

// Pair2 is one entry of the 2-hop pair table: a triple (A, B, BridgeCount)
// with A < B, where BridgeCount is the number of distinct intermediate
// nodes M such that both {A,M} and {M,B} are 1-hop pairs.
type Pair2 struct {
	A           NodeID `json:"a"`
	B           NodeID `json:"b"`
	BridgeCount int    `json:"bridge_count"`
}

// Pathway aggregates everything the normalizer derived for one pathway
// document.
type Pathway struct {
	PathwayID  PathwayID `json:"pathway_id"`
	Name       string    `json:"name"`
	Source     Source    `json:"source"`
	NodeIDs    []NodeID  `json:"node_ids"` // sorted
	EdgeIDs    []EdgeID  `json:"edge_ids"` // sorted
	Pairs1     []Pair1   `json:"pairs1"`
	Pairs2     []Pair2   `json:"pairs2"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	Classes    []string  `json:"classes,omitempty"` // optional pathway class metadata
}

// BuildFailure records a pathway that was skipped during a build, naming
// the smallest affected unit so a caller can report which pathway failed
// and why without aborting the rest of the build.
type BuildFailure struct {
	PathwayID PathwayID `json:"pathway_id"`
	Kind      string    `json:"kind"` // "NotFound", "FetchExhausted", "ParseError", ...
	Message   string    `json:"message"`
}

// SchemaVersion is the schema_version the persister writes and the loader
// checks against.
const SchemaVersion = 1

// Meta carries index-level bookkeeping.
type Meta struct {
	SchemaVersion  int            `json:"schema_version"`
	Source         Source         `json:"source"`
	OrganismCode   string         `json:"organism_code"`
	CreatedAt      time.Time      `json:"created_at"` // UTC, ISO-8601
	PathwayCount   int            `json:"pathway_count"`
	NodeCount      int            `json:"node_count"`
	EdgeCount      int            `json:"edge_count"`
	Failures       []BuildFailure `json:"failures"`
}

// Index is the full document persisted by internal/indexstore.
type Index struct {
	Meta     Meta                `json:"meta"`
	Pathways []Pathway           `json:"pathways"` // sorted by pathway id
	Nodes    map[NodeID]Node     `json:"nodes"`     // sorted by node id on emission
	Edges    map[EdgeID]Edge     `json:"edges"`     // sorted by edge id on emission
}
