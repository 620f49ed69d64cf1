// Package nodescorer picks each pathway node's representative evidence
// candidate and exposes a per-node score and regulatory gate for the ranker.
//
// Grounded on original_source/MapKinase_WebApp/m6_rank_pathways.py's
// node-representative selection (max single_score, lexicographic
// tie-break), extended with source-A's extra canonical-id-regex candidate
// collection from native_ids as literally described alongside
// internal/evidence's accession normalization.
package nodescorer

import (
	"regexp"
	"sort"

	"github.com/pwayrank/pwayrank/internal/evidence"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// canonicalIDPattern matches the canonical protein identifier shape: an
// uppercase alphanumeric token 6-10 characters long, with an optional
// "-n" isoform suffix.
var canonicalIDPattern = regexp.MustCompile(`^[A-Z0-9]{6,10}(-\d+)?$`)

// NodeState is a node's scored evidence summary.
type NodeState struct {
	NodeID                    pathwayindex.NodeID        `json:"node_id"`
	NodeScore                 float64                    `json:"node_score"`
	NodeHasReg                bool                       `json:"node_has_reg"`
	RepresentativeCanonicalID string                     `json:"representative_canonical_id"`
	RepTopRegSites            []evidence.SiteContribution `json:"rep_top_reg_sites"`
	// RepExplanation is debug-only: the representative's Explanation
	// trace, surfaced by the scorer CLI's --format tsv output.
	RepExplanation string `json:"rep_explanation"`
}

// Score computes a NodeState for every node in idx against ev.
func Score(idx *pathwayindex.Index, ev *evidence.Evidence) map[pathwayindex.NodeID]NodeState {
	pathwaySource := make(map[pathwayindex.PathwayID]pathwayindex.Source, len(idx.Pathways))
	for _, pw := range idx.Pathways {
		pathwaySource[pw.PathwayID] = pw.Source
	}

	out := make(map[pathwayindex.NodeID]NodeState, len(idx.Nodes))
	for nodeID, node := range idx.Nodes {
		out[nodeID] = scoreNode(node, pathwaySource[node.PathwayID], ev)
	}
	return out
}

func scoreNode(node pathwayindex.Node, source pathwayindex.Source, ev *evidence.Evidence) NodeState {
	candidates := candidateTokens(node, source)

	var representative *evidence.ProteinEvidence
	var repAccession string
	hasReg := false

	for _, token := range candidates {
		pe, ok := ev.Lookup(token)
		if !ok {
			continue
		}
		if pe.HasRegulatoryEvidence {
			hasReg = true
		}
		if representative == nil ||
			pe.SingleScore > representative.SingleScore ||
			(pe.SingleScore == representative.SingleScore && pe.CanonicalID < representative.CanonicalID) {
			representative = pe
			repAccession = token
		}
	}

	state := NodeState{
		NodeID:     node.NodeID,
		NodeHasReg: hasReg,
	}
	if representative != nil {
		state.NodeScore = representative.SingleScore
		state.RepresentativeCanonicalID = repAccession
		state.RepTopRegSites = representative.TopRegSites
		state.RepExplanation = representative.Explanation
	}
	return state
}

// candidateTokens collects a node's candidate identifiers: its resolved
// canonical ids always, plus — for source-A nodes only — any native-id
// token that syntactically looks like a canonical id, in case the mapping
// table didn't resolve it but it is already in canonical form.
func candidateTokens(node pathwayindex.Node, source pathwayindex.Source) []string {
	seen := make(map[string]bool, len(node.Candidates.CanonicalIDs))
	var out []string
	for _, id := range node.Candidates.CanonicalIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if source == pathwayindex.SourcePrimary {
		for _, nid := range node.Candidates.NativeIDs {
			if canonicalIDPattern.MatchString(nid.ID) && !seen[nid.ID] {
				seen[nid.ID] = true
				out = append(out, nid.ID)
			}
		}
	}
	sort.Strings(out)
	return out
}
