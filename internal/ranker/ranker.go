// Package ranker combines per-node evidence scores with a pathway's
// precomputed pair tables into a single final score per pathway, then sorts
// every pathway result across every source into one ranked list.
//
// Grounded on original_source/MapKinase_WebApp/m6_rank_pathways.py's
// connectivity-plus-node-mass scoring formula, carrying its weighted-term
// shape the way a reference internal/risk/calculator.go Config composes
// several weighted risk factors into one score.
package ranker

import (
	"math"
	"sort"

	"github.com/pwayrank/pwayrank/internal/config"
	"github.com/pwayrank/pwayrank/internal/nodescorer"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
)

// PairContribution is one pair's weighted contribution to a pathway's
// connectivity score, retained for the ranker's top-contributor report.
type PairContribution struct {
	A            pathwayindex.NodeID `json:"a"`
	B            pathwayindex.NodeID `json:"b"`
	Contribution float64             `json:"contribution"`
}

// Result is one pathway's scored outcome.
type Result struct {
	PathwayID       pathwayindex.PathwayID `json:"pathway_id"`
	Source          pathwayindex.Source    `json:"source"`
	Name            string                 `json:"name"`
	ConnectionScore float64                `json:"connection_score"`
	NodeMass        float64                `json:"node_mass"`
	FinalScore      float64                `json:"final_score"`
	Top1Hop         []PairContribution     `json:"top_1_hop"`
	Top2Hop         []PairContribution     `json:"top_2_hop"`
}

// RankPathway scores a single pathway against its nodes' scored states.
func RankPathway(pw pathwayindex.Pathway, states map[pathwayindex.NodeID]nodescorer.NodeState, weights config.WeightsConfig) Result {
	var conn1, conn2 float64
	var top1 []PairContribution
	var top2 []PairContribution

	for _, pair := range pw.Pairs1 {
		a, b := states[pair.A], states[pair.B]
		if !a.NodeHasReg || !b.NodeHasReg {
			continue
		}
		contribution := a.NodeScore * b.NodeScore
		conn1 += contribution
		top1 = append(top1, PairContribution{A: pair.A, B: pair.B, Contribution: contribution})
	}

	for _, pair := range pw.Pairs2 {
		a, b := states[pair.A], states[pair.B]
		if !a.NodeHasReg || !b.NodeHasReg {
			continue
		}
		bridgeWeight := weights.TwoHopBase * math.Log(1+float64(pair.BridgeCount))
		contribution := a.NodeScore * b.NodeScore * bridgeWeight
		conn2 += contribution
		top2 = append(top2, PairContribution{A: pair.A, B: pair.B, Contribution: contribution})
	}

	var connectionScore float64
	if pw.NodeCount > 0 {
		connectionScore = (conn1 + weights.Conn2Weight*conn2) / math.Pow(float64(pw.NodeCount), weights.Alpha)
	}

	nodeMass := computeNodeMass(pw.NodeIDs, states, weights.NodeMassTopK)
	finalScore := connectionScore + weights.NodeMassWeight*nodeMass

	topEdgesN := weights.TopEdgesN
	return Result{
		PathwayID:       pw.PathwayID,
		Source:          pw.Source,
		Name:            pw.Name,
		ConnectionScore: connectionScore,
		NodeMass:        nodeMass,
		FinalScore:      finalScore,
		Top1Hop:         topContributions(top1, topEdgesN),
		Top2Hop:         topContributions(top2, topEdgesN),
	}
}

func computeNodeMass(nodeIDs []pathwayindex.NodeID, states map[pathwayindex.NodeID]nodescorer.NodeState, topK int) float64 {
	if topK <= 0 {
		topK = 10
	}
	scores := make([]float64, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if s := states[id].NodeScore; s > 0 {
			scores = append(scores, s)
		}
	}
	if len(scores) == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	if len(scores) > topK {
		scores = scores[:topK]
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func topContributions(pairs []PairContribution, n int) []PairContribution {
	if n <= 0 {
		n = 10
	}
	sorted := make([]PairContribution, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Contribution != sorted[j].Contribution {
			return sorted[i].Contribution > sorted[j].Contribution
		}
		if sorted[i].A != sorted[j].A {
			return sorted[i].A < sorted[j].A
		}
		return sorted[i].B < sorted[j].B
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RankAll scores every pathway in idx and returns them in the global total
// order: final_score descending, then source ascending, then pathway_id
// ascending.
func RankAll(idx *pathwayindex.Index, states map[pathwayindex.NodeID]nodescorer.NodeState, weights config.WeightsConfig) []Result {
	out := make([]Result, 0, len(idx.Pathways))
	for _, pw := range idx.Pathways {
		out = append(out, RankPathway(pw, states, weights))
	}
	SortResults(out)
	return out
}

// SortResults imposes the global ranking order on results in place, usable
// both within one index's results and across results merged from multiple
// indices (primary and secondary).
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		if results[i].Source != results[j].Source {
			return results[i].Source < results[j].Source
		}
		return results[i].PathwayID < results[j].PathwayID
	})
}
