// Command pkranker is the Scorer: it loads one or two pathway indices,
// aggregates user-supplied protein/site evidence tables, scores every node
// and pathway, and writes the globally ranked pathway list as JSON or TSV.
//
// Grounded on original_source/MapKinase_WebApp/m6_rank_pathways.py's
// end-to-end driver (load indices, read tables, score, rank, write),
// reimplemented as a single cobra root command in the style of
// cmd/pkindex-kegg and cmd/pkindex-wiki, per spec.md §6's exact flag
// surface and exit-code contract.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pwayrank/pwayrank/internal/config"
	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/evidence"
	"github.com/pwayrank/pwayrank/internal/indexstore"
	"github.com/pwayrank/pwayrank/internal/mapping"
	"github.com/pwayrank/pwayrank/internal/nodescorer"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
	"github.com/pwayrank/pwayrank/internal/ranker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	flagPrimaryIndex   string
	flagSecondaryIndex string
	flagProteinTable   string
	flagSiteTable      string
	flagOut            string
	flagFormat         string
	flagIDMap          string
	flagWeightsJSON    string
	flagMaxPathways    int
	flagLogLevel       string
	flagConfigFile     string

	flagProteinIDCol  string
	flagPColProt      string
	flagFCColProt     string
	flagPColPhospho   string
	flagFCColPhospho  string
	flagPColSite      string
	flagFCColSite     string
	flagSiteUniprot   string
	flagSiteKeyCol    string
	flagSiteKeyCols   []string
	flagRegAnnotCol   string
	flagLocprobCol    string
	flagLocprobMin    float64

	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(pkerrors.ExitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "pkranker",
	Short:   "Score pathway evidence and rank pathways by combined connectivity and node mass",
	Version: Version,
	RunE:    runScore,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagPrimaryIndex, "primary-index", "", "primary-source index file path")
	f.StringVar(&flagSecondaryIndex, "secondary-index", "", "secondary-source index file path")
	f.StringVar(&flagProteinTable, "protein-table", "", "protein evidence table path (required)")
	f.StringVar(&flagSiteTable, "site-table", "", "site evidence table path (optional)")
	f.StringVar(&flagOut, "out", "", "output file path (required)")
	f.StringVar(&flagFormat, "format", "json", "json or tsv")
	f.StringVar(&flagIDMap, "id-map", "", "organism identifier-mapping TSV path")
	f.StringVar(&flagWeightsJSON, "weights", "", "JSON object overriding default scoring weights")
	f.IntVar(&flagMaxPathways, "max-pathways", 0, "score at most N pathways per index (0 = no limit), for debugging")
	f.StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, error")
	f.StringVar(&flagConfigFile, "config", "", "config file path")

	f.StringVar(&flagProteinIDCol, "protein-id-col", "", "protein table join-key column override")
	f.StringVar(&flagPColProt, "p-col-prot", "", "protein table significance column override")
	f.StringVar(&flagFCColProt, "fc-col-prot", "", "protein table effect column override")
	f.StringVar(&flagPColPhospho, "p-col-phospho", "", "protein table phospho significance column override")
	f.StringVar(&flagFCColPhospho, "fc-col-phospho", "", "protein table phospho effect column override")
	f.StringVar(&flagPColSite, "p-col-site", "", "site table significance column override")
	f.StringVar(&flagFCColSite, "fc-col-site", "", "site table effect column override")
	f.StringVar(&flagSiteUniprot, "site-uniprot-col", "", "site table join-key column override")
	f.StringVar(&flagSiteKeyCol, "site-key-col", "", "site table single site-identity column override")
	f.StringSliceVar(&flagSiteKeyCols, "site-key-cols", nil, "site table composite site-identity columns override")
	f.StringVar(&flagRegAnnotCol, "reg-annot-col", "", "site table regulatory-annotation column override")
	f.StringVar(&flagLocprobCol, "locprob-col", "", "site table localization-probability column override")
	f.Float64Var(&flagLocprobMin, "locprob-min", 0, "localization-probability floor override (0 = use default)")

	rootCmd.SetVersionTemplate(`pkranker {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func runScore(cmd *cobra.Command, args []string) error {
	logger = logrus.New()
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if flagPrimaryIndex == "" && flagSecondaryIndex == "" {
		return pkerrors.BadInputf("--primary-index/--secondary-index", "at least one index is required")
	}
	if flagProteinTable == "" {
		return pkerrors.BadInputf("--protein-table", "protein table is required")
	}
	if flagOut == "" {
		return pkerrors.BadInputf("--out", "output path is required")
	}
	if flagFormat != "json" && flagFormat != "tsv" {
		return pkerrors.BadInputf("--format", "format must be \"json\" or \"tsv\", got %q", flagFormat)
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		logger.WithError(err).Warn("failed to load config, using defaults")
		cfg = config.Default()
	}
	weights := cfg.Weights
	if flagWeightsJSON != "" {
		if err := json.Unmarshal([]byte(flagWeightsJSON), &weights); err != nil {
			return pkerrors.Wrap(pkerrors.BadInput, "--weights", "parse weights override", err)
		}
	}

	cols := evidence.DefaultColumns()
	applyColumnOverrides(&cols)
	if flagLocprobMin > 0 {
		cols.LocprobMin = flagLocprobMin
		weights.LocprobMin = flagLocprobMin
	}

	var idTable *mapping.Table
	if flagIDMap != "" {
		idTable, err = mapping.Load(flagIDMap)
		if err != nil {
			return pkerrors.Wrap(pkerrors.BadInput, flagIDMap, "load id-map table", err)
		}
	}

	ev, warnings, err := evidence.Aggregate(flagProteinTable, flagSiteTable, cols, weights)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	var allResults []ranker.Result
	explanationByPathwayKey := make(map[string]string)

	for _, indexPath := range []string{flagPrimaryIndex, flagSecondaryIndex} {
		if indexPath == "" {
			continue
		}
		idx, err := indexstore.Load(indexPath)
		if err != nil {
			return err
		}
		if flagMaxPathways > 0 && len(idx.Pathways) > flagMaxPathways {
			idx.Pathways = idx.Pathways[:flagMaxPathways]
		}
		if idTable != nil {
			applyIDMap(idx, idTable)
		}

		states := nodescorer.Score(idx, ev)
		results := ranker.RankAll(idx, states, weights)
		allResults = append(allResults, results...)

		for _, pw := range idx.Pathways {
			explanationByPathwayKey[pathwayKey(pw.Source, pw.PathwayID)] = topNodeExplanation(pw, states)
		}
	}

	ranker.SortResults(allResults)

	switch flagFormat {
	case "json":
		err = writeJSON(flagOut, allResults)
	case "tsv":
		err = writeTSV(flagOut, allResults, explanationByPathwayKey)
	}
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"pathways": len(allResults), "out": flagOut}).Info("scoring complete")
	return nil
}

// topNodeExplanation returns the debug-only Explanation trace of pw's
// highest-scoring node's representative, tie-broken lexicographically by
// node id. Returns "" if no node in the pathway has evidence.
func topNodeExplanation(pw pathwayindex.Pathway, states map[pathwayindex.NodeID]nodescorer.NodeState) string {
	var best *nodescorer.NodeState
	var bestID pathwayindex.NodeID
	for _, nodeID := range pw.NodeIDs {
		s := states[nodeID]
		if s.RepresentativeCanonicalID == "" {
			continue
		}
		if best == nil || s.NodeScore > best.NodeScore || (s.NodeScore == best.NodeScore && nodeID < bestID) {
			sCopy := s
			best = &sCopy
			bestID = nodeID
		}
	}
	if best == nil {
		return ""
	}
	return best.RepExplanation
}

func applyColumnOverrides(cols *evidence.Columns) {
	if flagProteinIDCol != "" {
		cols.ProteinID = flagProteinIDCol
	}
	if flagPColProt != "" {
		cols.PProt = flagPColProt
	}
	if flagFCColProt != "" {
		cols.FCProt = flagFCColProt
	}
	if flagPColPhospho != "" {
		cols.PPhospho = flagPColPhospho
	}
	if flagFCColPhospho != "" {
		cols.FCPhospho = flagFCColPhospho
	}
	if flagPColSite != "" {
		cols.PSite = flagPColSite
	}
	if flagFCColSite != "" {
		cols.FCSite = flagFCColSite
	}
	if flagSiteUniprot != "" {
		cols.SiteUniprot = flagSiteUniprot
	}
	if flagSiteKeyCol != "" {
		cols.SiteKey = flagSiteKeyCol
	}
	if len(flagSiteKeyCols) > 0 {
		cols.SiteKeyCols = flagSiteKeyCols
	}
	if flagRegAnnotCol != "" {
		cols.RegAnnot = flagRegAnnotCol
	}
	if flagLocprobCol != "" {
		cols.Locprob = flagLocprobCol
	}
}

// applyIDMap extends every node's canonical-id candidates with whatever
// idTable resolves from its native ids, so an index built without (or with
// a different) mapping table can still be scored against idTable at score
// time — the Identifier Resolver's join of node candidates, mapping table,
// and evidence, performed one more time at the scorer boundary.
func applyIDMap(idx *pathwayindex.Index, idTable *mapping.Table) {
	for id, node := range idx.Nodes {
		seen := make(map[string]bool, len(node.Candidates.CanonicalIDs))
		merged := make([]string, 0, len(node.Candidates.CanonicalIDs))
		for _, c := range node.Candidates.CanonicalIDs {
			if !seen[c] {
				seen[c] = true
				merged = append(merged, c)
			}
		}
		for _, native := range node.Candidates.NativeIDs {
			for _, mapped := range idTable.Map(native.Namespace, native.ID) {
				if !seen[mapped] {
					seen[mapped] = true
					merged = append(merged, mapped)
				}
			}
		}
		sort.Strings(merged)
		node.Candidates.CanonicalIDs = merged
		idx.Nodes[id] = node
	}
}

func pathwayKey(source pathwayindex.Source, id pathwayindex.PathwayID) string {
	return string(source) + ":" + string(id)
}

func writeJSON(path string, results []ranker.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "marshal ranked results", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "write ranked results", err)
	}
	return nil
}

// writeTSV writes the ranked results as a flat table, with one debug-only
// column (top_node_explanation) naming the highest-scoring node's
// representative explanation trace for the row's pathway.
func writeTSV(path string, results []ranker.Result, explanationByPathwayKey map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "create tsv output", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	defer w.Flush()

	header := []string{"pathway_id", "source", "name", "connection_score", "node_mass", "final_score", "top_node_explanation"}
	if err := w.Write(header); err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, path, "write tsv header", err)
	}

	for _, r := range results {
		row := []string{
			string(r.PathwayID),
			string(r.Source),
			r.Name,
			formatFloat(r.ConnectionScore),
			formatFloat(r.NodeMass),
			formatFloat(r.FinalScore),
			explanationByPathwayKey[pathwayKey(r.Source, r.PathwayID)],
		}
		if err := w.Write(row); err != nil {
			return pkerrors.Wrap(pkerrors.InternalInvariant, path, "write tsv row", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
