// Command pkindex-wiki builds a pathway index from the GPML-like source
// (internal/gpmllike) for one organism: resolve the organism code to a
// species name, fetch the species' pathway list, fetch and parse each
// pathway's GPML document, normalize it into the uniform graph, and
// persist the result as a single index document.
//
// Grounded on original_source/MapKinase_WebApp/build_wikipathways_index.py's
// CLI surface (--org, --out, --cache, --species, --max-pathways,
// --rate-limit, --id-mapping-table, --log-level), mirroring
// cmd/pkindex-kegg's structure with the JSON list/get endpoints in place of
// KEGG's flat-text ones.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pwayrank/pwayrank/internal/config"
	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/fetchcache"
	"github.com/pwayrank/pwayrank/internal/gpmllike"
	"github.com/pwayrank/pwayrank/internal/indexstore"
	"github.com/pwayrank/pwayrank/internal/logging"
	"github.com/pwayrank/pwayrank/internal/mapping"
	"github.com/pwayrank/pwayrank/internal/parsecache"
	"github.com/pwayrank/pwayrank/internal/pathwayindex"
	"github.com/pwayrank/pwayrank/internal/workerpool"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	flagOrg          string
	flagSpecies      string
	flagOut          string
	flagCacheDir     string
	flagMappingTable string
	flagMaxPathways  int
	flagRateLimit    float64
	flagWorkers      int
	flagAPIBase      string
	flagLogLevel     string
	flagConfigFile   string

	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(pkerrors.ExitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "pkindex-wiki",
	Short:   "Build a pathway index from a GPML-like pathway source for one organism",
	Version: Version,
	RunE:    runBuild,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagOrg, "org", "", "organism code (e.g. hsa) (required)")
	f.StringVar(&flagSpecies, "species", "", "species name override (default: resolved from --org)")
	f.StringVar(&flagOut, "out", "", "output index file path (required)")
	f.StringVar(&flagCacheDir, "cache", ".pwayrank-cache/wiki", "cache directory root")
	f.StringVar(&flagMappingTable, "mapping-table", "", "organism identifier-mapping TSV path")
	f.IntVar(&flagMaxPathways, "max-pathways", 0, "process at most N pathways (0 = no limit), for debugging")
	f.Float64Var(&flagRateLimit, "rate-limit", 0.25, "seconds between outbound requests")
	f.IntVar(&flagWorkers, "workers", 0, "bounded worker pool size (0 = GOMAXPROCS)")
	f.StringVar(&flagAPIBase, "api-base", "https://webservice.wikipathways.org", "pathway source API base URL")
	f.StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, error")
	f.StringVar(&flagConfigFile, "config", "", "config file path")

	rootCmd.SetVersionTemplate(`pkindex-wiki {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger = logrus.New()
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if flagOrg == "" {
		return pkerrors.BadInputf("--org", "organism code is required")
	}
	if flagOut == "" {
		return pkerrors.BadInputf("--out", "output path is required")
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		logger.WithError(err).Warn("failed to load config, using defaults")
		cfg = config.Default()
	}

	runID := uuid.New().String()
	logger.WithFields(logrus.Fields{"run_id": runID, "org": flagOrg}).Info("starting GPML-like index build")

	if err := logging.Initialize(logging.Config{
		Level:      logging.ParseLevel(flagLogLevel),
		OutputFile: filepath.Join(flagCacheDir, "build.log"),
		JSONFormat: cfg.Log.JSONFormat,
	}); err != nil {
		logger.WithError(err).Warn("file logger unavailable; continuing with stderr logging only")
	}
	logging.Info("build started", "run_id", runID, "org", flagOrg, "component", "pkindex-wiki")

	var table *mapping.Table
	if flagMappingTable != "" {
		table, err = mapping.Load(flagMappingTable)
		if err != nil {
			return pkerrors.Wrap(pkerrors.BadInput, flagMappingTable, "load mapping table", err)
		}
	} else {
		logger.Warn("no --mapping-table given; nodes will carry empty canonical_ids")
	}

	rateInterval := time.Duration(flagRateLimit * float64(time.Second))
	cache, err := fetchcache.New(fetchcache.Config{
		Dir:          filepath.Join(flagCacheDir, "raw"),
		RateInterval: rateInterval,
		MaxRetries:   5,
		ManifestPath: filepath.Join(flagCacheDir, "manifest.db"),
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := context.Background()

	species := gpmllike.ResolveSpeciesName(flagOrg, flagSpecies)
	listURL := flagAPIBase + "/listPathways?organism=" + url.QueryEscape(species) + "&format=json"
	listPath := filepath.Join(flagCacheDir, "list", flagOrg+".json")
	listText, err := cache.FetchTo(ctx, listURL, listPath)
	if err != nil {
		return err
	}

	entries := gpmllike.ParsePathwayListJSON(listText)
	sort.Slice(entries, func(i, j int) bool { return entries[i].PathwayID < entries[j].PathwayID })
	if flagMaxPathways > 0 && len(entries) > flagMaxPathways {
		entries = entries[:flagMaxPathways]
	}
	logging.Info("pathway list loaded", "count", len(entries), "species", species)

	builder := pathwayindex.NewBuilder(pathwayindex.SourceSecondary, flagOrg)

	err = workerpool.Run(ctx, entries, flagWorkers, func(ctx context.Context, entry gpmllike.PathwayListEntry) error {
		buildOnePathway(ctx, cache, builder, entry, table)
		return nil
	})
	if err != nil {
		return pkerrors.Wrap(pkerrors.InternalInvariant, flagOrg, "worker pool aborted", err)
	}

	idx := builder.Finish(time.Now())
	if err := pathwayindex.Validate(idx); err != nil {
		return err
	}

	if err := indexstore.Persist(flagOut, idx); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"pathways": idx.Meta.PathwayCount,
		"nodes":    idx.Meta.NodeCount,
		"edges":    idx.Meta.EdgeCount,
		"failures": len(idx.Meta.Failures),
		"out":      flagOut,
	}).Info("build complete")
	return nil
}

// buildOnePathway fetches, parses, and normalizes a single pathway,
// recording a BuildFailure on the builder for any soft failure
// (NotFound, FetchExhausted, ParseError) rather than aborting the run.
func buildOnePathway(ctx context.Context, cache *fetchcache.Cache, builder *pathwayindex.Builder, entry gpmllike.PathwayListEntry, table *mapping.Table) {
	pathwayID := string(entry.PathwayID)

	rawURL := flagAPIBase + "/getPathway?pwId=" + url.QueryEscape(pathwayID) + "&format=json"
	rawPath := filepath.Join(flagCacheDir, "raw", "secondary", flagOrg, pathwayID+".json")
	payload, err := cache.FetchTo(ctx, rawURL, rawPath)
	if err != nil {
		recordFailure(builder, entry.PathwayID, err)
		return
	}

	gpml, ok := gpmllike.ExtractGPML(payload)
	if !ok {
		recordFailure(builder, entry.PathwayID, pkerrors.ParseErrorf(pathwayID, "getPathway payload has no usable gpml field"))
		return
	}

	docHash := parsecache.HashDoc([]byte(gpml))
	parsedPath := filepath.Join(flagCacheDir, "parsed", "secondary", flagOrg, pathwayID+".parsed")

	raw, ok := parsecache.Load(parsedPath, docHash)
	if !ok {
		parsed, err := gpmllike.Parse(entry.PathwayID, entry.Name, []byte(gpml))
		if err != nil {
			recordFailure(builder, entry.PathwayID, err)
			return
		}
		raw = &parsed
		if err := parsecache.Save(parsedPath, docHash, parsed); err != nil {
			logging.Warn("parsed-cache write failed", "pathway_id", pathwayID, "error", err)
		}
	}

	pw, nodes, edges, warnings, err := pathwayindex.Normalize(*raw, table)
	if err != nil {
		recordFailure(builder, entry.PathwayID, err)
		return
	}
	for _, w := range warnings {
		logging.Warn("normalize warning", "pathway_id", string(w.PathwayID), "message", w.Message)
	}

	if err := builder.Add(*pw, nodes, edges); err != nil {
		recordFailure(builder, entry.PathwayID, err)
		return
	}
	logging.Debug("pathway built", "pathway_id", pathwayID, "nodes", pw.NodeCount, "edges", pw.EdgeCount)
}

func recordFailure(builder *pathwayindex.Builder, pathwayID pathwayindex.PathwayID, err error) {
	kind := pkerrors.KindOf(err)
	builder.AddFailure(pathwayindex.BuildFailure{
		PathwayID: pathwayID,
		Kind:      kind.String(),
		Message:   err.Error(),
	})
	logging.Warn("pathway build failed", "pathway_id", string(pathwayID), "kind", kind.String(), "error", err)
}
