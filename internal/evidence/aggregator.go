// Package evidence condenses user-supplied per-protein and per-site
// proteomic/phosphoproteomic measurements into a single per-protein evidence
// score with a regulatory gate, the first stage of the two-stage scorer.
//
// Grounded on original_source/MapKinase_WebApp/m6_rank_pathways.py's
// per-protein rollup (prot_sig/prot_eff/phospho_sig/phospho_eff maxima,
// top-k site aggregation, single_score composition), reading tables through
// internal/tabular the way internal/mapping reads the identifier-mapping
// TSV, and taking its overridable weights from internal/config.WeightsConfig
// the way a reference internal/risk/calculator.go Config carries its
// weighted-term coefficients.
package evidence

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pwayrank/pwayrank/internal/config"
	pkerrors "github.com/pwayrank/pwayrank/internal/errors"
	"github.com/pwayrank/pwayrank/internal/tabular"
)

// SiteContribution is one site's weighted contribution to a protein's
// regulatory or PTM evidence.
type SiteContribution struct {
	Key          string  `json:"key"`
	Contribution float64 `json:"contribution"`
}

// ProteinEvidence is the Evidence Aggregator's per-protein output.
type ProteinEvidence struct {
	CanonicalID           string             `json:"canonical_id"`
	SingleScore           float64            `json:"single_score"`
	RegEvidence           float64            `json:"reg_evidence"`
	PTMEvidence           float64            `json:"ptm_evidence"`
	ABEvidence            float64            `json:"ab_evidence"`
	HasRegulatoryEvidence bool               `json:"has_regulatory_evidence"`
	TopRegSites           []SiteContribution `json:"top_reg_sites"`
	// Explanation is a short human-readable trace of which sites
	// contributed, e.g. "reg:2 sites, ptm:1 site". Debug-only: never
	// read by the scorer or ranker, only surfaced in --format tsv output.
	Explanation string `json:"explanation"`
}

// Evidence is the queryable result of Aggregate: protein evidence records
// addressable by exact accession, with isoform-suffix fallback per §4.G's
// UniProt normalization rule.
type Evidence struct {
	byAccession map[string]*ProteinEvidence
	byBase      map[string][]*ProteinEvidence
}

// Lookup resolves a raw candidate token (a node's canonical id or native id
// token) to a ProteinEvidence record. It first tries an exact match on the
// upper-cased, first-token accession; failing that, it falls back to the
// base accession (stripped of an isoform "-n" suffix), picking the record
// with the highest single_score among same-base matches, ties broken
// lexicographically by accession.
func (e *Evidence) Lookup(token string) (*ProteinEvidence, bool) {
	if e == nil {
		return nil, false
	}
	key := NormalizeAccession(token)
	if key == "" {
		return nil, false
	}
	if pe, ok := e.byAccession[key]; ok {
		return pe, true
	}
	candidates := e.byBase[baseAccession(key)]
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.SingleScore > best.SingleScore ||
			(c.SingleScore == best.SingleScore && c.CanonicalID < best.CanonicalID) {
			best = c
		}
	}
	return best, true
}

// accessionSplit matches the separators a multi-token accession cell may use.
var accessionSplit = func(r rune) bool {
	switch r {
	case ',', ';', '|', ' ', '\t':
		return true
	}
	return false
}

// NormalizeAccession upper-cases and takes the first token of a raw
// accession cell, preserving an isoform "-n" suffix if present.
func NormalizeAccession(raw string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(raw), accessionSplit)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func baseAccession(accession string) string {
	if i := strings.IndexByte(accession, '-'); i >= 0 {
		return accession[:i]
	}
	return accession
}

type accumulator struct {
	protSigMax    float64
	protEffMax    float64
	phosphoSigMax float64
	phosphoEffMax float64
	regSites      []SiteContribution
	ptmSites      []SiteContribution
}

// Aggregate reads the required protein table and optional site table at the
// given paths and produces the per-protein Evidence. A missing site table
// path (empty string) is not an error: phospho/site terms simply contribute
// zero. Missing named columns degrade gracefully (logged as warnings, term
// contributes zero) rather than failing the run.
func Aggregate(proteinTablePath, siteTablePath string, cols Columns, weights config.WeightsConfig) (*Evidence, []string, error) {
	accs := make(map[string]*accumulator)
	var warnings []string

	if err := loadProteinTable(proteinTablePath, cols, weights, accs, &warnings); err != nil {
		return nil, warnings, err
	}
	if siteTablePath != "" {
		if err := loadSiteTable(siteTablePath, cols, weights, accs, &warnings); err != nil {
			return nil, warnings, err
		}
	}

	return finalize(accs, weights), warnings, nil
}

func loadProteinTable(path string, cols Columns, weights config.WeightsConfig, accs map[string]*accumulator, warnings *[]string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "open protein table", err)
	}
	defer f.Close()

	tr := tabular.NewReaderDelim(f, tabular.DelimiterFor(path))
	if _, err := tr.ReadHeader(); err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "read protein table header", err)
	}

	idCol, ok := tr.Column(cols.ProteinID)
	if !ok {
		return pkerrors.BadInputf(cols.ProteinID, "protein table missing required column %q", cols.ProteinID)
	}
	pProtCol, hasPProt := tr.Column(cols.PProt)
	fcProtCol, hasFCProt := tr.Column(cols.FCProt)
	pPhosphoCol, hasPPhospho := tr.Column(cols.PPhospho)
	fcPhosphoCol, hasFCPhospho := tr.Column(cols.FCPhospho)

	warnMissingColumn(warnings, "protein table", cols.PProt, hasPProt)
	warnMissingColumn(warnings, "protein table", cols.FCProt, hasFCProt)
	warnMissingColumn(warnings, "protein table", cols.PPhospho, hasPPhospho)
	warnMissingColumn(warnings, "protein table", cols.FCPhospho, hasFCPhospho)

	for {
		row, err := tr.Next()
		if err != nil {
			break
		}
		accession := NormalizeAccession(field(row, idCol))
		if accession == "" {
			continue
		}
		acc := accumulatorFor(accs, accession)

		if hasPProt {
			acc.protSigMax = math.Max(acc.protSigMax, sigTransform(field(row, pProtCol), weights.SigScale))
		}
		if hasFCProt {
			acc.protEffMax = math.Max(acc.protEffMax, effTransform(field(row, fcProtCol), weights.EffScale))
		}
		if hasPPhospho {
			acc.phosphoSigMax = math.Max(acc.phosphoSigMax, sigTransform(field(row, pPhosphoCol), weights.SigScale))
		}
		if hasFCPhospho {
			acc.phosphoEffMax = math.Max(acc.phosphoEffMax, effTransform(field(row, fcPhosphoCol), weights.EffScale))
		}
	}
	return nil
}

func loadSiteTable(path string, cols Columns, weights config.WeightsConfig, accs map[string]*accumulator, warnings *[]string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "open site table", err)
	}
	defer f.Close()

	tr := tabular.NewReaderDelim(f, tabular.DelimiterFor(path))
	if _, err := tr.ReadHeader(); err != nil {
		return pkerrors.Wrap(pkerrors.BadInput, path, "read site table header", err)
	}

	uniprotCol, ok := tr.Column(cols.SiteUniprot)
	if !ok {
		return pkerrors.BadInputf(cols.SiteUniprot, "site table missing required column %q", cols.SiteUniprot)
	}
	pSiteCol, hasPSite := tr.Column(cols.PSite)
	fcSiteCol, hasFCSite := tr.Column(cols.FCSite)
	regAnnotCol, hasRegAnnot := tr.Column(cols.RegAnnot)
	locprobCol, hasLocprob := tr.Column(cols.Locprob)

	warnMissingColumn(warnings, "site table", cols.PSite, hasPSite)
	warnMissingColumn(warnings, "site table", cols.FCSite, hasFCSite)
	warnMissingColumn(warnings, "site table", cols.RegAnnot, hasRegAnnot)

	locprobMin := weights.LocprobMin
	if locprobMin == 0 {
		locprobMin = cols.LocprobMin
	}

	for {
		row, err := tr.Next()
		if err != nil {
			break
		}
		accession := NormalizeAccession(field(row, uniprotCol))
		if accession == "" {
			continue
		}

		if hasLocprob {
			lp, err := strconv.ParseFloat(strings.TrimSpace(field(row, locprobCol)), 64)
			if err == nil && lp < locprobMin {
				continue
			}
		}

		siteKey := cols.siteKeyFor(row, tr.Column)
		sigSite := 0.0
		if hasPSite {
			sigSite = sigTransform(field(row, pSiteCol), weights.SigScale)
		}
		effSite := 0.0
		if hasFCSite {
			effSite = effTransform(field(row, fcSiteCol), weights.EffScale)
		}
		combined := 0.8*sigSite + 0.2*effSite

		acc := accumulatorFor(accs, accession)
		isReg := hasRegAnnot && truthy(field(row, regAnnotCol))
		if isReg {
			acc.regSites = append(acc.regSites, SiteContribution{Key: siteKey, Contribution: weights.WAnn * combined})
		} else {
			acc.ptmSites = append(acc.ptmSites, SiteContribution{Key: siteKey, Contribution: weights.PTMSiteScale * combined})
		}
	}
	return nil
}

func finalize(accs map[string]*accumulator, weights config.WeightsConfig) *Evidence {
	topK := weights.SiteTopK
	if topK <= 0 {
		topK = 2
	}

	ev := &Evidence{
		byAccession: make(map[string]*ProteinEvidence, len(accs)),
		byBase:      make(map[string][]*ProteinEvidence),
	}

	for accession, acc := range accs {
		regTop := topContributions(acc.regSites, topK)
		ptmTop := topContributions(acc.ptmSites, topK)

		regEvidence := sumContributions(regTop)
		ptmEvidence := sumContributions(ptmTop)
		abEvidence := 0.5*acc.protSigMax + 0.5*acc.phosphoSigMax

		pe := &ProteinEvidence{
			CanonicalID: accession,
			SingleScore: regEvidence + weights.PTMWeight*ptmEvidence + weights.Epsilon*abEvidence,
			RegEvidence: regEvidence,
			PTMEvidence: ptmEvidence,
			ABEvidence:  abEvidence,
			TopRegSites: regTop,
			Explanation: explanationFor(regTop, ptmTop),
		}
		pe.HasRegulatoryEvidence = pe.RegEvidence >= weights.RegGate

		ev.byAccession[accession] = pe
		base := baseAccession(accession)
		ev.byBase[base] = append(ev.byBase[base], pe)
	}
	return ev
}

func accumulatorFor(accs map[string]*accumulator, accession string) *accumulator {
	acc, ok := accs[accession]
	if !ok {
		acc = &accumulator{}
		accs[accession] = acc
	}
	return acc
}

func topContributions(sites []SiteContribution, k int) []SiteContribution {
	sorted := make([]SiteContribution, len(sites))
	copy(sorted, sites)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Contribution != sorted[j].Contribution {
			return sorted[i].Contribution > sorted[j].Contribution
		}
		return sorted[i].Key < sorted[j].Key
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// explanationFor renders the debug-only trace of which sites contributed
// to a protein's regulatory and PTM evidence terms.
func explanationFor(regTop, ptmTop []SiteContribution) string {
	regWord, ptmWord := "sites", "sites"
	if len(regTop) == 1 {
		regWord = "site"
	}
	if len(ptmTop) == 1 {
		ptmWord = "site"
	}
	return fmt.Sprintf("reg:%d %s, ptm:%d %s", len(regTop), regWord, len(ptmTop), ptmWord)
}

func sumContributions(sites []SiteContribution) float64 {
	var sum float64
	for _, s := range sites {
		sum += s.Contribution
	}
	return sum
}

// sig implements §4.G's sig(p) = clamp01((−log10(p))/sig_scale), p=0 treated
// as 1e-300, a non-numeric or negative value contributing 0.
func sigTransform(raw string, sigScale float64) float64 {
	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p == 0 {
		p = 1e-300
	}
	return clamp01(-math.Log10(p) / sigScale)
}

// eff implements §4.G's eff(fc) = clamp01(|log2(|fc|)|/eff_scale), fc=0
// contributing 0.
func effTransform(raw string, effScale float64) float64 {
	fc, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || fc == 0 {
		return 0
	}
	return clamp01(math.Abs(math.Log2(math.Abs(fc))) / effScale)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

func field(row []string, i int) string {
	return tabular.Field(row, i)
}

func warnMissingColumn(warnings *[]string, table, name string, present bool) {
	if present || name == "" {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf("%s: column %q not found; affected term contributes zero", table, name))
}
