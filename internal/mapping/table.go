// Package mapping implements the organism identifier-mapping table: a
// row-oriented TSV whose first column is the canonical protein
// id and whose remaining columns are native-identifier namespaces. It
// exposes a single total, deterministic, side-effect-free lookup surface,
// so parsers never need hard-coded knowledge of column names.
//
// Grounded on original_source/MapKinase_WebApp/build_kegg_index.py's
// parse_mapping_kegg_tokens/load_kegg_to_uniprot_map, generalized from a
// single KEGG-token column to a full multi-namespace table, and on
// BV-BRC-BV-BRC-Go-SDK's column-by-name tabular reader idiom (see
// internal/tabular in this module).
package mapping

import (
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pwayrank/pwayrank/internal/tabular"
)

// tokenSplit matches any run of the separators a mapping-table cell may use
// between tokens: comma, semicolon, pipe, plus, or whitespace.
var tokenSplit = regexp.MustCompile(`[,;|+\s]+`)

// versionedID matches an identifier with a trailing ".n" version suffix
// (e.g. "ENSG00000181163.12"), which must be indexed under both
// the full token and its unversioned base.
var versionedID = regexp.MustCompile(`^(.+)\.(\d+)$`)

// Ensembl prefix routing: a generic "Ensembl" namespace
// lookup is routed by token prefix to one of these three specific columns,
// falling back across all three if the prefix doesn't match or the
// preferred column misses.
const (
	nsEnsemblGene       = "ensemblgene"
	nsEnsemblTranscript = "ensembltranscript"
	nsEnsemblProtein    = "ensemblprotein"
	nsEnsemblGeneric    = "ensembl"
)

var ensemblColumns = []string{nsEnsemblGene, nsEnsemblTranscript, nsEnsemblProtein}

// Table is the loaded, queryable mapping table. Immutable after construction.
type Table struct {
	// namespace key (normalized) -> token key -> sorted, deduplicated
	// canonical ids. Built directly by Load/LoadReader/NewForTest.
	index map[string]map[string][]string
}

// NormalizeNamespace case-folds and strips punctuation/whitespace from a
// namespace name for lookup, so "Entrez Gene", "entrez_gene" and
// "ENTREZGENE" all address the same column.
func NormalizeNamespace(ns string) string {
	var sb strings.Builder
	for _, r := range ns {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r - 'A' + 'a')
		}
	}
	return sb.String()
}

// NewForTest builds a Table directly from already-normalized namespace/token
// data, bypassing TSV parsing. Namespace keys are run through
// NormalizeNamespace so callers can write either normalized or natural-case
// names; token keys are indexed the same way LoadReader indexes cell tokens
// (original case, case-folded, and the unversioned base of a versioned id).
func NewForTest(data map[string]map[string][]string) *Table {
	t := &Table{index: make(map[string]map[string][]string)}
	for ns, tokens := range data {
		key := NormalizeNamespace(ns)
		col := t.index[key]
		if col == nil {
			col = make(map[string][]string)
			t.index[key] = col
		}
		for tok, ids := range tokens {
			t.addTokenIDs(col, tok, ids)
		}
	}
	t.dedupAndSort()
	return t
}

// Load parses a mapping-table TSV file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader parses a mapping-table TSV from r.
func LoadReader(r io.Reader) (*Table, error) {
	tr := tabular.NewReader(r)
	header, err := tr.ReadHeader()
	if err != nil {
		if err == io.EOF {
			return &Table{index: make(map[string]map[string][]string)}, nil
		}
		return nil, err
	}

	// headerKeys[i] is the namespace key for column i, "" for column 0 (the
	// canonical id) or an unrecognized/blank header.
	headerKeys := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			continue
		}
		headerKeys[i] = NormalizeNamespace(h)
	}

	t := &Table{index: make(map[string]map[string][]string)}

	for {
		row, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		canonical := tabular.Field(row, 0)
		if canonical == "" {
			continue
		}
		for i := 1; i < len(row) && i < len(headerKeys); i++ {
			key := headerKeys[i]
			if key == "" {
				continue
			}
			cell := tabular.Field(row, i)
			if cell == "" {
				continue
			}
			col := t.index[key]
			if col == nil {
				col = make(map[string][]string)
				t.index[key] = col
			}
			for _, tok := range tokenSplit.Split(cell, -1) {
				if tok == "" {
					continue
				}
				t.addTokenIDs(col, tok, []string{canonical})
			}
		}
	}

	t.dedupAndSort()
	return t, nil
}

// addTokenIDs indexes canonical ids under token, under token's case-folded
// form, and — for versioned identifiers — under the unversioned base and its
// case-folded form too.
func (t *Table) addTokenIDs(col map[string][]string, token string, ids []string) {
	keys := []string{token, strings.ToLower(token)}
	if m := versionedID.FindStringSubmatch(token); m != nil {
		base := m[1]
		keys = append(keys, base, strings.ToLower(base))
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		col[k] = append(col[k], ids...)
	}
}

func (t *Table) dedupAndSort() {
	for _, col := range t.index {
		for tok, ids := range col {
			col[tok] = dedupSorted(ids)
		}
	}
}

func dedupSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasNamespace reports whether the table has a column for ns (after
// normalization). Unknown namespaces are not an error; Map simply returns
// nothing for them.
func (t *Table) HasNamespace(ns string) bool {
	if t == nil {
		return false
	}
	key := NormalizeNamespace(ns)
	if key == nsEnsemblGeneric {
		for _, c := range ensemblColumns {
			if _, ok := t.index[c]; ok {
				return true
			}
		}
		return false
	}
	_, ok := t.index[key]
	return ok
}

// Map resolves one (namespace, native id) pair to its canonical ids. It is
// total: an unknown namespace or an unmapped id both yield nil, never an
// error. The result is sorted and deduplicated.
//
// A generic "Ensembl" namespace is routed by token prefix across the gene,
// transcript, and protein columns: ENSG prefers the gene
// column, ENST the transcript column, ENSP the protein column, falling back
// to the other two if the preferred column misses or the prefix is
// unrecognized.
func (t *Table) Map(namespace, id string) []string {
	if t == nil || id == "" {
		return nil
	}
	key := NormalizeNamespace(namespace)

	if key == nsEnsemblGeneric {
		return t.mapEnsembl(id)
	}

	return t.lookup(key, id)
}

func (t *Table) mapEnsembl(id string) []string {
	order := ensemblColumns
	upper := strings.ToUpper(id)
	switch {
	case strings.HasPrefix(upper, "ENSG"):
		order = []string{nsEnsemblGene, nsEnsemblTranscript, nsEnsemblProtein}
	case strings.HasPrefix(upper, "ENST"):
		order = []string{nsEnsemblTranscript, nsEnsemblGene, nsEnsemblProtein}
	case strings.HasPrefix(upper, "ENSP"):
		order = []string{nsEnsemblProtein, nsEnsemblGene, nsEnsemblTranscript}
	}
	for _, col := range order {
		if out := t.lookup(col, id); len(out) > 0 {
			return out
		}
	}
	return nil
}

// lookup tries an exact-case match first, then a case-folded match:
// token keys are stored case-folded and also in original case, and
// case-folded lookup is tried last.
func (t *Table) lookup(namespaceKey, id string) []string {
	col, ok := t.index[namespaceKey]
	if !ok {
		return nil
	}
	if ids, ok := col[id]; ok {
		return ids
	}
	if ids, ok := col[strings.ToLower(id)]; ok {
		return ids
	}
	return nil
}
