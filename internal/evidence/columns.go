package evidence

// Columns names every addressed-by-name column the protein table and the
// optional site table may carry, matching the scorer CLI's column-mapping
// flags one for one.
type Columns struct {
	ProteinID string // protein-table join key

	PProt  string // protein-table p-value column for protein-level significance
	FCProt string // protein-table fold-change column for protein-level effect

	PPhospho  string // protein-table p-value column for phospho-level significance
	FCPhospho string // protein-table fold-change column for phospho-level effect

	SiteUniprot string   // site-table protein join key
	SiteKey     string   // site-table single site-identity column, if not composite
	SiteKeyCols []string // site-table composite site-identity columns, if set, take precedence over SiteKey
	PSite       string   // site-table p-value column
	FCSite      string   // site-table fold-change column
	RegAnnot    string   // site-table regulatory-annotation flag column
	Locprob     string   // site-table localization-probability column
	LocprobMin  float64  // localization floor used only when WeightsConfig.LocprobMin is zero; default 0.75
}

// DefaultColumns returns the scorer's built-in column names, used when a
// caller does not override them via flags.
func DefaultColumns() Columns {
	return Columns{
		ProteinID:   "protein_id",
		PProt:       "p_value",
		FCProt:      "fold_change",
		PPhospho:    "phospho_p_value",
		FCPhospho:   "phospho_fold_change",
		SiteUniprot: "uniprot_id",
		SiteKey:     "site_id",
		PSite:       "site_p_value",
		FCSite:      "site_fold_change",
		RegAnnot:    "regulatory_annotation",
		Locprob:     "localization_probability",
		LocprobMin:  0.75,
	}
}

func (c Columns) siteKeyFor(row []string, index func(name string) (int, bool)) string {
	if len(c.SiteKeyCols) > 0 {
		parts := make([]string, 0, len(c.SiteKeyCols))
		for _, name := range c.SiteKeyCols {
			if i, ok := index(name); ok {
				parts = append(parts, field(row, i))
			}
		}
		return joinNonEmpty(parts, "|")
	}
	if i, ok := index(c.SiteKey); ok {
		return field(row, i)
	}
	return ""
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
