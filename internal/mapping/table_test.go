package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReaderVersionedEnsemblLookup(t *testing.T) {
	tsv := "uniprot_id\tGene Symbol\tEnsembl_Gene\n" +
		"P12345\tFOO\tENSG00000181163.12\n"

	table, err := LoadReader(strings.NewReader(tsv))
	require.NoError(t, err)

	withVersion := table.Map("Ensembl_Gene", "ENSG00000181163.12")
	withoutVersion := table.Map("Ensembl_Gene", "ENSG00000181163")
	assert.Equal(t, []string{"P12345"}, withVersion)
	assert.Equal(t, []string{"P12345"}, withoutVersion)
}

func TestMapGenericEnsemblRoutesByPrefix(t *testing.T) {
	tsv := "uniprot_id\tEnsembl_Gene\tEnsembl_Transcript\tEnsembl_Protein\n" +
		"P00001\tENSG00000000001\t\t\n" +
		"P00002\t\tENST00000000002\t\n" +
		"P00003\t\t\tENSP00000000003\n"

	table, err := LoadReader(strings.NewReader(tsv))
	require.NoError(t, err)

	assert.Equal(t, []string{"P00001"}, table.Map("Ensembl", "ENSG00000000001"))
	assert.Equal(t, []string{"P00002"}, table.Map("Ensembl", "ENST00000000002"))
	assert.Equal(t, []string{"P00003"}, table.Map("Ensembl", "ENSP00000000003"))
}

func TestMapUnknownNamespaceReturnsEmptyNotError(t *testing.T) {
	table := NewForTest(map[string]map[string][]string{
		"geneid": {"207": {"P31749"}},
	})
	assert.Empty(t, table.Map("NotARealNamespace", "207"))
	assert.False(t, table.HasNamespace("NotARealNamespace"))
	assert.True(t, table.HasNamespace("GeneID"))
}

func TestMapCaseFoldedLookupIsLastResort(t *testing.T) {
	table := NewForTest(map[string]map[string][]string{
		"genesymbol": {"AKT1": {"P31749"}},
	})
	assert.Equal(t, []string{"P31749"}, table.Map("GeneSymbol", "AKT1"))
	assert.Equal(t, []string{"P31749"}, table.Map("GeneSymbol", "akt1"))
}

func TestMapDedupsAndSortsCanonicalIDs(t *testing.T) {
	tsv := "uniprot_id\tGeneID\n" +
		"P00001\t999\n" +
		"P00001\t999\n" +
		"P00002\t999\n"

	table, err := LoadReader(strings.NewReader(tsv))
	require.NoError(t, err)
	assert.Equal(t, []string{"P00001", "P00002"}, table.Map("GeneID", "999"))
}

func TestMapNilTableIsEmptyNotPanic(t *testing.T) {
	var table *Table
	assert.Nil(t, table.Map("GeneID", "207"))
	assert.False(t, table.HasNamespace("GeneID"))
}
