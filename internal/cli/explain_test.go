package cli

import (
	"bytes"
	"testing"

	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainCatalog(t *testing.T) {
	catalog, err := engine.LoadCatalog("testdata/valid/tip.calc.yml")
	require.NoError(t, err)

	explanations, err := explainCatalog(catalog, nil)
	require.NoError(t, err)
	require.Len(t, explanations, 2)

	total := explanations[1]
	assert.Equal(t, "total", total.FormulaID)
	require.Len(t, total.Expressions, 1)
	assert.Equal(t, `$bill + $bill * $percent / "100"`, total.Expressions[0].Infix)
	assert.Equal(t, `$bill $bill $percent * "100" / +`, total.Expressions[0].Postfix)
}

func TestExplainCatalog_Conditional(t *testing.T) {
	catalog, err := engine.LoadCatalog("testdata/valid/shipping.calc.yaml")
	require.NoError(t, err)

	explanations, err := explainCatalog(catalog, []string{"surcharge"})
	require.NoError(t, err)
	require.Len(t, explanations, 1)

	var roles []string
	for _, e := range explanations[0].Expressions {
		roles = append(roles, e.Role)
	}
	assert.Equal(t, []string{"when #1", "then #1", "when #2", "then #2", "when #3", "then #3", "default"}, roles)
	assert.Equal(t, `$zone "international" == $express AND`, explanations[0].Expressions[0].Postfix)

	_, err = explainCatalog(catalog, []string{"missing"})
	assert.ErrorContains(t, err, "unknown formula: missing")
}

func TestPrintExplanations(t *testing.T) {
	catalog, err := engine.LoadCatalog("testdata/valid/tip.calc.yml")
	require.NoError(t, err)

	explanations, err := explainCatalog(catalog, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printExplanations(&buf, explanations)
	snaps.MatchSnapshot(t, re.ReplaceAllString(buf.String(), ""))
}

func TestExplainCommand(t *testing.T) {
	out, err := executeCommand(t, "explain", "-f", "heavy", "testdata/valid/shipping.calc.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Heavy parcel")
	assert.Contains(t, out, `$weight "30" >`)

	out, err = executeCommand(t, "explain", "--output", "yaml", "-f", "base", "testdata/valid/shipping.calc.yaml")
	require.NoError(t, err)
	snaps.MatchSnapshot(t, out)
}
