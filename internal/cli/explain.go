package cli

import (
	"fmt"
	"io"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/Ergy12/caldeco/internal/expression"
	"github.com/Ergy12/caldeco/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var explainFormulas []string

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain <catalog file>",
	Short: "Show how formulas are compiled",
	Long: `Show every expression of a formula in its written infix form next to the
postfix form the evaluator runs. Useful to check operator precedence.`,
	Example: `
  caldeco explain payroll.calc.yaml            # Explain every formula
  caldeco explain payroll.calc.yaml -f band    # Explain one formula`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := engine.LoadCatalog(args[0])
		if err != nil {
			return err
		}

		explanations, err := explainCatalog(catalog, explainFormulas)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(w, explanations)
		case "yaml":
			style.PrintYAML(w, explanations)
		default:
			printExplanations(w, explanations)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringSliceVarP(&explainFormulas, "formula", "f", []string{}, "formula ids to explain (default all)")
}

// FormulaExplanation lists the compiled expressions of one formula
type FormulaExplanation struct {
	FormulaID   string                  `json:"formula_id" yaml:"formula_id"`
	Name        string                  `json:"name" yaml:"name"`
	Expressions []ExpressionExplanation `json:"expressions" yaml:"expressions"`
}

// ExpressionExplanation is one expression in both notations
type ExpressionExplanation struct {
	Role    string `json:"role" yaml:"role"`
	Infix   string `json:"infix" yaml:"infix"`
	Postfix string `json:"postfix" yaml:"postfix"`
}

func explainCatalog(catalog *ast.Catalog, ids []string) ([]FormulaExplanation, error) {
	formulas := make([]*ast.Formula, 0, len(catalog.Formulas))
	if len(ids) == 0 {
		for i := range catalog.Formulas {
			formulas = append(formulas, &catalog.Formulas[i])
		}
	}
	for _, id := range ids {
		formula, ok := catalog.GetFormula(id)
		if !ok {
			return nil, fmt.Errorf("unknown formula: %s", id)
		}
		formulas = append(formulas, formula)
	}

	explanations := make([]FormulaExplanation, 0, len(formulas))
	for _, formula := range formulas {
		explanation := FormulaExplanation{FormulaID: formula.ID, Name: formula.Name}

		if formula.Expression != nil {
			explanation.Expressions = append(explanation.Expressions, explain("expression", formula.Expression))
		}
		for i := range formula.Conditions {
			branch := &formula.Conditions[i]
			explanation.Expressions = append(explanation.Expressions,
				explain(fmt.Sprintf("when #%d", i+1), &branch.Condition),
				explain(fmt.Sprintf("then #%d", i+1), &branch.Result),
			)
		}
		if formula.Default != nil {
			explanation.Expressions = append(explanation.Expressions, explain("default", formula.Default))
		}

		explanations = append(explanations, explanation)
	}

	return explanations, nil
}

func explain(role string, expr *ast.Expression) ExpressionExplanation {
	return ExpressionExplanation{
		Role:    role,
		Infix:   expr.String(),
		Postfix: expression.ToPostfix(expr).String(),
	}
}

func printExplanations(w io.Writer, explanations []FormulaExplanation) {
	for i, explanation := range explanations {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", style.TitleStyle.Render(explanation.FormulaID), style.MutedStyle.Render(explanation.Name))

		rows := make([][]string, len(explanation.Expressions))
		for j, e := range explanation.Expressions {
			rows[j] = []string{e.Role, e.Infix, e.Postfix}
		}
		printTable(w, []string{"Part", "Infix", "Postfix"}, rows, nil)
	}
}
