package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/Ergy12/caldeco/internal/expression"
	"github.com/Ergy12/caldeco/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	evalInputs      []string
	evalInputsFile  string
	evalFormulas    []string
	evalConcurrency int
	evalFailOnError bool
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <catalog file>",
	Short: "Evaluate the formulas of a catalog",
	Long: `Evaluate the formulas of a catalog against its initial values, overridden by
the inputs given on the command line or in an inputs file.

Inputs are keyed by variable id or by input field id. Every formula is
reported on its own: a formula that fails never hides the others.`,
	Example: `
  caldeco eval payroll.calc.yaml                             # Use the initial values
  caldeco eval payroll.calc.yaml -i hours=45 -i rate=20      # Override inputs
  caldeco eval payroll.calc.yaml --inputs-file inputs.yaml   # Read inputs from a file
  caldeco eval payroll.calc.yaml -f gross -f band            # Only some formulas
  caldeco eval payroll.calc.yaml --output json               # JSON output`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return evalCatalog(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringArrayVarP(&evalInputs, "input", "i", []string{}, "input value as id=value (repeatable)")
	evalCmd.Flags().StringVar(&evalInputsFile, "inputs-file", "", "YAML or JSON file mapping ids to values")
	evalCmd.Flags().StringSliceVarP(&evalFormulas, "formula", "f", []string{}, "formula ids to evaluate (default all)")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "maximum formulas evaluated at once (default GOMAXPROCS)")
	evalCmd.Flags().BoolVar(&evalFailOnError, "fail-on-error", false, "exit with an error when any formula fails")
}

func evalCatalog(cmd *cobra.Command, file string) error {
	catalog, err := engine.LoadCatalog(file)
	if err != nil {
		return err
	}

	provided, err := collectInputs(evalInputsFile, evalInputs)
	if err != nil {
		return err
	}

	validation := engine.ValidateInputs(catalog, provided)
	if !validation.Valid {
		return validation.ToError()
	}

	opts := []engine.CalculatorOption{}
	if evalConcurrency > 0 {
		opts = append(opts, engine.WithConcurrency(evalConcurrency))
	}

	result, err := engine.NewCalculator(opts...).Calculate(cmd.Context(), catalog, validation.ProcessedInputs, evalFormulas...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(w, result)
	case "yaml":
		style.PrintYAML(w, result)
	default:
		printCalculation(w, result, viper.GetBool("verbose"))
	}

	if evalFailOnError {
		failed := 0
		for _, r := range result.Results {
			if r.Outcome == expression.OutcomeError {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d formula(s) failed", failed)
		}
	}

	return nil
}

// collectInputs merges the inputs file with id=value pairs. Pairs win.
func collectInputs(file string, pairs []string) (map[string]string, error) {
	inputs := map[string]string{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs file: %w", err)
		}

		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", file, err)
		}

		for key, value := range raw {
			text, err := scalarText(value)
			if err != nil {
				return nil, fmt.Errorf("input '%s': %w", key, err)
			}
			inputs[key] = text
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid input %q: expected id=value", pair)
		}
		inputs[strings.TrimSpace(key)] = value
	}

	return inputs, nil
}

// scalarText renders a decoded YAML scalar the way it would be typed in
func scalarText(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("must be a string, number or boolean, got %T", value)
	}
}

func printCalculation(w io.Writer, result *engine.CalculationResult, verbose bool) {
	if len(result.Results) == 0 {
		style.Warning(w, "Catalog has no formulas")
		return
	}

	headers := []string{"Formula", "Name", "Result"}
	if verbose {
		headers = append(headers, "Outcome")
	}

	rows := make([][]string, len(result.Results))
	for i, r := range result.Results {
		rows[i] = []string{r.FormulaID, r.Name, r.Display}
		if verbose {
			rows[i] = append(rows[i], string(r.Outcome))
		}
	}

	printTable(w, headers, rows, func(row, col int, cell string) string {
		if col < 2 {
			return cell
		}
		switch result.Results[row].Outcome {
		case expression.OutcomeError:
			return errorText(cell)
		case expression.OutcomeNoMatch:
			return noMatchText(cell)
		default:
			return okText(cell)
		}
	})

	if verbose {
		fmt.Fprintf(w, "\nRun %s evaluated %d formula(s) in %s\n",
			result.RunID, len(result.Results), style.FormatDuration(result.Duration))
	}
}
