package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/Ergy12/caldeco/internal/parser"
	"github.com/Ergy12/caldeco/internal/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate catalog syntax and structure",
	Long: `Validate catalog files for syntax errors, schema compliance and structural correctness.

This command checks:
- YAML syntax validity
- JSON schema compliance
- Unique ids and required names
- Variable types, choice options and initial values
- Input field bindings
- Formula shape, variable references and operators`,
	Example: `
  caldeco validate payroll.calc.yaml           # Validate a single file
  caldeco validate *.calc.yaml                 # Validate multiple files
  caldeco validate --recursive ./catalogs      # Validate a directory recursively
  caldeco validate --output json a.calc.yaml   # JSON output for CI/CD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := validateCatalogs(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, validateOptions{
			Recursive: recursive,
			ShowAll:   showAll,
			Lenient:   lenient,
			Format:    viper.GetString("output"),
			Quiet:     viper.GetBool("quiet"),
			Verbose:   viper.GetBool("verbose"),
		})
		if err != nil {
			return err
		}
		if summary.Invalid > 0 {
			return fmt.Errorf("%d of %d catalog(s) failed validation", summary.Invalid, summary.Total)
		}
		return nil
	},
}

var (
	recursive bool
	showAll   bool
	lenient   bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively validate files in directories")
	validateCmd.Flags().BoolVar(&showAll, "show-all", false, "show all validation results, including successful ones")
	validateCmd.Flags().BoolVar(&lenient, "lenient", false, "skip schema validation and allow unknown fields")
}

type validateOptions struct {
	Recursive bool
	ShowAll   bool
	Lenient   bool
	Format    string
	Quiet     bool
	Verbose   bool
}

// ValidationResult represents the result of validating a catalog
type ValidationResult struct {
	File     string        `json:"file" yaml:"file"`
	Valid    bool          `json:"valid" yaml:"valid"`
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
	Errors   []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	details  []*parser.ParseError
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Total    int                `json:"total" yaml:"total"`
	Valid    int                `json:"valid" yaml:"valid"`
	Invalid  int                `json:"invalid" yaml:"invalid"`
	Duration time.Duration      `json:"total_duration_ms" yaml:"total_duration_ms"`
	Results  []ValidationResult `json:"results" yaml:"results"`
}

func validateCatalogs(w, errW io.Writer, args []string, opts validateOptions) (*ValidationSummary, error) {
	start := time.Now()

	files, err := collectFiles(args, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}

	if len(files) == 0 {
		style.Warning(errW, "No catalog files found to validate")
		return &ValidationSummary{}, nil
	}

	yamlParser, err := engine.NewParser(parser.WithStrict(!opts.Lenient))
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	summary := &ValidationSummary{
		Total:   len(files),
		Results: make([]ValidationResult, 0, len(files)),
	}

	for _, file := range files {
		result := validateSingleFile(yamlParser, file)
		summary.Results = append(summary.Results, result)

		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}

		if opts.Quiet || opts.Format != "text" {
			continue
		}

		if result.Valid {
			if opts.ShowAll {
				style.Success(w, fmt.Sprintf("%s (%v)", file, result.Duration.Round(time.Microsecond)))
			}
			continue
		}

		style.Error(w, file)
		printParseErrors(w, result, opts.Verbose)
	}

	summary.Duration = time.Since(start)

	switch opts.Format {
	case "json":
		style.PrintJSON(w, summary)
	case "yaml":
		style.PrintYAML(w, summary)
	default:
		printValidationSummary(w, summary, opts)
	}

	return summary, nil
}

func validateSingleFile(p parser.Parser, filename string) ValidationResult {
	start := time.Now()
	result := ValidationResult{
		File:   filename,
		Valid:  true,
		Errors: []string{},
	}

	_, err := p.ParseFile(filename)
	result.Duration = time.Since(start)

	if err != nil {
		result.Valid = false
		result.details = parseErrors(err)
		if len(result.details) == 0 {
			result.Errors = append(result.Errors, err.Error())
		}
		for _, detail := range result.details {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", detail.Position, detail.Message))
		}
	}

	log.Debug().
		Str("file", filename).
		Bool("valid", result.Valid).
		Dur("duration", result.Duration).
		Msg("Validated catalog file")

	return result
}

// parseErrors flattens err into the ParseErrors it carries
func parseErrors(err error) []*parser.ParseError {
	var multi *parser.MultiError
	if errors.As(err, &multi) {
		var details []*parser.ParseError
		for _, e := range multi.Errors {
			details = append(details, parseErrors(e)...)
		}
		return details
	}

	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return []*parser.ParseError{parseErr}
	}
	return nil
}

func printParseErrors(w io.Writer, result ValidationResult, verbose bool) {
	if len(result.details) == 0 {
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		return
	}

	for _, detail := range result.details {
		fmt.Fprintf(w, "  %s %s\n", style.MutedStyle.Render(detail.Position.String()), detail.Message)
		if detail.Suggestion != "" {
			fmt.Fprintf(w, "    %s\n", style.InfoStyle.Render("hint: "+detail.Suggestion))
		}
		if verbose && detail.Context != "" {
			fmt.Fprintln(w, style.Indent(detail.Context, "    "))
		}
	}
}

func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		switch {
		case info.IsDir() && recursive:
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && parser.IsCatalogFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("error walking directory %s: %w", arg, err)
			}
		case info.IsDir():
			return nil, fmt.Errorf("%s is a directory, use --recursive to validate directories", arg)
		case parser.IsCatalogFile(arg):
			files = append(files, arg)
		default:
			return nil, fmt.Errorf("%s is not a catalog file (.calc.yaml or .calc.yml)", arg)
		}
	}

	return files, nil
}

func printValidationSummary(w io.Writer, summary *ValidationSummary, opts validateOptions) {
	if opts.Quiet {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %d catalog(s) are valid", summary.Total))
	} else {
		style.Error(w, fmt.Sprintf("%d of %d catalog(s) failed validation", summary.Invalid, summary.Total))
	}

	if opts.Verbose {
		fmt.Fprintf(w, "\nDetailed results:\n")
		headers := []string{"File", "Status", "Duration"}
		rows := make([][]string, len(summary.Results))

		for i, result := range summary.Results {
			status := "valid"
			if !result.Valid {
				status = "invalid"
			}
			rows[i] = []string{result.File, status, result.Duration.Round(time.Microsecond).String()}
		}

		printTable(w, headers, rows, nil)
	}
}
