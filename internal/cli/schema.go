package cli

import (
	"encoding/json"
	"fmt"

	"github.com/Ergy12/caldeco/pkg/schema"
	"github.com/spf13/cobra"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Output JSON schema and operator definitions",
	Long:   `Output the catalog JSON schema together with the supported operators and variable types, for editors and tooling.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := schema.GetSchema()
		if err != nil {
			return err
		}

		outputBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling output: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(outputBytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
