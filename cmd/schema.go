package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spigell/ats-scorer/internal/cv"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the CV input document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pretty, err := json.MarshalIndent(cv.Schema(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding schema: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
