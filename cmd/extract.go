package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <posting-file>",
	Short: "Structure a job posting into a requirement model and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			posting, err := readText(args[0])
			if err != nil {
				return err
			}
			ex, err := e.extractor(ctx)
			if err != nil {
				return err
			}
			model, err := ex.Extract(ctx, posting)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), model)
		})
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
