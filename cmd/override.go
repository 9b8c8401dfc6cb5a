package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/logger"
)

var overrideCmd = &cobra.Command{
	Use:   "override <candidate> <requirement-id>",
	Short: "Manually set the status and/or score of one result row",
	Long: "Override a row of a candidate's result. The totals and recommendation are\n" +
		"recomputed locally; the judge is not contacted.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit := alignment.RowEdit{RequirementID: args[1]}

		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status, ok := alignment.ParseStatus(raw)
			if !ok {
				return fmt.Errorf("%w: %s", alignment.ErrInvalidStatus, raw)
			}
			edit.Status = &status
		}
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetInt("score")
			edit.Score = &score
		}
		if edit.Status == nil && edit.Score == nil {
			return errors.New("set --status and/or --score")
		}

		return withEnv(func(ctx context.Context, e *env) error {
			s, err := e.session(ctx)
			if err != nil {
				return err
			}
			result, err := s.ManualEdit(args[0], []alignment.RowEdit{edit})
			if err != nil {
				return err
			}
			if err := e.store.Save(ctx, s); err != nil {
				return err
			}

			e.logger.Info("result overridden",
				zap.String(logger.FieldSessionID, s.ID),
				zap.String(logger.FieldRequirementID, args[1]),
				zap.Float64("alignment_score", result.AlignmentScore),
				zap.String("recommendation", string(result.Recommendation)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f%% %s\n", result.AlignmentScore, result.Recommendation)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(overrideCmd)

	overrideCmd.Flags().String("status", "", "Aligned, Partially Aligned, Not Aligned or Not Mentioned")
	overrideCmd.Flags().Int("score", 0, "awarded points, between 0 and the row's point value")
}
