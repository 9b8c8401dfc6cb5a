package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/filtering"
)

var errAborted = errors.New("aborted by user")

var assessCmd = &cobra.Command{
	Use:   "assess [candidate...]",
	Short: "Assess candidates of the session, one at a time",
	Long: "Assess the given candidates (ids or names), or every candidate when none are given.\n" +
		"Results are replaced only when the new assessment succeeds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			return assess(ctx, cmd, e, args)
		})
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().Bool("stale-only", false, "only candidates without an up-to-date result")
	assessCmd.Flags().Bool("errors-only", false, "only candidates whose last assessment failed")
	assessCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func candidateFilters(cmd *cobra.Command, refs []string) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewNames(refs),
		filtering.NewStale(),
		filtering.NewErrored(),
	}
	if staleOnly, _ := cmd.Flags().GetBool("stale-only"); !staleOnly {
		filtering.DisableByName(steps, "stale", "--stale-only not set")
	}
	if errorsOnly, _ := cmd.Flags().GetBool("errors-only"); !errorsOnly {
		filtering.DisableByName(steps, "errored", "--errors-only not set")
	}
	return steps
}

func assess(ctx context.Context, cmd *cobra.Command, e *env, refs []string) error {
	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	steps := candidateFilters(cmd, refs)
	for _, st := range filtering.Describe(steps) {
		e.logger.Debug("filter", zap.String("name", st.Name), zap.Bool("enabled", st.Enabled), zap.String("reason", st.Reason))
	}

	selected, err := filtering.Run(ctx, filtering.Deps{Logger: e.logger}, steps, s.Candidates)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		e.logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if err := confirm(fmt.Sprintf("Assess %d candidate(s)", len(selected))); err != nil {
			return err
		}
	}

	a, err := e.assessor(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(selected))
	for _, c := range selected {
		ids = append(ids, c.ID)
	}

	report, batchErr := a.AssessBatch(ctx, s, ids)
	// Whatever finished before an interruption is kept.
	if err := e.store.Save(ctx, s); err != nil {
		return err
	}
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), report.String())
	}
	if batchErr != nil {
		return batchErr
	}
	printResults(cmd, s, report)
	return nil
}

func printResults(cmd *cobra.Command, s *assessment.Session, report *assessment.BatchReport) {
	for _, id := range report.Succeeded {
		c, err := s.Candidate(id)
		if err != nil || c.Result == nil {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %.2f%% %s\n", c.Name, c.Result.AlignmentScore, c.Result.Recommendation)
	}
}

func confirm(label string) error {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return errAborted
		}
		return err
	}
	return nil
}
