package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/logger"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the requirement model; every existing result becomes stale",
}

var editPriorityCmd = &cobra.Command{
	Use:   "priority <requirement-id> <MUST_HAVE|NICE_TO_HAVE>",
	Short: "Move a requirement or group to another priority; its score resets to the default",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ok := requirements.ParsePriority(args[1])
		if !ok {
			return fmt.Errorf("%w: %s", requirements.ErrInvalidPriority, args[1])
		}
		return editSession(cmd, args[0], func(s *assessment.Session) error {
			return s.ChangePriority(args[0], p)
		})
	},
}

var editScoreCmd = &cobra.Command{
	Use:   "score <requirement-id> <points>",
	Short: "Change the point value of a requirement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[1], err)
		}
		return editSession(cmd, args[0], func(s *assessment.Session) error {
			return s.ChangeScore(args[0], score)
		})
	},
}

var editAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a requirement under Additional Requirements",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args, " ")
		raw, _ := cmd.Flags().GetString("priority")
		p, ok := requirements.ParsePriority(raw)
		if !ok {
			return fmt.Errorf("%w: %s", requirements.ErrInvalidPriority, raw)
		}
		score, _ := cmd.Flags().GetInt("score")
		if !cmd.Flags().Changed("score") {
			score = p.DefaultScore()
		}

		var added requirements.Requirement
		err := editSession(cmd, "", func(s *assessment.Session) error {
			var err error
			added, err = s.AddRequirement(description, p, score)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), added.ID)
		return nil
	},
}

var editDeleteCmd = &cobra.Command{
	Use:   "delete <requirement-id>",
	Short: "Delete a user-added requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editSession(cmd, args[0], func(s *assessment.Session) error {
			return s.DeleteRequirement(args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.AddCommand(editPriorityCmd, editScoreCmd, editAddCmd, editDeleteCmd)

	editAddCmd.Flags().StringP("priority", "p", string(requirements.NiceToHave), "MUST_HAVE or NICE_TO_HAVE")
	editAddCmd.Flags().Int("score", 0, "point value (defaults to 10 for MUST_HAVE, 5 for NICE_TO_HAVE)")
}

// editSession applies fn to the selected session and saves it only when fn succeeds.
func editSession(cmd *cobra.Command, requirementID string, fn func(s *assessment.Session) error) error {
	return withEnv(func(ctx context.Context, e *env) error {
		s, err := e.session(ctx)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		if err := e.store.Save(ctx, s); err != nil {
			return err
		}

		e.logger.Info("requirement model updated",
			zap.String(logger.FieldSessionID, s.ID),
			zap.String(logger.FieldRequirementID, requirementID),
			zap.String("edit", cmd.Name()),
			zap.Int("stale_results", s.StaleCount()),
		)
		return nil
	})
}
