package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/judge"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"github.com/malik-zulfi/Jiggar-sub000/internal/schemas"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage assessment sessions",
}

var sessionInitCmd = &cobra.Command{
	Use:   "init <posting-file>",
	Short: "Create a session from a job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			return initSession(ctx, cmd, e, args[0])
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show requirements and candidate results of the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			s, err := e.session(ctx)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("output-json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			list, err := e.store.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tJOB TITLE\tCANDIDATES\tSTALE\tUPDATED")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.JobTitle, s.Candidates, s.Stale, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, e *env) error {
			if err := e.store.Delete(ctx, args[0]); err != nil {
				return err
			}
			e.logger.Info("session deleted", zap.String("session_id", args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInitCmd, sessionShowCmd, sessionListCmd, sessionDeleteCmd)

	sessionInitCmd.Flags().StringP("title", "t", "", "job title (defaults to the extracted one)")
	sessionInitCmd.Flags().StringP("model", "m", "", "use a requirement model JSON file instead of extracting one")
	sessionShowCmd.Flags().Bool("output-json", false, "print the whole session as JSON")
}

func initSession(ctx context.Context, cmd *cobra.Command, e *env, postingFile string) error {
	posting, err := readText(postingFile)
	if err != nil {
		return err
	}

	var model *requirements.Model
	if modelFile, _ := cmd.Flags().GetString("model"); modelFile != "" {
		model, err = readModel(modelFile)
	} else {
		var ex judge.Extractor
		ex, err = e.extractor(ctx)
		if err == nil {
			model, err = ex.Extract(ctx, posting)
		}
	}
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	s, err := assessment.NewSession(title, posting, model)
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, s); err != nil {
		return err
	}

	e.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("job_title", s.JobTitle),
		zap.Int("requirements", len(s.Model.Canonical())),
	)
	fmt.Fprintln(cmd.OutOrStdout(), s.ID)
	return nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	return text, nil
}

func readModel(path string) (*requirements.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := schemas.Validate(schemas.RequirementModel, string(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var model requirements.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &model, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSession(out io.Writer, s *assessment.Session) {
	fmt.Fprintf(out, "Session %s: %s\n\n", s.ID, s.JobTitle)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tPRIORITY\tPOINTS\tREQUIREMENT")
	for _, c := range s.Model.Canonical() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Category, c.Priority, c.PointValue, c.Description)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSCORE\tRECOMMENDATION\tFLAGS")
	for _, c := range s.Candidates {
		score, tier, flags := "-", "-", []string{}
		if c.Result != nil {
			score = fmt.Sprintf("%.2f (%d/%d)", c.Result.AlignmentScore, c.Result.CandidateScore, c.Result.MaxScore)
			tier = string(c.Result.Recommendation)
			if c.Result.IsStale {
				flags = append(flags, "stale")
			}
			if c.Result.IsEdited {
				flags = append(flags, "edited")
			}
		}
		if c.LastError != "" {
			flags = append(flags, "error: "+c.LastError)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Status, score, tier, strings.Join(flags, ", "))
	}
	_ = w.Flush()
}
