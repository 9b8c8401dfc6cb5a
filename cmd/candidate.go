package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/logger"
)

var candidateCmd = &cobra.Command{
	Use:   "candidate",
	Short: "Manage the candidates of a session",
}

var candidateAddCmd = &cobra.Command{
	Use:   "add <resume-file|glob>...",
	Short: "Add candidates from plain-text resumes",
	Long: "Add one candidate per resume file. Arguments may be glob patterns such as\n" +
		"'resumes/**/*.txt'. The profile flags are only accepted with a single file.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandPatterns(args)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		experience, _ := cmd.Flags().GetString("experience")

		var profile *assessment.Profile
		if name != "" || email != "" || experience != "" {
			if len(files) > 1 {
				return errors.New("--name, --email and --experience need exactly one resume file")
			}
			profile = &assessment.Profile{Name: name, Email: email, TotalExperience: experience}
		}

		return withEnv(func(ctx context.Context, e *env) error {
			s, err := e.session(ctx)
			if err != nil {
				return err
			}

			for _, file := range files {
				text, err := readText(file)
				if err != nil {
					return err
				}

				candidateName := name
				if candidateName == "" && len(files) > 1 {
					candidateName = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}

				c, err := s.AddCandidate(candidateName, text, profile)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				logger.WithCandidate(e.logger, c.ID, c.Name).Info("candidate added",
					zap.String(logger.FieldSessionID, s.ID),
					zap.String("file", file),
				)
				fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			}

			return e.store.Save(ctx, s)
		})
	},
}

func init() {
	rootCmd.AddCommand(candidateCmd)
	candidateCmd.AddCommand(candidateAddCmd)

	candidateAddCmd.Flags().String("name", "", "candidate name (used verbatim instead of the extracted one)")
	candidateAddCmd.Flags().String("email", "", "candidate email (used verbatim)")
	candidateAddCmd.Flags().String("experience", "", "total experience, e.g. \"7 years\" (used verbatim)")
}

// expandPatterns resolves glob arguments into a sorted, de-duplicated file list.
// Plain paths are kept as given so a missing file reports a read error.
func expandPatterns(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("pattern %q matched no files", arg)
			}
			sort.Strings(matches)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
