package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/hireloop/interview-coach/pkg/guard"
	"github.com/hireloop/interview-coach/pkg/jd"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file-or-url]",
	Short: "Analyze a job description and print the interview strategy",
	Long: `Analyzes a job description and prints the derived interview strategy:
seniority, key skills, focus areas, and the interviewer's plan.

Examples:
  # Analyze a local file
  interview-coach analyze ./jd.txt

  # Analyze a posting by URL
  interview-coach analyze https://example.com/jobs/backend-engineer`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	coach, err := buildCoach()
	if err != nil {
		return err
	}

	var jobText string
	jobText, err = jd.Fetch(ctx, args[0])
	if err != nil {
		err = fmt.Errorf("failed to fetch job description: %w", err)
		return err
	}

	var strategy string
	strategy, err = coach.AnalyzeJobDescription(ctx, jobText)
	if err != nil {
		var rejection *guard.Rejection
		if errors.As(err, &rejection) {
			err = errors.New("this does not look like a job description")
		}
		return err
	}

	fmt.Println(strategy)

	if getVerbose() {
		usage := coach.Usage()
		fmt.Printf("\nTokens: %d prompt / %d completion, cost $%.6f\n",
			usage.PromptTokens, usage.CompletionTokens, usage.CostUSD)
	}

	return err
}
