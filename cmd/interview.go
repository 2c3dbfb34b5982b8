package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hireloop/interview-coach/pkg/guard"
	"github.com/hireloop/interview-coach/pkg/interview"
	"github.com/hireloop/interview-coach/pkg/jd"
	"github.com/hireloop/interview-coach/pkg/llm"
	"github.com/hireloop/interview-coach/pkg/prompts"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var difficultyFlag string

//nolint:gochecknoglobals // Cobra boilerplate
var personaFlag string

//nolint:gochecknoglobals // Cobra boilerplate
var interviewCmd = &cobra.Command{
	Use:   "interview [job-description-file-or-url]",
	Short: "Run an interactive mock interview",
	Long: `Runs a mock technical interview against the analyzed job description.

The interviewer asks one question at a time, gives feedback on each answer,
and scores it 0-5. During the session:

  /performance   show questions answered and average score
  /usage         show token usage and estimated cost
  /reset         restart the interview, keeping the analyzed strategy
  /reset-all     discard everything including the analysis
  /quit          end the session

Examples:
  interview-coach interview ./jd.txt
  interview-coach interview ./jd.txt --difficulty Hard --persona Strict`,
	Args: cobra.ExactArgs(1),
	RunE: runInterview,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(interviewCmd)
	interviewCmd.Flags().StringVar(&difficultyFlag, "difficulty", "Medium", "Question difficulty (Easy, Medium, Hard)")
	interviewCmd.Flags().StringVar(&personaFlag, "persona", "Neutral", "Interviewer persona (Friendly, Neutral, Strict)")
}

func runInterview(cmd *cobra.Command, args []string) (err error) {
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

	fmt.Println("Analyzing job description...")

	var strategy string
	strategy, err = coach.AnalyzeJobDescription(ctx, jobText)
	if err != nil {
		var rejection *guard.Rejection
		if errors.As(err, &rejection) {
			err = errors.New("this does not look like a job description")
		}
		return err
	}

	if getVerbose() {
		fmt.Println("\nInterview strategy:")
		fmt.Println(strategy)
	}

	err = startSession(ctx, coach)
	if err != nil {
		return err
	}

	err = answerLoop(ctx, coach)

	return err
}

// startSession configures the session from the flags and obtains the
// opening question.
func startSession(ctx context.Context, coach *interview.Coach) (err error) {
	err = coach.Configure(prompts.Difficulty(difficultyFlag), prompts.Persona(personaFlag))
	if err != nil {
		return err
	}

	var firstQuestion string
	firstQuestion, err = coach.Start(ctx)
	if err != nil {
		return err
	}

	fmt.Println("\nInterviewer:")
	fmt.Println(firstQuestion)

	return err
}

// answerLoop reads answers from stdin until the candidate quits. Input is
// read synchronously, so at most one provider call chain is in flight for
// the session at any time.
func answerLoop(ctx context.Context, coach *interview.Coach) (err error) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		fmt.Print("\nYour answer> ")
		if !scanner.Scan() {
			err = scanner.Err()
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			var done bool
			done, err = runSessionCommand(ctx, coach, line)
			if done || err != nil {
				return err
			}
			continue
		}

		submitTurn(ctx, coach, line)
	}
}

// submitTurn runs one answer through the coach and prints the outcome.
// Rejections and provider failures are reported and the loop continues.
func submitTurn(ctx context.Context, coach *interview.Coach, answer string) {
	result, err := coach.SubmitAnswer(ctx, answer)
	if err != nil {
		var rejection *guard.Rejection
		if errors.As(err, &rejection) {
			fmt.Println(rejectionMessage(rejection))
			return
		}

		var providerErr *llm.ProviderError
		if errors.As(err, &providerErr) {
			fmt.Printf("Provider call failed: %v\nYour answer was not recorded; try again.\n", providerErr.Cause)
			return
		}

		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("\nInterviewer:")
	fmt.Println(result.Reply)
}

func rejectionMessage(rejection *guard.Rejection) (msg string) {
	switch rejection.Reason {
	case guard.ReasonTooLong:
		msg = "Answer too long. Please shorten it and try again."
	case guard.ReasonRateLimited:
		msg = "Request limit reached for this session."
	case guard.ReasonUnsafe:
		msg = "Input violates the safety policy."
	case guard.ReasonOffTopic:
		msg = "Input rejected. Please answer the interview question."
		if rejection.Detail != "" {
			msg += " (" + rejection.Detail + ")"
		}
	default:
		msg = rejection.Error()
	}
	return msg
}

// runSessionCommand handles slash commands. done is true when the session
// should end.
func runSessionCommand(ctx context.Context, coach *interview.Coach, line string) (done bool, err error) {
	switch line {
	case "/performance":
		performance := coach.Performance()
		if performance.Count == 0 {
			fmt.Println("No scored answers yet.")
			return done, err
		}
		fmt.Printf("Questions answered: %d, average score: %.2f\n", performance.Count, performance.Average)

	case "/usage":
		usage := coach.Usage()
		fmt.Printf("Prompt tokens: %d, completion tokens: %d, estimated cost: $%.6f\n",
			usage.PromptTokens, usage.CompletionTokens, usage.CostUSD)

	case "/reset":
		coach.ResetSession()
		fmt.Println("Session reset. Starting a new interview with the same strategy.")
		err = startSession(ctx, coach)

	case "/reset-all":
		coach.ResetFull()
		fmt.Println("Everything cleared. Run the command again with a job description to start over.")
		done = true

	case "/quit":
		performance := coach.Performance()
		usage := coach.Usage()
		fmt.Printf("Session ended. Questions: %d, average score: %.2f, cost: $%.6f\n",
			performance.Count, performance.Average, usage.CostUSD)
		done = true

	default:
		fmt.Println("Unknown command. Available: /performance /usage /reset /reset-all /quit")
	}

	return done, err
}
