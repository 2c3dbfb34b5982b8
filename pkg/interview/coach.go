package interview

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/hireloop/interview-coach/pkg/guard"
	"github.com/hireloop/interview-coach/pkg/llm"
	"github.com/hireloop/interview-coach/pkg/prompts"
)

// Sampling temperatures per call kind. Analysis stays conservative, the
// interview itself is allowed to vary.
const (
	analysisTemperature  = 0.3
	interviewTemperature = 0.7
)

// Lifecycle misuse errors. These indicate a caller driving the state
// machine out of order, not a recoverable guard or provider condition.
var (
	ErrNotAnalyzed   = errors.New("no job description has been analyzed")
	ErrNotStarted    = errors.New("interview has not started")
	ErrAlreadyActive = errors.New("interview is already in progress")
)

// Gateway is the provider surface the coach depends on. *llm.Client
// satisfies it; tests substitute a fake.
type Gateway interface {
	ChatComplete(ctx context.Context, messages []llm.Message, temperature float64) (llm.Completion, error)
	Moderate(ctx context.Context, text string) (bool, error)
}

// TurnResult is the outcome of one accepted interview turn.
type TurnResult struct {
	Reply  string
	Score  int
	Scored bool
}

// Performance summarizes scored turns.
type Performance struct {
	Count   int
	Average float64
}

// Coach owns one session and drives its state machine. Each operation is a
// single synchronous pass: guards first, provider calls after, state
// mutation only once every call in the pass has succeeded.
type Coach struct {
	gateway Gateway
	guard   *guard.Pipeline
	pricing Pricing
	presets prompts.Presets
	session *Session
	logger  *slog.Logger
}

// NewCoach creates a coach with a fresh session.
func NewCoach(gateway Gateway, pipeline *guard.Pipeline, pricing Pricing, presets prompts.Presets) (coach *Coach) {
	coach = &Coach{
		gateway: gateway,
		guard:   pipeline,
		pricing: pricing,
		presets: presets,
		session: NewSession(),
		logger:  slog.Default(),
	}
	return coach
}

// Session returns the coach's session for inspection. Callers must not
// mutate it directly.
func (c *Coach) Session() (session *Session) {
	session = c.session
	return session
}

// AnalyzeJobDescription runs the analysis directive over the job text and
// stores the resulting interview strategy. Input that the model classifies
// as not a job description yields a guard.Rejection and leaves the session
// where it was. Re-analysis is allowed any time before the interview starts.
func (c *Coach) AnalyzeJobDescription(ctx context.Context, jobText string) (strategy string, err error) {
	if c.session.Phase == PhaseInProgress {
		err = ErrAlreadyActive
		return strategy, err
	}

	var completion llm.Completion
	completion, err = c.gateway.ChatComplete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.JDAnalysisDirective},
		{Role: llm.RoleUser, Content: jobText},
	}, analysisTemperature)
	if err != nil {
		return strategy, err
	}

	// The analysis call is billable whether or not the input turns out to
	// be a real job description.
	c.session.AddUsage(completion.Usage, c.pricing)

	content := strings.TrimSpace(completion.Text)
	if strings.HasPrefix(content, prompts.InvalidJobDescriptionToken) {
		err = &guard.Rejection{Reason: guard.ReasonInvalidJobDescription}
		return strategy, err
	}

	c.session.Strategy = content
	c.session.Phase = PhaseAnalyzed
	strategy = content

	c.logger.Debug("job description analyzed", "session", c.session.ID, "strategy_length", len(strategy))

	return strategy, err
}

// Configure selects difficulty and persona. Both are frozen once the
// interview starts.
func (c *Coach) Configure(difficulty prompts.Difficulty, persona prompts.Persona) (err error) {
	switch c.session.Phase {
	case PhaseAnalyzed, PhaseConfiguring:
	case PhaseInProgress:
		err = ErrAlreadyActive
		return err
	default:
		err = ErrNotAnalyzed
		return err
	}

	if !c.presets.ValidDifficulty(difficulty) {
		err = errors.Errorf("unknown difficulty: %s", difficulty)
		return err
	}
	if !c.presets.ValidPersona(persona) {
		err = errors.Errorf("unknown persona: %s", persona)
		return err
	}

	c.session.Difficulty = difficulty
	c.session.Persona = persona
	c.session.Phase = PhaseConfiguring

	return err
}

// Start builds the interviewer directive, seeds the transcript with it, and
// obtains the opening question. Permitted exactly once per session: calling
// it again while the interview is in progress is a no-op that returns the
// opening question already recorded.
func (c *Coach) Start(ctx context.Context) (firstQuestion string, err error) {
	if c.session.Phase == PhaseInProgress {
		firstQuestion = c.session.Transcript[1].Content
		return firstQuestion, err
	}

	if c.session.Phase != PhaseAnalyzed && c.session.Phase != PhaseConfiguring {
		err = ErrNotAnalyzed
		return firstQuestion, err
	}

	directive := prompts.BuildInterviewerDirective(
		c.session.Strategy, c.session.Difficulty, c.session.Persona, c.presets)

	seed := []llm.Message{{Role: llm.RoleSystem, Content: directive}}

	var completion llm.Completion
	completion, err = c.gateway.ChatComplete(ctx, seed, interviewTemperature)
	if err != nil {
		return firstQuestion, err
	}

	c.session.AddUsage(completion.Usage, c.pricing)

	var substituted bool
	firstQuestion, substituted, err = c.guard.ScreenReply(ctx, completion.Text)
	if err != nil {
		return firstQuestion, err
	}
	if substituted {
		c.logger.Warn("opening question failed output moderation, substituted", "session", c.session.ID)
	}

	c.session.Transcript = append(seed, llm.Message{Role: llm.RoleAssistant, Content: firstQuestion})
	c.session.Phase = PhaseInProgress

	return firstQuestion, err
}

// SubmitAnswer runs one interview turn: the guard pipeline over the answer,
// the interviewer call over the full transcript, output moderation of the
// reply, score extraction, and cost accounting. Guard rejections and
// provider errors leave the transcript untouched; the request counter is
// consumed once the billable guard stage is reached, whatever the outcome.
func (c *Coach) SubmitAnswer(ctx context.Context, text string) (result TurnResult, err error) {
	if c.session.Phase != PhaseInProgress {
		err = ErrNotStarted
		return result, err
	}

	guardUsage, guardErr := c.guard.CheckAnswer(ctx, text, c.session.RequestCount)

	// Local rejections (length, rate) cost nothing and consume nothing,
	// and a provider failure mid-guard leaves the session untouched so the
	// turn can be retried. Once a billable check has rendered a verdict,
	// the slot and the tokens are spent even if the answer was rejected.
	if guardErr == nil || isBillableRejection(guardErr) {
		c.session.RequestCount++
		c.session.AddUsage(guardUsage, c.pricing)
	}

	if guardErr != nil {
		err = guardErr
		return result, err
	}

	candidate := append(c.session.cloneTranscript(), llm.Message{Role: llm.RoleUser, Content: text})

	var completion llm.Completion
	completion, err = c.gateway.ChatComplete(ctx, candidate, interviewTemperature)
	if err != nil {
		return result, err
	}

	c.session.AddUsage(completion.Usage, c.pricing)

	var reply string
	var substituted bool
	reply, substituted, err = c.guard.ScreenReply(ctx, completion.Text)
	if err != nil {
		return result, err
	}
	if substituted {
		c.logger.Warn("assistant reply failed output moderation, substituted", "session", c.session.ID)
	}

	c.session.Transcript = append(candidate, llm.Message{Role: llm.RoleAssistant, Content: reply})

	// Extraction runs on the appended text. A substituted fallback never
	// carries a marker, so a moderated turn goes unscored.
	result.Reply = reply
	result.Score, result.Scored = ExtractScore(reply)
	if result.Scored {
		c.session.Scores = append(c.session.Scores, result.Score)
	}

	return result, err
}

// Performance reports how many turns were scored and their average.
func (c *Coach) Performance() (performance Performance) {
	performance.Count = len(c.session.Scores)
	if performance.Count == 0 {
		return performance
	}

	total := 0
	for _, score := range c.session.Scores {
		total += score
	}
	performance.Average = float64(total) / float64(performance.Count)

	return performance
}

// Usage reports the session's accumulated token counts and cost.
func (c *Coach) Usage() (usage Usage) {
	usage = c.session.Usage
	return usage
}

// ResetFull clears the entire session, analysis included, returning the
// phase to NotAnalyzed. The session keeps its identity.
func (c *Coach) ResetFull() {
	c.session.resetTurnState()
	c.session.Strategy = ""
	c.session.Difficulty = prompts.DifficultyMedium
	c.session.Persona = prompts.PersonaNeutral
	c.session.Phase = PhaseNotAnalyzed
}

// ResetSession clears turn-scoped state but preserves the analyzed
// strategy, returning the phase to Analyzed so a new interview can start
// against the same job description.
func (c *Coach) ResetSession() {
	c.session.resetTurnState()

	if c.session.Strategy == "" {
		c.session.Phase = PhaseNotAnalyzed
		return
	}
	c.session.Phase = PhaseAnalyzed
}

// cloneTranscript copies the transcript so a failed call cannot leave a
// partially appended message sequence behind.
func (s *Session) cloneTranscript() (messages []llm.Message) {
	messages = make([]llm.Message, len(s.Transcript), len(s.Transcript)+2)
	copy(messages, s.Transcript)
	return messages
}

// isBillableRejection reports whether err is a guard rejection rendered by
// a billable check (moderation or intent classification).
func isBillableRejection(err error) (billable bool) {
	var rejection *guard.Rejection
	if !errors.As(err, &rejection) {
		return billable
	}

	billable = rejection.Reason == guard.ReasonUnsafe || rejection.Reason == guard.ReasonOffTopic
	return billable
}
