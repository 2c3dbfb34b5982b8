// Package interview implements the interview orchestration state machine:
// job-description analysis, session lifecycle, the per-turn guard pipeline,
// score extraction, and token-cost accounting.
package interview

import (
	"github.com/google/uuid"

	"github.com/hireloop/interview-coach/pkg/llm"
	"github.com/hireloop/interview-coach/pkg/prompts"
)

// Phase is the lifecycle state of an interview session. Transitions move
// forward monotonically; only the reset operations go back.
type Phase string

// Session phases.
const (
	PhaseNotAnalyzed Phase = "not_analyzed"
	PhaseAnalyzed    Phase = "analyzed"
	PhaseConfiguring Phase = "configuring"
	PhaseInProgress  Phase = "in_progress"
	PhaseCompleted   Phase = "completed"
)

// Usage accumulates token counts and the derived cost for a session.
// CostUSD is always recomputed from the closed form over the totals, so it
// cannot drift from the token counters.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// Pricing holds per-million-token prices in USD. Prices vary per provider
// and model, so they are configuration, not business logic.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing returns the prices for the default chat model.
func DefaultPricing() (pricing Pricing) {
	pricing = Pricing{
		InputPerMillion:  0.05,
		OutputPerMillion: 0.40,
	}
	return pricing
}

// Session holds all mutable state for one interview run. It is an explicit
// value owned by its caller: one session, one owner, no shared mutation.
// All writes go through the Coach's transition methods.
type Session struct {
	ID           string
	Phase        Phase
	Transcript   []llm.Message
	Strategy     string
	Difficulty   prompts.Difficulty
	Persona      prompts.Persona
	Scores       []int
	Usage        Usage
	RequestCount int
}

// NewSession creates a session with defaulted configuration knobs.
func NewSession() (session *Session) {
	session = &Session{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Phase:      PhaseNotAnalyzed,
		Difficulty: prompts.DifficultyMedium,
		Persona:    prompts.PersonaNeutral,
	}
	return session
}

// AddUsage accumulates a call's token counts and recomputes the derived
// cost. A nil usage means the provider did not report counts for the call;
// accounting is skipped without failing.
func (s *Session) AddUsage(usage *llm.Usage, pricing Pricing) {
	if usage == nil {
		return
	}

	s.Usage.PromptTokens += usage.PromptTokens
	s.Usage.CompletionTokens += usage.CompletionTokens
	s.Usage.CostUSD = float64(s.Usage.PromptTokens)/1e6*pricing.InputPerMillion +
		float64(s.Usage.CompletionTokens)/1e6*pricing.OutputPerMillion
}

// VisibleTranscript returns the transcript without the system directive.
// The directive at index 0 is never shown to the candidate and is never
// guard-pipeline input.
func (s *Session) VisibleTranscript() (messages []llm.Message) {
	if len(s.Transcript) == 0 {
		return messages
	}

	messages = make([]llm.Message, len(s.Transcript)-1)
	copy(messages, s.Transcript[1:])

	return messages
}

// resetTurnState clears everything scoped to interview turns: transcript,
// scores, usage, and the request counter.
func (s *Session) resetTurnState() {
	s.Transcript = nil
	s.Scores = nil
	s.Usage = Usage{}
	s.RequestCount = 0
}
