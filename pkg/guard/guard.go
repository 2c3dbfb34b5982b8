// Package guard validates candidate free text before it is accepted into
// the interview transcript. Checks run in a fixed order, cheapest first:
// local checks (length, rate) never touch the provider, so a rejected
// oversized input costs nothing; the billable checks (moderation, intent
// classification) run only after the local checks pass.
package guard

import (
	"context"
	"unicode/utf8"

	"github.com/hireloop/interview-coach/pkg/llm"
	"github.com/hireloop/interview-coach/pkg/prompts"
)

// Reason identifies why a guard rejected an input.
type Reason string

// Rejection reasons.
const (
	ReasonTooLong               Reason = "too_long"
	ReasonRateLimited           Reason = "rate_limited"
	ReasonUnsafe                Reason = "unsafe"
	ReasonOffTopic              Reason = "off_topic"
	ReasonInvalidJobDescription Reason = "invalid_job_description"
)

// Rejection reports a guard failure. It is recoverable: the session stays
// in its current state and the rejected text is never appended to the
// transcript. Detail carries the model-supplied reason when one exists.
type Rejection struct {
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (r *Rejection) Error() (msg string) {
	msg = "input rejected: " + string(r.Reason)
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return msg
}

// Gateway is the provider surface the pipeline needs.
type Gateway interface {
	ChatComplete(ctx context.Context, messages []llm.Message, temperature float64) (llm.Completion, error)
	Moderate(ctx context.Context, text string) (bool, error)
}

// Intent classification runs at zero temperature so the verdict contract
// stays deterministic.
const guardTemperature = 0.0

// Pipeline runs the ordered guard checks for one session's inputs.
type Pipeline struct {
	gateway        Gateway
	maxInputLength int
	maxRequests    int
}

// NewPipeline creates a guard pipeline with the given limits.
func NewPipeline(gateway Gateway, maxInputLength, maxRequests int) (pipeline *Pipeline) {
	pipeline = &Pipeline{
		gateway:        gateway,
		maxInputLength: maxInputLength,
		maxRequests:    maxRequests,
	}
	return pipeline
}

// CheckAnswer validates a candidate's answer. requestCount is the number of
// turns the session has already consumed.
//
// The returned usage covers billable guard calls and is non-nil even when
// the billable check itself rejects: the provider charged for the call, so
// the caller must still account for it. A nil error means the text may be
// appended to the transcript.
func (p *Pipeline) CheckAnswer(ctx context.Context, text string, requestCount int) (usage *llm.Usage, err error) {
	if utf8.RuneCountInString(text) > p.maxInputLength {
		err = &Rejection{Reason: ReasonTooLong}
		return usage, err
	}

	if requestCount >= p.maxRequests {
		err = &Rejection{Reason: ReasonRateLimited}
		return usage, err
	}

	var flagged bool
	flagged, err = p.gateway.Moderate(ctx, text)
	if err != nil {
		return usage, err
	}
	if flagged {
		err = &Rejection{Reason: ReasonUnsafe}
		return usage, err
	}

	var completion llm.Completion
	completion, err = p.gateway.ChatComplete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.InputGuardDirective},
		{Role: llm.RoleUser, Content: text},
	}, guardTemperature)
	if err != nil {
		return usage, err
	}
	usage = completion.Usage

	verdict := ParseVerdict(completion.Text)
	if !verdict.Valid {
		err = &Rejection{Reason: ReasonOffTopic, Detail: verdict.Reason}
		return usage, err
	}

	return usage, err
}

// ScreenReply applies output moderation to an assistant reply. A flagged
// reply is replaced with the fixed safe fallback; the original text is
// discarded, never stored.
func (p *Pipeline) ScreenReply(ctx context.Context, text string) (safe string, substituted bool, err error) {
	var flagged bool
	flagged, err = p.gateway.Moderate(ctx, text)
	if err != nil {
		return safe, substituted, err
	}

	if flagged {
		safe = prompts.SafeFallback
		substituted = true
		return safe, substituted, err
	}

	safe = text
	return safe, substituted, err
}
