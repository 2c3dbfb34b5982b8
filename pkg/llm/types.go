package llm

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage represents token usage information reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Completion is the normalized result of a chat completion call.
// Usage is nil when the provider does not report token counts; callers
// skip cost accounting for that call rather than failing it.
type Completion struct {
	Text  string
	Usage *Usage
}

// chatRequest represents the chat completions request format.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// chatResponse represents the chat completions response format.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// moderationRequest represents the moderation request format.
type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// moderationResponse represents the moderation response format.
type moderationResponse struct {
	ID      string `json:"id"`
	Results []struct {
		Flagged bool `json:"flagged"`
	} `json:"results"`
}
