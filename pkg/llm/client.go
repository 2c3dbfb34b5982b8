package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// ChatEndpoint is the OpenAI chat completions endpoint.
	ChatEndpoint = "https://api.openai.com/v1/chat/completions"
	// ModerationEndpoint is the OpenAI moderation endpoint.
	ModerationEndpoint = "https://api.openai.com/v1/moderations"
	// DefaultModel is the chat model to use when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultModerationModel is the moderation model to use when none is configured.
	DefaultModerationModel = "omni-moderation-latest"
)

// Client is an OpenAI-style API client covering chat completion and
// content moderation. It is the only component that talks to the provider.
type Client struct {
	apiKey             string
	model              string
	moderationModel    string
	httpClient         *http.Client
	chatEndpoint       string
	moderationEndpoint string
}

// NewClient creates a new provider client.
func NewClient(apiKey, model, moderationModel string) (client *Client) {
	if model == "" {
		model = DefaultModel
	}
	if moderationModel == "" {
		moderationModel = DefaultModerationModel
	}
	client = &Client{
		apiKey:             apiKey,
		model:              model,
		moderationModel:    moderationModel,
		chatEndpoint:       ChatEndpoint,
		moderationEndpoint: ModerationEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// ChatComplete sends the message sequence to the chat completions endpoint
// and returns the normalized completion. All failures are reported as
// *ProviderError; no partial result is ever returned.
func (c *Client) ChatComplete(ctx context.Context, messages []Message, temperature float64) (completion Completion, err error) {
	chatReq := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}

	var respBody []byte
	respBody, err = c.post(ctx, c.chatEndpoint, chatReq)
	if err != nil {
		err = &ProviderError{Cause: err}
		return completion, err
	}

	var chatResp chatResponse
	err = json.Unmarshal(respBody, &chatResp)
	if err != nil {
		err = &ProviderError{Cause: errors.Wrap(err, "failed to parse chat response")}
		return completion, err
	}

	if len(chatResp.Choices) == 0 {
		err = &ProviderError{Cause: errors.New("no choices in chat response")}
		return completion, err
	}

	completion = Completion{
		Text:  chatResp.Choices[0].Message.Content,
		Usage: chatResp.Usage,
	}

	return completion, err
}

// Moderate classifies text against the provider's safety policy.
// Returns true when the text is flagged as unsafe.
func (c *Client) Moderate(ctx context.Context, text string) (flagged bool, err error) {
	modReq := moderationRequest{
		Model: c.moderationModel,
		Input: text,
	}

	var respBody []byte
	respBody, err = c.post(ctx, c.moderationEndpoint, modReq)
	if err != nil {
		err = &ProviderError{Cause: err}
		return flagged, err
	}

	var modResp moderationResponse
	err = json.Unmarshal(respBody, &modResp)
	if err != nil {
		err = &ProviderError{Cause: errors.Wrap(err, "failed to parse moderation response")}
		return flagged, err
	}

	if len(modResp.Results) == 0 {
		err = &ProviderError{Cause: errors.New("no results in moderation response")}
		return flagged, err
	}

	flagged = modResp.Results[0].Flagged

	return flagged, err
}

// post marshals payload, sends it to endpoint, and returns the response body.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (respBody []byte, err error) {
	var reqBody []byte
	reqBody, err = json.Marshal(payload)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return respBody, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return respBody, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return respBody, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return respBody, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return respBody, err
	}

	return respBody, err
}
