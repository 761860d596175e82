package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

// CompleteJSON sends instruction as a single user message with the JSON
// object response format and returns the raw content.
func (c *Client) CompleteJSON(ctx context.Context, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", services.Wrap(services.ErrValidation, "openai", "complete", "instruction required", nil)
	}
	req := sdk.ChatCompletionRequest{
		Model: c.cfg.TextModel,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleUser, Content: instruction},
		},
		ResponseFormat: &sdk.ChatCompletionResponseFormat{Type: sdk.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    defaultTemperature,
	}
	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	observe("complete", c.cfg.TextModel, time.Since(started).Seconds(), err)
	if err != nil {
		return "", providerError("complete", err)
	}
	providerTokensTotal.WithLabelValues(c.cfg.TextModel, "prompt").Add(float64(resp.Usage.PromptTokens))
	providerTokensTotal.WithLabelValues(c.cfg.TextModel, "completion").Add(float64(resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrProvider, "openai", "complete", "response has no choices", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", services.Wrap(services.ErrProvider, "openai", "complete",
			fmt.Sprintf("empty content (finish_reason=%q)", resp.Choices[0].FinishReason), nil)
	}
	c.logger.Debug("chat completion received",
		logging.String("model", c.cfg.TextModel),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens),
		logging.Duration("elapsed", time.Since(started)),
	)
	return content, nil
}

// GenerateStrings asks for a JSON object and returns attribute as a list of
// strings.
func (c *Client) GenerateStrings(ctx context.Context, instruction, attribute string) ([]string, error) {
	content, err := c.CompleteJSON(ctx, instruction)
	if err != nil {
		return nil, err
	}
	var values []string
	if err := ExtractAttribute(content, attribute, &values); err != nil {
		return nil, services.Wrap(services.ErrProvider, "openai", "parse", attribute, err)
	}
	return values, nil
}

// GenerateString asks for a JSON object and returns attribute as a string.
func (c *Client) GenerateString(ctx context.Context, instruction, attribute string) (string, error) {
	content, err := c.CompleteJSON(ctx, instruction)
	if err != nil {
		return "", err
	}
	var value string
	if err := ExtractAttribute(content, attribute, &value); err != nil {
		return "", services.Wrap(services.ErrProvider, "openai", "parse", attribute, err)
	}
	return value, nil
}

// ExtractAttribute decodes content as a JSON object and unmarshals the named
// attribute into target. Code fences and leading prose are tolerated.
func ExtractAttribute(content, attribute string, target any) error {
	var object map[string]json.RawMessage
	if err := DecodeJSON(content, &object); err != nil {
		return err
	}
	raw, ok := object[attribute]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("response lacks attribute %q (payload snippet: %s)", attribute, snippet(content))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("attribute %q: %w", attribute, err)
	}
	return nil
}

// DecodeJSON unmarshals content, falling back to the first JSON object found
// after stripping a Markdown code fence.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	extracted := extractObject(stripCodeFence(trimmed))
	if extracted == "" || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (payload snippet: %s)", err, snippet(extracted))
	}
	return nil
}

func stripCodeFence(content string) string {
	body, ok := strings.CutPrefix(strings.TrimSpace(content), "```")
	if !ok {
		return content
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
