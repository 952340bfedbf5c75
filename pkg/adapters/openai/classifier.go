package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/parley-ai/parley/pkg/domain"
)

const classifyPrompt = `You are an intent classifier for a flight assistant.
Classify the user's most recent message, using the conversation for context.

Intents: %s

Respond with a JSON object:
{"intent": "<one of the intents>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>", "language": "<ISO 639-1 code of the user's language>"}`

const extractPrompt = `You are an information extractor for a flight assistant.
From the conversation, extract values for these fields: %s.

Already known (do not re-extract unless the user corrected them): %s

Field conventions: dates as YYYY-MM-DD, round_trip as a boolean, passengers as a number.
Respond with a JSON object containing ONLY the fields you found. Omit fields the user has not mentioned. Do not guess.`

// classificationPayload mirrors the classifier JSON contract. Decoded weakly
// so a model answering "confidence": "0.9" still parses.
type classificationPayload struct {
	Intent     string  `mapstructure:"intent"`
	Confidence float64 `mapstructure:"confidence"`
	Reasoning  string  `mapstructure:"reasoning"`
	Language   string  `mapstructure:"language"`
}

// ClassifyIntent classifies the conversation context against the intent
// taxonomy.
func (c *Client) ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error) {
	names := make([]string, 0, len(domain.Intents()))
	for _, intent := range domain.Intents() {
		names = append(names, string(intent))
	}

	content, err := c.chat(ctx, []chatMessage{
		{Role: "system", Content: fmt.Sprintf(classifyPrompt, strings.Join(names, ", "))},
		{Role: "user", Content: contextText},
	}, true)
	if err != nil {
		return nil, err
	}

	payload, err := jsonPayload(content)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed classification JSON: %w", err)
	}

	var decoded classificationPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &decoded,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("malformed classification payload: %w", err)
	}

	result := &domain.Classification{
		Intent:     domain.Intent(decoded.Intent),
		Confidence: decoded.Confidence,
		Reasoning:  decoded.Reasoning,
		Language:   decoded.Language,
	}
	if !result.Intent.Known() {
		return nil, fmt.Errorf("classifier returned unknown intent %q", decoded.Intent)
	}
	if result.Language == "" {
		result.Language = "en"
	}
	return result, nil
}

// ExtractSlots extracts values for the missing fields from the conversation.
// Only the keys the model found come back; null and empty values are dropped
// so the caller's key-wise upsert never erases known slots.
func (c *Client) ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error) {
	known, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}

	content, err := c.chat(ctx, []chatMessage{
		{Role: "system", Content: fmt.Sprintf(extractPrompt, strings.Join(missing, ", "), string(known))},
		{Role: "user", Content: contextText},
	}, true)
	if err != nil {
		return nil, err
	}

	payload, err := jsonPayload(content)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed extraction JSON: %w", err)
	}

	extracted := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		extracted[k] = v
	}
	return extracted, nil
}

// Respond generates the free-form answer for a completed turn, steering the
// model with the classified intent and the collected booking details.
func (c *Client) Respond(ctx context.Context, state *domain.State) (string, error) {
	intent := domain.IntentGeneralInquiry
	if state.Intent != nil {
		intent = state.Intent.Intent
	}

	details, err := json.Marshal(state.Slots)
	if err != nil {
		return "", err
	}

	system := fmt.Sprintf(
		"You are a helpful flight assistant. The user's intent is %q. "+
			"Collected details: %s. Answer in the user's language, briefly and concretely.",
		intent, string(details))

	messages := []chatMessage{{Role: "system", Content: system}}
	for _, msg := range state.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	return c.chat(ctx, messages, false)
}
