// Package ner integrates an LLM-backed named-entity recognizer as an
// external span source for the detection engine. It covers the entity
// classes the pattern detectors cannot: person names outside the
// dictionaries, organizations, and locations.
package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/veilware/veil/internal/detect"
	veilotel "github.com/veilware/veil/internal/otel"
)

var tracer = veilotel.Tracer("github.com/veilware/veil/internal/ner")

// DefaultModel is used when the caller does not pin one.
const DefaultModel = "gpt-4o-mini"

// recognizeTimeout bounds one NER call.
const recognizeTimeout = 30 * time.Second

const systemPrompt = `You are a named-entity recognizer for Polish and English text.
Extract every person name, organization name and location mentioned in the user's text.
Respond with a JSON array only, no prose. Each element: {"text": "<exact substring>", "category": "PERSON"|"ORG"|"LOCATION"}.
The "text" field must be copied verbatim from the input. Respond with [] if there are none.`

// Recognizer calls a chat-completion model and converts its entity list
// into byte-offset spans. It satisfies detect.ExternalRecognizer.
type Recognizer struct {
	client *openai.Client
	model  string
}

// New creates a recognizer using the given API key and model. An empty
// model selects DefaultModel.
func New(apiKey, model string) *Recognizer {
	if model == "" {
		model = DefaultModel
	}
	return &Recognizer{client: openai.NewClient(apiKey), model: model}
}

// NewWithBaseURL creates a recognizer pointed at a custom endpoint
// (e.g. an httptest server or a local inference gateway). baseURL is
// scheme+host without path; the client appends /v1.
func NewWithBaseURL(apiKey, model, baseURL string) *Recognizer {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"
	if model == "" {
		model = DefaultModel
	}
	return &Recognizer{client: openai.NewClientWithConfig(config), model: model}
}

type entity struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Recognize extracts entity spans from text. Entities the model invents
// (substrings not present in the input) are dropped; each reported
// entity is located at every occurrence so repeated mentions all
// resolve.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]detect.Span, error) {
	ctx, span := tracer.Start(ctx, "ner.recognize")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, recognizeTimeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ner api call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ner api call: no choices returned")
	}

	entities, err := parseEntities(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return locate(text, entities), nil
}

// parseEntities decodes the model's JSON array, tolerating a fenced
// code block around it.
func parseEntities(content string) ([]entity, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var entities []entity
	if err := json.Unmarshal([]byte(content), &entities); err != nil {
		return nil, fmt.Errorf("parsing ner response: %w", err)
	}
	return entities, nil
}

// locate turns entity texts into byte-offset spans over the input.
func locate(text string, entities []entity) []detect.Span {
	var spans []detect.Span
	for _, e := range entities {
		if e.Text == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(text[from:], e.Text)
			if idx < 0 {
				break
			}
			start := from + idx
			spans = append(spans, detect.Span{
				Start:    start,
				End:      start + len(e.Text),
				Category: e.Category,
				Text:     e.Text,
			})
			from = start + len(e.Text)
		}
		if from == 0 {
			log.Debug().Str("entity", e.Text).Msg("ner entity not found in input, dropped")
		}
	}
	return spans
}
