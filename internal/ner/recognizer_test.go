package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilware/veil/internal/detect"
)

func newTestRecognizer(t *testing.T, handler http.HandlerFunc) *Recognizer {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewWithBaseURL("test-api-key", "", ts.URL)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:    "chatcmpl-test",
		Model: DefaultModel,
		Choices: []openai.ChatCompletionChoice{
			{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: openai.FinishReasonStop,
			},
		},
	}
}

func TestRecognizeSuccess(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "Spotkanie z Adam Letni w Krakowie", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(
			`[{"text": "Adam Letni", "category": "PERSON"}, {"text": "Krakowie", "category": "LOCATION"}]`))
	})

	spans, err := rec.Recognize(context.Background(), "Spotkanie z Adam Letni w Krakowie")
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, detect.Span{Start: 12, End: 22, Category: "PERSON", Text: "Adam Letni"}, spans[0])
	assert.Equal(t, detect.Span{Start: 25, End: 33, Category: "LOCATION", Text: "Krakowie"}, spans[1])
}

func TestRecognizeFencedResponse(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(
			"```json\n[{\"text\": \"Acme Sp. z o.o.\", \"category\": \"ORG\"}]\n```"))
	})

	spans, err := rec.Recognize(context.Background(), "faktura od Acme Sp. z o.o. za maj")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "ORG", spans[0].Category)
	assert.Equal(t, 11, spans[0].Start)
}

func TestRecognizeRepeatedMentions(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(`[{"text": "Anna", "category": "PERSON"}]`))
	})

	spans, err := rec.Recognize(context.Background(), "Anna pisze, Anna czyta")
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 12, spans[1].Start)
}

func TestRecognizeDropsInventedEntities(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(
			`[{"text": "Nie Istnieje", "category": "PERSON"}, {"text": "", "category": "ORG"}]`))
	})

	spans, err := rec.Recognize(context.Background(), "tekst bez tych fraz")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestRecognizeEmptyEntityList(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("[]"))
	})

	spans, err := rec.Recognize(context.Background(), "nic ciekawego")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestRecognizeMalformedResponse(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("I found one person: Adam."))
	})

	_, err := rec.Recognize(context.Background(), "Adam wyszedł")
	assert.Error(t, err)
}

func TestRecognizeServerError(t *testing.T) {
	rec := newTestRecognizer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := rec.Recognize(context.Background(), "cokolwiek")
	assert.Error(t, err)
}

func TestRecognizerSatisfiesExternalRecognizer(t *testing.T) {
	var _ detect.ExternalRecognizer = (*Recognizer)(nil)
}
