package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRecognizer struct {
	spans  []Span
	called bool
}

func (f *fixedRecognizer) Recognize(ctx context.Context, text string) ([]Span, error) {
	f.called = true
	return f.spans, nil
}

func TestDetectWithSpansRunsAttachedRecognizer(t *testing.T) {
	text := "Spotkanie z Adam Letni w Krakowie"
	rec := &fixedRecognizer{spans: []Span{
		{Start: 25, End: 33, Category: "GPE", Text: "Krakowie"},
	}}
	e, err := NewEngine(WithNames(false), WithExternalRecognizer(rec))
	require.NoError(t, err)

	caller := []Span{{Start: 12, End: 22, Category: "PERSON", Text: "Adam Letni"}}
	matches := e.DetectWithSpans(context.Background(), text, caller)

	assert.True(t, rec.called, "attached recognizer should run alongside caller spans")
	cats := categories(matches)
	assert.True(t, cats[CategoryPerson], "caller span should survive resolution")
	assert.True(t, cats[CategoryLocation], "recognizer span should survive resolution")
}

func TestDetectWithSpansNilListStillDetects(t *testing.T) {
	e, err := NewEngine(WithNames(false))
	require.NoError(t, err)

	matches := e.DetectWithSpans(context.Background(), "PESEL 44051401458", nil)
	require.Len(t, matches, 1)
	assert.Equal(t, CategoryPESEL, matches[0].Category)
}
