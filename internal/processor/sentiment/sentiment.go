// Package sentiment implements the sentiment_processor: a lexicon-based
// polarity scorer over the document's text. It needs no external backend,
// which makes it useful as a lightweight analysis branch in DAG pipelines.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
	"github.com/mysticBliss/doc-intelligence/internal/processor/ocr"
)

// Name is the registry name of this processor.
const Name = "sentiment_processor"

// Structured-output keys.
const (
	KeySentiment = "sentiment"
	KeyScore     = "score"
)

const defaultThreshold = 0.1

// Analyzer scores document text with the built-in opinion lexicon.
type Analyzer struct {
	log       *logger.Logger
	threshold float64
}

// New constructs the analyzer. threshold sets how far from zero the score
// must move before the text stops counting as neutral.
func New(params processor.Params, log *logger.Logger) (*Analyzer, error) {
	threshold := params.Float("threshold", defaultThreshold)
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in [0, 1), got %v", threshold)
	}
	return &Analyzer{log: log, threshold: threshold}, nil
}

// Name implements processor.Processor.
func (a *Analyzer) Name() string { return Name }

// Execute scores the text accumulated on the payload. The reported score is
// the polarity balance as an integer percentage in [-100, 100].
func (a *Analyzer) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	text := textFrom(pl)
	if text == "" {
		return payload.Result{}, fmt.Errorf("no text available for sentiment analysis; run OCR first or supply text content")
	}

	score := Score(text)
	label := a.label(score)
	percent := int(math.Round(score * 100))

	a.log.WithFields(map[string]any{"sentiment": label}).Info("sentiment.scored")

	return payload.Success(Name, fmt.Sprintf("document sentiment is %s (%+d)", label, percent), map[string]any{
		KeySentiment: label,
		KeyScore:     percent,
	}), nil
}

func (a *Analyzer) label(score float64) string {
	switch {
	case score > a.threshold:
		return "positive"
	case score < -a.threshold:
		return "negative"
	default:
		return "neutral"
	}
}

// Score computes the normalised polarity balance of text. A preceding
// negator flips the polarity of a lexicon hit.
func Score(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var positive, negative int
	negated := false
	for _, word := range words {
		if _, ok := negators[word]; ok {
			negated = true
			continue
		}

		_, pos := positiveWords[word]
		_, neg := negativeWords[word]
		switch {
		case pos && negated:
			negative++
		case pos:
			positive++
		case neg && negated:
			positive++
		case neg:
			negative++
		}
		negated = false
	}

	hits := positive + negative
	if hits == 0 {
		return 0
	}
	return float64(positive-negative) / float64(hits)
}

func textFrom(pl payload.Payload) string {
	for i := len(pl.Results) - 1; i >= 0; i-- {
		res := pl.Results[i]
		if res.Status != payload.StatusSuccess {
			continue
		}
		if text, ok := res.Structured[ocr.KeyText].(string); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	if len(pl.FileContent) > 0 && strings.HasPrefix(mimetype.Detect(pl.FileContent).String(), "text/") {
		return strings.TrimSpace(string(pl.FileContent))
	}
	return ""
}
