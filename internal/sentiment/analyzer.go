// Package sentiment scores submitted comments. The production deployment
// points Analyzer at an external model service; the bundled lexicon analyzer
// keeps the pipeline working without one.
package sentiment

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
)

// ErrNoSignal is returned when the analyzer cannot form an opinion on the
// text. Callers store a null sentiment in that case.
var ErrNoSignal = errors.New("sentiment: no signal in text")

// Result is one sentiment verdict. Score is the analyzer's confidence in the
// label, in (0, 1].
type Result struct {
	Language string
	Label    string
	Score    float64
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// LexiconAnalyzer labels text by counting polarity words. English only.
type LexiconAnalyzer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{
		positive: wordSet(
			"good", "great", "love", "loved", "excellent", "awesome", "nice",
			"easy", "helpful", "fast", "perfect", "amazing", "useful", "clear",
			"intuitive", "works", "convenient", "simple", "best", "like",
		),
		negative: wordSet(
			"bad", "terrible", "hate", "hated", "awful", "horrible", "slow",
			"broken", "confusing", "useless", "bug", "buggy", "crash",
			"crashes", "wrong", "worst", "annoying", "difficult", "hard",
			"fails", "error",
		),
	}
}

func (a *LexiconAnalyzer) Analyze(_ context.Context, text string) (Result, error) {
	var pos, neg int
	for _, w := range tokenize(text) {
		if _, ok := a.positive[w]; ok {
			pos++
		}
		if _, ok := a.negative[w]; ok {
			neg++
		}
	}

	if pos == 0 && neg == 0 {
		return Result{}, ErrNoSignal
	}

	label := LabelPositive
	hits := pos
	if neg > pos {
		label = LabelNegative
		hits = neg
	}
	return Result{
		Language: "en",
		Label:    label,
		Score:    float64(hits) / float64(pos+neg),
	}, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
