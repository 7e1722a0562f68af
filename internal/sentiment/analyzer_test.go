package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzePositive(t *testing.T) {
	a := NewLexiconAnalyzer()

	res, err := a.Analyze(context.Background(), "Great feature, works perfectly and very easy to use!")
	require.NoError(t, err)
	require.Equal(t, LabelPositive, res.Label)
	require.Equal(t, "en", res.Language)
	require.Greater(t, res.Score, 0.5)
}

func TestAnalyzeNegative(t *testing.T) {
	a := NewLexiconAnalyzer()

	res, err := a.Analyze(context.Background(), "Terrible. The page is slow and the form is broken.")
	require.NoError(t, err)
	require.Equal(t, LabelNegative, res.Label)
}

func TestAnalyzeNoSignal(t *testing.T) {
	a := NewLexiconAnalyzer()

	_, err := a.Analyze(context.Background(), "the quick brown fox")
	require.ErrorIs(t, err, ErrNoSignal)

	_, err = a.Analyze(context.Background(), "")
	require.ErrorIs(t, err, ErrNoSignal)
}

func TestAnalyzeMixedLeansOnMajority(t *testing.T) {
	a := NewLexiconAnalyzer()

	res, err := a.Analyze(context.Background(), "good idea but slow, buggy and confusing")
	require.NoError(t, err)
	require.Equal(t, LabelNegative, res.Label)
	require.InDelta(t, 0.75, res.Score, 1e-9)
}
