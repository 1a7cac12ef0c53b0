package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBucketAverage(t *testing.T) {
	tests := []struct {
		name   string
		scores []ModuleScore
		want   float64
	}{
		{"empty bucket", nil, 0},
		{"single module", []ModuleScore{{Discussion: f(10), TakeAway: f(20)}}, 15},
		{"two modules", []ModuleScore{
			{Discussion: f(10), TakeAway: f(20)},
			{Discussion: f(30), TakeAway: f(40)},
		}, 25},
		{"missing take away counts as zero", []ModuleScore{{Discussion: f(18)}}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BucketAverage(tt.scores), 1e-9)
		})
	}
}

func TestCatResult(t *testing.T) {
	scores := []ModuleScore{
		{Discussion: f(12), TakeAway: f(14)},
		{Discussion: f(16), TakeAway: f(11)},
	}

	// (13 + 13.5) / 2 = 13.25
	assert.Equal(t, 13.25, CatResult(scores, nil))
	assert.Equal(t, 43.25, CatResult(scores, f(30)))
	assert.Equal(t, 20.0, CatResult(nil, f(20)))
}

func TestValidateAspectScore(t *testing.T) {
	require.NoError(t, ValidateAspectScore("Lesson plan", 0, 5))
	require.NoError(t, ValidateAspectScore("Lesson plan", 5, 5))

	err := ValidateAspectScore("Lesson plan", 6, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScoreAboveLimit))
	assert.Equal(t, "'Lesson plan' score of '6' exceeds the maximum (5)", err.Error())

	err = ValidateAspectScore("Lesson plan", -1, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeScore))
	assert.Equal(t, "'Lesson plan' score of '-1' cannot be negative", err.Error())

	var scoreErr *AspectScoreError
	assert.True(t, errors.As(err, &scoreErr))
	assert.Equal(t, "Lesson plan", scoreErr.Aspect)
}

func TestSectionScore(t *testing.T) {
	assert.Equal(t, 7.5, SectionScore([]*float64{f(3), nil, f(4.5)}))
	assert.Equal(t, 0.0, SectionScore(nil))
}

func TestLetterTotal(t *testing.T) {
	sections := []float64{20, 30.5, 25}

	total, err := LetterTotal(sections, FormulaFor("DTP", ""))
	require.NoError(t, err)
	assert.Equal(t, 75.5, total)

	// 46 of 92 is half marks
	total, err = LetterTotal([]float64{40, 6}, FormulaFor(CFAShortName, ""))
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)

	total, err = LetterTotal([]float64{10}, FormulaFor(CFAShortName, "score * 2"))
	require.NoError(t, err)
	assert.Equal(t, 20.0, total)

	_, err = LetterTotal([]float64{10}, "score +")
	assert.Error(t, err)
}

func TestValidateFormula(t *testing.T) {
	assert.NoError(t, ValidateFormula(""))
	assert.NoError(t, ValidateFormula("(score / 92) * 100"))
	assert.Error(t, ValidateFormula("score / max"))
	assert.Error(t, ValidateFormula("(("))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(200.0/3))
	assert.Equal(t, 1.01, Round2(1.005000001))
}
