// Package scoring holds the arithmetic behind results and teaching practice
// letters. Nothing here touches the database.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Knetic/govaluate"
)

// CFAShortName is the assessment type whose totals are rescaled to 100
const CFAShortName = "CFA"

// CFAMaximum is the raw maximum of the CFA rubric
const CFAMaximum = 92

// cfaFormula rescales a raw CFA sum to a 100 point scale
var cfaFormula = fmt.Sprintf("(score / %d) * 100", CFAMaximum)

var (
	ErrNegativeScore   = errors.New("score cannot be negative")
	ErrScoreAboveLimit = errors.New("score exceeds the maximum")
)

// ModuleScore is one student's discussion and take-away marks for a module.
// Unset marks count as zero.
type ModuleScore struct {
	Discussion *float64
	TakeAway   *float64
}

// Mean is (discussion + take_away) / 2
func (m ModuleScore) Mean() float64 {
	return (deref(m.Discussion) + deref(m.TakeAway)) / 2
}

// BucketAverage averages Mean over the student's scores in one CAT bucket.
// No scores gives 0.
func BucketAverage(scores []ModuleScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Mean()
	}
	return sum / float64(len(scores))
}

// CatResult is the bucket average plus the sit-in CAT mark (0 when absent),
// rounded to two decimals.
func CatResult(scores []ModuleScore, sitin *float64) float64 {
	return Round2(BucketAverage(scores) + deref(sitin))
}

// ── teaching practice ──

// AspectScoreError explains why an aspect score was rejected
type AspectScoreError struct {
	Aspect       string
	Score        float64
	Contribution float64
	Err          error
}

func (e *AspectScoreError) Error() string {
	if errors.Is(e.Err, ErrNegativeScore) {
		return fmt.Sprintf("'%s' score of '%s' cannot be negative", e.Aspect, formatScore(e.Score))
	}
	return fmt.Sprintf("'%s' score of '%s' exceeds the maximum (%s)", e.Aspect, formatScore(e.Score), formatScore(e.Contribution))
}

func (e *AspectScoreError) Unwrap() error { return e.Err }

// ValidateAspectScore checks 0 <= score <= contribution
func ValidateAspectScore(aspect string, score, contribution float64) error {
	switch {
	case score < 0:
		return &AspectScoreError{Aspect: aspect, Score: score, Contribution: contribution, Err: ErrNegativeScore}
	case score > contribution:
		return &AspectScoreError{Aspect: aspect, Score: score, Contribution: contribution, Err: ErrScoreAboveLimit}
	}
	return nil
}

// SectionScore sums the aspect scores of one section; unset scores count as zero
func SectionScore(aspectScores []*float64) float64 {
	var sum float64
	for _, s := range aspectScores {
		sum += deref(s)
	}
	return sum
}

// FormulaFor returns the total formula for an assessment type. A custom
// formula wins; CFA falls back to the 100 point rescale; everything else
// is the plain sum.
func FormulaFor(shortName, custom string) string {
	if custom != "" {
		return custom
	}
	if shortName == CFAShortName {
		return cfaFormula
	}
	return ""
}

// LetterTotal sums the section scores and applies formula, which sees the
// sum as the parameter "score".
func LetterTotal(sectionScores []float64, formula string) (float64, error) {
	var sum float64
	for _, s := range sectionScores {
		sum += s
	}
	if formula == "" {
		return Round2(sum), nil
	}

	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return 0, fmt.Errorf("invalid total formula %q: %w", formula, err)
	}
	out, err := expr.Evaluate(map[string]interface{}{"score": sum})
	if err != nil {
		return 0, fmt.Errorf("evaluate total formula %q: %w", formula, err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("total formula %q returned %T, want a number", formula, out)
	}
	return Round2(v), nil
}

// ValidateFormula checks that formula parses and only references "score"
func ValidateFormula(formula string) error {
	if formula == "" {
		return nil
	}
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return err
	}
	for _, v := range expr.Vars() {
		if v != "score" {
			return fmt.Errorf("unknown variable %q, only \"score\" is available", v)
		}
	}
	return nil
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
