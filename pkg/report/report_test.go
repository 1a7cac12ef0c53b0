package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	assert.Equal(t, "seventy-two", Words(72))
	assert.Equal(t, "seventy-two point five", Words(72.5))
	assert.Equal(t, "eight point zero five", Words(8.05))
	assert.Equal(t, "zero", Words(0))
}

func TestRender(t *testing.T) {
	score := 4.0
	l := &Letter{
		Institution:    "Kenya Institute of Special Education",
		Title:          "Teaching Practice Assessment Report",
		StudentName:    "Wanjiru Kamau",
		StudentIndex:   "TA123456789",
		Course:         "Diploma in Special Needs Education",
		AssessmentType: "DTP",
		Assessor:       "Otieno Peter",
		School:         "Thika Primary",
		AssessedAt:     "2026-03-02 10:15",
		Sections: []Section{{
			Number: 1, Name: "Preparation", Maximum: 10, Score: 4, Comments: "Well prepared",
			Aspects: []Aspect{{Name: "Lesson plan", Maximum: 5, Score: &score}, {Name: "Scheme of work", Maximum: 5}},
		}},
		Total:    4,
		Comments: "Keep it up",
	}

	out, err := Render(l)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "TA123456789_DTP.pdf", l.Filename())
}
