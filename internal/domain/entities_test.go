package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

func TestStepsForType(t *testing.T) {
	cases := []struct {
		in   domain.InterviewType
		want int
	}{
		{domain.InterviewTechnical, 10},
		{domain.InterviewBehavioral, 8},
		{domain.InterviewHR, 6},
		{domain.InterviewType("unknown"), 5},
		{domain.InterviewType(""), 5},
	}
	for _, c := range cases {
		got := domain.StepsForType(c.in)
		assert.Equal(t, c.want, got, "type %q", c.in)
		assert.GreaterOrEqual(t, got, domain.MinTotalSteps)
		assert.LessOrEqual(t, got, domain.MaxTotalSteps)
	}
}

func TestWeightedScore(t *testing.T) {
	cases := []struct {
		name string
		b    domain.ScoreBreakdown
		want int
	}{
		{"all zero", domain.ScoreBreakdown{}, 0},
		{"all hundred", domain.ScoreBreakdown{Completeness: 100, TechnicalAccuracy: 100, Depth: 100, Clarity: 100}, 100},
		{"all fifty", domain.ScoreBreakdown{Completeness: 50, TechnicalAccuracy: 50, Depth: 50, Clarity: 50}, 50},
		// 0.25*80 + 0.30*60 + 0.25*70 + 0.20*90 = 20 + 18 + 17.5 + 18 = 73.5 -> 74
		{"mixed rounds up", domain.ScoreBreakdown{Completeness: 80, TechnicalAccuracy: 60, Depth: 70, Clarity: 90}, 74},
		// 0.25*10 + 0.30*20 + 0.25*30 + 0.20*40 = 2.5 + 6 + 7.5 + 8 = 24
		{"mixed exact", domain.ScoreBreakdown{Completeness: 10, TechnicalAccuracy: 20, Depth: 30, Clarity: 40}, 24},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.b.WeightedScore())
		})
	}
}

func TestInterviewTypeValid(t *testing.T) {
	assert.True(t, domain.InterviewTechnical.Valid())
	assert.True(t, domain.InterviewBehavioral.Valid())
	assert.True(t, domain.InterviewHR.Valid())
	assert.False(t, domain.InterviewType("coding").Valid())
	assert.True(t, domain.LevelFresh.Valid())
	assert.False(t, domain.ExperienceLevel("principal").Valid())
}

func TestSessionClone_IsDeep(t *testing.T) {
	orig := domain.Session{
		ID:      "s1",
		Config:  domain.InterviewConfig{Skills: []string{"Go"}},
		History: []domain.HistoryEntry{{Question: "q1", Answer: "a1"}},
		Report:  &domain.FinalReport{Strengths: []string{"x"}},
	}
	cp := orig.Clone()
	cp.History[0].Answer = "mutated"
	cp.Config.Skills[0] = "Rust"
	cp.Report.Strengths[0] = "mutated"

	require.Equal(t, "a1", orig.History[0].Answer)
	assert.Equal(t, "Go", orig.Config.Skills[0])
	assert.Equal(t, "x", orig.Report.Strengths[0])
}

func TestOutcome(t *testing.T) {
	assert.False(t, domain.OK().Degraded)
	d := domain.Degraded("llm unavailable")
	assert.True(t, d.Degraded)
	assert.Equal(t, "llm unavailable", d.Reason)
}
