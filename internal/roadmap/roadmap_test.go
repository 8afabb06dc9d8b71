package roadmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guneshbari/mock-mentor/internal/domain"
	"github.com/Guneshbari/mock-mentor/internal/roadmap"
)

var allTypes = []domain.InterviewType{domain.InterviewTechnical, domain.InterviewBehavioral, domain.InterviewHR}
var allLevels = []domain.ExperienceLevel{domain.LevelFresh, domain.LevelMid, domain.LevelSenior}

func TestResolve_NonEmptyAndDeterministicForAllTriples(t *testing.T) {
	roles := append(roadmap.Roles(), "Something Unheard Of", "")
	for _, role := range roles {
		for _, typ := range allTypes {
			for _, lvl := range allLevels {
				first := roadmap.Resolve(role, lvl, typ)
				require.NotEmpty(t, first, "role=%q type=%q level=%q", role, typ, lvl)
				second := roadmap.Resolve(role, lvl, typ)
				assert.Equal(t, first, second)
			}
		}
	}
}

func TestResolve_FallbackChain(t *testing.T) {
	// Unknown role falls back to the default role's tables.
	unknown := roadmap.Resolve("Quantum Basket Weaver", domain.LevelMid, domain.InterviewTechnical)
	def := roadmap.Resolve(roadmap.DefaultRole, domain.LevelMid, domain.InterviewTechnical)
	assert.Equal(t, def, unknown)

	// Unknown level falls back to mid.
	weird := roadmap.Resolve("Backend Developer", domain.ExperienceLevel("principal"), domain.InterviewTechnical)
	mid := roadmap.Resolve("Backend Developer", domain.LevelMid, domain.InterviewTechnical)
	assert.Equal(t, mid, weird)

	// Unknown type falls back to technical.
	pair := roadmap.Resolve("Backend Developer", domain.LevelSenior, domain.InterviewType("pairing"))
	tech := roadmap.Resolve("Backend Developer", domain.LevelSenior, domain.InterviewTechnical)
	assert.Equal(t, tech, pair)
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"Backend Developer":       "Backend Developer",
		"backend developer":       "Backend Developer",
		"Senior Backend Engineer": "Backend Developer",
		"Frontend Developer":      "Frontend Developer",
		"React Engineer":          "Frontend Developer",
		"Full Stack Developer":    "Full Stack Developer",
		"fullstack engineer":      "Full Stack Developer",
		"Site Reliability (SRE)":  "DevOps Engineer",
		"Data Analyst":            "Data Analyst",
		"Product Analytics Lead":  "Data Analyst",
		"Astronaut":               roadmap.DefaultRole,
		"":                        roadmap.DefaultRole,
	}
	for in, want := range cases {
		assert.Equal(t, want, roadmap.NormalizeRole(in), "input %q", in)
	}
}

func TestResolve_ReturnsCopy(t *testing.T) {
	a := roadmap.Resolve("Backend Developer", domain.LevelFresh, domain.InterviewTechnical)
	a[0] = "mutated"
	b := roadmap.Resolve("Backend Developer", domain.LevelFresh, domain.InterviewTechnical)
	assert.NotEqual(t, "mutated", b[0])
}

func TestTopicAt_FillerPastEnd(t *testing.T) {
	topics := []string{"a", "b"}
	assert.Equal(t, "a", roadmap.TopicAt(topics, 0))
	assert.Equal(t, "b", roadmap.TopicAt(topics, 1))
	assert.Equal(t, roadmap.FillerTopic, roadmap.TopicAt(topics, 2))
	assert.Equal(t, roadmap.FillerTopic, roadmap.TopicAt(topics, -1))
}

func TestTechnicalRoadmapsCoverTenSteps(t *testing.T) {
	// Technical interviews run 10 steps; authored technical tables should
	// cover them without filler.
	for _, role := range roadmap.Roles() {
		for _, lvl := range allLevels {
			topics := roadmap.Resolve(role, lvl, domain.InterviewTechnical)
			assert.GreaterOrEqual(t, len(topics), 10, "role=%q level=%q", role, lvl)
		}
	}
}
